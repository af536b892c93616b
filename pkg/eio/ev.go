package eio

import (
	"fmt"
	"math"
)

type rational [2]int64

func (r rational) Float() float64 {
	if r[1] == 0 {
		return 0
	}
	return float64(r[0]) / float64(r[1])
}

// An ExposureValue details how a photograph was exposed, as read from its
// EXIF data. We only use it to put the layers of a bracketed stack in order,
// so unlike a light meter we don't round anything off to whole stops.
type ExposureValue struct {
	ISO          int64    // 100, 800, etc.
	ApertureX10  int64    // f/5.6 is the integer 56.
	ShutterSpeed rational // 1/500, 1/1000, etc.
}

func (ev ExposureValue) IsZero() bool { return ev == ExposureValue{} }

func (ev ExposureValue) String() string {
	if ev.IsZero() {
		return "(no exposure info)"
	}
	s := fmt.Sprintf("f/%.1f", float64(ev.ApertureX10)/10.0)
	if ev.ShutterSpeed[1] != 1 {
		s += fmt.Sprintf(", %d/%d", ev.ShutterSpeed[0], ev.ShutterSpeed[1])
	} else {
		s += fmt.Sprintf(", %d", ev.ShutterSpeed[0])
	}
	return s + fmt.Sprintf(", ISO%d, EV100 %.1f", ev.ISO, ev.EV100())
}

// EV100 is the exposure value normalized to ISO 100:
// https://en.wikipedia.org/wiki/Exposure_value. Bigger numbers need more
// light to fully expose, so render the same scene darker.
func (ev ExposureValue) EV100() float64 {
	n := float64(ev.ApertureX10) / 10.0
	t := ev.ShutterSpeed.Float()
	if n <= 0 || t <= 0 {
		return 0
	}
	iso := float64(ev.ISO)
	if iso <= 0 {
		iso = 100
	}
	return math.Log2(n*n/t) - math.Log2(iso/100)
}

// Brightness is proportional to how much the sensor saw for a given scene
// luminance; it is 2^-EV100.
func (ev ExposureValue) Brightness() float64 {
	if ev.IsZero() {
		return 0
	}
	return math.Exp2(-ev.EV100())
}

// The denominators seen in the wild for EXIF FNumber.
func apertureX10(num, denom int64) (int64, error) {
	switch denom {
	case 10:
		return num, nil
	case 5:
		return num * 2, nil
	case 1:
		return num * 10, nil
	case 100:
		return num / 10, nil
	}
	if denom <= 0 {
		return 0, fmt.Errorf("FNumber %d/%d: bad denominator", num, denom)
	}
	return int64(math.Round(10 * float64(num) / float64(denom))), nil
}
