package fusion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewConfigFromYaml(t *testing.T) {
	yml := `
verbosity: 1
limitlevel: 3
weights:
  contrast: 0.5
  saturation: 0
`
	got, err := NewConfigFromYaml([]byte(yml))
	if err != nil {
		t.Fatalf("NewConfigFromYaml: %v", err)
	}

	want := NewConfig()
	want.Verbosity = 1
	want.LimitLevel = 3
	want.Weights = Weights{Contrast: 0.5, Exposedness: DefaultExponent, Saturation: 0}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigYamlRoundTrip(t *testing.T) {
	c := NewConfig()
	c.Weights.Exposedness = 2
	c.Workers = 4

	got, err := NewConfigFromYaml([]byte(c.AsYaml()))
	if err != nil {
		t.Fatalf("NewConfigFromYaml(%q): %v", c.AsYaml(), err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		yml     string
		wantErr bool
	}{
		{"defaults", ``, false},
		{"negative exponent", "weights:\n  exposedness: -1\n", true},
		{"negative limitlevel", "limitlevel: -2\n", true},
		{"zero sigma", "sigma: 0\n", true},
		{"bad yaml", "weights: [1, 2\n", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfigFromYaml([]byte(tc.yml))
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Errorf("got err %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
