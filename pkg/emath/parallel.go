package emath

import (
	"runtime"
	"sync"
)

// Images with fewer values than this are processed on the calling goroutine.
const minParallelValues = 64 * 1024

// ParallelRows splits [0,height) into contiguous bands and calls fn once per
// band, using a pool of `workers` goroutines (<=0 means GOMAXPROCS). The bands
// are disjoint, so as long as fn only writes to its own rows the result does
// not depend on scheduling.
func ParallelRows(height, workers int, fn func(y0, y1 int)) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, height)
		return
	}

	var wg sync.WaitGroup
	jobsChan := make(chan [2]int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for band := range jobsChan {
				fn(band[0], band[1])
			}
		}()
	}

	bandHeight := (height + workers - 1) / workers
	for y0 := 0; y0 < height; y0 += bandHeight {
		y1 := y0 + bandHeight
		if y1 > height {
			y1 = height
		}
		jobsChan <- [2]int{y0, y1}
	}

	close(jobsChan)
	wg.Wait()
}

// forRows runs fn over all rows of an image, going parallel only when it's worth it.
func forRows(fi *FloatImage, fn func(y0, y1 int)) {
	if len(fi.Pix) < minParallelValues {
		fn(0, fi.Height)
		return
	}
	ParallelRows(fi.Height, 0, fn)
}
