package emath

// A Sampler does the blurring, down-sampling and up-sampling needed to
// build image pyramids. It holds on to scratch buffers between calls, so
// reuse one per pyramid; it is not safe for concurrent use.
//
// Edges are handled by replicating the border pixels, in all three
// operations.
type Sampler struct {
	tmp     *FloatImage // first pass of the separable blur
	blurred *FloatImage // full blurred copy, prior to decimation
	grown   *FloatImage // block-replicated copy, prior to blurring
}

// Blur applies a separable [1 2 1]/4 kernel to src, writing into dst.
// dst must not be src.
func (s *Sampler) Blur(src, dst *FloatImage) *FloatImage {
	width, height, nc := src.Width, src.Height, src.Channels
	dst = EnsureGeometry(dst, width, height, nc)
	s.tmp = EnsureGeometry(s.tmp, width, height, nc)
	T := s.tmp

	//--- X blur, build up in T
	forRows(src, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				w := clamp(x-1, 0, width-1)
				e := clamp(x+1, 0, width-1)
				for c := 0; c < nc; c++ {
					t := 2.0*src.Get(x, y, c) + src.Get(w, y, c) + src.Get(e, y, c)
					T.Set(x, y, c, t/4.0)
				}
			}
		}
	})

	//--- Y blur, read from T and generate output
	forRows(src, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			n := clamp(y-1, 0, height-1)
			so := clamp(y+1, 0, height-1)
			for x := 0; x < width; x++ {
				for c := 0; c < nc; c++ {
					t := 2.0*T.Get(x, y, c) + T.Get(x, n, c) + T.Get(x, so, c)
					dst.Set(x, y, c, t/4.0)
				}
			}
		}
	})

	return dst
}

// HalfSize is the size of the next pyramid level down; odd sizes round up,
// so no dimension ever reaches zero.
func HalfSize(w, h int) (int, int) {
	return (w + 1) / 2, (h + 1) / 2
}

// Down blurs src and then decimates it to HalfSize, averaging each 2x2 block.
func (s *Sampler) Down(src, dst *FloatImage) *FloatImage {
	s.blurred = s.Blur(src, s.blurred)
	b := s.blurred

	width, height := HalfSize(src.Width, src.Height)
	nc := src.Channels
	dst = EnsureGeometry(dst, width, height, nc)

	for y := 0; y < height; y++ {
		y0 := 2 * y
		y1 := clamp(2*y+1, 0, src.Height-1)
		for x := 0; x < width; x++ {
			x0 := 2 * x
			x1 := clamp(2*x+1, 0, src.Width-1)
			for c := 0; c < nc; c++ {
				p := b.Get(x0, y0, c)
				p += b.Get(x1, y0, c)
				p += b.Get(x0, y1, c)
				p += b.Get(x1, y1, c)
				dst.Set(x, y, c, p/4.0)
			}
		}
	}

	return dst
}

// Up expands src to width x height: each value is copied into a 2x2 block,
// and the result is blurred with the same kernel Down uses.
func (s *Sampler) Up(src, dst *FloatImage, width, height int) *FloatImage {
	s.grown = EnsureGeometry(s.grown, width, height, src.Channels)
	src.UpSampleInto(s.grown)
	return s.Blur(s.grown, dst)
}

// UpSampleInto populates B, which is assumed be 2x as big, by simply
// copying each value from A four times into a 2x2 block of values in B.
func (A *FloatImage) UpSampleInto(B *FloatImage) {
	nc := A.Channels
	for y := 0; y < B.Height; y++ {
		ay := clamp(y/2, 0, A.Height-1)
		for x := 0; x < B.Width; x++ {
			ax := clamp(x/2, 0, A.Width-1)
			copy(B.Pix[B.offset(x, y):B.offset(x, y)+nc], A.Pix[A.offset(ax, ay):A.offset(ax, ay)+nc])
		}
	}
}
