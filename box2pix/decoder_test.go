package box2pix_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/box2pix/base"
	"github.com/sugarme/box2pix/box2pix"
	"github.com/sugarme/box2pix/encoder"
)

var smallChannels = [4]int64{3, 4, 5, 6}

func newDecoder(t *testing.T, cOut int64) (*box2pix.DenseDecoder, *base.Registry) {
	t.Helper()
	vs := nn.NewVarStore(gotch.CPU)
	reg := base.NewRegistry()
	d := box2pix.NewDenseDecoder(base.NewScope(vs.Root(), reg), "sem", smallChannels, cOut)
	base.Initialize(reg)
	return d, reg
}

// taps as the encoder would produce them for an h x w input
func randTaps(h, w [4]int64) encoder.Taps {
	var taps encoder.Taps
	for i := range taps {
		taps[i] = ts.MustRand([]int64{1, smallChannels[i], h[i], w[i]}, gotch.Float, gotch.CPU)
	}
	return taps
}

func dropTaps(taps encoder.Taps) {
	for _, x := range taps {
		x.MustDrop()
	}
}

func TestDenseDecoderParamNames(t *testing.T) {
	_, reg := newDecoder(t, 7)

	for _, name := range []string{
		"sem_score3b.weight", "sem_score4e.bias", "sem_score5b.weight", "sem_score6b.bias",
		"sem_upscore.weight", "sem_upscore2.weight", "sem_upscore4.weight", "sem_upscore8.weight",
	} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, name)
	}
	up, _ := reg.Lookup("sem_upscore8.weight")
	assert.Equal(t, []int64{7, 7, 16, 16}, up.Tensor.MustSize())
	assert.Len(t, reg.OfKind(base.KindUpsample), 4)
	assert.Len(t, reg.OfKind(base.KindScore), 4)
}

func TestDenseDecoderShapes(t *testing.T) {
	d, _ := newDecoder(t, 7)

	for _, tc := range []struct {
		name string
		h, w int64
		hs   [4]int64
		ws   [4]int64
	}{
		{"64x64", 64, 64, [4]int64{8, 4, 2, 1}, [4]int64{8, 4, 2, 1}},
		{"128x192", 128, 192, [4]int64{16, 8, 4, 2}, [4]int64{24, 12, 6, 3}},
		// ceil-mode sizes of a 100x100 input
		{"100x100", 100, 100, [4]int64{12, 6, 3, 2}, [4]int64{12, 6, 3, 2}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			taps := randTaps(tc.hs, tc.ws)
			defer dropTaps(taps)

			out, err := d.Decode(taps, tc.h, tc.w)
			require.NoError(t, err)
			assert.Equal(t, []int64{1, 7, tc.h, tc.w}, out.MustSize())

			// score heads start at zero, so does the whole map
			for _, v := range out.Float64Values() {
				require.Zero(t, v)
			}
			out.MustDrop()
		})
	}
}

func TestDenseDecoderCropOutOfBounds(t *testing.T) {
	d, _ := newDecoder(t, 2)

	// deepest tap too small for the next level: 1x1 upsamples to 4x4,
	// cropping 4x4 from offset 1 does not fit
	taps := randTaps([4]int64{16, 8, 4, 1}, [4]int64{16, 8, 4, 1})
	defer dropTaps(taps)

	_, err := d.Decode(taps, 128, 128)
	require.Error(t, err)
	assert.True(t, errors.Is(err, base.ErrCropOutOfBounds))

	// final window larger than the upsampled map
	taps2 := randTaps([4]int64{8, 4, 2, 1}, [4]int64{8, 4, 2, 1})
	defer dropTaps(taps2)
	_, err = d.Decode(taps2, 80, 64)
	assert.ErrorIs(t, err, base.ErrCropOutOfBounds)
}

// oneHot is a (1, c, h, w) tap that is zero except channel 0 at (y, x).
func oneHot(c, h, w, y, x int64) *ts.Tensor {
	vals := make([]float32, c*h*w)
	vals[y*w+x] = 1
	return ts.MustOfSlice(vals).MustView([]int64{1, c, h, w}, true)
}

// setPassThrough makes score head `name` copy channel 0 of its tap.
func setPassThrough(t *testing.T, reg *base.Registry, name string) {
	t.Helper()
	p, ok := reg.Lookup(name)
	require.True(t, ok, name)
	size := p.Tensor.MustSize()
	vals := make([]float32, size[0]*size[1])
	vals[0] = 1
	src := ts.MustOfSlice(vals).MustView(size, true)
	defer src.MustDrop()
	base.WithoutGrad(func() {
		p.Tensor.Copy_(src)
	})
}

func TestDenseDecoderCropOffsets(t *testing.T) {
	const h, w = 64, 64
	up2 := base.BilinearFilter(4)
	up8 := base.BilinearFilter(16)

	// x8 response at output (y, x) to a unit at 3b cell (p, r), window starting at 4
	final := func(y, x, p, r int) float64 {
		dy, dx := y-8*p+4, x-8*r+4
		if dy < 0 || dy >= 16 || dx < 0 || dx >= 16 {
			return 0
		}
		return up8[dy*16+dx]
	}

	for _, tc := range []struct {
		name   string
		level  int
		y, x   int64
		expect func(y, x int) float64
	}{
		{"score3b", 0, 2, 5, func(y, x int) float64 { return final(y, x, 2, 5) }},
		// x2 window starting at 1 maps 4e cell q onto 3b cells 2q-1 .. 2q+2
		{"score4e", 1, 1, 2, func(y, x int) float64 {
			var v float64
			for a := 0; a < 4; a++ {
				for b := 0; b < 4; b++ {
					v += up2[a*4+b] * final(y, x, 2*1-1+a, 2*2-1+b)
				}
			}
			return v
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, reg := newDecoder(t, 1)
			setPassThrough(t, reg, "sem_"+tc.name+".weight")

			hs := [4]int64{8, 4, 2, 1}
			var taps encoder.Taps
			for i := range taps {
				if i == tc.level {
					taps[i] = oneHot(smallChannels[i], hs[i], hs[i], tc.y, tc.x)
					continue
				}
				taps[i] = ts.MustZeros([]int64{1, smallChannels[i], hs[i], hs[i]}, gotch.Float, gotch.CPU)
			}
			defer dropTaps(taps)

			out, err := d.Decode(taps, h, w)
			require.NoError(t, err)
			defer out.MustDrop()

			got := out.Float64Values()
			require.Len(t, got, h*w)
			var peak float64
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					want := tc.expect(y, x)
					require.InDelta(t, want, got[y*w+x], 1e-5, "at (%d, %d)", y, x)
					if want > peak {
						peak = want
					}
				}
			}
			assert.Greater(t, peak, 0.5)
		})
	}
}
