package base

import (
	"errors"
	"fmt"
	"math"

	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"
)

// ErrCropOutOfBounds is returned when a crop window does not fit its input.
var ErrCropOutOfBounds = errors.New("crop window out of bounds")

// BilinearFilter returns the k x k bilinear interpolation filter, row major.
func BilinearFilter(k int) []float64 {
	factor := float64((k + 1) / 2)
	center := factor - 0.5
	if k%2 == 1 {
		center = factor - 1
	}

	filt := make([]float64, k*k)
	for y := 0; y < k; y++ {
		fy := 1 - math.Abs(float64(y)-center)/factor
		for x := 0; x < k; x++ {
			fx := 1 - math.Abs(float64(x)-center)/factor
			filt[y*k+x] = fy * fx
		}
	}

	return filt
}

// BilinearKernel returns a transpose-convolution weight of shape
// (channels, channels, k, k), flattened. Input channel i maps only to output
// channel i, through the bilinear filter.
func BilinearKernel(channels, k int) []float32 {
	filt := BilinearFilter(k)
	size := k * k
	w := make([]float32, channels*channels*size)
	for c := 0; c < channels; c++ {
		off := (c*channels + c) * size
		for i, v := range filt {
			w[off+i] = float32(v)
		}
	}

	return w
}

// Upsample is a bias-free transpose convolution used to upscale score maps.
type Upsample struct {
	Ws       *ts.Tensor
	Channels int64
	Kernel   int64
	Stride   int64

	noBias *ts.Tensor
}

// NewUpsample creates a (channels -> channels) transpose convolution with
// square kernel ksize and stride. The weight is tagged KindUpsample.
func NewUpsample(s *Scope, channels, ksize, stride int64) *Upsample {
	ws := s.Path().MustNewVar("weight", []int64{channels, channels, ksize, ksize}, nn.NewConstInit(0.0))
	s.Register("weight", KindUpsample, ws)

	return &Upsample{
		Ws:       ws,
		Channels: channels,
		Kernel:   ksize,
		Stride:   stride,
		noBias:   ts.NewTensor(),
	}
}

// Forward implements ts.Module for Upsample.
// Output size per spatial axis is (in-1)*stride + kernel.
func (u *Upsample) Forward(x *ts.Tensor) *ts.Tensor {
	stride := []int64{u.Stride, u.Stride}
	return ts.MustConvTranspose2d(x, u.Ws, u.noBias, stride, []int64{0, 0}, []int64{0, 0}, 1, []int64{1, 1})
}

// Crop returns x[:, :, offset:offset+h, offset:offset+w]. The window is
// never clamped: if it does not fit, ErrCropOutOfBounds is returned.
// The result is a view; x may be dropped by the caller afterwards.
func Crop(x *ts.Tensor, offset, h, w int64) (*ts.Tensor, error) {
	size := x.MustSize()
	if len(size) != 4 {
		return nil, fmt.Errorf("crop: expected rank-4 tensor, got shape %v", size)
	}
	if offset < 0 || h <= 0 || w <= 0 || offset+h > size[2] || offset+w > size[3] {
		return nil, fmt.Errorf("%w: window [%d:%d, %d:%d] on %dx%d", ErrCropOutOfBounds, offset, offset+h, offset, offset+w, size[2], size[3])
	}

	rows := x.MustNarrow(2, offset, h, false)
	return rows.MustNarrow(3, offset, w, true), nil
}
