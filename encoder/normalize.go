package encoder

import (
	"github.com/sugarme/gotch/ts"
)

// Per-channel remap from ImageNet mean/std statistics to the [-1, 1] range
// GoogLeNet weights were trained on.
var (
	imageNetMean = [3]float32{0.485, 0.456, 0.406} // image RGB mean
	imageNetStd  = [3]float32{0.229, 0.224, 0.225} // image RGB standard deviation
)

// InputNormalizer applies out_c = in_c*Scale[c] + Shift[c] to a 3-channel
// NCHW tensor.
type InputNormalizer struct {
	Scale [3]float32
	Shift [3]float32
}

// NewInputNormalizer returns the GoogLeNet input transform.
func NewInputNormalizer() *InputNormalizer {
	var n InputNormalizer
	for c := 0; c < 3; c++ {
		n.Scale[c] = imageNetStd[c] / 0.5
		n.Shift[c] = (imageNetMean[c] - 0.5) / 0.5
	}
	return &n
}

// Forward implements ts.Module for InputNormalizer.
func (n *InputNormalizer) Forward(x *ts.Tensor) *ts.Tensor {
	device := x.MustDevice()
	scale := ts.MustOfSlice(n.Scale[:]).MustView([]int64{1, 3, 1, 1}, true).MustTo(device, true)
	shift := ts.MustOfSlice(n.Shift[:]).MustView([]int64{1, 3, 1, 1}, true).MustTo(device, true)

	out := x.MustMul(scale, false).MustAdd(shift, true)
	scale.MustDrop()
	shift.MustDrop()

	return out
}
