package encoder

import (
	"github.com/sugarme/gotch/ts"
)

// NumFeatures is the number of feature maps an Encoder exposes.
const NumFeatures = 5

// Taps is an ordered set of four feature maps, shallowest first. Consumers
// fuse or scan them in this order; it must not be permuted.
type Taps [4]*ts.Tensor

// Features are the encoder outputs at strides 8, 16, 32, 64 and 128.
type Features [NumFeatures]*ts.Tensor

// DenseTaps returns the stride 8..64 maps used by the dense decoders.
func (f Features) DenseTaps() Taps {
	return Taps{f[0], f[1], f[2], f[3]}
}

// BoxTaps returns the stride 16..128 maps used by the detection head.
func (f Features) BoxTaps() Taps {
	return Taps{f[1], f[2], f[3], f[4]}
}

// Drop frees every feature map.
func (f Features) Drop() {
	for _, x := range f {
		if x != nil {
			x.MustDrop()
		}
	}
}

// Encoder is encoder interface for a box2pix model.
type Encoder interface {
	ForwardAll(x *ts.Tensor, train bool) Features
}
