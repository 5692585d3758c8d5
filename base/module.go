package base

import (
	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"
)

// Conv2d creates a Conv2D module with bias and registers both tensors as
// ordinary convolution parameters.
func Conv2d(s *Scope, cIn, cOut, ksize, padding, stride int64) *nn.Conv2D {
	config := nn.DefaultConv2DConfig()
	config.Stride = []int64{stride, stride}
	config.Padding = []int64{padding, padding}

	conv := nn.NewConv2D(s.Path(), cIn, cOut, ksize, config)
	s.Register("weight", KindConv, conv.Ws)
	s.Register("bias", KindConvBias, conv.Bs)

	return conv
}

// Conv2dNoBias creates Conv2D with no bias.
func Conv2dNoBias(s *Scope, cIn, cOut, ksize, padding, stride int64) *nn.Conv2D {
	config := nn.DefaultConv2DConfig()
	config.Bias = false
	config.Stride = []int64{stride, stride}
	config.Padding = []int64{padding, padding}

	conv := nn.NewConv2D(s.Path(), cIn, cOut, ksize, config)
	s.Register("weight", KindConv, conv.Ws)

	return conv
}

// BatchNorm2d creates a 2D batch norm with eps 0.001 and registers its
// affine parameters and running statistics.
func BatchNorm2d(s *Scope, c int64) *nn.BatchNorm {
	config := nn.DefaultBatchNormConfig()
	config.Eps = 0.001

	bn := nn.BatchNorm2D(s.Path(), c, config)
	s.Register("weight", KindNormScale, bn.Ws)
	s.Register("bias", KindNormShift, bn.Bs)
	s.Register("running_mean", KindNormMean, bn.RunningMean)
	s.Register("running_var", KindNormVar, bn.RunningVar)

	return bn
}

// ConvBN is convolution (no bias) -> batch norm -> ReLU.
type ConvBN struct {
	Conv *nn.Conv2D
	Bn   *nn.BatchNorm
}

// NewConvBN creates a ConvBN whose variables live under `conv` and `bn`.
func NewConvBN(s *Scope, cIn, cOut, ksize, padding, stride int64) *ConvBN {
	return &ConvBN{
		Conv: Conv2dNoBias(s.Sub("conv"), cIn, cOut, ksize, padding, stride),
		Bn:   BatchNorm2d(s.Sub("bn"), cOut),
	}
}

// ForwardT implements ts.ModuleT for ConvBN.
func (c *ConvBN) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	conv := c.Conv.ForwardT(x, train)
	bn := c.Bn.ForwardT(conv, train)
	conv.MustDrop()

	return bn.MustRelu(true)
}

// MaxPool2dCeil max-pools with square kernel/stride/padding in ceil mode.
func MaxPool2dCeil(x *ts.Tensor, ksize, stride, padding int64, del bool) *ts.Tensor {
	return x.MustMaxPool2d([]int64{ksize, ksize}, []int64{stride, stride}, []int64{padding, padding}, []int64{1, 1}, true, del)
}
