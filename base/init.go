package base

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"
)

// Initialize assigns every registered parameter its starting value:
//
//	conv        Xavier uniform
//	conv-bias   0
//	score(-bias) 0
//	upsample    diagonal bilinear kernel
//	norm-scale  1, norm-shift 0, norm-mean 0, norm-var 1
//
// Parameters are leaves that require grad, so every write happens with
// tracking off. An unknown kind panics.
func Initialize(reg *Registry) {
	WithoutGrad(func() {
		for _, p := range reg.params {
			switch p.Kind {
			case KindConv:
				xavierUniform(p.Tensor)
			case KindConvBias, KindScore, KindScoreBias, KindNormShift, KindNormMean:
				nn.NewConstInit(0.0).Set(p.Tensor)
			case KindNormScale, KindNormVar:
				nn.NewConstInit(1.0).Set(p.Tensor)
			case KindUpsample:
				bilinear(p.Tensor)
			default:
				panic(fmt.Sprintf("initialize: parameter %q has unknown kind %v", p.Name, p.Kind))
			}
		}
	})

	slog.Debug("parameters initialized", "count", reg.Len())
}

// XavierBound returns the Glorot uniform bound for a weight of the given
// shape (out, in, k...).
func XavierBound(shape []int64) float64 {
	receptive := int64(1)
	for _, d := range shape[2:] {
		receptive *= d
	}
	fanIn := float64(shape[1] * receptive)
	fanOut := float64(shape[0] * receptive)

	return math.Sqrt(6.0 / (fanIn + fanOut))
}

func xavierUniform(w *ts.Tensor) {
	bound := XavierBound(w.MustSize())
	nn.NewUniformInit(-bound, bound).Set(w)
}

func bilinear(w *ts.Tensor) {
	size := w.MustSize()
	if len(size) != 4 || size[0] != size[1] || size[2] != size[3] {
		panic(fmt.Sprintf("initialize: upsample weight must be (c, c, k, k), got %v", size))
	}

	vals := BilinearKernel(int(size[0]), int(size[2]))
	src := ts.MustOfSlice(vals).MustView(size, true)
	w.Copy_(src)
	src.MustDrop()
}
