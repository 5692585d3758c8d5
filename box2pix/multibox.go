package box2pix

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/box2pix/base"
	"github.com/sugarme/box2pix/encoder"
)

// DetectionHead turns four feature maps into box predictions.
// loc is (N, P, 4) and conf is (N, P, numClasses) for P priors.
type DetectionHead interface {
	ForwardT(taps encoder.Taps, train bool) (loc, conf *ts.Tensor)
}

// MultiBox is an SSD-style head: per tap, one 3x3 conv predicting 4 offsets
// and one predicting class scores for each of its anchors.
type MultiBox struct {
	numClasses int64
	anchors    [4]int64
	loc        [4]*nn.Conv2D
	conf       [4]*nn.Conv2D
}

// NewMultiBox creates a MultiBox head under `multibox`.
func NewMultiBox(s *base.Scope, tapChannels [4]int64, anchors [4]int64, numClasses int64) *MultiBox {
	m := &MultiBox{numClasses: numClasses, anchors: anchors}
	mb := s.Sub("multibox")
	for i, c := range tapChannels {
		m.loc[i] = base.Conv2d(mb.Sub("loc_layers").Sub(fmt.Sprint(i)), c, anchors[i]*4, 3, 1, 1)
		m.conf[i] = base.Conv2d(mb.Sub("conf_layers").Sub(fmt.Sprint(i)), c, anchors[i]*numClasses, 3, 1, 1)
	}

	return m
}

// NumPriors returns the number of priors for taps of the given spatial sizes.
func (m *MultiBox) NumPriors(sizes [4][2]int64) int64 {
	var n int64
	for i, hw := range sizes {
		n += hw[0] * hw[1] * m.anchors[i]
	}
	return n
}

// ForwardT implements DetectionHead for MultiBox.
func (m *MultiBox) ForwardT(taps encoder.Taps, train bool) (loc, conf *ts.Tensor) {
	locs := make([]*ts.Tensor, 0, len(taps))
	confs := make([]*ts.Tensor, 0, len(taps))
	for i, x := range taps {
		locs = append(locs, flatten(m.loc[i].ForwardT(x, train), 4))
		confs = append(confs, flatten(m.conf[i].ForwardT(x, train), m.numClasses))
	}

	loc = ts.MustCat(locs, 1)
	conf = ts.MustCat(confs, 1)
	for i := range locs {
		locs[i].MustDrop()
		confs[i].MustDrop()
	}

	return loc, conf
}

// flatten turns (N, A*k, H, W) into (N, H*W*A, k).
func flatten(x *ts.Tensor, k int64) *ts.Tensor {
	n := x.MustSize()[0]
	return x.MustPermute([]int64{0, 2, 3, 1}, true).MustContiguous(true).MustView([]int64{n, -1, k}, true)
}
