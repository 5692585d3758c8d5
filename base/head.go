package base

import (
	"github.com/sugarme/gotch/nn"
)

// NewScoreHead creates a 1x1 score projection (cIn -> cOut) with bias.
// Its weight and bias are tagged as score parameters so that they start at
// zero.
func NewScoreHead(s *Scope, cIn, cOut int64) *nn.Conv2D {
	config := nn.DefaultConv2DConfig()

	conv := nn.NewConv2D(s.Path(), cIn, cOut, 1, config)
	s.Register("weight", KindScore, conv.Ws)
	s.Register("bias", KindScoreBias, conv.Bs)

	return conv
}
