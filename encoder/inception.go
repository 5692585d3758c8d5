package encoder

import (
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/box2pix/base"
)

// InceptionConfig holds the channel schedule of one inception stage.
type InceptionConfig struct {
	In       int64
	Ch1x1    int64
	Ch3x3Red int64
	Ch3x3    int64
	Ch5x5Red int64
	Ch5x5    int64
	PoolProj int64
}

// Out is the number of channels after concatenation.
func (c InceptionConfig) Out() int64 {
	return c.Ch1x1 + c.Ch3x3 + c.Ch5x5 + c.PoolProj
}

// Inception is the four-branch block:
//
//	1x1 | 1x1 -> 3x3 | 1x1 -> kxk | maxpool 3x3 -> 1x1
//
// concatenated on the channel axis. k is 3 for the standard block and 5 for
// the wide one.
type Inception struct {
	branch1  *base.ConvBN
	branch2a *base.ConvBN
	branch2b *base.ConvBN
	branch3a *base.ConvBN
	branch3b *base.ConvBN
	branch4  *base.ConvBN
}

// NewInception creates the standard block (third branch 3x3).
func NewInception(s *base.Scope, cfg InceptionConfig) *Inception {
	return newInception(s, cfg, 3)
}

// NewWideInception creates the wide block (third branch 5x5, padding 2).
func NewWideInception(s *base.Scope, cfg InceptionConfig) *Inception {
	return newInception(s, cfg, 5)
}

func newInception(s *base.Scope, cfg InceptionConfig, k3 int64) *Inception {
	b2 := s.Sub("branch2")
	b3 := s.Sub("branch3")
	// index 0 of branch4 is the parameter-free pool
	b4 := s.Sub("branch4")

	return &Inception{
		branch1:  base.NewConvBN(s.Sub("branch1"), cfg.In, cfg.Ch1x1, 1, 0, 1),
		branch2a: base.NewConvBN(b2.Sub("0"), cfg.In, cfg.Ch3x3Red, 1, 0, 1),
		branch2b: base.NewConvBN(b2.Sub("1"), cfg.Ch3x3Red, cfg.Ch3x3, 3, 1, 1),
		branch3a: base.NewConvBN(b3.Sub("0"), cfg.In, cfg.Ch5x5Red, 1, 0, 1),
		branch3b: base.NewConvBN(b3.Sub("1"), cfg.Ch5x5Red, cfg.Ch5x5, k3, k3/2, 1),
		branch4:  base.NewConvBN(b4.Sub("1"), cfg.In, cfg.PoolProj, 1, 0, 1),
	}
}

// ForwardT implements ts.ModuleT for Inception.
func (m *Inception) ForwardT(x *ts.Tensor, train bool) *ts.Tensor {
	b1 := m.branch1.ForwardT(x, train)

	r2 := m.branch2a.ForwardT(x, train)
	b2 := m.branch2b.ForwardT(r2, train)
	r2.MustDrop()

	r3 := m.branch3a.ForwardT(x, train)
	b3 := m.branch3b.ForwardT(r3, train)
	r3.MustDrop()

	pool := base.MaxPool2dCeil(x, 3, 1, 1, false)
	b4 := m.branch4.ForwardT(pool, train)
	pool.MustDrop()

	out := ts.MustCat([]*ts.Tensor{b1, b2, b3, b4}, 1)
	b1.MustDrop()
	b2.MustDrop()
	b3.MustDrop()
	b4.MustDrop()

	return out
}
