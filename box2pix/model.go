package box2pix

import (
	"fmt"
	"log/slog"

	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"
	"golang.org/x/sync/errgroup"

	"github.com/sugarme/box2pix/base"
	"github.com/sugarme/box2pix/encoder"
)

// Box2Pix is a single-shot instance segmentation network: one encoder feeding
// a box detection head, a semantic decoder and an offset decoder.
// Ref: Uhrig et al., "Box2Pix: Single-Shot Instance Segmentation by Assigning
// Pixels to Object Boxes", IV 2018.
type Box2Pix struct {
	cfg      Config
	reg      *base.Registry
	encoder  *encoder.GoogLeNetEncoder
	head     DetectionHead
	semantic *DenseDecoder
	offsets  *DenseDecoder
}

// Output holds the four predictions of a forward pass.
type Output struct {
	Loc       *ts.Tensor // (N, P, 4)
	Conf      *ts.Tensor // (N, P, NumClasses)
	Semantics *ts.Tensor // (N, NumClasses, H, W)
	Offsets   *ts.Tensor // (N, 2, H, W)
}

// Drop frees every output tensor.
func (o *Output) Drop() {
	for _, x := range []*ts.Tensor{o.Loc, o.Conf, o.Semantics, o.Offsets} {
		if x != nil {
			x.MustDrop()
		}
	}
}

// New creates a Box2Pix network under p and initializes its parameters.
func New(p *nn.Path, cfg *Config) (*Box2Pix, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := base.NewRegistry()
	s := base.NewScope(p, reg)

	n := &Box2Pix{
		cfg:      *cfg,
		reg:      reg,
		encoder:  encoder.NewGoogLeNetEncoder(s, cfg.TransformInput),
		semantic: NewDenseDecoder(s, "sem", encoder.DenseChannels(), cfg.NumClasses),
		offsets:  NewDenseDecoder(s, "offs", encoder.DenseChannels(), OffsetChannels),
	}
	n.head = NewMultiBox(s, encoder.BoxChannels(), cfg.AnchorsPerCell, cfg.NumClasses)

	base.Initialize(reg)
	slog.Debug("box2pix created", "classes", cfg.NumClasses, "params", reg.Len(), "transform_input", cfg.TransformInput)

	return n, nil
}

// Config returns a copy of the construction config.
func (n *Box2Pix) Config() Config { return n.cfg }

// Registry returns the ordered parameter registry.
func (n *Box2Pix) Registry() *base.Registry { return n.reg }

// SetTransformInput toggles the input normalizer.
func (n *Box2Pix) SetTransformInput(on bool) {
	n.cfg.TransformInput = on
	n.encoder.SetTransformInput(on)
}

func (n *Box2Pix) TransformInput() bool { return n.encoder.TransformInput() }

// SetParallel toggles concurrent execution of the head and decoders.
func (n *Box2Pix) SetParallel(on bool) { n.cfg.Parallel = on }

// ForwardT runs the network on an (N, 3, H, W) image batch. Outside training
// no autograd graph is recorded, on any of the branches.
func (n *Box2Pix) ForwardT(x *ts.Tensor, train bool) (out *Output, err error) {
	size := x.MustSize()
	if len(size) != 4 || size[1] != 3 {
		return nil, fmt.Errorf("%w: expected (N, 3, H, W), got %v", ErrInvalidInput, size)
	}

	if train {
		return n.forward(x, true)
	}
	base.WithoutGrad(func() {
		out, err = n.forward(x, false)
	})
	return out, err
}

func (n *Box2Pix) forward(x *ts.Tensor, train bool) (*Output, error) {
	size := x.MustSize()
	h, w := size[2], size[3]

	feats := n.encoder.ForwardAll(x, train)
	defer feats.Drop()

	var out Output
	decodeSemantic := func() (err error) {
		out.Semantics, err = n.semantic.Decode(feats.DenseTaps(), h, w)
		return err
	}
	decodeOffsets := func() (err error) {
		out.Offsets, err = n.offsets.Decode(feats.DenseTaps(), h, w)
		return err
	}
	detect := func() error {
		out.Loc, out.Conf = n.head.ForwardT(feats.BoxTaps(), train)
		return nil
	}

	var err error
	if n.cfg.Parallel {
		// grad mode does not follow into new goroutines
		branch := func(fn func() error) func() error {
			if train {
				return fn
			}
			return func() (err error) {
				base.WithoutGrad(func() { err = fn() })
				return err
			}
		}
		var g errgroup.Group
		g.Go(branch(detect))
		g.Go(branch(decodeSemantic))
		g.Go(branch(decodeOffsets))
		err = g.Wait()
	} else {
		for _, fn := range []func() error{detect, decodeSemantic, decodeOffsets} {
			if err = fn(); err != nil {
				break
			}
		}
	}
	if err != nil {
		out.Drop()
		return nil, err
	}

	return &out, nil
}

// Forward runs the network in inference mode.
func (n *Box2Pix) Forward(x *ts.Tensor) (*Output, error) {
	return n.ForwardT(x, false)
}
