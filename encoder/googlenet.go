package encoder

import (
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/box2pix/base"
)

type stage struct {
	name string
	cfg  InceptionConfig
	wide bool
	// pool applied after this stage, 0 for none
	poolK int64
	// feature slot the stage output is kept in, -1 for none
	tap int
}

// stages is the box2pix backbone: GoogLeNet inception 3a..5b followed by two
// extra pairs of wide blocks (6a/6b, 7a/7b).
var stages = [...]stage{
	{"inception3a", InceptionConfig{192, 64, 96, 128, 16, 32, 32}, false, 0, -1},
	{"inception3b", InceptionConfig{256, 128, 128, 192, 32, 96, 64}, false, 3, 0},
	{"inception4a", InceptionConfig{480, 192, 96, 208, 16, 48, 64}, false, 0, -1},
	{"inception4b", InceptionConfig{512, 160, 112, 224, 24, 64, 64}, false, 0, -1},
	{"inception4c", InceptionConfig{512, 128, 128, 256, 24, 64, 64}, false, 0, -1},
	{"inception4d", InceptionConfig{512, 112, 144, 288, 32, 64, 64}, false, 0, -1},
	{"inception4e", InceptionConfig{528, 256, 160, 320, 32, 128, 128}, false, 2, 1},
	{"inception5a", InceptionConfig{832, 256, 160, 320, 32, 128, 128}, false, 0, -1},
	{"inception5b", InceptionConfig{832, 384, 192, 384, 48, 128, 128}, false, 2, 2},
	{"inception6a", InceptionConfig{1024, 256, 160, 320, 32, 128, 128}, true, 0, -1},
	{"inception6b", InceptionConfig{832, 384, 192, 384, 48, 128, 128}, true, 2, 3},
	{"inception7a", InceptionConfig{1024, 256, 160, 320, 32, 128, 128}, true, 0, -1},
	{"inception7b", InceptionConfig{832, 384, 192, 384, 48, 128, 128}, true, 0, 4},
}

// FeatureChannels are the channel widths of Features, slot by slot.
var FeatureChannels = [NumFeatures]int64{480, 832, 1024, 1024, 1024}

// FeatureStrides are the spatial strides of Features relative to the input.
var FeatureStrides = [NumFeatures]int64{8, 16, 32, 64, 128}

// DenseChannels returns the channel widths of Features.DenseTaps.
func DenseChannels() [4]int64 {
	return [4]int64{FeatureChannels[0], FeatureChannels[1], FeatureChannels[2], FeatureChannels[3]}
}

// BoxChannels returns the channel widths of Features.BoxTaps.
func BoxChannels() [4]int64 {
	return [4]int64{FeatureChannels[1], FeatureChannels[2], FeatureChannels[3], FeatureChannels[4]}
}

// GoogLeNetEncoder is the box2pix backbone. Variable names match torchvision's
// GoogLeNet so that its weights can be imported into the stem and stages
// 3a..5b.
type GoogLeNetEncoder struct {
	normalizer *InputNormalizer
	transform  bool

	conv1  *base.ConvBN
	conv2  *base.ConvBN
	conv3  *base.ConvBN
	blocks [len(stages)]*Inception
}

// NewGoogLeNetEncoder creates the encoder. transformInput enables the
// InputNormalizer.
func NewGoogLeNetEncoder(s *base.Scope, transformInput bool) *GoogLeNetEncoder {
	e := &GoogLeNetEncoder{
		normalizer: NewInputNormalizer(),
		transform:  transformInput,
		conv1:      base.NewConvBN(s.Sub("conv1"), 3, 64, 7, 3, 2),
		conv2:      base.NewConvBN(s.Sub("conv2"), 64, 64, 1, 0, 1),
		conv3:      base.NewConvBN(s.Sub("conv3"), 64, 192, 3, 1, 1),
	}
	for i, st := range stages {
		if st.wide {
			e.blocks[i] = NewWideInception(s.Sub(st.name), st.cfg)
		} else {
			e.blocks[i] = NewInception(s.Sub(st.name), st.cfg)
		}
	}

	return e
}

// SetTransformInput toggles the input normalizer.
func (e *GoogLeNetEncoder) SetTransformInput(on bool) { e.transform = on }

func (e *GoogLeNetEncoder) TransformInput() bool { return e.transform }

// ForwardAll implements Encoder interface for GoogLeNetEncoder.
func (e *GoogLeNetEncoder) ForwardAll(x *ts.Tensor, train bool) Features {
	var feats Features

	xn := x
	if e.transform {
		xn = e.normalizer.Forward(x)
	}

	h := e.conv1.ForwardT(xn, train)
	if e.transform {
		xn.MustDrop()
	}
	h = base.MaxPool2dCeil(h, 3, 2, 0, true)
	h = swap(h, e.conv2.ForwardT(h, train))
	h = swap(h, e.conv3.ForwardT(h, train))
	h = base.MaxPool2dCeil(h, 3, 2, 0, true)

	for i, st := range stages {
		h = swap(h, e.blocks[i].ForwardT(h, train))
		if st.tap >= 0 {
			feats[st.tap] = h
		}
		if st.poolK > 0 {
			// tapped maps stay alive for the decoders
			h = base.MaxPool2dCeil(h, st.poolK, 2, 0, st.tap < 0)
		}
	}

	return feats
}

// swap drops prev and returns next. prev must not be a tapped feature.
func swap(prev, next *ts.Tensor) *ts.Tensor {
	prev.MustDrop()
	return next
}
