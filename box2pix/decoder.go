package box2pix

import (
	"fmt"

	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/box2pix/base"
	"github.com/sugarme/box2pix/encoder"
)

// Crop offsets undoing the extra border of k4/s2 and k16/s8 transpose
// convolutions relative to the ceil-mode pooled maps.
const (
	fuseCropOffset  int64 = 1
	finalCropOffset int64 = 4
)

var tapNames = [4]string{"3b", "4e", "5b", "6b"}

// DenseDecoder fuses four taps top-down into one full-resolution map.
type DenseDecoder struct {
	channels int64

	// shallow -> deep
	scores [4]*nn.Conv2D
	// deep -> shallow: x2 upsamples feeding the fusions with taps 2, 1, 0
	ups   [3]*base.Upsample
	final *base.Upsample
}

// NewDenseDecoder creates a decoder named `prefix` (e.g. "sem", "offs")
// producing cOut channels from taps with the given channel widths.
func NewDenseDecoder(s *base.Scope, prefix string, tapChannels [4]int64, cOut int64) *DenseDecoder {
	d := &DenseDecoder{channels: cOut}
	for i, c := range tapChannels {
		d.scores[i] = base.NewScoreHead(s.Sub(fmt.Sprintf("%s_score%s", prefix, tapNames[i])), c, cOut)
	}
	for i, name := range []string{"upscore", "upscore2", "upscore4"} {
		d.ups[i] = base.NewUpsample(s.Sub(prefix+"_"+name), cOut, 4, 2)
	}
	d.final = base.NewUpsample(s.Sub(prefix+"_upscore8"), cOut, 16, 8)

	return d
}

// Channels is the channel width of decoded maps.
func (d *DenseDecoder) Channels() int64 { return d.channels }

// Decode returns an (N, C, h, w) map. Taps are only read.
func (d *DenseDecoder) Decode(taps encoder.Taps, h, w int64) (*ts.Tensor, error) {
	fused := d.scores[3].Forward(taps[3])
	for lvl := 2; lvl >= 0; lvl-- {
		up := d.ups[2-lvl].Forward(fused)
		fused.MustDrop()

		score := d.scores[lvl].Forward(taps[lvl])
		size := score.MustSize()
		cropped, err := base.Crop(up, fuseCropOffset, size[2], size[3])
		up.MustDrop()
		if err != nil {
			score.MustDrop()
			return nil, fmt.Errorf("fuse score%s: %w", tapNames[lvl], err)
		}
		fused = cropped.MustAdd(score, true)
		score.MustDrop()
	}

	up := d.final.Forward(fused)
	fused.MustDrop()
	out, err := base.Crop(up, finalCropOffset, h, w)
	up.MustDrop()
	if err != nil {
		return nil, fmt.Errorf("final upscore: %w", err)
	}

	return out.MustContiguous(true), nil
}
