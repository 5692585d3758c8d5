package main

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/box2pix/box2pix"
	"github.com/sugarme/box2pix/imageio"
	"github.com/sugarme/box2pix/report"
)

func predictCmd() *cobra.Command {
	var weights, out, hist, palette string

	cmd := &cobra.Command{
		Use:   "predict IMAGE",
		Short: "Predict the semantic map of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, net, err := newNet(weights)
			if err != nil {
				return err
			}
			pal, err := loadPalette(palette, int(net.Config().NumClasses))
			if err != nil {
				return err
			}

			img, err := imageio.Read(args[0])
			if err != nil {
				return err
			}
			labels, pred, err := predict(net, img)
			if err != nil {
				return err
			}
			defer pred.Drop()

			slog.Info("prediction",
				"image", args[0],
				"size", fmt.Sprintf("%dx%d", labels.Width, labels.Height),
				"priors", pred.Loc.MustSize()[1],
			)

			if err := imageio.SaveLabels(labels, pal, out); err != nil {
				return err
			}
			slog.Info("semantic map saved", "file", out)

			if hist != "" {
				counts := report.ClassHistogram(labels.Labels, len(pal))
				if err := report.SaveHistogram(counts, pal.Names(), hist); err != nil {
					return err
				}
				slog.Info("class histogram saved", "file", hist)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&weights, "weights", "", "network weights (.ot)")
	cmd.Flags().StringVar(&out, "out", "semantics.png", "output semantic map")
	cmd.Flags().StringVar(&hist, "hist", "", "optional class histogram chart")
	cmd.Flags().StringVar(&palette, "palette", "", "class palette CSV (id,name,r,g,b)")

	return cmd
}

func loadPalette(file string, numClasses int) (imageio.Palette, error) {
	if file == "" {
		return imageio.DefaultPalette(numClasses), nil
	}
	pal, err := imageio.LoadPalette(file)
	if err != nil {
		return nil, err
	}
	if len(pal) < numClasses {
		return nil, fmt.Errorf("palette %q has %d classes, network has %d", file, len(pal), numClasses)
	}
	return pal, nil
}

// predict resizes img to a multiple of the decoder stride, runs the network
// and returns the argmax label map with the raw outputs.
func predict(net *box2pix.Box2Pix, img image.Image) (*imageio.LabelMap, *box2pix.Output, error) {
	x := imageio.ToTensor(imageio.Fit(img), device())
	defer x.MustDrop()

	var (
		out *box2pix.Output
		err error
	)
	ts.NoGrad(func() {
		out, err = net.Forward(x)
	})
	if err != nil {
		return nil, nil, err
	}

	labels, err := imageio.Argmax(out.Semantics)
	if err != nil {
		out.Drop()
		return nil, nil, err
	}
	return labels, out, nil
}
