package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sugarme/box2pix/imageio"
	"github.com/sugarme/box2pix/metric"
)

func evalCmd() *cobra.Command {
	var weights string

	cmd := &cobra.Command{
		Use:   "eval IMAGE LABELS",
		Short: "Compare the predicted semantic map with a gray-level label image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, net, err := newNet(weights)
			if err != nil {
				return err
			}

			img, err := imageio.Read(args[0])
			if err != nil {
				return err
			}
			gt, err := imageio.Read(args[1])
			if err != nil {
				return err
			}

			pred, out, err := predict(net, img)
			if err != nil {
				return err
			}
			out.Drop()

			target := imageio.LabelsFromImage(imageio.ResizeLabels(gt, pred.Width, pred.Height))
			n := int(net.Config().NumClasses)

			ious, err := metric.ClassIoU(pred.Labels, target.Labels, n)
			if err != nil {
				return err
			}
			mean, err := metric.MeanIoU(pred.Labels, target.Labels, n)
			if err != nil {
				return err
			}
			acc, err := metric.PixelAccuracy(pred.Labels, target.Labels)
			if err != nil {
				return err
			}

			for c, v := range ious {
				slog.Debug("class iou", "class", c, "iou", v)
			}
			slog.Info("evaluation", "mean_iou", fmt.Sprintf("%.4f", mean), "pixel_accuracy", fmt.Sprintf("%.4f", acc))
			return nil
		},
	}
	cmd.Flags().StringVar(&weights, "weights", "", "network weights (.ot)")

	return cmd
}
