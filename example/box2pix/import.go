package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var googlenet, out string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Initialize the backbone from GoogLeNet weights and save the network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vs, net, err := newNet("")
			if err != nil {
				return err
			}

			rep, err := net.ImportBackbone(googlenet)
			if err != nil {
				return err
			}
			slog.Info("backbone imported", "file", googlenet, "copied", len(rep.Copied), "mismatched", len(rep.Mismatched), "unused", len(rep.Unused))
			for _, name := range rep.Mismatched {
				slog.Warn("shape mismatch, parameter kept", "name", name)
			}
			slog.Debug("parameters not in source", "count", len(rep.Missing))

			if err := vs.Save(out); err != nil {
				return err
			}
			slog.Info("network saved", "file", out, "transform_input", net.TransformInput())
			return nil
		},
	}
	cmd.Flags().StringVar(&googlenet, "googlenet", "", "GoogLeNet weights (.ot)")
	cmd.Flags().StringVar(&out, "out", "box2pix.ot", "output weights")
	_ = cmd.MarkFlagRequired("googlenet")

	return cmd
}
