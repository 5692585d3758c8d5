// Command box2pix runs the box2pix network: size checks, prediction,
// evaluation and backbone import.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/nn"

	"github.com/sugarme/box2pix/box2pix"
)

// persistent flag values
var (
	numClasses     int64
	cuda           bool
	transformInput bool
	parallel       bool
	logLevel       string
)

func main() {
	root := &cobra.Command{
		Use:           "box2pix",
		Short:         "Single-shot instance segmentation network",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	flags := root.PersistentFlags()
	flags.Int64Var(&numClasses, "classes", 11, "number of semantic classes")
	flags.BoolVar(&cuda, "cuda", false, "use CUDA when available")
	flags.BoolVar(&transformInput, "transform-input", false, "apply the GoogLeNet input normalization")
	flags.BoolVar(&parallel, "parallel", false, "run detection head and decoders concurrently")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(checkCmd(), predictCmd(), evalCmd(), importCmd())

	if err := root.Execute(); err != nil {
		slog.Error("box2pix failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func device() gotch.Device {
	if cuda {
		return gotch.CudaIfAvailable()
	}
	return gotch.CPU
}

// newNet builds a network from the persistent flags, optionally loading
// weights saved by `import` or a training run.
func newNet(weights string) (*nn.VarStore, *box2pix.Box2Pix, error) {
	vs := nn.NewVarStore(device())
	cfg := box2pix.NewConfig(numClasses, transformInput)
	cfg.Parallel = parallel

	net, err := box2pix.New(vs.Root(), cfg)
	if err != nil {
		return nil, nil, err
	}
	if weights != "" {
		if err := vs.Load(weights); err != nil {
			return nil, nil, fmt.Errorf("load weights %q: %w", weights, err)
		}
		slog.Info("weights loaded", "file", weights)
	}

	return vs, net, nil
}
