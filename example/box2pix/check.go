package main

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/spf13/cobra"
	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/box2pix/box2pix"
)

func checkCmd() *cobra.Command {
	var height, width int64

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a random image through the network and verify output shapes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, net, err := newNet("")
			if err != nil {
				return err
			}
			return runCheck(net, height, width)
		},
	}
	cmd.Flags().Int64Var(&height, "height", 2048, "input height")
	cmd.Flags().Int64Var(&width, "width", 1024, "input width")

	return cmd
}

func runCheck(net *box2pix.Box2Pix, height, width int64) error {
	x := ts.MustRandn([]int64{1, 3, height, width}, gotch.Float, device())
	defer x.MustDrop()

	var (
		out *box2pix.Output
		err error
	)
	ts.NoGrad(func() {
		out, err = net.Forward(x)
	})
	if err != nil {
		return err
	}
	defer out.Drop()

	c := net.Config().NumClasses
	checks := []struct {
		name      string
		got, want []int64
	}{
		{"loc last axis", out.Loc.MustSize()[2:], []int64{4}},
		{"conf last axis", out.Conf.MustSize()[2:], []int64{c}},
		{"semantics", out.Semantics.MustSize(), []int64{1, c, height, width}},
		{"offsets", out.Offsets.MustSize(), []int64{1, 2, height, width}},
	}
	for _, chk := range checks {
		if !reflect.DeepEqual(chk.got, chk.want) {
			return fmt.Errorf("%s: got %v, want %v", chk.name, chk.got, chk.want)
		}
	}

	slog.Info("pass size check", "loc", out.Loc.MustSize(), "conf", out.Conf.MustSize(), "semantics", out.Semantics.MustSize())
	return nil
}
