package box2pix

import (
	"fmt"
	"log/slog"

	"github.com/sugarme/gotch"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/box2pix/base"
)

// ImportBackbone copies the parameters of a foreign model saved as a gotch
// ".ot" file (e.g. a converted torchvision GoogLeNet) into every registered
// parameter with the same name and shape. Other tensors are ignored. Input
// normalization is enabled afterwards, as the imported weights expect it.
func (n *Box2Pix) ImportBackbone(file string) (base.ImportReport, error) {
	named, err := ts.LoadMultiWithDevice(file, n.device())
	if err != nil {
		return base.ImportReport{}, fmt.Errorf("import backbone %q: %w", file, err)
	}

	rep := n.ImportNamed(named)
	for _, nt := range named {
		nt.Tensor.MustDrop()
	}
	slog.Debug("backbone imported", "file", file, "copied", len(rep.Copied), "mismatched", len(rep.Mismatched), "unused", len(rep.Unused))

	return rep, nil
}

// ImportNamed is ImportBackbone for tensors already in memory.
func (n *Box2Pix) ImportNamed(named []ts.NamedTensor) base.ImportReport {
	rep := n.reg.Import(named)
	for _, name := range rep.Mismatched {
		slog.Debug("skipping parameter with mismatched shape", "name", name)
	}
	n.SetTransformInput(true)

	return rep
}

func (n *Box2Pix) device() gotch.Device {
	p, ok := n.reg.First()
	if !ok {
		return gotch.CPU
	}
	return p.Tensor.MustDevice()
}
