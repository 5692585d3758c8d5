package base

import (
	"github.com/sugarme/gotch/ts"
)

// ImportReport lists what happened to each name seen during an import.
type ImportReport struct {
	Copied     []string // present in both, same shape
	Mismatched []string // present in both, different shape
	Unused     []string // in the source only
	Missing    []string // in the registry only
}

// Import copies every source tensor whose name is registered with an equal
// shape. Everything else is ignored and reported.
func (r *Registry) Import(named []ts.NamedTensor) ImportReport {
	var rep ImportReport
	seen := make(map[string]bool, len(named))

	WithoutGrad(func() {
		for _, nt := range named {
			p, ok := r.Lookup(nt.Name)
			if !ok {
				rep.Unused = append(rep.Unused, nt.Name)
				continue
			}
			seen[nt.Name] = true
			if !sameShape(p.Tensor.MustSize(), nt.Tensor.MustSize()) {
				rep.Mismatched = append(rep.Mismatched, nt.Name)
				continue
			}
			p.Tensor.Copy_(nt.Tensor)
			rep.Copied = append(rep.Copied, nt.Name)
		}
	})

	for _, p := range r.params {
		if !seen[p.Name] {
			rep.Missing = append(rep.Missing, p.Name)
		}
	}

	return rep
}

func sameShape(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
