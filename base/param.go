package base

import (
	"fmt"
	"strings"

	"github.com/sugarme/gotch/nn"
	"github.com/sugarme/gotch/ts"
)

// ParamKind tags a learnable parameter (or normalization buffer) with the
// initialization rule that applies to it.
type ParamKind int

const (
	KindConv      ParamKind = iota // ordinary convolution weight
	KindConvBias                   // ordinary convolution bias
	KindScore                      // 1x1 score projection weight
	KindScoreBias                  // 1x1 score projection bias
	KindUpsample                   // transpose-convolution (bilinear) weight
	KindNormScale                  // batch norm gamma
	KindNormShift                  // batch norm beta
	KindNormMean                   // batch norm running mean
	KindNormVar                    // batch norm running variance
)

var kindNames = map[ParamKind]string{
	KindConv:      "conv",
	KindConvBias:  "conv-bias",
	KindScore:     "score",
	KindScoreBias: "score-bias",
	KindUpsample:  "upsample",
	KindNormScale: "norm-scale",
	KindNormShift: "norm-shift",
	KindNormMean:  "norm-mean",
	KindNormVar:   "norm-var",
}

func (k ParamKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ParamKind(%d)", int(k))
}

// Param is one named tensor owned by a network.
type Param struct {
	Name   string
	Kind   ParamKind
	Tensor *ts.Tensor
}

// Registry is an ordered name -> parameter table built once at construction.
// Names are the dotted variable names used by gotch var stores.
type Registry struct {
	params []Param
	index  map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add appends a parameter. Names must be unique.
func (r *Registry) Add(p Param) error {
	if p.Tensor == nil {
		return fmt.Errorf("registry: parameter %q has no tensor", p.Name)
	}
	if _, ok := r.index[p.Name]; ok {
		return fmt.Errorf("registry: duplicate parameter %q", p.Name)
	}
	r.index[p.Name] = len(r.params)
	r.params = append(r.params, p)

	return nil
}

// Lookup returns the parameter registered under name.
func (r *Registry) Lookup(name string) (Param, bool) {
	i, ok := r.index[name]
	if !ok {
		return Param{}, false
	}
	return r.params[i], true
}

// Params returns parameters in registration order.
func (r *Registry) Params() []Param {
	out := make([]Param, len(r.params))
	copy(out, r.params)
	return out
}

// Names returns parameter names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.params))
	for i, p := range r.params {
		names[i] = p.Name
	}
	return names
}

// OfKind returns the parameters tagged with kind, in registration order.
func (r *Registry) OfKind(kind ParamKind) []Param {
	var out []Param
	for _, p := range r.params {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) Len() int { return len(r.params) }

// First returns the earliest registered parameter.
func (r *Registry) First() (Param, bool) {
	if len(r.params) == 0 {
		return Param{}, false
	}
	return r.params[0], true
}

// Scope pairs a gotch path with the registry so that every variable created
// under it is also recorded with its full dotted name.
type Scope struct {
	path   *nn.Path
	prefix string
	reg    *Registry
}

// NewScope creates a root scope.
func NewScope(p *nn.Path, reg *Registry) *Scope {
	return &Scope{path: p, reg: reg}
}

// Sub returns the child scope `name`.
func (s *Scope) Sub(name string) *Scope {
	return &Scope{
		path:   s.path.Sub(name),
		prefix: s.join(name),
		reg:    s.reg,
	}
}

func (s *Scope) Path() *nn.Path { return s.path }

func (s *Scope) Registry() *Registry { return s.reg }

// Name returns the dotted name of this scope.
func (s *Scope) Name() string { return s.prefix }

// Register records a variable created under this scope. A duplicate name is
// a construction bug and panics.
func (s *Scope) Register(name string, kind ParamKind, t *ts.Tensor) {
	if err := s.reg.Add(Param{Name: s.join(name), Kind: kind, Tensor: t}); err != nil {
		panic(err)
	}
}

func (s *Scope) join(name string) string {
	if s.prefix == "" {
		return name
	}
	return strings.Join([]string{s.prefix, name}, ".")
}
