package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/merge"
)

// Role is a named input slot of a pass kind.
type Role struct {
	Name     string
	Kinds    []Kind
	Optional bool
	Multiple bool
}

func (r Role) accepts(k Kind) bool {
	for _, want := range r.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Inputs holds the values bound to each role of a running pass, in the order
// they were declared.
type Inputs map[string][]any

// Has reports whether role is bound.
func (in Inputs) Has(role string) bool {
	return len(in[role]) > 0
}

// Input returns the single value bound to role as T.
func Input[T any](in Inputs, role string) (T, error) {
	var zero T
	vals := in[role]
	if len(vals) != 1 {
		return zero, fmt.Errorf("input %q: want one document, got %d", role, len(vals))
	}
	v, ok := vals[0].(T)
	if !ok {
		return zero, fmt.Errorf("input %q: unexpected %T", role, vals[0])
	}
	return v, nil
}

// InputList returns every value bound to role as T.
func InputList[T any](in Inputs, role string) ([]T, error) {
	out := make([]T, 0, len(in[role]))
	for i, v := range in[role] {
		t, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("input %q[%d]: unexpected %T", role, i, v)
		}
		out = append(out, t)
	}
	return out, nil
}

// Result is the outcome of one pass.
type Result struct {
	Value  any
	Report *merge.Report
}

// Env carries run-wide collaborators into passes.
type Env struct {
	Descriptor *Descriptor
	Fetcher    Fetcher
}

// PassSpec describes a pass kind: its input roles, the kinds it can produce
// (the first is the default) and how to run it.
type PassSpec struct {
	Kind    string
	Summary string
	Inputs  []Role
	Outputs []Kind

	decode func(node *yaml.Node, d *Descriptor) (any, error)
	run    func(ctx context.Context, env *Env, in Inputs, opts any) (Result, error)
}

func (s PassSpec) role(name string) (Role, bool) {
	for _, r := range s.Inputs {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}

func (s PassSpec) produces(k Kind) bool {
	for _, o := range s.Outputs {
		if o == k {
			return true
		}
	}
	return false
}

func (s PassSpec) decodeOptions(node *yaml.Node, d *Descriptor) (any, error) {
	return s.decode(node, d)
}

// Define builds a PassSpec whose options decode into O. check, if non-nil,
// validates decoded options before any pass runs.
func Define[O any](kind, summary string, inputs []Role, outputs []Kind,
	check func(*O, *Descriptor) error,
	run func(ctx context.Context, env *Env, in Inputs, opts *O) (Result, error),
) PassSpec {
	return PassSpec{
		Kind:    kind,
		Summary: summary,
		Inputs:  inputs,
		Outputs: outputs,
		decode: func(node *yaml.Node, d *Descriptor) (any, error) {
			opts := new(O)
			if node != nil && node.Kind != 0 {
				if err := node.Decode(opts); err != nil {
					return nil, err
				}
			}
			if check != nil {
				if err := check(opts, d); err != nil {
					return nil, err
				}
			}
			return opts, nil
		},
		run: func(ctx context.Context, env *Env, in Inputs, opts any) (Result, error) {
			return run(ctx, env, in, opts.(*O))
		},
	}
}

// Registry maps pass kinds to their specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]PassSpec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]PassSpec)}
}

// Register adds spec. Registering a kind twice is an error.
func (r *Registry) Register(spec PassSpec) error {
	if spec.Kind == "" || spec.run == nil || len(spec.Outputs) == 0 {
		return errors.NewValidation("pass kind", fmt.Sprintf("incomplete pass spec %q", spec.Kind))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.Kind]; exists {
		return errors.NewValidation("pass kind", fmt.Sprintf("%q is already registered", spec.Kind))
	}
	r.specs[spec.Kind] = spec
	return nil
}

// Lookup returns the spec for kind.
func (r *Registry) Lookup(kind string) (PassSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[kind]
	if !ok {
		return PassSpec{}, errors.NewUnsupported("pass kind", fmt.Sprintf("%q is not registered", kind))
	}
	return spec, nil
}

// Specs returns every registered spec sorted by kind.
func (r *Registry) Specs() []PassSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PassSpec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, spec := range builtinPasses() {
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
	return r
}

// DefaultRegistry returns the registry holding the built-in pass kinds.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a pass kind to the default registry.
func Register(spec PassSpec) error {
	return defaultRegistry.Register(spec)
}

// Lookup finds a pass kind in the default registry.
func Lookup(kind string) (PassSpec, error) {
	return defaultRegistry.Lookup(kind)
}
