// Package pipeline runs a declared sequence of construct and enrich passes.
//
// A Descriptor names the source documents and an ordered list of passes, each
// with named inputs and one named output. Validate checks the whole plan
// before anything runs, so an ordering mistake fails up front instead of
// producing a half-enriched document.
package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/versekit/versekit/core/assemble"
	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/internal/validation"
)

// Descriptor is a pipeline declaration.
type Descriptor struct {
	Name string `yaml:"name"`

	// Workdir is where source and output paths are resolved, relative to the
	// descriptor file. Default: the descriptor's directory.
	Workdir string `yaml:"workdir"`

	// Layouts declares stride layouts in addition to the built-in ones.
	Layouts map[string]assemble.Layout `yaml:"layouts,omitempty"`

	Sources map[string]Source `yaml:"sources"`
	Passes  []Pass            `yaml:"passes"`

	baseDir string
}

// Source is an input document read from disk.
type Source struct {
	Kind Kind   `yaml:"kind"`
	Path string `yaml:"path"`
}

// Output is the document produced by a pass. Path is optional; outputs
// without one only feed later passes.
type Output struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// Pass is one step of the pipeline.
type Pass struct {
	Name    string           `yaml:"name"`
	Kind    string           `yaml:"kind"`
	Inputs  map[string]Names `yaml:"inputs,omitempty"`
	Output  Output           `yaml:"output"`
	Options yaml.Node        `yaml:"options,omitempty"`
}

// Names is one or more document names. In YAML it is either a scalar or a
// sequence.
type Names []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (n *Names) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*n = Names{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*n = list
		return nil
	}
	return fmt.Errorf("line %d: input must be a name or a list of names", node.Line)
}

// DefaultDescriptor returns an empty descriptor rooted at the current
// directory.
func DefaultDescriptor() *Descriptor {
	return &Descriptor{
		Workdir: ".",
		Sources: map[string]Source{},
		baseDir: ".",
	}
}

// Load reads a descriptor from a YAML file. Unknown fields are rejected.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %s", path)
	}
	d.baseDir = filepath.Dir(path)
	return d, nil
}

// Parse decodes a descriptor. Relative paths resolve against the current
// directory.
func Parse(data []byte) (*Descriptor, error) {
	d := DefaultDescriptor()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(d); err != nil {
		return nil, errors.NewParse("yaml", "", err.Error())
	}
	if d.Workdir == "" {
		d.Workdir = "."
	}
	return d, nil
}

// Dir returns the resolved working directory.
func (d *Descriptor) Dir() string {
	if filepath.IsAbs(d.Workdir) {
		return d.Workdir
	}
	base := d.baseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, d.Workdir)
}

// Layout returns the named layout, preferring declared layouts over the
// built-in ones.
func (d *Descriptor) Layout(name string) (assemble.Layout, error) {
	if l, ok := d.Layouts[name]; ok {
		if l.Name == "" {
			l.Name = name
		}
		return l, nil
	}
	return assemble.LookupLayout(name)
}

// PassByName returns the named pass and its index.
func (d *Descriptor) PassByName(name string) (*Pass, int, bool) {
	for i := range d.Passes {
		if d.Passes[i].Name == name {
			return &d.Passes[i], i, true
		}
	}
	return nil, -1, false
}

// producer records where a document name comes from.
type producer struct {
	kind Kind
	path string // resolved, empty for in-memory outputs
	pass int    // index of producing pass, -1 for sources
}

// Validate checks the descriptor against the passes registered in reg.
// It fails on the first problem found.
func (d *Descriptor) Validate(reg *Registry) error {
	_, err := d.plan(reg)
	return err
}

// plan validates the descriptor and returns the producer of every document.
func (d *Descriptor) plan(reg *Registry) (map[string]producer, error) {
	if d.Name == "" {
		return nil, errors.NewValidation("name", "pipeline name is required")
	}
	if len(d.Passes) == 0 {
		return nil, errors.NewValidation("passes", "pipeline declares no passes")
	}

	for _, name := range sortedKeys(d.Layouts) {
		l := d.Layouts[name]
		if err := l.Validate(); err != nil {
			return nil, errors.Wrapf(err, "layout %s", name)
		}
	}

	docs := make(map[string]producer, len(d.Sources)+len(d.Passes))
	paths := make(map[string]string)
	for _, name := range sortedKeys(d.Sources) {
		src := d.Sources[name]
		if err := validation.ValidateName(name); err != nil {
			return nil, errors.Wrapf(err, "source")
		}
		if !src.Kind.Valid() {
			return nil, errors.NewValidation("sources."+name+".kind", fmt.Sprintf("unknown document kind %q", src.Kind))
		}
		if src.Path == "" {
			return nil, errors.NewValidation("sources."+name+".path", "path is required")
		}
		p, err := validation.ResolveUnder(d.Dir(), src.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "source %s", name)
		}
		docs[name] = producer{kind: src.Kind, path: p, pass: -1}
		paths[p] = "source " + name
	}

	passNames := make(map[string]bool, len(d.Passes))
	for i := range d.Passes {
		p := &d.Passes[i]
		field := fmt.Sprintf("passes[%d]", i)
		if err := validation.ValidateName(p.Name); err != nil {
			return nil, errors.Wrapf(err, "%s.name", field)
		}
		if passNames[p.Name] {
			return nil, errors.NewValidation(field+".name", fmt.Sprintf("duplicate pass name %q", p.Name))
		}
		passNames[p.Name] = true
		field = "pass " + p.Name

		spec, err := reg.Lookup(p.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", field)
		}

		inputPaths := map[string]bool{}
		if err := d.checkInputs(field, p, spec, docs, inputPaths); err != nil {
			return nil, err
		}

		out, err := d.checkOutput(field, p, spec, docs, inputPaths, paths)
		if err != nil {
			return nil, err
		}
		out.pass = i
		docs[p.Output.Name] = out
		if out.path != "" {
			paths[out.path] = "output of pass " + p.Name
		}

		if _, err := spec.decodeOptions(&p.Options, d); err != nil {
			return nil, errors.Wrapf(err, "%s options", field)
		}
	}
	return docs, nil
}

func (d *Descriptor) checkInputs(field string, p *Pass, spec PassSpec, docs map[string]producer, inputPaths map[string]bool) error {
	for role := range p.Inputs {
		if _, ok := spec.role(role); !ok {
			return errors.NewValidation(field+".inputs", fmt.Sprintf("%s passes take no %q input", spec.Kind, role))
		}
	}
	for _, r := range spec.Inputs {
		names := p.Inputs[r.Name]
		if len(names) == 0 {
			if r.Optional {
				continue
			}
			return errors.NewValidation(field+".inputs", fmt.Sprintf("missing %q input", r.Name))
		}
		if len(names) > 1 && !r.Multiple {
			return errors.NewValidation(field+".inputs."+r.Name, fmt.Sprintf("takes one document, got %d", len(names)))
		}
		for _, name := range names {
			prod, ok := docs[name]
			if !ok {
				return errors.NewValidation(field+".inputs."+r.Name,
					fmt.Sprintf("%q is neither a source nor the output of an earlier pass", name))
			}
			if !r.accepts(prod.kind) {
				return errors.NewValidation(field+".inputs."+r.Name,
					fmt.Sprintf("%q is a %s document, want %s", name, prod.kind, kindList(r.Kinds)))
			}
			if prod.path != "" {
				inputPaths[prod.path] = true
			}
		}
	}
	return nil
}

func (d *Descriptor) checkOutput(field string, p *Pass, spec PassSpec, docs map[string]producer, inputPaths map[string]bool, paths map[string]string) (producer, error) {
	out := p.Output
	if err := validation.ValidateName(out.Name); err != nil {
		return producer{}, errors.Wrapf(err, "%s.output.name", field)
	}
	if _, exists := docs[out.Name]; exists {
		return producer{}, errors.NewValidation(field+".output.name", fmt.Sprintf("document %q is already defined", out.Name))
	}
	kind := out.Kind
	if kind == "" {
		kind = spec.Outputs[0]
		p.Output.Kind = kind
	}
	if !spec.produces(kind) {
		return producer{}, errors.NewValidation(field+".output.kind",
			fmt.Sprintf("%s passes produce %s, not %s", spec.Kind, kindList(spec.Outputs), kind))
	}

	prod := producer{kind: kind}
	if out.Path != "" {
		resolved, err := validation.ResolveUnder(d.Dir(), out.Path)
		if err != nil {
			return producer{}, errors.Wrapf(err, "%s.output.path", field)
		}
		if inputPaths[resolved] {
			return producer{}, errors.NewValidation(field+".output.path",
				fmt.Sprintf("%s would overwrite one of the pass's own inputs", out.Path))
		}
		if owner, taken := paths[resolved]; taken {
			return producer{}, errors.NewValidation(field+".output.path",
				fmt.Sprintf("%s is already the path of %s", out.Path, owner))
		}
		prod.path = resolved
	}
	return prod, nil
}

func kindList(kinds []Kind) string {
	var b bytes.Buffer
	for i, k := range kinds {
		if i > 0 {
			b.WriteString(" or ")
		}
		b.WriteString(string(k))
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
