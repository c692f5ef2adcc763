// Package docgen generates reference documentation for pipeline descriptors
// from the registered pass kinds.
package docgen

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/versekit/versekit/core/assemble"
	"github.com/versekit/versekit/core/pipeline"
	"github.com/versekit/versekit/internal/docio"
)

// Generator writes Markdown references into OutputDir.
type Generator struct {
	OutputDir string
	Registry  *pipeline.Registry
}

// NewGenerator creates a generator over the default registry.
func NewGenerator(outputDir string) *Generator {
	return &Generator{
		OutputDir: outputDir,
		Registry:  pipeline.DefaultRegistry(),
	}
}

// GenerateAll writes every reference.
func (g *Generator) GenerateAll() error {
	if err := os.MkdirAll(g.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := g.GeneratePasses(); err != nil {
		return err
	}
	if err := g.GenerateKinds(); err != nil {
		return err
	}
	return g.GenerateLayouts()
}

// GeneratePasses writes PASSES.md.
func (g *Generator) GeneratePasses() error {
	return g.generate("PASSES.md", func(w io.Writer) error {
		return g.writePassesDoc(w, g.Registry.Specs())
	})
}

// GenerateKinds writes KINDS.md.
func (g *Generator) GenerateKinds() error {
	return g.generate("KINDS.md", func(w io.Writer) error {
		return g.writeKindsDoc(w, pipeline.Kinds())
	})
}

// GenerateLayouts writes LAYOUTS.md.
func (g *Generator) GenerateLayouts() error {
	return g.generate("LAYOUTS.md", g.writeLayoutsDoc)
}

func (g *Generator) generate(name string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	return docio.WriteFileAtomic(filepath.Join(g.OutputDir, name), buf.Bytes())
}

func (g *Generator) writePassesDoc(w io.Writer, specs []pipeline.PassSpec) error {
	fmt.Fprintln(w, "# Pass Reference")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Passes run in declaration order. Each input names a source or the output of an earlier pass.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Kind | Inputs | Output | Summary |")
	fmt.Fprintln(w, "|------|--------|--------|---------|")
	for _, s := range specs {
		roles := make([]string, len(s.Inputs))
		for i, r := range s.Inputs {
			roles[i] = "`" + r.Name + "`"
		}
		inputs := strings.Join(roles, ", ")
		if inputs == "" {
			inputs = "-"
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n", s.Kind, inputs, kindNames(s.Outputs), s.Summary)
	}
	fmt.Fprintln(w)

	for _, s := range specs {
		fmt.Fprintf(w, "## %s\n\n", s.Kind)
		fmt.Fprintf(w, "%s.\n\n", capitalize(s.Summary))
		if len(s.Inputs) > 0 {
			fmt.Fprintln(w, "| Input | Kinds | Notes |")
			fmt.Fprintln(w, "|-------|-------|-------|")
			for _, r := range s.Inputs {
				var notes []string
				if r.Optional {
					notes = append(notes, "optional")
				}
				if r.Multiple {
					notes = append(notes, "one or more, in order")
				}
				fmt.Fprintf(w, "| %s | %s | %s |\n", r.Name, kindNames(r.Kinds), strings.Join(notes, "; "))
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Output: %s\n\n", kindNames(s.Outputs))
	}
	return nil
}

func (g *Generator) writeKindsDoc(w io.Writer, kinds []pipeline.Kind) error {
	fmt.Fprintln(w, "# Document Kinds")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Kind | Contents |")
	fmt.Fprintln(w, "|------|----------|")
	for _, k := range kinds {
		fmt.Fprintf(w, "| %s | %s |\n", k, k.Description())
	}
	return nil
}

func (g *Generator) writeLayoutsDoc(w io.Writer) error {
	fmt.Fprintln(w, "# Stride Layouts")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Built-in layouts for the `stride` pass. Offsets not listed are ignored.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Layout | Stride | Fields |")
	fmt.Fprintln(w, "|--------|--------|--------|")
	for _, name := range assemble.LayoutNames() {
		l, err := assemble.LookupLayout(name)
		if err != nil {
			return err
		}
		var fields []string
		for off := 0; off < l.Stride; off++ {
			if f, ok := l.Fields[off]; ok {
				fields = append(fields, fmt.Sprintf("%d: %s", off, f))
			}
		}
		fmt.Fprintf(w, "| %s | %d | %s |\n", name, l.Stride, strings.Join(fields, ", "))
	}
	return nil
}

func kindNames(kinds []pipeline.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, " or ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
