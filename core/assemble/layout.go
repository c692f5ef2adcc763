// Package assemble builds verse records from flat text: fixed-stride decoding
// of an interleaved file and position-wise zipping of parallel files.
package assemble

import (
	"fmt"
	"sort"

	"github.com/versekit/versekit/core/errors"
)

// Field names the verse field a line is assigned to.
type Field string

// Verse fields a layout may assign.
const (
	FieldText            Field = "text"
	FieldTransliteration Field = "transliteration"
	FieldTranslation     Field = "translation"
)

// validFields is the set of assignable fields.
var validFields = map[Field]bool{
	FieldText:            true,
	FieldTransliteration: true,
	FieldTranslation:     true,
}

// Layout maps each offset within a group of Stride lines to a verse field.
// Offsets without a field are skipped.
type Layout struct {
	Name   string        `yaml:"name"`
	Stride int           `yaml:"stride"`
	Fields map[int]Field `yaml:"fields"`

	// UppercaseTransliteration upper-cases the transliteration field.
	UppercaseTransliteration bool `yaml:"uppercase_transliteration"`

	// GapPolicy marks verses with empty text as gaps and sets the gap flag on
	// every verse.
	GapPolicy bool `yaml:"gaps"`
}

// builtinLayouts are the line layouts found in the source text files.
var builtinLayouts = map[string]Layout{
	// One verse per four lines, blank separator last.
	"default": {
		Name:   "default",
		Stride: 4,
		Fields: map[int]Field{0: FieldText, 1: FieldTransliteration, 2: FieldTranslation},
	},
	// One verse per four lines, heading or blank line first.
	"legacy": {
		Name:   "legacy",
		Stride: 4,
		Fields: map[int]Field{1: FieldText, 2: FieldTransliteration, 3: FieldTranslation},
	},
	// Alternating text and translation lines.
	"pairs": {
		Name:   "pairs",
		Stride: 2,
		Fields: map[int]Field{0: FieldText, 1: FieldTranslation},
	},
}

// LookupLayout returns a copy of the named built-in layout.
func LookupLayout(name string) (Layout, error) {
	l, ok := builtinLayouts[name]
	if !ok {
		return Layout{}, errors.NewNotFound("layout", name)
	}
	fields := make(map[int]Field, len(l.Fields))
	for k, v := range l.Fields {
		fields[k] = v
	}
	l.Fields = fields
	return l, nil
}

// LayoutNames returns the names of the built-in layouts, sorted.
func LayoutNames() []string {
	names := make([]string, 0, len(builtinLayouts))
	for name := range builtinLayouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the layout can decode anything at all.
func (l Layout) Validate() error {
	if l.Stride < 1 {
		return errors.NewValidation("layout.stride", fmt.Sprintf("must be at least 1, got %d", l.Stride))
	}
	if len(l.Fields) == 0 {
		return errors.NewValidation("layout.fields", "no field assigned")
	}
	seen := make(map[Field]int, len(l.Fields))
	for offset, field := range l.Fields {
		if offset < 0 || offset >= l.Stride {
			return errors.NewValidation("layout.fields",
				fmt.Sprintf("offset %d outside stride %d", offset, l.Stride))
		}
		if !validFields[field] {
			return errors.NewValidation("layout.fields",
				fmt.Sprintf("unknown field %q at offset %d", field, offset))
		}
		if prev, dup := seen[field]; dup {
			return errors.NewValidation("layout.fields",
				fmt.Sprintf("field %q assigned at offsets %d and %d", field, min(prev, offset), max(prev, offset)))
		}
		seen[field] = offset
	}
	if _, ok := seen[FieldText]; !ok {
		return errors.NewValidation("layout.fields", "text field not assigned")
	}
	return nil
}
