package assemble

import (
	"fmt"
	"strings"

	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/verse"
)

// ZipInput holds parallel line sequences aligned by index. Transliteration is
// only read when HasTransliteration is set, so an empty third file still
// takes part in the length check.
type ZipInput struct {
	Text               []string
	Translation        []string
	Transliteration    []string
	HasTransliteration bool
}

// ZipOptions controls how zipped verses are built.
type ZipOptions struct {
	// GapPolicy turns empty text lines into gap placeholders with negative ids.
	GapPolicy bool

	UppercaseTransliteration bool
}

// Zip builds one verse per index of the parallel sequences. All supplied
// sequences must have the same length; otherwise a MalformedInputError lists
// the lengths observed and names the first line missing from the shortest
// sequence.
func Zip(in ZipInput, opts ZipOptions) ([]verse.Verse, error) {
	if err := checkLengths(in); err != nil {
		return nil, err
	}

	ids := newIDAssigner()
	verses := make([]verse.Verse, 0, len(in.Text))
	for i := range in.Text {
		var transliteration string
		if in.HasTransliteration {
			transliteration = strings.TrimSpace(in.Transliteration[i])
		}
		verses = append(verses, buildVerse(ids,
			strings.TrimSpace(in.Text[i]),
			strings.TrimSpace(in.Translation[i]),
			transliteration,
			opts.GapPolicy, opts.UppercaseTransliteration))
	}
	return verses, nil
}

func checkLengths(in ZipInput) error {
	type seq struct {
		name string
		n    int
	}
	seqs := []seq{{"text", len(in.Text)}, {"translation", len(in.Translation)}}
	if in.HasTransliteration {
		seqs = append(seqs, seq{"transliteration", len(in.Transliteration)})
	}

	shortest, equal := seqs[0].n, true
	for _, s := range seqs[1:] {
		if s.n != seqs[0].n {
			equal = false
		}
		shortest = min(shortest, s.n)
	}
	if equal {
		return nil
	}

	parts := make([]string, len(seqs))
	for i, s := range seqs {
		parts[i] = fmt.Sprintf("%s has %d", s.name, s.n)
	}
	return errors.NewMalformed("parallel files", shortest+1,
		"sequences differ in length (%s)", strings.Join(parts, ", "))
}
