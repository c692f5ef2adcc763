package assemble

import (
	"strings"

	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/verse"
)

// DecodeStride splits lines into consecutive groups of layout.Stride lines and
// builds one verse per group, assigning each offset to its layout field.
//
// The number of lines must be a positive multiple of the stride; a trailing
// partial group is reported as a MalformedInputError naming the first missing
// line rather than being dropped.
func DecodeStride(source string, lines []string, layout Layout) ([]verse.Verse, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.NewMalformed(source, 1, "no lines to decode")
	}
	if rem := len(lines) % layout.Stride; rem != 0 {
		return nil, errors.NewMalformed(source, len(lines)+1,
			"got %d lines, want a multiple of %d: group %d is missing %d line(s)",
			len(lines), layout.Stride, len(lines)/layout.Stride+1, layout.Stride-rem)
	}

	ids := newIDAssigner()
	verses := make([]verse.Verse, 0, len(lines)/layout.Stride)
	for start := 0; start < len(lines); start += layout.Stride {
		group := lines[start : start+layout.Stride]

		var text, transliteration, translation string
		for offset, field := range layout.Fields {
			value := strings.TrimSpace(group[offset])
			switch field {
			case FieldText:
				text = value
			case FieldTransliteration:
				transliteration = value
			case FieldTranslation:
				translation = value
			}
		}

		verses = append(verses, buildVerse(ids, text, translation, transliteration,
			layout.GapPolicy, layout.UppercaseTransliteration))
	}

	return verses, nil
}

// buildVerse assigns the next id and applies the gap and case policies.
func buildVerse(ids *idAssigner, text, translation, transliteration string, gapPolicy, upper bool) verse.Verse {
	if upper {
		transliteration = strings.ToUpper(transliteration)
	}
	gap := gapPolicy && text == ""
	v := verse.Verse{
		ID:              ids.assign(gap),
		Text:            text,
		Translation:     translation,
		Transliteration: transliteration,
	}
	if gapPolicy {
		v.Gap = verse.Bool(gap)
	}
	return v
}
