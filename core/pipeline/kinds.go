package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/merge"
	"github.com/versekit/versekit/core/verse"
	"github.com/versekit/versekit/internal/docio"
	"github.com/versekit/versekit/internal/validation"
)

// Kind names the shape of a document flowing between passes.
type Kind string

// Document kinds.
const (
	KindLines            Kind = "lines"             // newline-delimited text, []string
	KindDocument         Kind = "document"          // verse.Document
	KindCollection       Kind = "collection"        // verse.Collection
	KindScripture        Kind = "scripture"         // verse.Scripture
	KindTranslators      Kind = "translators"       // verse.TranslatorList
	KindAudio            Kind = "audio"             // merge.AudioDocument
	KindWords            Kind = "words"             // []merge.WordRecord
	KindWordTranslations Kind = "word-translations" // merge.LanguageTranslations
	KindTranslation      Kind = "translation"       // merge.TranslationDocument
	KindTanzil           Kind = "tanzil"            // Tanzil XML, []byte
)

var kindDescriptions = map[Kind]string{
	KindLines:            "newline-delimited text; CR and a leading BOM are dropped",
	KindDocument:         "one titled document of verses",
	KindCollection:       "a JSON array of documents",
	KindScripture:        "a JSON array of chapters of verses",
	KindTranslators:      `translator list ({"translations": [...]})`,
	KindAudio:            `per-verse audio and canonical text records ({"quran": [...]})`,
	KindWords:            "per-word records addressed by chapter, verse and position",
	KindWordTranslations: "one language's word translations, aligned with the per-word records",
	KindTranslation:      "a fetched translation resource, one record per verse in order",
	KindTanzil:           "Tanzil XML translation (sura/aya)",
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindDescriptions[k]
	return ok
}

// Description returns a one-line description of k.
func (k Kind) Description() string {
	return kindDescriptions[k]
}

// Kinds returns every known kind, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindDescriptions))
	for k := range kindDescriptions {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReadFile loads the file at path as a value of kind k.
func ReadFile(k Kind, path string) (any, error) {
	if err := validation.CheckFileSize(path); err != nil {
		return nil, err
	}
	switch k {
	case KindLines:
		return docio.ReadLines(path)
	case KindTanzil:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.NewIO("read", path, err)
		}
		return data, nil
	case KindDocument:
		return docio.ReadJSON[verse.Document](path)
	case KindCollection:
		return docio.ReadJSON[verse.Collection](path)
	case KindScripture:
		return docio.ReadJSON[verse.Scripture](path)
	case KindTranslators:
		return docio.ReadJSON[verse.TranslatorList](path)
	case KindAudio:
		return docio.ReadJSON[merge.AudioDocument](path)
	case KindWords:
		return docio.ReadJSON[[]merge.WordRecord](path)
	case KindWordTranslations:
		return docio.ReadJSON[merge.LanguageTranslations](path)
	case KindTranslation:
		return docio.ReadJSON[merge.TranslationDocument](path)
	}
	return nil, errors.NewUnsupported("document kind", string(k))
}

// Encode serializes a value of kind k for writing.
func Encode(k Kind, v any) ([]byte, error) {
	switch k {
	case KindLines:
		lines, ok := v.([]string)
		if !ok {
			return nil, kindMismatch(k, v)
		}
		if len(lines) == 0 {
			return nil, nil
		}
		return []byte(strings.Join(lines, "\n") + "\n"), nil
	case KindTanzil:
		data, ok := v.([]byte)
		if !ok {
			return nil, kindMismatch(k, v)
		}
		return data, nil
	}
	if !k.Valid() {
		return nil, errors.NewUnsupported("document kind", string(k))
	}
	return docio.EncodeJSON(v)
}

// As converts a pass value to T, naming the kind on mismatch.
func As[T any](k Kind, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		return t, kindMismatch(k, v)
	}
	return t, nil
}

func kindMismatch(k Kind, v any) error {
	return fmt.Errorf("value of type %T is not a %s document", v, k)
}
