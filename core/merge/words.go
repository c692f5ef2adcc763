package merge

import (
	"fmt"
	"sort"

	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/verse"
)

// WordRecord is one entry of the per-word document. The address is either the
// Location string ("2:255:3") or the Surah, Ayah and Position fields.
type WordRecord struct {
	Location string `json:"location,omitempty"`
	Surah    int    `json:"surah,omitempty"`
	Ayah     int    `json:"ayah,omitempty"`
	Position int    `json:"position,omitempty"`
	Text     string `json:"text"`
}

// Key returns the word address of r.
func (r WordRecord) Key() (verse.Key, error) {
	if r.Location != "" {
		k, err := verse.ParseKey(r.Location)
		if err != nil {
			return verse.Key{}, err
		}
		if k.Position == 0 {
			return verse.Key{}, fmt.Errorf("location %q has no word position", r.Location)
		}
		return k, nil
	}
	if r.Surah < 1 || r.Ayah < 1 || r.Position < 1 {
		return verse.Key{}, fmt.Errorf("word address %d:%d:%d must be positive", r.Surah, r.Ayah, r.Position)
	}
	return verse.Key{Chapter: r.Surah, Verse: r.Ayah, Position: r.Position}, nil
}

func wordVerseKey(r WordRecord) (verse.Key, error) {
	k, err := r.Key()
	if err != nil {
		return verse.Key{}, err
	}
	return k.VerseOnly(), nil
}

// AttachWords replaces the word list of every verse with the words addressed
// to it, ordered by position. Word ids are "{verse}-{position}".
func AttachWords(s verse.Scripture, words []WordRecord, opts Options) (verse.Scripture, Report, error) {
	ix, err := NewIndex("words", words, wordVerseKey)
	if err != nil {
		return nil, Report{}, err
	}

	out := s.Clone()
	t := newTracker("words")
	for ci := range out {
		ch := &out[ci]
		for vi := range ch.Verses {
			v := &ch.Verses[vi]
			if v.IsGap() {
				continue
			}
			key := verse.VerseKey(ch.ID, v.ID)
			recs := ix.All(key)
			if len(recs) == 0 {
				t.unmatched(key)
				continue
			}
			built, err := buildWords(key, v.ID, recs)
			if err != nil {
				return nil, t.report, err
			}
			v.Words = built
			t.matched()
		}
	}

	report, err := t.finish(opts)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

func buildWords(key verse.Key, verseID int, recs []WordRecord) ([]verse.Word, error) {
	type positioned struct {
		pos  int
		text string
	}
	list := make([]positioned, 0, len(recs))
	for _, r := range recs {
		// Key already validated by the index.
		k, _ := r.Key()
		list = append(list, positioned{pos: k.Position, text: r.Text})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].pos < list[j].pos })

	words := make([]verse.Word, len(list))
	for i, p := range list {
		if i > 0 && list[i-1].pos == p.pos {
			wk := key
			wk.Position = p.pos
			return nil, errors.NewAmbiguous("words", wk.String(), 2)
		}
		words[i] = verse.Word{ID: verse.WordID(verseID, p.pos), Text: p.text}
	}
	return words, nil
}

// LanguageTranslations is a per-language word translation document. Entry i
// translates entry i of the per-word document.
type LanguageTranslations struct {
	ID           string   `json:"id"`
	Language     string   `json:"language"`
	Translations []string `json:"translations"`
}

// WordTranslationOptions controls AttachWordTranslations.
type WordTranslationOptions struct {
	Options

	// MultiLanguage stores an ordered list of translations per word instead
	// of a single string. It is implied when more than one language is given.
	MultiLanguage bool
}

// AttachWordTranslations sets the translations of every attached word. The
// per-language lists align positionally with words; each must have the same
// length.
func AttachWordTranslations(s verse.Scripture, words []WordRecord, langs []LanguageTranslations, opts WordTranslationOptions) (verse.Scripture, Report, error) {
	if len(langs) == 0 {
		return nil, Report{}, errors.NewValidation("languages", "at least one word translation document is required")
	}
	for _, l := range langs {
		if len(l.Translations) != len(words) {
			return nil, Report{}, errors.NewMalformed(l.ID, min(len(l.Translations), len(words))+1,
				"has %d translations for %d words", len(l.Translations), len(words))
		}
	}

	type entry struct {
		key   verse.Key
		index int
	}
	entries := make([]entry, len(words))
	for i, w := range words {
		k, err := w.Key()
		if err != nil {
			return nil, Report{}, errors.NewMalformed("words", 0, "record %d: %v", i+1, err)
		}
		entries[i] = entry{key: k, index: i}
	}
	ix, err := NewIndex("word translations", entries, func(e entry) (verse.Key, error) { return e.key, nil })
	if err != nil {
		return nil, Report{}, err
	}

	multi := opts.MultiLanguage || len(langs) > 1
	out := s.Clone()
	t := newTracker("word translations")
	for ci := range out {
		ch := &out[ci]
		for vi := range ch.Verses {
			v := &ch.Verses[vi]
			for wi := range v.Words {
				w := &v.Words[wi]
				_, pos, err := verse.ParseWordID(w.ID)
				if err != nil {
					return nil, t.report, errors.NewMalformed("scripture", 0, "verse %d:%d: %v", ch.ID, v.ID, err)
				}
				key := verse.Key{Chapter: ch.ID, Verse: v.ID, Position: pos}
				e, ok, err := lookup(t, ix, key)
				if err != nil {
					return nil, t.report, err
				}
				if !ok {
					continue
				}
				if multi {
					w.Translation = ""
					w.Translations = make([]verse.WordTranslation, len(langs))
					for li, l := range langs {
						w.Translations[li] = verse.WordTranslation{ID: l.ID, Language: l.Language, Translation: l.Translations[e.index]}
					}
				} else {
					w.Translations = nil
					w.Translation = langs[0].Translations[e.index]
				}
			}
		}
	}

	report, err := t.finish(opts.Options)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}
