// Package filter implements the filter passes that drop sub-records not
// matching a predicate. Filters always build a new slice from a snapshot of
// the input and never remove elements in place.
package filter

import (
	"strings"

	"github.com/versekit/versekit/core/verse"
)

// Keep returns the elements of in that satisfy pred, in order. The result
// never aliases in.
func Keep[T any](in []T, pred func(T) bool) []T {
	if in == nil {
		return nil
	}
	out := make([]T, 0, len(in))
	for _, v := range in {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// WordTranslations keeps only the word translations whose language id is one
// of ids. Single-string word translations are left untouched.
func WordTranslations(s verse.Scripture, ids ...string) verse.Scripture {
	allowed := setOf(ids, strings.ToLower)
	out := s.Clone()
	for ci := range out {
		for vi := range out[ci].Verses {
			words := out[ci].Verses[vi].Words
			for wi := range words {
				if words[wi].Translations == nil {
					continue
				}
				words[wi].Translations = Keep(words[wi].Translations, func(t verse.WordTranslation) bool {
					return allowed[strings.ToLower(t.ID)]
				})
			}
		}
	}
	return out
}

// Translators keeps translators whose language name is one of languages,
// compared case-insensitively.
func Translators(list verse.TranslatorList, languages ...string) verse.TranslatorList {
	allowed := setOf(languages, strings.ToLower)
	return verse.TranslatorList{
		Translations: Keep(list.Clone().Translations, func(t verse.Translator) bool {
			return allowed[strings.ToLower(t.LanguageName)]
		}),
	}
}

// TranslatorsByID keeps translators whose id is one of ids.
func TranslatorsByID(list verse.TranslatorList, ids ...int) verse.TranslatorList {
	allowed := setOf(ids, func(i int) int { return i })
	return verse.TranslatorList{
		Translations: Keep(list.Clone().Translations, func(t verse.Translator) bool {
			return allowed[t.ID]
		}),
	}
}

func setOf[T any, K comparable](items []T, key func(T) K) map[K]bool {
	m := make(map[K]bool, len(items))
	for _, it := range items {
		m[key(it)] = true
	}
	return m
}
