package merge

import (
	"html"
	"regexp"
	"strings"

	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/verse"
)

// TranslationRecord is one verse of a fetched translation resource.
type TranslationRecord struct {
	ResourceID int    `json:"resource_id"`
	Text       string `json:"text"`
}

// TranslationDocument is a translation resource as served by the translation
// API: one record per verse, in canonical order.
type TranslationDocument struct {
	Translations []TranslationRecord `json:"translations"`
}

var (
	footnotePattern = regexp.MustCompile(`(?s)<sup.*?</sup>`)
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	bracketReplacer = strings.NewReplacer("˹", "[", "˺", "]")
)

// CleanTranslation removes footnote markers and markup from a translation and
// normalizes the interpolation brackets to [ and ].
func CleanTranslation(s string) string {
	s = footnotePattern.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = bracketReplacer.Replace(s)
	return strings.TrimSpace(s)
}

// OverlayTranslations assigns records to verses positionally, walking
// chapters and their verses in order. The record count must equal the number
// of non-gap verses.
func OverlayTranslations(s verse.Scripture, records []TranslationRecord) (verse.Scripture, Report, error) {
	for _, ch := range s {
		if ch.TotalVerses > 0 && ch.TotalVerses != len(ch.Verses) {
			return nil, Report{}, errors.NewMalformed("scripture", 0,
				"chapter %d declares %d verses, has %d", ch.ID, ch.TotalVerses, len(ch.Verses))
		}
	}
	want := s.VerseCount()
	if len(records) != want {
		return nil, Report{}, errors.NewMalformed("translation", min(len(records), want)+1,
			"has %d verses, scripture has %d", len(records), want)
	}

	out := s.Clone()
	report := Report{Document: "translation"}
	i := 0
	for ci := range out {
		for vi := range out[ci].Verses {
			v := &out[ci].Verses[vi]
			if v.IsGap() {
				continue
			}
			v.Translation = CleanTranslation(records[i].Text)
			i++
			report.Matched++
		}
	}
	return out, report, nil
}
