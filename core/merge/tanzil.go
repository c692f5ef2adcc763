package merge

import (
	"bytes"
	"strconv"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/verse"
)

var (
	suraExpr = xpath.MustCompile("//sura")
	ayaExpr  = xpath.MustCompile("aya")
)

type tanzilVerse struct {
	key  verse.Key
	text string
}

// parseTanzil reads a Tanzil translation document
// (<quran><sura index=".."><aya index=".." text=".."/></sura></quran>).
func parseTanzil(source string, data []byte) ([]tanzilVerse, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewMalformed(source, 0, "%v", err)
	}

	var out []tanzilVerse
	for _, sura := range xmlquery.QuerySelectorAll(doc, suraExpr) {
		chapter, err := strconv.Atoi(sura.SelectAttr("index"))
		if err != nil || chapter < 1 {
			return nil, errors.NewMalformed(source, 0, "sura has invalid index %q", sura.SelectAttr("index"))
		}
		for _, aya := range xmlquery.QuerySelectorAll(sura, ayaExpr) {
			n, err := strconv.Atoi(aya.SelectAttr("index"))
			if err != nil || n < 1 {
				return nil, errors.NewMalformed(source, 0, "sura %d: aya has invalid index %q", chapter, aya.SelectAttr("index"))
			}
			out = append(out, tanzilVerse{key: verse.VerseKey(chapter, n), text: aya.SelectAttr("text")})
		}
	}
	if len(out) == 0 {
		return nil, errors.NewMalformed(source, 0, "no aya elements")
	}
	return out, nil
}

// MergeTanzil sets the translation of every verse from a Tanzil XML document,
// matching on sura and aya index.
func MergeTanzil(s verse.Scripture, data []byte, opts Options) (verse.Scripture, Report, error) {
	recs, err := parseTanzil("tanzil", data)
	if err != nil {
		return nil, Report{}, err
	}
	ix, err := NewIndex("tanzil", recs, func(r tanzilVerse) (verse.Key, error) { return r.key, nil })
	if err != nil {
		return nil, Report{}, err
	}

	out := s.Clone()
	t := newTracker("tanzil")
	for ci := range out {
		ch := &out[ci]
		for vi := range ch.Verses {
			v := &ch.Verses[vi]
			if v.IsGap() {
				continue
			}
			rec, ok, err := lookup(t, ix, verse.VerseKey(ch.ID, v.ID))
			if err != nil {
				return nil, t.report, err
			}
			if ok {
				v.Translation = CleanTranslation(rec.text)
			}
		}
	}

	report, err := t.finish(opts)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}
