package merge

import (
	"strings"

	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/verse"
)

// AudioRecord is one entry of the audio-index document, addressed by chapter
// and verse. It also carries the canonical text of the verse.
type AudioRecord struct {
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
	Audio   *int   `json:"audio,omitempty"`
}

// AudioDocument is the audio-index document.
type AudioDocument struct {
	Quran []AudioRecord `json:"quran"`
}

// rightToLeftMark is stripped from canonical text.
const rightToLeftMark = "\u200f"

func audioKey(r AudioRecord) (verse.Key, error) {
	if r.Chapter < 1 || r.Verse < 1 {
		return verse.Key{}, errors.NewValidation("key", "chapter and verse must be at least 1, got "+verse.VerseKey(r.Chapter, r.Verse).String())
	}
	return verse.VerseKey(r.Chapter, r.Verse), nil
}

// MergeAudio sets the audio index of every verse from the record with the same
// chapter and verse. Merging the same records again yields the same result.
func MergeAudio(s verse.Scripture, records []AudioRecord, opts Options) (verse.Scripture, Report, error) {
	ix, err := NewIndex("audio", records, audioKey)
	if err != nil {
		return nil, Report{}, err
	}

	out := s.Clone()
	t := newTracker("audio")
	for ci := range out {
		ch := &out[ci]
		for vi := range ch.Verses {
			v := &ch.Verses[vi]
			if v.IsGap() {
				continue
			}
			key := verse.VerseKey(ch.ID, v.ID)
			rec, ok, err := lookup(t, ix, key)
			if err != nil {
				return nil, t.report, err
			}
			if !ok {
				continue
			}
			if rec.Audio == nil {
				return nil, t.report, errors.NewMalformed("audio", 0, "record %s has no audio index", key)
			}
			v.Audio = verse.Int(*rec.Audio)
		}
	}

	report, err := t.finish(opts)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

// ReplaceText overwrites the text of every verse with the canonical text of
// the record with the same chapter and verse, dropping right-to-left marks.
func ReplaceText(s verse.Scripture, records []AudioRecord, opts Options) (verse.Scripture, Report, error) {
	ix, err := NewIndex("canonical text", records, audioKey)
	if err != nil {
		return nil, Report{}, err
	}

	out := s.Clone()
	t := newTracker("canonical text")
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
				v.Text = strings.TrimSpace(strings.ReplaceAll(rec.Text, rightToLeftMark, ""))
			}
		}
	}

	report, err := t.finish(opts)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

// AssignAudio sets the same audio index on every verse of every document.
func AssignAudio(c verse.Collection, index int) verse.Collection {
	out := c.Clone()
	for di := range out {
		for vi := range out[di].Verses {
			out[di].Verses[vi].Audio = verse.Int(index)
		}
	}
	return out
}
