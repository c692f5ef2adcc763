package merge

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	vkerrors "github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/verse"
	"github.com/versekit/versekit/internal/logging"
)

func fatiha() verse.Scripture {
	return verse.Scripture{
		{
			ID: 1, Name: "الفاتحة", Transliteration: "Al-Fatihah", Translation: "The Opener", Type: "meccan", TotalVerses: 2,
			Verses: []verse.Verse{
				{ID: 1, Text: "old 1", Translation: "In the name"},
				{ID: 2, Text: "old 2", Translation: "All praise"},
			},
		},
		{
			ID: 2, Name: "البقرة", TotalVerses: 1,
			Verses: []verse.Verse{{ID: 1, Text: "old 3", Translation: "Alif Lam Mim"}},
		},
	}
}

func audioRecords() []AudioRecord {
	return []AudioRecord{
		{Chapter: 1, Verse: 1, Text: "بِسْمِ\u200f", Audio: verse.Int(1)},
		{Chapter: 1, Verse: 2, Text: "الْحَمْدُ", Audio: verse.Int(2)},
		{Chapter: 2, Verse: 1, Text: "الم", Audio: verse.Int(8)},
		{Chapter: 114, Verse: 6, Text: "extra", Audio: verse.Int(6236)},
	}
}

func TestIndex_OneAndAll(t *testing.T) {
	ix, err := NewIndex("audio", audioRecords(), audioKey)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(ix.byKey); n != 4 {
		t.Errorf("indexed %d keys, want 4", n)
	}
	r, err := ix.One(verse.VerseKey(2, 1))
	if err != nil || *r.Audio != 8 {
		t.Errorf("One(2:1) = %+v, %v", r, err)
	}
	if _, err := ix.One(verse.VerseKey(3, 1)); !errors.Is(err, vkerrors.ErrUnmatchedKey) {
		t.Errorf("One(3:1) err = %v", err)
	}

	dup := append(audioRecords(), AudioRecord{Chapter: 1, Verse: 1, Audio: verse.Int(99)})
	ix, err = NewIndex("audio", dup, audioKey)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ix.One(verse.VerseKey(1, 1))
	var ae *vkerrors.AmbiguousMergeError
	if !errors.As(err, &ae) || ae.Count != 2 || ae.Key != "1:1" {
		t.Errorf("One(1:1) err = %v", err)
	}
	if n := len(ix.All(verse.VerseKey(1, 1))); n != 2 {
		t.Errorf("All(1:1) returned %d records", n)
	}
}

func TestNewIndex_BadKey(t *testing.T) {
	_, err := NewIndex("audio", []AudioRecord{{Chapter: 0, Verse: 1}}, audioKey)
	if !errors.Is(err, vkerrors.ErrMalformedInput) {
		t.Errorf("expected malformed input, got %v", err)
	}
}

func TestMergeAudio(t *testing.T) {
	in := fatiha()
	got, report, err := MergeAudio(in, audioRecords(), Options{})
	if err != nil {
		t.Fatalf("MergeAudio: %v", err)
	}
	if report.Matched != 3 || len(report.Unmatched) != 0 {
		t.Errorf("report = %+v", report)
	}
	for _, tc := range []struct {
		key  verse.Key
		want int
	}{{verse.VerseKey(1, 1), 1}, {verse.VerseKey(1, 2), 2}, {verse.VerseKey(2, 1), 8}} {
		v, _ := got.Find(tc.key)
		if v.Audio == nil || *v.Audio != tc.want {
			t.Errorf("%s audio = %v, want %d", tc.key, v.Audio, tc.want)
		}
	}
	if in[0].Verses[0].Audio != nil {
		t.Error("input scripture was mutated")
	}

	again, _, err := MergeAudio(got, audioRecords(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("merge is not idempotent (-first +second):\n%s", diff)
	}
}

func TestMergeAudio_Unmatched(t *testing.T) {
	recs := audioRecords()[1:]

	_, _, err := MergeAudio(fatiha(), recs, Options{})
	var ue *vkerrors.UnmatchedKeyError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnmatchedKeyError, got %v", err)
	}
	if ue.Key != "1:1" || ue.Document != "audio" {
		t.Errorf("unmatched error = %+v", ue)
	}

	var buf bytes.Buffer
	logging.InitLoggerTo(&buf, logging.LevelInfo, logging.FormatJSON)
	defer logging.InitLogger(logging.LevelInfo, logging.FormatText)

	got, report, err := MergeAudio(fatiha(), recs, Options{AllowUnmatched: true})
	if err != nil {
		t.Fatalf("non-strict merge failed: %v", err)
	}
	if diff := cmp.Diff([]verse.Key{verse.VerseKey(1, 1)}, report.Unmatched); diff != "" {
		t.Errorf("unmatched keys (-want +got):\n%s", diff)
	}
	if got[0].Verses[0].Audio != nil {
		t.Error("unmatched verse should keep its audio unset")
	}
	if !strings.Contains(buf.String(), "merge_unmatched") {
		t.Errorf("expected diagnostic, got %q", buf.String())
	}
}

func TestMergeAudio_Ambiguous(t *testing.T) {
	recs := append(audioRecords(), AudioRecord{Chapter: 1, Verse: 2, Audio: verse.Int(3)})
	_, _, err := MergeAudio(fatiha(), recs, Options{AllowUnmatched: true})
	if !errors.Is(err, vkerrors.ErrAmbiguousMerge) {
		t.Errorf("expected ambiguous merge even when unmatched keys are allowed, got %v", err)
	}
}

func TestMergeAudio_MissingIndex(t *testing.T) {
	recs := audioRecords()
	recs[0].Audio = nil
	if _, _, err := MergeAudio(fatiha(), recs, Options{}); !errors.Is(err, vkerrors.ErrMalformedInput) {
		t.Errorf("expected malformed input, got %v", err)
	}
}

func TestReplaceText(t *testing.T) {
	got, report, err := ReplaceText(fatiha(), audioRecords(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Verses[0].Text != "بِسْمِ" {
		t.Errorf("text = %q, right-to-left mark should be stripped", got[0].Verses[0].Text)
	}
	if got[1].Verses[0].Text != "الم" || got[1].Verses[0].Translation != "Alif Lam Mim" {
		t.Errorf("verse 2:1 = %+v", got[1].Verses[0])
	}
	if report.Matched != 3 {
		t.Errorf("Matched = %d", report.Matched)
	}
}

func TestAssignAudio(t *testing.T) {
	c := verse.Collection{
		{Title: "a", Verses: []verse.Verse{{ID: 1}, {ID: 2}}},
		{Title: "b", Verses: []verse.Verse{{ID: 1, Audio: verse.Int(5)}}},
	}
	got := AssignAudio(c, 0)
	for _, d := range got {
		for _, v := range d.Verses {
			if v.Audio == nil || *v.Audio != 0 {
				t.Errorf("%s verse %d audio = %v", d.Title, v.ID, v.Audio)
			}
		}
	}
	if *c[1].Verses[0].Audio != 5 || c[0].Verses[0].Audio != nil {
		t.Error("input collection was mutated")
	}
}

func wordRecords() []WordRecord {
	return []WordRecord{
		{Surah: 1, Ayah: 1, Position: 2, Text: "اللَّهِ"},
		{Location: "1:1:1", Text: "بِسْمِ"},
		{Surah: 1, Ayah: 2, Position: 1, Text: "الْحَمْدُ"},
		{Surah: 2, Ayah: 1, Position: 1, Text: "الم"},
	}
}

func TestAttachWords(t *testing.T) {
	got, report, err := AttachWords(fatiha(), wordRecords(), Options{})
	if err != nil {
		t.Fatalf("AttachWords: %v", err)
	}
	want := []verse.Word{{ID: "1-1", Text: "بِسْمِ"}, {ID: "1-2", Text: "اللَّهِ"}}
	if diff := cmp.Diff(want, got[0].Verses[0].Words); diff != "" {
		t.Errorf("words of 1:1 (-want +got):\n%s", diff)
	}
	if report.Matched != 3 {
		t.Errorf("Matched = %d", report.Matched)
	}
	if errs := verse.ValidateScripture(got); len(errs) != 0 {
		t.Errorf("result fails validation: %v", errs)
	}
}

func TestAttachWords_DuplicatePosition(t *testing.T) {
	words := append(wordRecords(), WordRecord{Location: "1:1:2", Text: "dup"})
	_, _, err := AttachWords(fatiha(), words, Options{})
	var ae *vkerrors.AmbiguousMergeError
	if !errors.As(err, &ae) || ae.Key != "1:1:2" {
		t.Errorf("expected ambiguous 1:1:2, got %v", err)
	}
}

func TestAttachWords_Unmatched(t *testing.T) {
	words := wordRecords()[:3]
	_, _, err := AttachWords(fatiha(), words, Options{})
	if !errors.Is(err, vkerrors.ErrUnmatchedKey) {
		t.Fatalf("expected unmatched key, got %v", err)
	}
	got, report, err := AttachWords(fatiha(), words, Options{AllowUnmatched: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Unmatched) != 1 || report.Unmatched[0] != verse.VerseKey(2, 1) {
		t.Errorf("Unmatched = %v", report.Unmatched)
	}
	if got[1].Verses[0].Words != nil {
		t.Error("unmatched verse should have no words")
	}
}

func TestWordRecordKey(t *testing.T) {
	if _, err := (WordRecord{Location: "1:1"}).Key(); err == nil {
		t.Error("location without position should fail")
	}
	if _, err := (WordRecord{Surah: 1, Ayah: 1}).Key(); err == nil {
		t.Error("missing position should fail")
	}
	k, err := WordRecord{Location: "2:255:3"}.Key()
	if err != nil || k != (verse.Key{Chapter: 2, Verse: 255, Position: 3}) {
		t.Errorf("Key = %v, %v", k, err)
	}
}

func withWords(t *testing.T) verse.Scripture {
	t.Helper()
	s, _, err := AttachWords(fatiha(), wordRecords(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestAttachWordTranslations_Single(t *testing.T) {
	en := LanguageTranslations{ID: "en", Language: "english", Translations: []string{"(of) Allah", "In (the) name", "All praises", "Alif Lam Mim"}}
	got, report, err := AttachWordTranslations(withWords(t), wordRecords(), []LanguageTranslations{en}, WordTranslationOptions{})
	if err != nil {
		t.Fatal(err)
	}
	w := got[0].Verses[0].Words
	if w[0].Translation != "In (the) name" || w[1].Translation != "(of) Allah" {
		t.Errorf("words = %+v", w)
	}
	if w[0].Translations != nil {
		t.Error("single-language mode should not set Translations")
	}
	if report.Matched != 4 {
		t.Errorf("Matched = %d", report.Matched)
	}
}

func TestAttachWordTranslations_Multi(t *testing.T) {
	langs := []LanguageTranslations{
		{ID: "en", Language: "english", Translations: []string{"e1", "e2", "e3", "e4"}},
		{ID: "ur", Language: "urdu", Translations: []string{"u1", "u2", "u3", "u4"}},
	}
	got, _, err := AttachWordTranslations(withWords(t), wordRecords(), langs, WordTranslationOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []verse.WordTranslation{
		{ID: "en", Language: "english", Translation: "e2"},
		{ID: "ur", Language: "urdu", Translation: "u2"},
	}
	if diff := cmp.Diff(want, got[0].Verses[0].Words[0].Translations); diff != "" {
		t.Errorf("translations of 1:1:1 (-want +got):\n%s", diff)
	}
}

func TestAttachWordTranslations_LengthMismatch(t *testing.T) {
	en := LanguageTranslations{ID: "en", Translations: []string{"a", "b"}}
	_, _, err := AttachWordTranslations(withWords(t), wordRecords(), []LanguageTranslations{en}, WordTranslationOptions{})
	var me *vkerrors.MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedInputError, got %v", err)
	}
	if me.Source != "en" || me.Line != 3 {
		t.Errorf("error = %+v", me)
	}
}

func TestCleanTranslation(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"In the name of Allah<sup foot_note=\"1\">1</sup>", "In the name of Allah"},
		{"˹He is˺ the Lord", "[He is] the Lord"},
		{"<i>Guidance</i> &amp; mercy ", "Guidance & mercy"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := CleanTranslation(tt.in); got != tt.want {
			t.Errorf("CleanTranslation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOverlayTranslations(t *testing.T) {
	recs := []TranslationRecord{
		{ResourceID: 20, Text: "In the name of Allah<sup>1</sup>"},
		{ResourceID: 20, Text: "˹All˺ praise"},
		{ResourceID: 20, Text: "Alif-Lãm-Mĩm."},
	}
	got, report, err := OverlayTranslations(fatiha(), recs)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Verses[1].Translation != "[All] praise" || got[1].Verses[0].Translation != "Alif-Lãm-Mĩm." {
		t.Errorf("translations = %q, %q", got[0].Verses[1].Translation, got[1].Verses[0].Translation)
	}
	if report.Matched != 3 {
		t.Errorf("Matched = %d", report.Matched)
	}

	if _, _, err := OverlayTranslations(fatiha(), recs[:2]); !errors.Is(err, vkerrors.ErrMalformedInput) {
		t.Errorf("short translation should be malformed, got %v", err)
	}
}

const tanzilXML = `<?xml version="1.0" encoding="utf-8"?>
<quran>
  <sura index="1" name="الفاتحة">
    <aya index="1" text="In the name of God"/>
    <aya index="2" text="Praise be to God"/>
  </sura>
  <sura index="2" name="البقرة">
    <aya index="1" text="Alif. Lam. Mim."/>
  </sura>
</quran>`

func TestMergeTanzil(t *testing.T) {
	got, report, err := MergeTanzil(fatiha(), []byte(tanzilXML), Options{})
	if err != nil {
		t.Fatalf("MergeTanzil: %v", err)
	}
	if got[0].Verses[1].Translation != "Praise be to God" || got[1].Verses[0].Translation != "Alif. Lam. Mim." {
		t.Errorf("translations not merged: %+v", got)
	}
	if report.Matched != 3 {
		t.Errorf("Matched = %d", report.Matched)
	}
}

func TestMergeTanzil_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"not xml":   "<quran><sura",
		"no ayas":   "<quran></quran>",
		"bad index": `<quran><sura index="x"><aya index="1" text="a"/></sura></quran>`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := MergeTanzil(fatiha(), []byte(doc), Options{}); !errors.Is(err, vkerrors.ErrMalformedInput) {
				t.Errorf("expected malformed input, got %v", err)
			}
		})
	}
}
