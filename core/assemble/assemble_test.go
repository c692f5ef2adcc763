package assemble

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	vkerrors "github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/verse"
	"github.com/versekit/versekit/internal/docio"
)

func mustLayout(t *testing.T, name string) Layout {
	t.Helper()
	l, err := LookupLayout(name)
	if err != nil {
		t.Fatalf("LookupLayout(%q): %v", name, err)
	}
	return l
}

func TestDecodeStride_SingleGroup(t *testing.T) {
	lines := []string{"سلام", "SALAM", "Peace", ""}
	got, err := DecodeStride("dua.txt", lines, mustLayout(t, "default"))
	if err != nil {
		t.Fatalf("DecodeStride: %v", err)
	}
	want := []verse.Verse{{ID: 1, Text: "سلام", Transliteration: "SALAM", Translation: "Peace"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeStride mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeStride_IDsDense(t *testing.T) {
	layout := mustLayout(t, "default")
	for n := 1; n <= 12; n++ {
		var lines []string
		for i := 0; i < n; i++ {
			lines = append(lines, fmt.Sprintf(" text %d ", i), fmt.Sprintf("tr %d", i), fmt.Sprintf("en %d\t", i), "")
		}
		got, err := DecodeStride("in", lines, layout)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(got) != n {
			t.Fatalf("n=%d: got %d verses", n, len(got))
		}
		for i, v := range got {
			if v.ID != i+1 {
				t.Errorf("n=%d: verse %d has id %d", n, i, v.ID)
			}
			if v.Text != fmt.Sprintf("text %d", i) || v.Translation != fmt.Sprintf("en %d", i) {
				t.Errorf("n=%d: fields not trimmed: %+v", n, v)
			}
			if v.Gap != nil {
				t.Errorf("gap flag set without gap policy")
			}
		}
	}
}

func TestDecodeStride_LegacyLayout(t *testing.T) {
	lines := []string{
		"Dua before exams", "اللهم", "Allahumma", "O Allah",
		"", "أخرجني", "akhrijni", "Take me out",
	}
	got, err := DecodeStride("dua.txt", lines, mustLayout(t, "legacy"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d verses", len(got))
	}
	if got[1].Text != "أخرجني" || got[1].Transliteration != "akhrijni" || got[1].Translation != "Take me out" {
		t.Errorf("verse 2 = %+v", got[1])
	}
}

func TestDecodeStride_PairsAndUppercase(t *testing.T) {
	layout := Layout{Stride: 3, Fields: map[int]Field{0: FieldText, 1: FieldTransliteration, 2: FieldTranslation}, UppercaseTransliteration: true}
	got, err := DecodeStride("in", []string{"بسم", "bismillah", "In the name"}, layout)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Transliteration != "BISMILLAH" {
		t.Errorf("Transliteration = %q", got[0].Transliteration)
	}

	pairs, err := DecodeStride("duas.txt", []string{"a1", "e1", "a2", "e2"}, mustLayout(t, "pairs"))
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 2 || pairs[1].Text != "a2" || pairs[1].Translation != "e2" || pairs[1].Transliteration != "" {
		t.Errorf("pairs = %+v", pairs)
	}
}

func TestDecodeStride_GapPolicy(t *testing.T) {
	layout := mustLayout(t, "default")
	layout.GapPolicy = true
	lines := []string{
		"", "", "heading", "",
		"بسم", "bismi", "In the name", "",
		"", "", "another heading", "",
		"الله", "allah", "God", "",
	}
	got, err := DecodeStride("ziyarat.txt", lines, layout)
	if err != nil {
		t.Fatal(err)
	}
	wantIDs := []int{-1, 1, -2, 2}
	for i, v := range got {
		if v.ID != wantIDs[i] {
			t.Errorf("verse %d id = %d, want %d", i, v.ID, wantIDs[i])
		}
		if v.Gap == nil || *v.Gap != (wantIDs[i] < 0) {
			t.Errorf("verse %d gap = %v", i, v.Gap)
		}
	}
}

func TestDecodeStride_Malformed(t *testing.T) {
	layout := mustLayout(t, "default")
	tests := []struct {
		name     string
		lines    []string
		wantLine int
	}{
		{name: "empty", lines: nil, wantLine: 1},
		{name: "partial group", lines: []string{"a", "b", "c", "", "d", "e"}, wantLine: 7},
		{name: "one short", lines: []string{"a", "b", "c"}, wantLine: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStride("dua.txt", tt.lines, layout)
			var me *vkerrors.MalformedInputError
			if !errors.As(err, &me) {
				t.Fatalf("expected MalformedInputError, got %v", err)
			}
			if me.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", me.Line, tt.wantLine)
			}
			if me.Source != "dua.txt" {
				t.Errorf("Source = %q", me.Source)
			}
			if !errors.Is(err, vkerrors.ErrMalformedInput) {
				t.Error("should unwrap to ErrMalformedInput")
			}
		})
	}
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		wantSub string
	}{
		{name: "zero stride", layout: Layout{Stride: 0, Fields: map[int]Field{0: FieldText}}, wantSub: "at least 1"},
		{name: "no fields", layout: Layout{Stride: 4}, wantSub: "no field"},
		{name: "offset outside", layout: Layout{Stride: 2, Fields: map[int]Field{0: FieldText, 2: FieldTranslation}}, wantSub: "offset 2 outside stride 2"},
		{name: "unknown field", layout: Layout{Stride: 2, Fields: map[int]Field{0: FieldText, 1: "audio"}}, wantSub: "unknown field"},
		{name: "duplicate", layout: Layout{Stride: 2, Fields: map[int]Field{0: FieldText, 1: FieldText}}, wantSub: "offsets 0 and 1"},
		{name: "no text", layout: Layout{Stride: 2, Fields: map[int]Field{1: FieldTranslation}}, wantSub: "text field not assigned"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err, tt.wantSub)
			}
		})
	}

	for _, name := range LayoutNames() {
		if err := mustLayout(t, name).Validate(); err != nil {
			t.Errorf("built-in layout %s invalid: %v", name, err)
		}
	}
}

func TestLookupLayout(t *testing.T) {
	if _, err := LookupLayout("triples"); !errors.Is(err, vkerrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	l := mustLayout(t, "default")
	l.Fields[3] = FieldTranslation
	if _, ok := mustLayout(t, "default").Fields[3]; ok {
		t.Error("LookupLayout must return a copy")
	}
}

func TestZip_Gaps(t *testing.T) {
	in := ZipInput{
		Text:            []string{"", "بسم"},
		Translation:     []string{"x", "In the name"},
		Transliteration:    []string{"y", "Bismillah"},
		HasTransliteration: true,
	}
	got, err := Zip(in, ZipOptions{GapPolicy: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []verse.Verse{
		{ID: -1, Gap: verse.Bool(true), Text: "", Translation: "x", Transliteration: "y"},
		{ID: 1, Gap: verse.Bool(false), Text: "بسم", Translation: "In the name", Transliteration: "Bismillah"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Zip mismatch (-want +got):\n%s", diff)
	}
}

func TestZip_GapCounts(t *testing.T) {
	// pattern: true marks an empty text line
	patterns := [][]bool{
		{false, false, false},
		{true},
		{true, false, true, true, false},
		{false, true, false, true, false, true},
	}
	for _, pattern := range patterns {
		in := ZipInput{HasTransliteration: true}
		g := 0
		for i, empty := range pattern {
			text := fmt.Sprintf("t%d", i)
			if empty {
				text = ""
				g++
			}
			in.Text = append(in.Text, text)
			in.Translation = append(in.Translation, fmt.Sprintf("e%d", i))
			in.Transliteration = append(in.Transliteration, fmt.Sprintf("l%d", i))
		}

		got, err := Zip(in, ZipOptions{GapPolicy: true})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(pattern) {
			t.Fatalf("got %d verses, want %d", len(got), len(pattern))
		}
		nextPos, nextGap, gaps := 1, -1, 0
		for i, v := range got {
			if pattern[i] {
				gaps++
				if !v.IsGap() || v.ID != nextGap {
					t.Errorf("pattern %v: verse %d = %+v, want gap id %d", pattern, i, v, nextGap)
				}
				nextGap--
			} else {
				if v.IsGap() || v.ID != nextPos {
					t.Errorf("pattern %v: verse %d = %+v, want id %d", pattern, i, v, nextPos)
				}
				nextPos++
			}
		}
		if gaps != g || nextPos-1 != len(pattern)-g {
			t.Errorf("pattern %v: %d gaps, %d positive", pattern, gaps, nextPos-1)
		}
	}
}

func TestZip_NoGapPolicy(t *testing.T) {
	in := ZipInput{Text: []string{"a", "", "c"}, Translation: []string{"1", "2", "3"}}
	got, err := Zip(in, ZipOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v.ID != i+1 || v.Gap != nil {
			t.Errorf("verse %d = %+v", i, v)
		}
	}
}

func TestZip_UnequalLengths(t *testing.T) {
	in := ZipInput{
		Text:            []string{"a", "b", "c"},
		Translation:     []string{"1", "2"},
		Transliteration:    []string{"x", "y", "z"},
		HasTransliteration: true,
	}
	_, err := Zip(in, ZipOptions{GapPolicy: true})
	var me *vkerrors.MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedInputError, got %v", err)
	}
	for _, want := range []string{"text has 3", "translation has 2", "transliteration has 3"} {
		if !strings.Contains(me.Message, want) {
			t.Errorf("message %q missing %q", me.Message, want)
		}
	}
	if me.Line != 3 {
		t.Errorf("Line = %d, want 3", me.Line)
	}
}

func TestZip_EmptyTransliteration(t *testing.T) {
	empty, err := docio.ScanLines(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	in := ZipInput{
		Text:               []string{"a", "b"},
		Translation:        []string{"x", "y"},
		Transliteration:    empty,
		HasTransliteration: true,
	}
	_, err = Zip(in, ZipOptions{})
	var me *vkerrors.MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedInputError, got %v", err)
	}
	if me.Line != 1 || !strings.Contains(me.Message, "transliteration has 0") {
		t.Errorf("error = %v", me)
	}
}

func TestNewDocument(t *testing.T) {
	sub := "Imam Mahdi (as)"
	doc := NewDocument(Meta{Title: "Friday Ziyarat", Subtitle: &sub}, nil)
	if doc.Verses == nil {
		t.Error("Verses should be an empty slice, not nil")
	}
	sub = "changed"
	if *doc.Subtitle != "Imam Mahdi (as)" {
		t.Error("subtitle must be copied")
	}
}
