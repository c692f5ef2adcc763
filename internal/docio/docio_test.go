package docio

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	vkerrors "github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/verse"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestReadLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "trailing newline",
			content: "سلام\nSALAM\nPeace\n\n",
			want:    []string{"سلام", "SALAM", "Peace", ""},
		},
		{
			name:    "no trailing newline",
			content: "a\nb",
			want:    []string{"a", "b"},
		},
		{
			name:    "crlf",
			content: "a\r\nb\r\n",
			want:    []string{"a", "b"},
		},
		{
			name:    "bom",
			content: "\ufeffa\nb\n",
			want:    []string{"a", "b"},
		},
		{
			name:    "blank lines kept",
			content: "\nبسم\n",
			want:    []string{"", "بسم"},
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "in.txt", tt.content)
			got, err := ReadLines(path)
			if err != nil {
				t.Fatalf("ReadLines: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadLines = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadLines_Missing(t *testing.T) {
	_, err := ReadLines(filepath.Join(t.TempDir(), "missing.txt"))
	var ioErr *vkerrors.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestEncodeJSON(t *testing.T) {
	doc := verse.Document{
		Title:  "Dua <Kumayl> & more",
		Verses: []verse.Verse{{ID: 1, Text: "بسم", Translation: "In the name"}},
	}
	data, err := EncodeJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, "\"text\": \"بسم\"") {
		t.Errorf("non-ASCII should be preserved unescaped:\n%s", s)
	}
	if !strings.Contains(s, "Dua <Kumayl> & more") {
		t.Errorf("HTML characters should not be escaped:\n%s", s)
	}
	if !strings.Contains(s, "\n    \"title\"") {
		t.Errorf("expected four-space indentation:\n%s", s)
	}
	if !strings.Contains(s, "\n        {") {
		t.Errorf("expected nested four-space indentation:\n%s", s)
	}
	if !strings.HasSuffix(s, "}\n") {
		t.Errorf("expected trailing newline")
	}
}

func TestWriteAndReadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "dua.json")
	doc := verse.Document{ID: 8, Title: "Dua before exams", Verses: []verse.Verse{{ID: 1, Text: "سلام", Translation: "Peace"}}}

	if _, err := WriteJSON(path, doc); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON[verse.Document](path)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("ReadJSON = %+v, want %+v", got, doc)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestReadJSON_Invalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", "{not json")
	_, err := ReadJSON[verse.Document](path)
	var pe *vkerrors.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Path != path {
		t.Errorf("Path = %q", pe.Path)
	}
}

func TestWriteFileAtomic_RenameFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quran.json", "original")

	orig := osRename
	osRename = func(string, string) error { return errors.New("rename failed") }
	defer func() { osRename = orig }()

	if err := WriteFileAtomic(path, []byte("replacement")); err == nil {
		t.Fatal("expected error")
	}

	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Errorf("original overwritten: %q", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %v", entries)
	}
}

func TestWriteFileAtomic_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	orig := tempFileWrite
	tempFileWrite = func(*os.File, []byte) (int, error) { return 0, errors.New("disk full") }
	defer func() { tempFileWrite = orig }()

	path := filepath.Join(dir, "out.json")
	if err := WriteFileAtomic(path, []byte("x")); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("output should not exist after failed write")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp file left behind: %v", entries)
	}
}
