// Package docio reads line-delimited verse text and reads and writes the JSON
// documents produced by versekit passes.
//
// JSON is written with four-space indentation and without escaping non-ASCII
// or HTML characters, matching the files the reader app ships. Writes go to a
// temporary file in the destination directory and are renamed into place, so
// a failed pass never leaves a half-written document behind.
package docio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/versekit/versekit/core/errors"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 4 << 20

// Indent is the indentation used for every JSON document.
const Indent = "    "

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileWrite is a function variable for writing to temp files (for testing).
var tempFileWrite = func(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// ReadLines reads a newline-delimited UTF-8 file. A trailing newline does not
// produce an extra empty line, carriage returns are dropped, and a leading
// byte-order mark is removed.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	lines, err := ScanLines(f)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return lines, nil
}

// ScanLines splits r into lines using the same rules as ReadLines.
func ScanLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ReadJSON decodes the JSON document at path into a value of type T.
func ReadJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, errors.NewIO("read", path, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		pe := errors.NewParse("JSON", path, err.Error())
		pe.Err = err
		return v, pe
	}
	return v, nil
}

// EncodeJSON renders v with four-space indentation and unescaped non-ASCII
// and HTML characters. The output ends with a newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes v and writes it atomically to path. It returns the bytes
// written so callers can hash them.
func WriteJSON(path string, v any) ([]byte, error) {
	data, err := EncodeJSON(v)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", path)
	}
	if err := WriteFileAtomic(path, data); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place. The parent directory is created if needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO("create directory", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".versekit-*")
	if err != nil {
		return errors.NewIO("create temp file in", dir, err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFileWrite(tempFile, data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return errors.NewIO("write", tempPath, err)
	}

	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("close", tempPath, err)
	}

	if err := osRename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("rename into", path, err)
	}

	return nil
}
