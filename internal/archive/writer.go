// Package archive bundles pipeline outputs into .tar.xz archives carrying a
// manifest of content digests, and verifies such bundles.
package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/versekit/versekit/core/cas"
	"github.com/versekit/versekit/internal/docio"
)

// xzNewWriter is injectable for tests.
var xzNewWriter = xz.NewWriter

// epoch is the modification time of every entry, so bundles of identical
// content are byte-identical.
var epoch = time.Unix(0, 0).UTC()

// Options controls Pack.
type Options struct {
	// Name is recorded in the manifest. Default: base name of the source directory.
	Name string
	// RunID is recorded in the manifest.
	RunID string
	// Skip reports whether a relative path should be left out.
	Skip func(rel string) bool
}

// Pack writes every regular file under srcDir into a .tar.xz bundle at
// dstPath, preceded by a manifest. Hidden directories (such as the snapshot
// store) are skipped. The bundle is written to a temp file and renamed.
func Pack(srcDir, dstPath string, opts Options) (*Manifest, error) {
	if opts.Name == "" {
		opts.Name = filepath.Base(filepath.Clean(srcDir))
	}

	files, err := collect(srcDir, dstPath, opts.Skip)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Version: ManifestVersion, Name: opts.Name, RunID: opts.RunID}
	contents := make([][]byte, len(files))
	for i, rel := range files {
		data, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		d := cas.Sum(data)
		m.Files = append(m.Files, FileEntry{Path: rel, Size: int64(len(data)), SHA256: d.SHA256, BLAKE3: d.BLAKE3})
		contents[i] = data
	}

	manifestData, err := docio.EncodeJSON(m)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeBundle(&buf, manifestData, m.Files, contents); err != nil {
		return nil, err
	}
	if err := docio.WriteFileAtomic(dstPath, buf.Bytes()); err != nil {
		return nil, err
	}
	return m, nil
}

func collect(srcDir, dstPath string, skip func(string) bool) ([]string, error) {
	absDst, _ := filepath.Abs(dstPath)
	var files []string
	err := filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absDst {
			return nil
		}
		if skip != nil && skip(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", srcDir, err)
	}
	sort.Strings(files)
	return files, nil
}

func writeBundle(w io.Writer, manifest []byte, entries []FileEntry, contents [][]byte) error {
	xw, err := xzNewWriter(w)
	if err != nil {
		return fmt.Errorf("xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)

	if err := writeEntry(tw, ManifestName, manifest); err != nil {
		return err
	}
	for i, e := range entries {
		if err := writeEntry(tw, e.Path, contents[i]); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("close xz: %w", err)
	}
	return nil
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     int64(len(data)),
		ModTime:  epoch,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatPAX,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
