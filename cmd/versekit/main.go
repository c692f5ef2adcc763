// Command versekit is the CLI tool for versekit.
// It builds verse-record documents from plain-text sources, enriches them with
// keyed merges and runs declared pipelines.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/versekit/versekit/core/assemble"
	"github.com/versekit/versekit/core/cas"
	"github.com/versekit/versekit/core/docgen"
	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/filter"
	"github.com/versekit/versekit/core/merge"
	"github.com/versekit/versekit/core/pipeline"
	"github.com/versekit/versekit/core/verse"
	"github.com/versekit/versekit/internal/archive"
	"github.com/versekit/versekit/internal/docio"
	"github.com/versekit/versekit/internal/fetch"
	"github.com/versekit/versekit/internal/logging"
	"github.com/versekit/versekit/internal/sqlitestore"
	"github.com/versekit/versekit/internal/validation"
)

const version = "0.4.0"

// CLI defines the command-line interface for versekit.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"info" env:"VERSEKIT_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text" env:"VERSEKIT_LOG_FORMAT"`
	APIURL    string `name:"api-url" help:"Translation API base URL" default:"https://api.quran.com/api/v4" env:"VERSEKIT_API_URL"`

	// Construct
	Stride StrideCmd `cmd:"" help:"Build a document from a fixed-stride interleaved text file"`
	Zip    ZipCmd    `cmd:"" help:"Build a document from parallel text files"`

	// Enrich
	Merge       MergeGroup     `cmd:"" help:"Keyed merges into a scripture document"`
	AssignAudio AssignAudioCmd `cmd:"" name:"assign-audio" help:"Set one audio index on every verse of a collection"`
	Filter      FilterGroup    `cmd:"" help:"Filter passes"`
	Fetch       FetchGroup     `cmd:"" help:"Download translation resources"`

	// Pipelines
	Run    RunCmd    `cmd:"" help:"Run a pipeline descriptor"`
	Passes PassesCmd `cmd:"" help:"List the registered pass kinds"`
	Docs   DocsCmd   `cmd:"" help:"Generate Markdown references for pipeline authors"`

	// Inspection and packaging
	Lookup   LookupCmd    `cmd:"" help:"Print a verse or word by key"`
	Validate ValidateCmd  `cmd:"" help:"Check the structural invariants of a document"`
	Snapshot SnapshotCmd  `cmd:"" help:"Print a stored pass output by its sha256 or blake3 digest"`
	Export   ExportGroup  `cmd:"" help:"Export documents to other stores"`
	Archive  ArchiveGroup `cmd:"" help:"Pack and verify .tar.xz bundles of outputs"`
	Version  VersionCmd   `cmd:"" help:"Print version information"`
}

// MergeGroup contains the keyed merge operations.
type MergeGroup struct {
	Audio            MergeAudioCmd            `cmd:"" help:"Attach audio indexes by chapter and verse"`
	Text             MergeTextCmd             `cmd:"" help:"Replace verse text with canonical text by chapter and verse"`
	Words            MergeWordsCmd            `cmd:"" help:"Attach per-word records ordered by position"`
	WordTranslations MergeWordTranslationsCmd `cmd:"" name:"word-translations" help:"Attach per-language word translations"`
	Translation      MergeTranslationCmd      `cmd:"" help:"Overlay a fetched translation positionally"`
	Tanzil           MergeTanzilCmd           `cmd:"" help:"Set translations from a Tanzil XML document"`
}

// FilterGroup contains the filter passes.
type FilterGroup struct {
	WordTranslations FilterWordTranslationsCmd `cmd:"" name:"word-translations" help:"Keep only the listed word translation languages"`
	Translators      FilterTranslatorsCmd      `cmd:"" help:"Keep translators by language or id"`
}

// FetchGroup contains the download operations.
type FetchGroup struct {
	Translation FetchTranslationCmd `cmd:"" help:"Download a translation resource by id"`
	Translators FetchTranslatorsCmd `cmd:"" help:"Download the list of available translations"`
}

// ExportGroup contains export operations.
type ExportGroup struct {
	SQLite ExportSQLiteCmd `cmd:"" name:"sqlite" help:"Export a document to a SQLite database"`
}

// ArchiveGroup contains bundle operations.
type ArchiveGroup struct {
	Pack   ArchivePackCmd   `cmd:"" help:"Pack a directory into a .tar.xz bundle"`
	Verify ArchiveVerifyCmd `cmd:"" help:"Verify a bundle against its manifest"`
}

// DocumentFlags carries the document-level fields of constructed documents.
type DocumentFlags struct {
	ID       int     `help:"Document id"`
	Title    string  `help:"Document title"`
	Subtitle *string `help:"Document subtitle"`
	Type     string  `help:"Document type"`
	Time     string  `help:"When the document is recited"`
	Audio    *string `name:"audio-file" help:"Audio file name"`
}

func (f DocumentFlags) meta() assemble.Meta {
	return assemble.Meta{ID: f.ID, Title: f.Title, Subtitle: f.Subtitle, Type: f.Type, Time: f.Time, Audio: f.Audio}
}

// StrideCmd builds a document from an interleaved text file.
type StrideCmd struct {
	Input  string `arg:"" help:"Interleaved text file" type:"existingfile"`
	Layout string `default:"default" help:"Stride layout (default, legacy, pairs)"`
	Gaps   bool   `help:"Turn groups with empty text into gap placeholders"`
	Upper  bool   `help:"Uppercase the transliteration"`
	Out    string `required:"" help:"Output document path" type:"path"`

	DocumentFlags `embed:""`
}

func (c *StrideCmd) Run() error {
	layout, err := assemble.LookupLayout(c.Layout)
	if err != nil {
		return err
	}
	layout.GapPolicy = c.Gaps
	if c.Upper {
		layout.UppercaseTransliteration = true
	}

	lines, err := readLines(c.Input)
	if err != nil {
		return err
	}
	verses, err := assemble.DecodeStride(c.Input, lines, layout)
	if err != nil {
		return err
	}
	return writeJSON(c.Out, assemble.NewDocument(c.meta(), verses))
}

// ZipCmd builds a document from parallel text files.
type ZipCmd struct {
	Text            string `required:"" help:"Text lines" type:"existingfile"`
	Translation     string `required:"" help:"Translation lines" type:"existingfile"`
	Transliteration string `help:"Transliteration lines" type:"existingfile"`
	Gaps            bool   `help:"Turn empty text lines into gap placeholders"`
	Upper           bool   `help:"Uppercase the transliteration"`
	Out             string `required:"" help:"Output document path" type:"path"`

	DocumentFlags `embed:""`
}

func (c *ZipCmd) Run() error {
	var in assemble.ZipInput
	var err error
	if in.Text, err = readLines(c.Text); err != nil {
		return err
	}
	if in.Translation, err = readLines(c.Translation); err != nil {
		return err
	}
	if c.Transliteration != "" {
		if in.Transliteration, err = readLines(c.Transliteration); err != nil {
			return err
		}
		in.HasTransliteration = true
	}
	verses, err := assemble.Zip(in, assemble.ZipOptions{GapPolicy: c.Gaps, UppercaseTransliteration: c.Upper})
	if err != nil {
		return err
	}
	return writeJSON(c.Out, assemble.NewDocument(c.meta(), verses))
}

// MergeFlags are shared by the keyed merges.
type MergeFlags struct {
	Scripture      string `arg:"" help:"Primary scripture document" type:"existingfile"`
	Out            string `required:"" help:"Output document path" type:"path"`
	AllowUnmatched bool   `help:"Finish even if some verses find no record"`
}

func (f MergeFlags) options() merge.Options {
	return merge.Options{AllowUnmatched: f.AllowUnmatched}
}

// MergeAudioCmd attaches audio indexes.
type MergeAudioCmd struct {
	MergeFlags `embed:""`
	Records    string `name:"records" required:"" help:"Audio document ({\"quran\": [...]})" type:"existingfile"`
}

func (c *MergeAudioCmd) Run() error {
	return runAudioMerge(c.MergeFlags, c.Records, merge.MergeAudio)
}

// MergeTextCmd replaces verse text with canonical text.
type MergeTextCmd struct {
	MergeFlags `embed:""`
	Records    string `name:"records" required:"" help:"Canonical text document ({\"quran\": [...]})" type:"existingfile"`
}

func (c *MergeTextCmd) Run() error {
	return runAudioMerge(c.MergeFlags, c.Records, merge.ReplaceText)
}

func runAudioMerge(f MergeFlags, records string, fn func(verse.Scripture, []merge.AudioRecord, merge.Options) (verse.Scripture, merge.Report, error)) error {
	s, err := readScripture(f.Scripture)
	if err != nil {
		return err
	}
	aux, err := readJSON[merge.AudioDocument](records)
	if err != nil {
		return err
	}
	out, report, err := fn(s, aux.Quran, f.options())
	if err != nil {
		return err
	}
	printReport(report)
	return writeJSON(f.Out, out)
}

// MergeWordsCmd attaches per-word records.
type MergeWordsCmd struct {
	MergeFlags `embed:""`
	Words      string `required:"" help:"Per-word document" type:"existingfile"`
}

func (c *MergeWordsCmd) Run() error {
	s, err := readScripture(c.Scripture)
	if err != nil {
		return err
	}
	words, err := readJSON[[]merge.WordRecord](c.Words)
	if err != nil {
		return err
	}
	out, report, err := merge.AttachWords(s, words, c.options())
	if err != nil {
		return err
	}
	printReport(report)
	return writeJSON(c.Out, out)
}

// MergeWordTranslationsCmd attaches per-language word translations.
type MergeWordTranslationsCmd struct {
	MergeFlags    `embed:""`
	Words         string   `required:"" help:"Per-word document the translations align with" type:"existingfile"`
	Lang          []string `required:"" help:"Per-language translation document (repeatable)" type:"existingfile"`
	MultiLanguage bool     `help:"Store a list of translations per word even for one language"`
}

func (c *MergeWordTranslationsCmd) Run() error {
	s, err := readScripture(c.Scripture)
	if err != nil {
		return err
	}
	words, err := readJSON[[]merge.WordRecord](c.Words)
	if err != nil {
		return err
	}
	langs := make([]merge.LanguageTranslations, 0, len(c.Lang))
	for _, path := range c.Lang {
		l, err := readJSON[merge.LanguageTranslations](path)
		if err != nil {
			return err
		}
		langs = append(langs, l)
	}
	out, report, err := merge.AttachWordTranslations(s, words, langs, merge.WordTranslationOptions{
		Options:       c.options(),
		MultiLanguage: c.MultiLanguage,
	})
	if err != nil {
		return err
	}
	printReport(report)
	return writeJSON(c.Out, out)
}

// MergeTranslationCmd overlays a fetched translation.
type MergeTranslationCmd struct {
	Scripture   string `arg:"" help:"Primary scripture document" type:"existingfile"`
	Translation string `required:"" help:"Fetched translation document" type:"existingfile"`
	Out         string `required:"" help:"Output document path" type:"path"`
}

func (c *MergeTranslationCmd) Run() error {
	s, err := readScripture(c.Scripture)
	if err != nil {
		return err
	}
	t, err := readJSON[merge.TranslationDocument](c.Translation)
	if err != nil {
		return err
	}
	out, report, err := merge.OverlayTranslations(s, t.Translations)
	if err != nil {
		return err
	}
	printReport(report)
	return writeJSON(c.Out, out)
}

// MergeTanzilCmd sets translations from Tanzil XML.
type MergeTanzilCmd struct {
	MergeFlags `embed:""`
	Tanzil     string `required:"" help:"Tanzil XML translation" type:"existingfile"`
}

func (c *MergeTanzilCmd) Run() error {
	s, err := readScripture(c.Scripture)
	if err != nil {
		return err
	}
	data, err := readFile(c.Tanzil)
	if err != nil {
		return err
	}
	out, report, err := merge.MergeTanzil(s, data, c.options())
	if err != nil {
		return err
	}
	printReport(report)
	return writeJSON(c.Out, out)
}

// AssignAudioCmd sets one audio index on every verse of a collection.
type AssignAudioCmd struct {
	Collection string `arg:"" help:"Collection document" type:"existingfile"`
	Index      int    `required:"" help:"Audio index"`
	Out        string `required:"" help:"Output document path" type:"path"`
}

func (c *AssignAudioCmd) Run() error {
	if c.Index < 0 {
		return errors.NewValidation("index", "audio index must not be negative")
	}
	col, err := readJSON[verse.Collection](c.Collection)
	if err != nil {
		return err
	}
	return writeJSON(c.Out, merge.AssignAudio(col, c.Index))
}

// FilterWordTranslationsCmd keeps only the listed word translation languages.
type FilterWordTranslationsCmd struct {
	Scripture string   `arg:"" help:"Scripture document" type:"existingfile"`
	Keep      []string `required:"" help:"Language ids to keep"`
	Out       string   `required:"" help:"Output document path" type:"path"`
}

func (c *FilterWordTranslationsCmd) Run() error {
	s, err := readScripture(c.Scripture)
	if err != nil {
		return err
	}
	return writeJSON(c.Out, filter.WordTranslations(s, c.Keep...))
}

// FilterTranslatorsCmd keeps translators by language or id.
type FilterTranslatorsCmd struct {
	Translators string   `arg:"" help:"Translator list" type:"existingfile"`
	Language    []string `help:"Language names to keep"`
	ID          []int    `name:"id" help:"Translation ids to keep"`
	Out         string   `required:"" help:"Output document path" type:"path"`
}

func (c *FilterTranslatorsCmd) Run() error {
	if len(c.Language) == 0 && len(c.ID) == 0 {
		return errors.NewValidation("language", "--language or --id is required")
	}
	list, err := readJSON[verse.TranslatorList](c.Translators)
	if err != nil {
		return err
	}
	if len(c.Language) > 0 {
		list = filter.Translators(list, c.Language...)
	}
	if len(c.ID) > 0 {
		list = filter.TranslatorsByID(list, c.ID...)
	}
	fmt.Printf("Kept %d translators\n", len(list.Translations))
	return writeJSON(c.Out, list)
}

// FetchTranslationCmd downloads one translation resource.
type FetchTranslationCmd struct {
	ID  int    `arg:"" help:"Translation resource id"`
	Out string `required:"" help:"Output document path" type:"path"`
}

func (c *FetchTranslationCmd) Run() error {
	ctx, stop := commandContext()
	defer stop()

	f, err := newFetcher()
	if err != nil {
		return err
	}
	res, err := f.Translation(ctx, c.ID)
	if err != nil {
		return err
	}
	var doc merge.TranslationDocument
	if err := json.Unmarshal(res.Body, &doc); err != nil {
		return errors.NewMalformed(res.URL, 0, "decode translation: %v", err)
	}
	fmt.Printf("Fetched: %s\n", res.URL)
	fmt.Printf("  Records: %d\n", len(doc.Translations))
	fmt.Printf("  SHA-256: %s\n", res.Hash)
	return writeJSON(c.Out, doc)
}

// FetchTranslatorsCmd downloads the translator list.
type FetchTranslatorsCmd struct {
	Out string `required:"" help:"Output document path" type:"path"`
}

func (c *FetchTranslatorsCmd) Run() error {
	ctx, stop := commandContext()
	defer stop()

	f, err := newFetcher()
	if err != nil {
		return err
	}
	res, err := f.Translators(ctx)
	if err != nil {
		return err
	}
	var list verse.TranslatorList
	if err := json.Unmarshal(res.Body, &list); err != nil {
		return errors.NewMalformed(res.URL, 0, "decode translators: %v", err)
	}
	fmt.Printf("Fetched: %s\n", res.URL)
	fmt.Printf("  Translators: %d\n", len(list.Translations))
	return writeJSON(c.Out, list)
}

// RunCmd runs a pipeline descriptor.
type RunCmd struct {
	Pipeline string   `arg:"" help:"Pipeline descriptor (YAML)" type:"existingfile"`
	Pass     []string `help:"Run only the named passes"`
	DryRun   bool     `help:"Validate the descriptor and print the plan without running it"`
}

func (c *RunCmd) Run() error {
	d, err := pipeline.Load(c.Pipeline)
	if err != nil {
		return err
	}
	if err := d.Validate(pipeline.DefaultRegistry()); err != nil {
		return err
	}

	if c.DryRun {
		fmt.Printf("Pipeline: %s\n", d.Name)
		fmt.Printf("  Workdir: %s\n", d.Dir())
		sel := pipeline.Selection{Passes: c.Pass}
		for _, p := range d.Passes {
			mark := " "
			if len(sel.Passes) == 0 || contains(sel.Passes, p.Name) {
				mark = "*"
			}
			dest := "(memory)"
			if p.Output.Path != "" {
				dest = p.Output.Path
			}
			fmt.Printf("  %s %-24s %-26s -> %s %s\n", mark, p.Name, p.Kind, p.Output.Kind, dest)
		}
		return nil
	}

	ctx, stop := commandContext()
	defer stop()

	f, err := newFetcher()
	if err != nil {
		return err
	}
	m, err := pipeline.NewRunner(f).Run(ctx, d, pipeline.Selection{Passes: c.Pass})
	if m != nil {
		fmt.Printf("Run: %s (%s)\n", m.RunID, m.Status)
		for _, p := range m.Passes {
			line := fmt.Sprintf("  [OK] %s", p.Name)
			if p.Path != "" {
				line += fmt.Sprintf(" -> %s (%d bytes, sha256 %s)", p.Path, p.Size, shortHash(p.SHA256))
			}
			if p.Matched != nil {
				line += fmt.Sprintf(" matched=%d unmatched=%d", *p.Matched, len(p.Unmatched))
			}
			fmt.Println(line)
		}
	}
	return err
}

// PassesCmd lists the registered pass kinds.
type PassesCmd struct{}

func (c *PassesCmd) Run() error {
	for _, spec := range pipeline.DefaultRegistry().Specs() {
		fmt.Printf("%-26s %s\n", spec.Kind, spec.Summary)
		for _, r := range spec.Inputs {
			kinds := make([]string, len(r.Kinds))
			for i, k := range r.Kinds {
				kinds[i] = string(k)
			}
			var flags []string
			if r.Optional {
				flags = append(flags, "optional")
			}
			if r.Multiple {
				flags = append(flags, "multiple")
			}
			suffix := ""
			if len(flags) > 0 {
				suffix = " (" + strings.Join(flags, ", ") + ")"
			}
			fmt.Printf("    in  %-16s %s%s\n", r.Name, strings.Join(kinds, " | "), suffix)
		}
		fmt.Printf("    out %s\n", spec.Outputs[0])
	}
	return nil
}

// DocsCmd generates the pass, kind and layout references.
type DocsCmd struct {
	Output string `default:"docs" help:"Output directory" type:"path"`
}

func (c *DocsCmd) Run() error {
	if err := docgen.NewGenerator(c.Output).GenerateAll(); err != nil {
		return err
	}
	fmt.Printf("Generated: %s\n", c.Output)
	for _, name := range []string{"PASSES.md", "KINDS.md", "LAYOUTS.md"} {
		fmt.Printf("  %s\n", filepath.Join(c.Output, name))
	}
	return nil
}

// SnapshotCmd restores a pass output recorded in a run manifest.
type SnapshotCmd struct {
	Digest string `arg:"" help:"Digest as sha256:<hex>, blake3:<hex> or bare hex"`
	Dir    string `help:"Pipeline working directory" default:"." type:"existingdir"`
	Out    string `short:"o" help:"Write to this file instead of stdout"`
}

func (c *SnapshotCmd) Run() error {
	store, err := cas.Open(filepath.Join(c.Dir, pipeline.StateDir))
	if err != nil {
		return err
	}
	data, err := readSnapshot(store, c.Digest)
	if err != nil {
		return err
	}
	if c.Out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if err := docio.WriteFileAtomic(c.Out, data); err != nil {
		return err
	}
	logging.OutputWritten(context.Background(), filepath.Base(c.Out), c.Out, len(data))
	fmt.Printf("Wrote: %s (%d bytes)\n", c.Out, len(data))
	return nil
}

// readSnapshot resolves a prefixed digest. A bare digest is tried as
// sha256 first, then as blake3.
func readSnapshot(store *cas.Store, digest string) ([]byte, error) {
	algo, hex, ok := strings.Cut(digest, ":")
	if !ok {
		algo, hex = "", digest
	}
	var data []byte
	var err error
	switch algo {
	case "sha256":
		data, err = store.Get(hex)
	case "blake3":
		data, err = store.GetByBlake3(hex)
	case "":
		if store.Has(hex) {
			data, err = store.Get(hex)
		} else {
			data, err = store.GetByBlake3(hex)
		}
	default:
		return nil, errors.NewValidation("digest", fmt.Sprintf("unknown algorithm %q", algo))
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", digest, err)
	}
	sum := cas.Sum(data)
	if sum.SHA256 != hex && sum.BLAKE3 != hex {
		return nil, errors.NewValidation("digest", fmt.Sprintf("snapshot %s is corrupt", digest))
	}
	return data, nil
}

// LookupCmd prints a verse or word of a scripture document.
type LookupCmd struct {
	Scripture string `arg:"" help:"Scripture document" type:"existingfile"`
	Key       string `arg:"" help:"Verse key (2:255) or word key (2:255:3)"`
}

func (c *LookupCmd) Run() error {
	key, err := verse.ParseKey(c.Key)
	if err != nil {
		return errors.NewValidation("key", err.Error())
	}
	s, err := readScripture(c.Scripture)
	if err != nil {
		return err
	}
	v, ok := s.Find(key.VerseOnly())
	if !ok {
		return errors.NewNotFound("verse", key.VerseOnly().String())
	}

	var out any = v
	if key.Position > 0 {
		id := verse.WordID(key.Verse, key.Position)
		var found *verse.Word
		for i := range v.Words {
			if v.Words[i].ID == id {
				found = &v.Words[i]
				break
			}
		}
		if found == nil {
			return errors.NewNotFound("word", key.String())
		}
		out = found
	}
	data, err := docio.EncodeJSON(out)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// ValidateCmd checks the structural invariants of a document.
type ValidateCmd struct {
	Document string `arg:"" help:"Document to check" type:"existingfile"`
	Kind     string `default:"scripture" enum:"scripture,collection,document" help:"Document kind (scripture, collection, document)"`
}

func (c *ValidateCmd) Run() error {
	v, err := pipeline.ReadFile(pipeline.Kind(c.Kind), c.Document)
	if err != nil {
		return err
	}
	var problems []error
	switch doc := v.(type) {
	case verse.Scripture:
		problems = verse.ValidateScripture(doc)
	case verse.Collection:
		problems = verse.ValidateCollection(doc)
	case verse.Document:
		problems = verse.ValidateDocument(doc)
	}
	for _, p := range problems {
		fmt.Printf("  [FAIL] %v\n", p)
	}
	if len(problems) > 0 {
		return errors.NewValidation(c.Document, fmt.Sprintf("%d problems found", len(problems)))
	}
	fmt.Printf("OK: %s\n", c.Document)
	return nil
}

// ExportSQLiteCmd exports a document to SQLite.
type ExportSQLiteCmd struct {
	Document string `arg:"" help:"Document to export" type:"existingfile"`
	Kind     string `default:"scripture" enum:"scripture,collection,document" help:"Document kind (scripture, collection, document)"`
	Out      string `required:"" help:"Database path" type:"path"`
}

func (c *ExportSQLiteCmd) Run() error {
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	v, err := pipeline.ReadFile(pipeline.Kind(c.Kind), c.Document)
	if err != nil {
		return err
	}

	ctx, stop := commandContext()
	defer stop()

	var stats sqlitestore.Stats
	switch doc := v.(type) {
	case verse.Scripture:
		stats, err = sqlitestore.ExportScripture(ctx, c.Out, doc)
	case verse.Collection:
		stats, err = sqlitestore.ExportCollection(ctx, c.Out, doc)
	case verse.Document:
		stats, err = sqlitestore.ExportDocument(ctx, c.Out, doc)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported: %s\n", c.Out)
	fmt.Printf("  Documents: %d\n", stats.Documents)
	fmt.Printf("  Verses: %d\n", stats.Verses)
	fmt.Printf("  Words: %d\n", stats.Words)
	fmt.Printf("  Word translations: %d\n", stats.WordTranslations)
	return nil
}

// ArchivePackCmd packs a directory of outputs.
type ArchivePackCmd struct {
	Dir  string `arg:"" help:"Directory to pack" type:"existingdir"`
	Out  string `required:"" help:"Bundle path (.tar.xz)" type:"path"`
	Name string `help:"Bundle name recorded in the manifest"`
}

func (c *ArchivePackCmd) Run() error {
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	m, err := archive.Pack(c.Dir, c.Out, archive.Options{Name: c.Name})
	if err != nil {
		return err
	}
	fmt.Printf("Created: %s\n", c.Out)
	fmt.Printf("  Name: %s\n", m.Name)
	fmt.Printf("  Files: %d\n", len(m.Files))
	return nil
}

// ArchiveVerifyCmd verifies a bundle.
type ArchiveVerifyCmd struct {
	Bundle string `arg:"" help:"Bundle path (.tar.xz)" type:"existingfile"`
}

func (c *ArchiveVerifyCmd) Run() error {
	m, err := archive.Verify(c.Bundle)
	if err != nil {
		return err
	}
	fmt.Printf("Bundle: %s\n", c.Bundle)
	fmt.Printf("  Name: %s\n", m.Name)
	for _, f := range m.Files {
		fmt.Printf("  [OK] %s (%d bytes)\n", f.Path, f.Size)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("versekit version %s\n", version)
	return nil
}

// Helper functions

func readLines(path string) ([]string, error) {
	if err := validation.CheckFileSize(path); err != nil {
		return nil, err
	}
	return docio.ReadLines(path)
}

func readJSON[T any](path string) (T, error) {
	if err := validation.CheckFileSize(path); err != nil {
		var zero T
		return zero, err
	}
	return docio.ReadJSON[T](path)
}

func readScripture(path string) (verse.Scripture, error) {
	return readJSON[verse.Scripture](path)
}

func readFile(path string) ([]byte, error) {
	if err := validation.CheckFileSize(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

func writeJSON(path string, v any) error {
	if err := validation.ValidatePath(path); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	data, err := docio.WriteJSON(path, v)
	if err != nil {
		return err
	}
	logging.OutputWritten(context.Background(), filepath.Base(path), path, len(data))
	fmt.Printf("Wrote: %s (%d bytes)\n", path, len(data))
	return nil
}

func printReport(r merge.Report) {
	fmt.Printf("Merged %s: %d matched", r.Document, r.Matched)
	if n := len(r.Unmatched); n > 0 {
		fmt.Printf(", %d unmatched (first %s)", n, r.Unmatched[0])
	}
	fmt.Println()
}

func newFetcher() (*fetch.Fetcher, error) {
	return fetch.New(fetch.Config{BaseURL: CLI.APIURL})
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func setupLogging() error {
	level, err := logging.ParseLevel(CLI.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(CLI.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("versekit"),
		kong.Description("versekit - build and enrich verse-record documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(setupLogging())
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
