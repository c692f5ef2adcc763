// Package sqlitestore exports assembled documents into a SQLite database for
// the reader apps. Each export replaces the tables in a single transaction.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/versekit/versekit/core/sqlite"
	"github.com/versekit/versekit/core/verse"
)

const schema = `
DROP TABLE IF EXISTS word_translations;
DROP TABLE IF EXISTS words;
DROP TABLE IF EXISTS verses;
DROP TABLE IF EXISTS documents;

CREATE TABLE documents (
	ordinal         INTEGER PRIMARY KEY,
	kind            TEXT NOT NULL,
	source_id       INTEGER,
	title           TEXT NOT NULL DEFAULT '',
	subtitle        TEXT,
	type            TEXT NOT NULL DEFAULT '',
	time            TEXT NOT NULL DEFAULT '',
	name            TEXT NOT NULL DEFAULT '',
	transliteration TEXT NOT NULL DEFAULT '',
	translation     TEXT NOT NULL DEFAULT '',
	audio           TEXT,
	total_verses    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE verses (
	document_ordinal INTEGER NOT NULL REFERENCES documents(ordinal),
	ordinal          INTEGER NOT NULL,
	id               INTEGER NOT NULL,
	text             TEXT NOT NULL,
	translation      TEXT NOT NULL,
	transliteration  TEXT NOT NULL DEFAULT '',
	audio            INTEGER,
	gap              INTEGER,
	PRIMARY KEY (document_ordinal, ordinal)
);

CREATE TABLE words (
	document_ordinal INTEGER NOT NULL,
	verse_ordinal    INTEGER NOT NULL,
	position         INTEGER NOT NULL,
	id               TEXT NOT NULL,
	text             TEXT NOT NULL,
	translation      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (document_ordinal, verse_ordinal, position),
	FOREIGN KEY (document_ordinal, verse_ordinal) REFERENCES verses(document_ordinal, ordinal)
);

CREATE TABLE word_translations (
	document_ordinal INTEGER NOT NULL,
	verse_ordinal    INTEGER NOT NULL,
	position         INTEGER NOT NULL,
	seq              INTEGER NOT NULL,
	language_id      TEXT NOT NULL,
	language         TEXT NOT NULL,
	translation      TEXT NOT NULL,
	PRIMARY KEY (document_ordinal, verse_ordinal, position, seq),
	FOREIGN KEY (document_ordinal, verse_ordinal, position) REFERENCES words(document_ordinal, verse_ordinal, position)
);

CREATE INDEX verses_by_id ON verses(document_ordinal, id);
`

// Stats counts the rows written by an export.
type Stats struct {
	Documents        int `json:"documents"`
	Verses           int `json:"verses"`
	Words            int `json:"words"`
	WordTranslations int `json:"word_translations"`
}

// ExportScripture writes every chapter of s to the database at path.
func ExportScripture(ctx context.Context, path string, s verse.Scripture) (Stats, error) {
	return export(ctx, path, func(e *exporter) error {
		for i, ch := range s {
			row := documentRow{
				kind:            "chapter",
				sourceID:        sql.NullInt64{Int64: int64(ch.ID), Valid: true},
				name:            ch.Name,
				transliteration: ch.Transliteration,
				translation:     ch.Translation,
				typ:             ch.Type,
				totalVerses:     ch.TotalVerses,
			}
			if err := e.document(ctx, i+1, row, ch.Verses); err != nil {
				return fmt.Errorf("chapter %d: %w", ch.ID, err)
			}
		}
		return nil
	})
}

// ExportCollection writes every document of c to the database at path.
func ExportCollection(ctx context.Context, path string, c verse.Collection) (Stats, error) {
	return export(ctx, path, func(e *exporter) error {
		for i, d := range c {
			if err := e.document(ctx, i+1, rowForDocument(d), d.Verses); err != nil {
				return fmt.Errorf("document %d (%s): %w", i+1, d.Title, err)
			}
		}
		return nil
	})
}

// ExportDocument writes a single document to the database at path.
func ExportDocument(ctx context.Context, path string, d verse.Document) (Stats, error) {
	return ExportCollection(ctx, path, verse.Collection{d})
}

func rowForDocument(d verse.Document) documentRow {
	row := documentRow{
		kind:  "document",
		title: d.Title,
		typ:   d.Type,
		time:  d.Time,
	}
	if d.ID != 0 {
		row.sourceID = sql.NullInt64{Int64: int64(d.ID), Valid: true}
	}
	if d.Subtitle != nil {
		row.subtitle = sql.NullString{String: *d.Subtitle, Valid: true}
	}
	if d.Audio != nil {
		row.audio = sql.NullString{String: *d.Audio, Valid: true}
	}
	return row
}

type documentRow struct {
	kind            string
	sourceID        sql.NullInt64
	title           string
	subtitle        sql.NullString
	typ             string
	time            string
	name            string
	transliteration string
	translation     string
	audio           sql.NullString
	totalVerses     int
}

type exporter struct {
	tx    *sql.Tx
	stats Stats
}

func export(ctx context.Context, path string, fill func(*exporter) error) (Stats, error) {
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return Stats{}, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return Stats{}, fmt.Errorf("create schema: %w", err)
	}

	e := &exporter{tx: tx}
	if err := fill(e); err != nil {
		return Stats{}, err
	}
	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit: %w", err)
	}
	return e.stats, nil
}

func (e *exporter) document(ctx context.Context, ordinal int, row documentRow, verses []verse.Verse) error {
	_, err := e.tx.ExecContext(ctx, `INSERT INTO documents
		(ordinal, kind, source_id, title, subtitle, type, time, name, transliteration, translation, audio, total_verses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ordinal, row.kind, row.sourceID, row.title, row.subtitle, row.typ, row.time,
		row.name, row.transliteration, row.translation, row.audio, row.totalVerses)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	e.stats.Documents++

	for vi, v := range verses {
		if err := e.verse(ctx, ordinal, vi+1, v); err != nil {
			return err
		}
	}
	return nil
}

func (e *exporter) verse(ctx context.Context, doc, ordinal int, v verse.Verse) error {
	var audio, gap sql.NullInt64
	if v.Audio != nil {
		audio = sql.NullInt64{Int64: int64(*v.Audio), Valid: true}
	}
	if v.Gap != nil {
		gap = sql.NullInt64{Valid: true}
		if *v.Gap {
			gap.Int64 = 1
		}
	}
	_, err := e.tx.ExecContext(ctx, `INSERT INTO verses
		(document_ordinal, ordinal, id, text, translation, transliteration, audio, gap)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc, ordinal, v.ID, v.Text, v.Translation, v.Transliteration, audio, gap)
	if err != nil {
		return fmt.Errorf("insert verse %d: %w", v.ID, err)
	}
	e.stats.Verses++

	for _, w := range v.Words {
		_, pos, err := verse.ParseWordID(w.ID)
		if err != nil {
			return fmt.Errorf("verse %d: %w", v.ID, err)
		}
		_, err = e.tx.ExecContext(ctx, `INSERT INTO words
			(document_ordinal, verse_ordinal, position, id, text, translation)
			VALUES (?, ?, ?, ?, ?, ?)`,
			doc, ordinal, pos, w.ID, w.Text, w.Translation)
		if err != nil {
			return fmt.Errorf("insert word %s: %w", w.ID, err)
		}
		e.stats.Words++

		for seq, tr := range w.Translations {
			_, err := e.tx.ExecContext(ctx, `INSERT INTO word_translations
				(document_ordinal, verse_ordinal, position, seq, language_id, language, translation)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				doc, ordinal, pos, seq, tr.ID, tr.Language, tr.Translation)
			if err != nil {
				return fmt.Errorf("insert %s translation of word %s: %w", tr.ID, w.ID, err)
			}
			e.stats.WordTranslations++
		}
	}
	return nil
}
