package assemble

import (
	"github.com/versekit/versekit/core/verse"
)

// Meta carries the document-level fields supplied by the operator.
type Meta struct {
	ID       int     `yaml:"id"`
	Title    string  `yaml:"title"`
	Subtitle *string `yaml:"subtitle"`
	Type     string  `yaml:"type"`
	Time     string  `yaml:"time"`
	Audio    *string `yaml:"audio"`
}

// NewDocument wraps verses in a document carrying meta.
func NewDocument(meta Meta, verses []verse.Verse) verse.Document {
	doc := verse.Document{
		ID:     meta.ID,
		Title:  meta.Title,
		Type:   meta.Type,
		Time:   meta.Time,
		Verses: verses,
	}
	if meta.Subtitle != nil {
		doc.Subtitle = verse.String(*meta.Subtitle)
	}
	if meta.Audio != nil {
		doc.Audio = verse.String(*meta.Audio)
	}
	if doc.Verses == nil {
		doc.Verses = []verse.Verse{}
	}
	return doc
}
