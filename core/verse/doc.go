// Package verse defines the document model produced and consumed by every
// versekit pass.
//
// # Core Types
//
//   - Verse: one unit of recited text with its translation and transliteration
//   - Word: a token of a verse, optionally carrying per-language translations
//   - Document: a titled sequence of verses (a dua or a ziyarat)
//   - Collection: an ordered list of documents (the duas file)
//   - Chapter / Scripture: the chapter-addressed scripture document
//
// # Identifiers
//
// Real verses are numbered 1..n in document order. Gap verses, which keep the
// layout of a text without carrying original-script content, are numbered
// -1, -2, ... in document order. Word ids have the form "{verse}-{position}".
//
// Chapter/verse/position addresses are written "c:v" or "c:v:p" and parsed by
// ParseKey.
//
// All transforms treat these values as immutable: use Clone before changing a
// document that was handed to you.
package verse
