package verse

// Verse is one unit of recited text.
type Verse struct {
	// ID is the 1-based position for real verses, negative for gap placeholders.
	ID int `json:"id"`

	// Text is the original-script string.
	Text string `json:"text"`

	// Translation is the target-language rendering.
	Translation string `json:"translation"`

	// Transliteration is the optional secondary rendering.
	Transliteration string `json:"transliteration,omitempty"`

	// Audio is an index into an external audio asset list, set by a merge pass.
	Audio *int `json:"audio,omitempty"`

	// Gap is set on ziyarat-style documents; true marks a structural placeholder.
	Gap *bool `json:"gap,omitempty"`

	// Words is filled by word enrichment.
	Words []Word `json:"words,omitempty"`
}

// IsGap reports whether the verse is a structural placeholder.
func (v Verse) IsGap() bool {
	return v.Gap != nil && *v.Gap
}

// Word is a token of a verse.
type Word struct {
	// ID is "{verse}-{position}", position 1-based.
	ID string `json:"id"`

	Text string `json:"text"`

	// Translation is used by single-language pipelines.
	Translation string `json:"translation,omitempty"`

	// Translations is used by multi-language pipelines, in the order the
	// languages were supplied.
	Translations []WordTranslation `json:"translations,omitempty"`
}

// WordTranslation is the rendering of a word in one language.
type WordTranslation struct {
	// ID is the language code (e.g., "en", "ur").
	ID          string `json:"id"`
	Language    string `json:"language"`
	Translation string `json:"translation"`
}

// Document is a titled sequence of verses.
type Document struct {
	ID       int     `json:"id,omitempty"`
	Title    string  `json:"title,omitempty"`
	Subtitle *string `json:"subtitle"`
	Type     string  `json:"type,omitempty"`
	Time     string  `json:"time,omitempty"`
	Audio    *string `json:"audio,omitempty"`
	Verses   []Verse `json:"verses"`
}

// Collection is an ordered list of documents.
type Collection []Document

// Chapter is one chapter of the scripture document.
type Chapter struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Transliteration string  `json:"transliteration"`
	Translation     string  `json:"translation"`
	Type            string  `json:"type"`
	TotalVerses     int     `json:"total_verses"`
	Verses          []Verse `json:"verses"`
}

// Scripture is the full chapter-addressed document.
type Scripture []Chapter

// VerseCount returns the number of non-gap verses across all chapters.
func (s Scripture) VerseCount() int {
	n := 0
	for _, ch := range s {
		for _, v := range ch.Verses {
			if !v.IsGap() {
				n++
			}
		}
	}
	return n
}

// Find returns the verse addressed by key, if present.
func (s Scripture) Find(key Key) (Verse, bool) {
	for _, ch := range s {
		if ch.ID != key.Chapter {
			continue
		}
		for _, v := range ch.Verses {
			if v.ID == key.Verse {
				return v, true
			}
		}
	}
	return Verse{}, false
}

// Translator describes a translation resource offered by the remote API.
type Translator struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	AuthorName   string  `json:"author_name"`
	Slug         *string `json:"slug"`
	LanguageName string  `json:"language_name"`
}

// TranslatorList is the translator listing document.
type TranslatorList struct {
	Translations []Translator `json:"translations"`
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}
