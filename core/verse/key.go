package verse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Key addresses a verse ("2:255") or a word within a verse ("2:255:3").
type Key struct {
	Chapter int `json:"chapter"`
	Verse   int `json:"verse"`

	// Position is the 1-based word position, 0 for verse keys.
	Position int `json:"position,omitempty"`
}

// VerseKey returns the verse-level key for chapter and verse.
func VerseKey(chapter, verse int) Key {
	return Key{Chapter: chapter, Verse: verse}
}

// VerseOnly drops the word position.
func (k Key) VerseOnly() Key {
	return Key{Chapter: k.Chapter, Verse: k.Verse}
}

// String renders the key as "c:v" or "c:v:p".
func (k Key) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(k.Chapter))
	sb.WriteString(":")
	sb.WriteString(strconv.Itoa(k.Verse))
	if k.Position > 0 {
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(k.Position))
	}
	return sb.String()
}

// keyGrammar is the participle grammar for verse and word addresses.
// Examples: "1:1", "2:255", "2:255:3"
//
//nolint:govet // participle grammar tags are not standard struct tags
type keyGrammar struct {
	Chapter  int  `@Int`
	Verse    int  `":" @Int`
	Position *int `( ":" @Int )?`
}

// wordIDGrammar parses word ids of the form "{verse}-{position}".
//
//nolint:govet // participle grammar tags are not standard struct tags
type wordIDGrammar struct {
	Verse    int `@Int`
	Position int `"-" @Int`
}

var keyLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[:\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var keyParser = participle.MustBuild[keyGrammar](
	participle.Lexer(keyLexer),
	participle.Elide("Whitespace"),
)

var wordIDParser = participle.MustBuild[wordIDGrammar](
	participle.Lexer(keyLexer),
	participle.Elide("Whitespace"),
)

// ParseKey parses a "c:v" or "c:v:p" address. All components must be positive.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}, fmt.Errorf("empty key")
	}

	parsed, err := keyParser.ParseString("", s)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}

	key := Key{Chapter: parsed.Chapter, Verse: parsed.Verse}
	if parsed.Position != nil {
		key.Position = *parsed.Position
		if key.Position < 1 {
			return Key{}, fmt.Errorf("invalid key %q: position must be at least 1", s)
		}
	}
	if key.Chapter < 1 || key.Verse < 1 {
		return Key{}, fmt.Errorf("invalid key %q: chapter and verse must be at least 1", s)
	}
	return key, nil
}

// WordID builds the id of the word at position (1-based) in verse.
func WordID(verse, position int) string {
	return strconv.Itoa(verse) + "-" + strconv.Itoa(position)
}

// ParseWordID splits a word id into its verse and position.
func ParseWordID(id string) (verse, position int, err error) {
	parsed, err := wordIDParser.ParseString("", strings.TrimSpace(id))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid word id %q: %w", id, err)
	}
	return parsed.Verse, parsed.Position, nil
}
