package verse

import (
	"fmt"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

func newValidationError(path, message string) error {
	return &ValidationError{Path: path, Message: message}
}

// ValidateVerses checks the id invariants of a verse sequence: real verses are
// numbered 1, 2, 3... and gap verses -1, -2, -3... in document order, and word
// ids are well-formed and unique within their verse.
func ValidateVerses(path string, verses []Verse) []error {
	var errs []error

	nextID, nextGap := 1, -1
	for i, v := range verses {
		vPath := fmt.Sprintf("%s[%d]", path, i)
		if v.IsGap() {
			if v.ID != nextGap {
				errs = append(errs, newValidationError(vPath+".id",
					fmt.Sprintf("gap verse has id %d, want %d", v.ID, nextGap)))
			}
			nextGap--
		} else {
			if v.ID != nextID {
				errs = append(errs, newValidationError(vPath+".id",
					fmt.Sprintf("verse has id %d, want %d", v.ID, nextID)))
			}
			nextID++
		}
		errs = append(errs, validateWords(vPath, v)...)
	}

	return errs
}

func validateWords(path string, v Verse) []error {
	var errs []error
	seen := make(map[int]bool, len(v.Words))
	for i, w := range v.Words {
		wPath := fmt.Sprintf("%s.words[%d]", path, i)
		verseNum, pos, err := ParseWordID(w.ID)
		if err != nil {
			errs = append(errs, newValidationError(wPath+".id", err.Error()))
			continue
		}
		if verseNum != v.ID {
			errs = append(errs, newValidationError(wPath+".id",
				fmt.Sprintf("word %q belongs to verse %d, not %d", w.ID, verseNum, v.ID)))
		}
		if pos < 1 {
			errs = append(errs, newValidationError(wPath+".id",
				fmt.Sprintf("word %q has position %d, want at least 1", w.ID, pos)))
		}
		if seen[pos] {
			errs = append(errs, newValidationError(wPath+".id",
				fmt.Sprintf("duplicate word position %d", pos)))
		}
		seen[pos] = true
	}
	return errs
}

// ValidateDocument validates a single document.
func ValidateDocument(d Document) []error {
	return ValidateVerses("verses", d.Verses)
}

// ValidateCollection validates every document of a collection.
func ValidateCollection(c Collection) []error {
	var errs []error
	for i, d := range c {
		errs = append(errs, ValidateVerses(fmt.Sprintf("[%d].verses", i), d.Verses)...)
	}
	return errs
}

// ValidateScripture validates chapter ids, declared verse counts and the
// verses of every chapter.
func ValidateScripture(s Scripture) []error {
	var errs []error
	seen := make(map[int]bool, len(s))
	for i, ch := range s {
		chPath := fmt.Sprintf("[%d]", i)
		if ch.ID < 1 {
			errs = append(errs, newValidationError(chPath+".id",
				fmt.Sprintf("chapter id %d, want at least 1", ch.ID)))
		}
		if seen[ch.ID] {
			errs = append(errs, newValidationError(chPath+".id",
				fmt.Sprintf("duplicate chapter id %d", ch.ID)))
		}
		seen[ch.ID] = true
		if ch.TotalVerses != 0 && ch.TotalVerses != len(ch.Verses) {
			errs = append(errs, newValidationError(chPath+".total_verses",
				fmt.Sprintf("declares %d verses, has %d", ch.TotalVerses, len(ch.Verses))))
		}
		errs = append(errs, ValidateVerses(chPath+".verses", ch.Verses)...)
	}
	return errs
}
