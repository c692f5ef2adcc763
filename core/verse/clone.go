package verse

// Clone returns a deep copy of the verse.
func (v Verse) Clone() Verse {
	out := v
	if v.Audio != nil {
		out.Audio = Int(*v.Audio)
	}
	if v.Gap != nil {
		out.Gap = Bool(*v.Gap)
	}
	if v.Words != nil {
		out.Words = make([]Word, len(v.Words))
		for i, w := range v.Words {
			out.Words[i] = w.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the word.
func (w Word) Clone() Word {
	out := w
	if w.Translations != nil {
		out.Translations = append([]WordTranslation(nil), w.Translations...)
	}
	return out
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	if d.Subtitle != nil {
		out.Subtitle = String(*d.Subtitle)
	}
	if d.Audio != nil {
		out.Audio = String(*d.Audio)
	}
	out.Verses = cloneVerses(d.Verses)
	return out
}

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, d := range c {
		out[i] = d.Clone()
	}
	return out
}

// Clone returns a deep copy of the chapter.
func (c Chapter) Clone() Chapter {
	out := c
	out.Verses = cloneVerses(c.Verses)
	return out
}

// Clone returns a deep copy of the scripture.
func (s Scripture) Clone() Scripture {
	if s == nil {
		return nil
	}
	out := make(Scripture, len(s))
	for i, ch := range s {
		out[i] = ch.Clone()
	}
	return out
}

// Clone returns a deep copy of the translator list.
func (l TranslatorList) Clone() TranslatorList {
	out := TranslatorList{}
	if l.Translations != nil {
		out.Translations = make([]Translator, len(l.Translations))
		for i, t := range l.Translations {
			if t.Slug != nil {
				t.Slug = String(*t.Slug)
			}
			out.Translations[i] = t
		}
	}
	return out
}

func cloneVerses(in []Verse) []Verse {
	if in == nil {
		return nil
	}
	out := make([]Verse, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}
