package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/versekit/versekit/core/assemble"
	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/filter"
	"github.com/versekit/versekit/core/merge"
	"github.com/versekit/versekit/core/verse"
	"github.com/versekit/versekit/internal/fetch"
)

// Fetcher downloads translation resources.
type Fetcher interface {
	Translation(ctx context.Context, id int) (*fetch.Result, error)
	Translators(ctx context.Context) (*fetch.Result, error)
}

type mergeOptions struct {
	AllowUnmatched bool `yaml:"allow_unmatched"`
}

func (o *mergeOptions) merge() merge.Options {
	return merge.Options{AllowUnmatched: o.AllowUnmatched}
}

type strideOptions struct {
	Layout    string        `yaml:"layout"`
	Gaps      *bool         `yaml:"gaps"`
	Uppercase *bool         `yaml:"uppercase_transliteration"`
	Document  assemble.Meta `yaml:"document"`
}

type zipOptions struct {
	Gaps      bool          `yaml:"gaps"`
	Uppercase bool          `yaml:"uppercase_transliteration"`
	Document  assemble.Meta `yaml:"document"`
}

type assignAudioOptions struct {
	Index int `yaml:"index"`
}

type wordTranslationOptions struct {
	mergeOptions  `yaml:",inline"`
	MultiLanguage bool `yaml:"multi_language"`
}

type filterWordOptions struct {
	Keep []string `yaml:"keep"`
}

type filterTranslatorOptions struct {
	Languages []string `yaml:"languages"`
	IDs       []int    `yaml:"ids"`
}

type fetchOptions struct {
	ID int `yaml:"id"`
}

type noOptions struct{}

var (
	roleLines     = func(name string) Role { return Role{Name: name, Kinds: []Kind{KindLines}} }
	rolePrimary   = Role{Name: "primary", Kinds: []Kind{KindScripture}}
	roleAudio     = Role{Name: "audio", Kinds: []Kind{KindAudio}}
	roleWords     = Role{Name: "words", Kinds: []Kind{KindWords}}
	scriptureOnly = []Kind{KindScripture}
)

func builtinPasses() []PassSpec {
	return []PassSpec{
		Define("stride", "decode a fixed-stride interleaved text file into a document",
			[]Role{roleLines("lines")}, []Kind{KindDocument},
			func(o *strideOptions, d *Descriptor) error {
				if o.Layout == "" {
					o.Layout = "default"
				}
				_, err := d.Layout(o.Layout)
				return err
			},
			runStride),

		Define("zip", "zip parallel text files into a document",
			[]Role{roleLines("text"), roleLines("translation"), {Name: "transliteration", Kinds: []Kind{KindLines}, Optional: true}},
			[]Kind{KindDocument}, nil, runZip),

		Define("collect", "gather documents into a collection, in order",
			[]Role{{Name: "documents", Kinds: []Kind{KindDocument, KindCollection}, Multiple: true}},
			[]Kind{KindCollection}, nil, runCollect),

		Define("merge-audio", "attach audio indexes by chapter and verse",
			[]Role{rolePrimary, roleAudio}, scriptureOnly, nil,
			func(_ context.Context, _ *Env, in Inputs, o *mergeOptions) (Result, error) {
				return scriptureMerge(in, "audio", func(s verse.Scripture, aux merge.AudioDocument) (verse.Scripture, merge.Report, error) {
					return merge.MergeAudio(s, aux.Quran, o.merge())
				})
			}),

		Define("replace-text", "replace verse text with canonical text by chapter and verse",
			[]Role{rolePrimary, roleAudio}, scriptureOnly, nil,
			func(_ context.Context, _ *Env, in Inputs, o *mergeOptions) (Result, error) {
				return scriptureMerge(in, "audio", func(s verse.Scripture, aux merge.AudioDocument) (verse.Scripture, merge.Report, error) {
					return merge.ReplaceText(s, aux.Quran, o.merge())
				})
			}),

		Define("assign-audio", "set one audio index on every verse of a collection",
			[]Role{{Name: "primary", Kinds: []Kind{KindCollection}}}, []Kind{KindCollection},
			func(o *assignAudioOptions, _ *Descriptor) error {
				if o.Index < 0 {
					return errors.NewValidation("index", "audio index must not be negative")
				}
				return nil
			},
			func(_ context.Context, _ *Env, in Inputs, o *assignAudioOptions) (Result, error) {
				c, err := Input[verse.Collection](in, "primary")
				if err != nil {
					return Result{}, err
				}
				return Result{Value: merge.AssignAudio(c, o.Index)}, nil
			}),

		Define("attach-words", "attach per-word records to verses, ordered by position",
			[]Role{rolePrimary, roleWords}, scriptureOnly, nil,
			func(_ context.Context, _ *Env, in Inputs, o *mergeOptions) (Result, error) {
				return scriptureMerge(in, "words", func(s verse.Scripture, aux []merge.WordRecord) (verse.Scripture, merge.Report, error) {
					return merge.AttachWords(s, aux, o.merge())
				})
			}),

		Define("attach-word-translations", "attach per-language word translations aligned with the per-word document",
			[]Role{rolePrimary, roleWords, {Name: "languages", Kinds: []Kind{KindWordTranslations}, Multiple: true}},
			scriptureOnly, nil, runWordTranslations),

		Define("overlay-translation", "overlay a fetched translation positionally",
			[]Role{rolePrimary, {Name: "translation", Kinds: []Kind{KindTranslation}}}, scriptureOnly, nil,
			func(_ context.Context, _ *Env, in Inputs, _ *noOptions) (Result, error) {
				s, err := Input[verse.Scripture](in, "primary")
				if err != nil {
					return Result{}, err
				}
				t, err := Input[merge.TranslationDocument](in, "translation")
				if err != nil {
					return Result{}, err
				}
				out, report, err := merge.OverlayTranslations(s, t.Translations)
				return Result{Value: out, Report: &report}, err
			}),

		Define("merge-tanzil", "set translations from a Tanzil XML document by sura and aya",
			[]Role{rolePrimary, {Name: "tanzil", Kinds: []Kind{KindTanzil}}}, scriptureOnly, nil,
			func(_ context.Context, _ *Env, in Inputs, o *mergeOptions) (Result, error) {
				return scriptureMerge(in, "tanzil", func(s verse.Scripture, aux []byte) (verse.Scripture, merge.Report, error) {
					return merge.MergeTanzil(s, aux, o.merge())
				})
			}),

		Define("filter-word-translations", "keep only the listed word translation languages",
			[]Role{rolePrimary}, scriptureOnly,
			func(o *filterWordOptions, _ *Descriptor) error {
				if len(o.Keep) == 0 {
					return errors.NewValidation("keep", "at least one language id is required")
				}
				return nil
			},
			func(_ context.Context, _ *Env, in Inputs, o *filterWordOptions) (Result, error) {
				s, err := Input[verse.Scripture](in, "primary")
				if err != nil {
					return Result{}, err
				}
				return Result{Value: filter.WordTranslations(s, o.Keep...)}, nil
			}),

		Define("filter-translators", "keep translators by language or id",
			[]Role{{Name: "primary", Kinds: []Kind{KindTranslators}}}, []Kind{KindTranslators},
			func(o *filterTranslatorOptions, _ *Descriptor) error {
				if len(o.Languages) == 0 && len(o.IDs) == 0 {
					return errors.NewValidation("languages", "languages or ids is required")
				}
				return nil
			},
			func(_ context.Context, _ *Env, in Inputs, o *filterTranslatorOptions) (Result, error) {
				list, err := Input[verse.TranslatorList](in, "primary")
				if err != nil {
					return Result{}, err
				}
				if len(o.Languages) > 0 {
					list = filter.Translators(list, o.Languages...)
				}
				if len(o.IDs) > 0 {
					list = filter.TranslatorsByID(list, o.IDs...)
				}
				return Result{Value: list}, nil
			}),

		Define("fetch-translation", "download a translation resource by id",
			nil, []Kind{KindTranslation},
			func(o *fetchOptions, _ *Descriptor) error {
				if o.ID < 1 {
					return errors.NewValidation("id", "translation id must be positive")
				}
				return nil
			},
			func(ctx context.Context, env *Env, _ Inputs, o *fetchOptions) (Result, error) {
				if env.Fetcher == nil {
					return Result{}, errors.NewUnsupported("fetch-translation", "no fetcher configured")
				}
				res, err := env.Fetcher.Translation(ctx, o.ID)
				if err != nil {
					return Result{}, err
				}
				var doc merge.TranslationDocument
				if err := json.Unmarshal(res.Body, &doc); err != nil {
					return Result{}, errors.NewMalformed(res.URL, 0, "decode translation: %v", err)
				}
				return Result{Value: doc}, nil
			}),

		Define("fetch-translators", "download the list of available translations",
			nil, []Kind{KindTranslators}, nil,
			func(ctx context.Context, env *Env, _ Inputs, _ *noOptions) (Result, error) {
				if env.Fetcher == nil {
					return Result{}, errors.NewUnsupported("fetch-translators", "no fetcher configured")
				}
				res, err := env.Fetcher.Translators(ctx)
				if err != nil {
					return Result{}, err
				}
				var list verse.TranslatorList
				if err := json.Unmarshal(res.Body, &list); err != nil {
					return Result{}, errors.NewMalformed(res.URL, 0, "decode translators: %v", err)
				}
				return Result{Value: list}, nil
			}),
	}
}

// scriptureMerge runs a keyed merge of the primary scripture with the aux
// input bound to role.
func scriptureMerge[A any](in Inputs, role string, fn func(verse.Scripture, A) (verse.Scripture, merge.Report, error)) (Result, error) {
	s, err := Input[verse.Scripture](in, "primary")
	if err != nil {
		return Result{}, err
	}
	aux, err := Input[A](in, role)
	if err != nil {
		return Result{}, err
	}
	out, report, err := fn(s, aux)
	if err != nil {
		return Result{Report: &report}, err
	}
	return Result{Value: out, Report: &report}, nil
}

func runStride(_ context.Context, env *Env, in Inputs, o *strideOptions) (Result, error) {
	lines, err := Input[[]string](in, "lines")
	if err != nil {
		return Result{}, err
	}
	layout, err := env.Descriptor.Layout(o.Layout)
	if err != nil {
		return Result{}, err
	}
	if o.Gaps != nil {
		layout.GapPolicy = *o.Gaps
	}
	if o.Uppercase != nil {
		layout.UppercaseTransliteration = *o.Uppercase
	}
	verses, err := assemble.DecodeStride("lines", lines, layout)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: assemble.NewDocument(o.Document, verses)}, nil
}

func runZip(_ context.Context, _ *Env, in Inputs, o *zipOptions) (Result, error) {
	var zin assemble.ZipInput
	var err error
	if zin.Text, err = Input[[]string](in, "text"); err != nil {
		return Result{}, err
	}
	if zin.Translation, err = Input[[]string](in, "translation"); err != nil {
		return Result{}, err
	}
	if in.Has("transliteration") {
		if zin.Transliteration, err = Input[[]string](in, "transliteration"); err != nil {
			return Result{}, err
		}
		zin.HasTransliteration = true
	}
	verses, err := assemble.Zip(zin, assemble.ZipOptions{GapPolicy: o.Gaps, UppercaseTransliteration: o.Uppercase})
	if err != nil {
		return Result{}, err
	}
	return Result{Value: assemble.NewDocument(o.Document, verses)}, nil
}

func runCollect(_ context.Context, _ *Env, in Inputs, _ *noOptions) (Result, error) {
	var out verse.Collection
	for i, v := range in["documents"] {
		switch doc := v.(type) {
		case verse.Document:
			out = append(out, doc.Clone())
		case verse.Collection:
			out = append(out, doc.Clone()...)
		default:
			return Result{}, fmt.Errorf("input %q[%d]: unexpected %T", "documents", i, v)
		}
	}
	return Result{Value: out}, nil
}

func runWordTranslations(_ context.Context, _ *Env, in Inputs, o *wordTranslationOptions) (Result, error) {
	s, err := Input[verse.Scripture](in, "primary")
	if err != nil {
		return Result{}, err
	}
	words, err := Input[[]merge.WordRecord](in, "words")
	if err != nil {
		return Result{}, err
	}
	langs, err := InputList[merge.LanguageTranslations](in, "languages")
	if err != nil {
		return Result{}, err
	}
	out, report, err := merge.AttachWordTranslations(s, words, langs, merge.WordTranslationOptions{
		Options:       o.merge(),
		MultiLanguage: o.MultiLanguage,
	})
	if err != nil {
		return Result{Report: &report}, err
	}
	return Result{Value: out, Report: &report}, nil
}
