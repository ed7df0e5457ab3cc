package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/ryokun6/ryos-sub004/internal/pipeline"
	"github.com/ryokun6/ryos-sub004/internal/providers/llm"
)

// ConfigTargetLanguage is the pipeline config key holding the target language tag.
const ConfigTargetLanguage = "targetLanguage"

var ErrMissingLanguage = errors.New("target language is required")

const translatePrompt = `You translate song lyrics into %s (%s).
Translate each numbered line on its own, keeping the tone of the lyrics.
Answer with JSON only, one string per line in the same order:
{"translations":["..."]}

Lines:
%s`

// ParseLanguage validates a BCP 47 tag and returns its canonical lower-case form.
func ParseLanguage(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMissingLanguage
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", s, err)
	}
	return strings.ToLower(tag.String()), nil
}

// LanguageName returns the English name of a tag, or the tag itself when unknown.
func LanguageName(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return tag
}

// Translation translates lines into the configured target language.
type Translation struct {
	llm llm.Provider
}

func NewTranslation(p llm.Provider) *Translation {
	return &Translation{llm: p}
}

func (t *Translation) Name() string        { return "translation" }
func (t *Translation) ResultField() string { return "translations" }

func (t *Translation) NeedsTransform(it pipeline.Item) bool {
	return hasLetter(it.Content)
}

func (t *Translation) Normalize(it pipeline.Item) any {
	return pipeline.NormalizeText(it.Content)
}

func (t *Translation) Passthrough(it pipeline.Item) string {
	return it.Content
}

func (t *Translation) Valid(_ pipeline.Item, out string) bool {
	return strings.TrimSpace(out) != ""
}

func (t *Translation) Transform(ctx context.Context, contents []string, cfg pipeline.Config) ([]string, error) {
	tag := cfg[ConfigTargetLanguage]
	if tag == "" {
		return nil, ErrMissingLanguage
	}

	prompt := fmt.Sprintf(translatePrompt, LanguageName(tag), tag, numbered(contents))
	raw, err := llm.Collect(ctx, t.llm, prompt)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Translations []string `json:"translations"`
	}
	if err := decodeObject(raw, &resp); err != nil {
		return nil, err
	}
	return resp.Translations, nil
}
