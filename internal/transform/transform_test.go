package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryokun6/ryos-sub004/internal/models"
	"github.com/ryokun6/ryos-sub004/internal/pipeline"
)

// cannedLLM answers every prompt with reply and records the last prompt.
type cannedLLM struct {
	reply  string
	err    error
	prompt string
}

func (c *cannedLLM) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	c.prompt = prompt
	out := make(chan string, 1)
	errs := make(chan error, 1)
	if c.err != nil {
		errs <- c.err
	} else {
		out <- c.reply
	}
	close(out)
	close(errs)
	return out, errs
}

func (c *cannedLLM) Close() error { return nil }

func item(s string) pipeline.Item { return pipeline.Item{Content: s} }

func TestDecodeObject(t *testing.T) {
	var v struct {
		Translations []string `json:"translations"`
	}
	raw := "```json\n{\"translations\":[\"a\",\"b\"]}\n```"
	require.NoError(t, decodeObject(raw, &v))
	assert.Equal(t, []string{"a", "b"}, v.Translations)

	assert.ErrorIs(t, decodeObject("sorry, I can't", &v), errNoJSON)
	assert.Error(t, decodeObject(`{"translations":[`+"}", &v))
}

func TestFuriganaPredicates(t *testing.T) {
	f := NewFurigana(nil)

	assert.True(t, f.NeedsTransform(item("夜に駆ける")))
	assert.False(t, f.NeedsTransform(item("ららら")))
	assert.False(t, f.NeedsTransform(item("la la la")))

	line := item("夜に駆ける")
	good := []models.FuriganaSegment{
		{Text: "夜", Reading: "よる"},
		{Text: "に"},
		{Text: "駆", Reading: "か"},
		{Text: "ける"},
	}
	assert.True(t, f.Valid(line, good))
	assert.False(t, f.Valid(line, good[:2]))
	assert.False(t, f.Valid(line, nil))

	assert.Equal(t, []models.FuriganaSegment{{Text: "ららら"}}, f.Passthrough(item("ららら")))
}

func TestFuriganaTransform(t *testing.T) {
	llm := &cannedLLM{reply: `{"annotatedLines":[[{"text":"空","reading":"そら"}],[{"text":"海","reading":"うみ"}]]}`}
	f := NewFurigana(llm)

	got, err := f.Transform(context.Background(), []string{"空", "海"}, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "うみ", got[1][0].Reading)
	assert.Contains(t, llm.prompt, "1. 空\n2. 海\n")
}

func TestFuriganaTransformErrors(t *testing.T) {
	f := NewFurigana(&cannedLLM{err: errors.New("quota exceeded")})
	_, err := f.Transform(context.Background(), []string{"空"}, nil)
	assert.EqualError(t, err, "quota exceeded")

	f = NewFurigana(&cannedLLM{reply: "not json"})
	_, err = f.Transform(context.Background(), []string{"空"}, nil)
	assert.Error(t, err)
}

func TestTranslationPredicates(t *testing.T) {
	tr := NewTranslation(nil)

	assert.True(t, tr.NeedsTransform(item("hello")))
	assert.True(t, tr.NeedsTransform(item("ラララ")))
	assert.False(t, tr.NeedsTransform(item("♪ ♪")))
	assert.False(t, tr.NeedsTransform(item("")))

	assert.True(t, tr.Valid(item("x"), "y"))
	assert.False(t, tr.Valid(item("x"), "  "))
	assert.Equal(t, "♪", tr.Passthrough(item("♪")))
}

func TestTranslationTransform(t *testing.T) {
	llm := &cannedLLM{reply: `{"translations":["Hello","World"]}`}
	tr := NewTranslation(llm)

	got, err := tr.Transform(context.Background(), []string{"こんにちは", "世界"},
		pipeline.Config{ConfigTargetLanguage: "en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", "World"}, got)
	assert.Contains(t, llm.prompt, "English (en)")

	_, err = tr.Transform(context.Background(), []string{"x"}, nil)
	assert.ErrorIs(t, err, ErrMissingLanguage)
}

func TestParseLanguage(t *testing.T) {
	tag, err := ParseLanguage(" zh-Hant ")
	require.NoError(t, err)
	assert.Equal(t, "zh-hant", tag)

	tag, err = ParseLanguage("EN")
	require.NoError(t, err)
	assert.Equal(t, "en", tag)

	_, err = ParseLanguage("")
	assert.ErrorIs(t, err, ErrMissingLanguage)

	_, err = ParseLanguage("not a language tag")
	assert.Error(t, err)
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Japanese", LanguageName("ja"))
	assert.Equal(t, "???", LanguageName("???"))
}
