package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/ryokun6/ryos-sub004/internal/models"
	"github.com/ryokun6/ryos-sub004/internal/pipeline"
	"github.com/ryokun6/ryos-sub004/internal/providers/llm"
)

const furiganaPrompt = `You add furigana to Japanese song lyrics.
For each numbered line, split the line into segments. Every segment that contains kanji
gets a "reading" in hiragana; other segments have only "text".
Joining the "text" of a line's segments must reproduce the line exactly.
Answer with JSON only, in this shape, one entry per line in the same order:
{"annotatedLines":[[{"text":"...","reading":"..."},{"text":"..."}]]}

Lines:
%s`

// Furigana annotates lines containing kanji with readings.
type Furigana struct {
	llm llm.Provider
}

func NewFurigana(p llm.Provider) *Furigana {
	return &Furigana{llm: p}
}

func (f *Furigana) Name() string        { return "furigana" }
func (f *Furigana) ResultField() string { return "annotatedLines" }

func (f *Furigana) NeedsTransform(it pipeline.Item) bool {
	return hasHan(it.Content)
}

func (f *Furigana) Normalize(it pipeline.Item) any {
	return pipeline.NormalizeText(it.Content)
}

func (f *Furigana) Passthrough(it pipeline.Item) []models.FuriganaSegment {
	return []models.FuriganaSegment{{Text: it.Content}}
}

// Valid requires the segments to spell out the original line.
func (f *Furigana) Valid(it pipeline.Item, out []models.FuriganaSegment) bool {
	if len(out) == 0 {
		return false
	}
	var b strings.Builder
	for _, seg := range out {
		b.WriteString(seg.Text)
	}
	return strings.TrimSpace(b.String()) == strings.TrimSpace(it.Content)
}

func (f *Furigana) Transform(ctx context.Context, contents []string, _ pipeline.Config) ([][]models.FuriganaSegment, error) {
	raw, err := llm.Collect(ctx, f.llm, fmt.Sprintf(furiganaPrompt, numbered(contents)))
	if err != nil {
		return nil, err
	}

	var resp struct {
		AnnotatedLines [][]models.FuriganaSegment `json:"annotatedLines"`
	}
	if err := decodeObject(raw, &resp); err != nil {
		return nil, err
	}
	return resp.AnnotatedLines, nil
}
