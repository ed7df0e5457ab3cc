// Package llmtest provides an in-process llm.Provider that answers the
// lyrics prompts without a model.
package llmtest

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync/atomic"
)

var numberedLine = regexp.MustCompile(`^\d+\. (.*)$`)

// Echo answers furigana prompts with one segment per line and translation
// prompts with Prefix + line. Err, when set, fails every call.
type Echo struct {
	Prefix string
	Err    error

	calls atomic.Int64
}

func (e *Echo) Calls() int { return int(e.calls.Load()) }

func (e *Echo) Close() error { return nil }

func (e *Echo) StreamAnswer(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	e.calls.Add(1)
	out := make(chan string, 1)
	errs := make(chan error, 1)
	defer close(out)
	defer close(errs)

	if e.Err != nil {
		errs <- e.Err
		return out, errs
	}

	lines := Lines(prompt)
	var body any
	if strings.Contains(prompt, `"annotatedLines"`) {
		annotated := make([][]map[string]string, len(lines))
		for i, l := range lines {
			annotated[i] = []map[string]string{{"text": l, "reading": "よみ"}}
		}
		body = map[string]any{"annotatedLines": annotated}
	} else {
		translations := make([]string, len(lines))
		for i, l := range lines {
			translations[i] = e.Prefix + l
		}
		body = map[string]any{"translations": translations}
	}

	b, _ := json.Marshal(body)
	out <- "```json\n" + string(b) + "\n```"
	return out, errs
}

// Lines returns the numbered lines of a prompt in order.
func Lines(prompt string) []string {
	_, tail, ok := strings.Cut(prompt, "Lines:\n")
	if !ok {
		return nil
	}
	var lines []string
	for _, l := range strings.Split(tail, "\n") {
		if m := numberedLine.FindStringSubmatch(l); m != nil {
			lines = append(lines, m[1])
		}
	}
	return lines
}
