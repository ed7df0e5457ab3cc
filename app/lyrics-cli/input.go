package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ryokun6/ryos-sub004/internal/models"
)

// lrcTime matches one leading "[mm:ss]" or "[mm:ss.xx]" tag.
var lrcTime = regexp.MustCompile(`^\[(\d+):(\d{1,2})(?:[.:](\d{1,3}))?\]`)

var errNoLines = errors.New("input has no lyric lines")

// parseLines accepts a JSON array of {words, startTimeMs} or LRC text.
// Text without any time tags is read as one lyric line per text line.
func parseLines(data []byte) ([]models.LyricLine, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\ufeff")))
	if len(trimmed) == 0 {
		return nil, errNoLines
	}

	if trimmed[0] == '[' && json.Valid(trimmed) {
		var lines []models.LyricLine
		if err := json.Unmarshal(trimmed, &lines); err != nil {
			return nil, fmt.Errorf("decode JSON lines: %w", err)
		}
		if len(lines) == 0 {
			return nil, errNoLines
		}
		return lines, nil
	}

	return parseLRC(string(trimmed))
}

type timedLine struct {
	ms    int
	words string
}

func parseLRC(text string) ([]models.LyricLine, error) {
	var timed []timedLine
	var plain []string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" {
			continue
		}

		var stamps []int
		for {
			m := lrcTime.FindStringSubmatchIndex(line)
			if m == nil {
				break
			}
			stamps = append(stamps, lrcMillis(line, m))
			line = line[m[1]:]
		}

		switch {
		case len(stamps) > 0:
			words := strings.TrimSpace(line)
			for _, ms := range stamps {
				timed = append(timed, timedLine{ms: ms, words: words})
			}
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			// metadata such as [ar:Artist]
		default:
			plain = append(plain, line)
		}
	}

	if len(timed) == 0 {
		if len(plain) == 0 {
			return nil, errNoLines
		}
		lines := make([]models.LyricLine, len(plain))
		for i, w := range plain {
			lines[i] = models.LyricLine{Words: w}
		}
		return lines, nil
	}

	sort.SliceStable(timed, func(i, j int) bool { return timed[i].ms < timed[j].ms })
	lines := make([]models.LyricLine, len(timed))
	for i, t := range timed {
		lines[i] = models.LyricLine{Words: t.words, StartTimeMs: strconv.Itoa(t.ms)}
	}
	return lines, nil
}

// lrcMillis converts the submatches located by lrcTime into milliseconds.
func lrcMillis(line string, m []int) int {
	minutes, _ := strconv.Atoi(line[m[2]:m[3]])
	seconds, _ := strconv.Atoi(line[m[4]:m[5]])
	ms := (minutes*60 + seconds) * 1000
	if m[6] >= 0 {
		frac := line[m[6]:m[7]]
		n, _ := strconv.Atoi(frac)
		switch len(frac) {
		case 1:
			n *= 100
		case 2:
			n *= 10
		}
		ms += n
	}
	return ms
}
