package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/ryokun6/ryos-sub004/internal/models"
	"github.com/ryokun6/ryos-sub004/internal/pipeline"
)

// syncResult is printed when the whole answer was computed before output.
type syncResult struct {
	Cached         bool                       `json:"cached"`
	AnnotatedLines [][]models.FuriganaSegment `json:"annotatedLines,omitempty"`
	Translations   []string                   `json:"translations,omitempty"`
}

// ndjsonSink writes one event per line.
type ndjsonSink[T any] struct {
	enc *json.Encoder
}

func (s ndjsonSink[T]) Send(ev pipeline.Event[T]) error { return s.enc.Encode(ev) }

func openNDJSON[T any](cmd *cobra.Command) pipeline.OpenFunc[T] {
	return func() (pipeline.Sink[T], error) {
		return ndjsonSink[T]{enc: json.NewEncoder(cmd.OutOrStdout())}, nil
	}
}

// writeJSON encodes v as indented JSON to w.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// finish prints a synchronous result. A streamed run has already printed its
// events, including any error event, so only the error is returned.
func finish(cmd *cobra.Command, streamed bool, err error, res syncResult) error {
	if streamed || err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res)
}
