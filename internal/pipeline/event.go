package pipeline

import "encoding/json"

type EventType string

const (
	EventChunk    EventType = "chunk"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one frame of the streaming path. Which fields are meaningful
// depends on Type; MarshalJSON writes only those.
type Event[T any] struct {
	Type EventType

	ChunkIndex     int
	TotalChunks    int
	StartIndex     int
	CompletedCount int
	Results        []T

	TotalLines int

	Message string

	// resultField names Results on the wire; set by the pipeline from Domain.ResultField.
	resultField string
}

func (e Event[T]) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventChunk:
		field := e.resultField
		if field == "" {
			field = "results"
		}
		results := e.Results
		if results == nil {
			results = []T{}
		}
		return json.Marshal(map[string]any{
			"type":           e.Type,
			"chunkIndex":     e.ChunkIndex,
			"totalChunks":    e.TotalChunks,
			"startIndex":     e.StartIndex,
			"completedCount": e.CompletedCount,
			field:            results,
		})
	case EventComplete:
		return json.Marshal(map[string]any{
			"type":       e.Type,
			"totalLines": e.TotalLines,
		})
	default:
		return json.Marshal(map[string]any{
			"type":    EventError,
			"message": e.Message,
		})
	}
}

// Sink receives stream events in emission order. Send errors are logged by
// the pipeline and do not stop processing.
type Sink[T any] interface {
	Send(ev Event[T]) error
}

// OpenFunc opens the stream. The pipeline calls it at most once, and only
// when it has decided to stream.
type OpenFunc[T any] func() (Sink[T], error)

// SinkFunc adapts a function to Sink.
type SinkFunc[T any] func(ev Event[T]) error

func (f SinkFunc[T]) Send(ev Event[T]) error { return f(ev) }
