package pipeline

import "context"

// Item is one input line. It is identified by its position in the request.
type Item struct {
	Content  string
	OrderKey string
}

// Config is domain configuration that changes the output, e.g. a target language.
// It takes part in every fingerprint.
type Config map[string]string

// Chunk is a contiguous run of items handled by one transformer call.
type Chunk struct {
	ChunkIndex int
	StartIndex int
	Items      []Item
}

// Transformer is the external batch call. The returned slice should match
// contents in length and order; shorter or invalid responses are tolerated
// per item by the pipeline.
type Transformer[T any] interface {
	Transform(ctx context.Context, contents []string, cfg Config) ([]T, error)
}

// Domain describes how one kind of line transformation behaves.
type Domain[T any] interface {
	Transformer[T]

	// Name labels logs and errors.
	Name() string
	// ResultField is the JSON field carrying results in responses and chunk events.
	ResultField() string
	// NeedsTransform reports whether the item has to go upstream at all.
	NeedsTransform(it Item) bool
	// Normalize returns the fingerprinted view of an item.
	Normalize(it Item) any
	// Passthrough is the output used for items that skip the transformer
	// and for items whose upstream output is missing or invalid.
	Passthrough(it Item) T
	// Valid checks an upstream output against its source item.
	Valid(it Item, out T) bool
}

type Request struct {
	Items  []Item
	Config Config
	// Force bypasses both cache tiers on read. Results are still written.
	Force bool
}

type Reply[T any] struct {
	Result []T
	// Cached is set when the whole request was served from cache.
	Cached bool
	// Streamed is set when the outcome, success or failure, was delivered
	// through the sink. The caller must not write another response.
	Streamed bool
}
