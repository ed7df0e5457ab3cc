package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ryokun6/ryos-sub004/internal/cache"
	"github.com/ryokun6/ryos-sub004/internal/utils"
)

const (
	DefaultChunkSize   = 15
	DefaultMaxParallel = 3
	DefaultTTL         = 30 * 24 * time.Hour
)

// Options are per-instance settings. Two pipelines with different key
// prefixes never see each other's cache entries.
type Options struct {
	// KeyPrefix addresses whole-request entries as "<KeyPrefix>:<fingerprint>".
	KeyPrefix string
	// ChunkKeyPrefix addresses per-chunk entries; defaults to KeyPrefix + ":chunk".
	ChunkKeyPrefix string
	TTL            time.Duration
	ChunkSize      int
	MaxParallel    int
	// StreamThreshold is the largest input answered synchronously; defaults to 2*ChunkSize.
	StreamThreshold int
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.MaxParallel <= 0 {
		o.MaxParallel = DefaultMaxParallel
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.StreamThreshold <= 0 {
		o.StreamThreshold = 2 * o.ChunkSize
	}
	if o.ChunkKeyPrefix == "" && o.KeyPrefix != "" {
		o.ChunkKeyPrefix = o.KeyPrefix + ":chunk"
	}
	return o
}

type Pipeline[T any] struct {
	domain Domain[T]
	cache  *cache.BestEffort
	opts   Options
	log    *logrus.Logger
}

// New builds a pipeline for domain. store may be nil to disable caching.
func New[T any](domain Domain[T], store cache.Cache, opts Options, log *logrus.Logger) *Pipeline[T] {
	if log == nil {
		log = logrus.New()
	}
	return &Pipeline[T]{
		domain: domain,
		cache:  cache.NewBestEffort(store, log),
		opts:   opts.withDefaults(),
		log:    log,
	}
}

func (p *Pipeline[T]) Options() Options { return p.opts }

func (p *Pipeline[T]) Domain() Domain[T] { return p.domain }

// Execute answers one request:
//
//	whole-request cache hit            -> Reply{Cached: true}
//	len(items) <= StreamThreshold      -> chunks run to completion, Reply{Result}
//	otherwise                          -> open() is called and events are streamed
//
// On the streaming path the returned error is informational; it has already
// been sent to the sink as an error event.
func (p *Pipeline[T]) Execute(ctx context.Context, req Request, open OpenFunc[T]) (Reply[T], error) {
	const op = "Pipeline.Execute"
	start := time.Now()
	log := p.log.WithFields(logrus.Fields{
		"domain": p.domain.Name(),
		"lines":  len(req.Items),
		"force":  req.Force,
	})

	wholeKey := p.wholeKey(req)
	if !req.Force && wholeKey != "" {
		var cached []T
		if p.cache.Get(ctx, wholeKey, &cached) && p.validResult(req.Items, cached) {
			p.echoPassthrough(req.Items, cached)
			log.WithField("cache", "hit").Debug("served from whole-request cache")
			return Reply[T]{Result: cached, Cached: true}, nil
		}
	}

	chunks := Split(req.Items, p.opts.ChunkSize)
	log = log.WithField("chunks", len(chunks))

	if open == nil || len(req.Items) <= p.opts.StreamThreshold {
		result, err := p.schedule(ctx, chunks, req, nil)
		if err != nil {
			log.WithError(err).Error("pipeline failed")
			return Reply[T]{}, err
		}
		if wholeKey != "" {
			p.cache.Set(ctx, wholeKey, result, p.opts.TTL)
		}
		log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("pipeline done")
		return Reply[T]{Result: result}, nil
	}

	sink, err := open()
	if err != nil {
		return Reply[T]{}, utils.E(utils.CodeInternal, op, "failed to open stream", err)
	}
	return p.stream(ctx, chunks, req, sink, wholeKey, log, start)
}

func (p *Pipeline[T]) stream(ctx context.Context, chunks []Chunk, req Request, sink Sink[T], wholeKey string, log *logrus.Entry, start time.Time) (Reply[T], error) {
	sendFailed := false
	send := func(ev Event[T]) {
		ev.resultField = p.domain.ResultField()
		if err := sink.Send(ev); err != nil && !sendFailed {
			sendFailed = true
			log.WithError(err).Warn("stream write failed")
		}
	}

	result, err := p.schedule(ctx, chunks, req, func(ch Chunk, out []T, completed int) {
		send(Event[T]{
			Type:           EventChunk,
			ChunkIndex:     ch.ChunkIndex,
			TotalChunks:    len(chunks),
			StartIndex:     ch.StartIndex,
			CompletedCount: completed,
			Results:        out,
		})
	})
	if err != nil {
		log.WithError(err).Error("pipeline stream failed")
		send(Event[T]{Type: EventError, Message: publicMessage(err)})
		return Reply[T]{Streamed: true}, err
	}

	send(Event[T]{Type: EventComplete, TotalLines: len(req.Items)})
	if wholeKey != "" {
		// the assembled result is worth keeping even if the client is gone
		p.cache.Set(context.WithoutCancel(ctx), wholeKey, result, p.opts.TTL)
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("pipeline stream done")
	return Reply[T]{Result: result, Streamed: true}, nil
}

// schedule runs every chunk through the bounded pool and folds the outcomes
// into a result pre-sized to the input. onChunk, when set, sees each
// successful chunk in completion order until the first failure.
func (p *Pipeline[T]) schedule(ctx context.Context, chunks []Chunk, req Request, onChunk func(Chunk, []T, int)) (result []T, err error) {
	total := 0
	for _, ch := range chunks {
		total += len(ch.Items)
	}
	result = make([]T, total)
	completed := 0

	runErr := RunBounded(ctx, chunks, p.opts.MaxParallel,
		func(ctx context.Context, ch Chunk) ([]T, error) {
			return p.processChunk(ctx, ch, req.Config, req.Force)
		},
		func(o Outcome[[]T]) {
			if err != nil {
				return
			}
			if o.Err != nil {
				err = o.Err
				return
			}
			ch := chunks[o.Index]
			copy(result[ch.StartIndex:ch.StartIndex+len(ch.Items)], o.Value)
			completed++
			if onChunk != nil {
				onChunk(ch, o.Value, completed)
			}
		})
	if err == nil {
		err = runErr
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline[T]) wholeKey(req Request) string {
	if p.opts.KeyPrefix == "" {
		return ""
	}
	normalized := make([]any, len(req.Items))
	for i, it := range req.Items {
		normalized[i] = p.domain.Normalize(it)
	}
	fp, err := Fingerprint(normalized, req.Config)
	if err != nil {
		p.log.WithError(err).WithField("domain", p.domain.Name()).Warn("whole-request fingerprint failed; cache skipped")
		return ""
	}
	return p.opts.KeyPrefix + ":" + fp
}

// validResult checks a cached whole-request result before it is trusted.
func (p *Pipeline[T]) validResult(items []Item, result []T) bool {
	if len(result) != len(items) {
		return false
	}
	for i, it := range items {
		if p.domain.NeedsTransform(it) && !p.domain.Valid(it, result[i]) {
			return false
		}
	}
	return true
}

// echoPassthrough rewrites the items that skip the transformer from the
// current request. Entries are shared by inputs that normalize alike, so the
// stored values may carry another request's whitespace.
func (p *Pipeline[T]) echoPassthrough(items []Item, result []T) {
	for i, it := range items {
		if !p.domain.NeedsTransform(it) {
			result[i] = p.domain.Passthrough(it)
		}
	}
}

func publicMessage(err error) string {
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return "internal error"
}
