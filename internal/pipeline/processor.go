package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ryokun6/ryos-sub004/internal/utils"
)

// processChunk produces the outputs of one chunk.
// Items that need no transform are echoed without touching the cache or the
// transformer. The rest is looked up in the chunk cache and, on a miss, sent
// upstream in a single batch. Missing or invalid outputs are replaced by the
// pass-through value and cached like any other output. Only a transformer
// failure is returned as an error.
func (p *Pipeline[T]) processChunk(ctx context.Context, ch Chunk, cfg Config, force bool) ([]T, error) {
	const op = "Pipeline.processChunk"

	out := make([]T, len(ch.Items))
	pending := make([]int, 0, len(ch.Items))
	for i, it := range ch.Items {
		if p.domain.NeedsTransform(it) {
			pending = append(pending, i)
			continue
		}
		out[i] = p.domain.Passthrough(it)
	}
	if len(pending) == 0 {
		return out, nil
	}

	log := p.log.WithFields(logrus.Fields{
		"domain":      p.domain.Name(),
		"chunk_index": ch.ChunkIndex,
		"start_index": ch.StartIndex,
	})

	key := p.chunkKey(ch, pending, cfg)
	if key != "" && !force {
		var cached []T
		if p.cache.Get(ctx, key, &cached) && p.validBatch(ch, pending, cached) {
			for j, i := range pending {
				out[i] = cached[j]
			}
			log.Debug("chunk cache hit")
			return out, nil
		}
	}

	contents := make([]string, len(pending))
	for j, i := range pending {
		contents[j] = ch.Items[i].Content
	}
	upstream, err := p.domain.Transform(ctx, contents, cfg)
	if err != nil {
		return nil, utils.E(utils.CodeUpstream, op, p.domain.Name()+" transform failed", err)
	}

	outputs := make([]T, len(pending))
	fallbacks := 0
	for j, i := range pending {
		if j < len(upstream) && p.domain.Valid(ch.Items[i], upstream[j]) {
			outputs[j] = upstream[j]
		} else {
			outputs[j] = p.domain.Passthrough(ch.Items[i])
			fallbacks++
		}
		out[i] = outputs[j]
	}

	if fallbacks > 0 {
		log.WithFields(logrus.Fields{
			"requested": len(pending),
			"received":  len(upstream),
			"fallbacks": fallbacks,
		}).Warn("partial transformer response; echoing original content")
	}
	if key != "" {
		p.cache.Set(ctx, key, outputs, p.opts.TTL)
	}
	return out, nil
}

// chunkKey fingerprints only the items that go upstream.
func (p *Pipeline[T]) chunkKey(ch Chunk, pending []int, cfg Config) string {
	if p.opts.ChunkKeyPrefix == "" {
		return ""
	}
	normalized := make([]any, len(pending))
	for j, i := range pending {
		normalized[j] = p.domain.Normalize(ch.Items[i])
	}
	fp, err := Fingerprint(normalized, cfg)
	if err != nil {
		p.log.WithError(err).WithField("chunk_index", ch.ChunkIndex).Warn("chunk fingerprint failed; cache skipped")
		return ""
	}
	return p.opts.ChunkKeyPrefix + ":" + fp
}

func (p *Pipeline[T]) validBatch(ch Chunk, pending []int, outputs []T) bool {
	if len(outputs) != len(pending) {
		return false
	}
	for j, i := range pending {
		if !p.domain.Valid(ch.Items[i], outputs[j]) {
			return false
		}
	}
	return true
}
