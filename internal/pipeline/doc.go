// Package pipeline runs an ordered list of text lines through an expensive
// batch transformer. Lines are split into fixed-size chunks, each chunk is one
// transformer call, at most MaxParallel chunks are in flight, and results are
// cached both per chunk and per whole request.
//
// Results are always assembled in input order. When streaming, chunk events
// are delivered in completion order and carry the indices needed to place them.
package pipeline
