package pipeline

// Split cuts items into chunks of at most size items. A size below 1 yields
// a single chunk. The chunks share the backing array of items.
func Split(items []Item, size int) []Chunk {
	if len(items) == 0 {
		return nil
	}
	if size < 1 {
		size = len(items)
	}
	out := make([]Chunk, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, Chunk{
			ChunkIndex: len(out),
			StartIndex: start,
			Items:      items[start:end:end],
		})
	}
	return out
}
