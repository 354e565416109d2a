package audio

// Buffer is an ordered, append-only list of sample chunks.
// It is not safe for concurrent use; Capture guards it with its own mutex.
type Buffer struct {
	chunks [][]float32
	frames int
}

// NewBuffer creates an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds a chunk to the end of the buffer
func (b *Buffer) Append(chunk []float32) {
	b.chunks = append(b.chunks, chunk)
	b.frames += len(chunk)
}

// Len returns the number of chunks
func (b *Buffer) Len() int {
	return len(b.chunks)
}

// Frames returns the total number of samples across all chunks
func (b *Buffer) Frames() int {
	return b.frames
}

// Chunks returns the chunks in arrival order
func (b *Buffer) Chunks() [][]float32 {
	return b.chunks
}
