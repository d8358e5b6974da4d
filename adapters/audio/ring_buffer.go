package audio

// ringBuffer keeps the most recent pre-speech samples so the first syllables
// of an utterance are not lost to detection latency.
type ringBuffer struct {
	buffer []int16
	head   int
	filled int
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{buffer: make([]int16, size)}
}

func (r *ringBuffer) Add(samples []int16) {
	for _, s := range samples {
		r.buffer[r.head] = s
		r.head = (r.head + 1) % len(r.buffer)
		if r.filled < len(r.buffer) {
			r.filled++
		}
	}
}

// Read returns the buffered samples in arrival order.
func (r *ringBuffer) Read() []int16 {
	out := make([]int16, r.filled)
	start := (r.head - r.filled + len(r.buffer)) % len(r.buffer)
	for i := 0; i < r.filled; i++ {
		out[i] = r.buffer[(start+i)%len(r.buffer)]
	}
	return out
}
