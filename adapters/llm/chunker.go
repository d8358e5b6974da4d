package llm

import "strings"

// sentenceChunker regroups an arbitrary token stream into sentence-sized
// pieces so each can be synthesized while the rest is still generating.
type sentenceChunker struct {
	pending strings.Builder
}

func (c *sentenceChunker) feed(text string) []string {
	var out []string
	for _, r := range text {
		c.pending.WriteRune(r)
		if isSentenceEnd(r) {
			if sentence := strings.TrimSpace(c.pending.String()); sentence != "" {
				out = append(out, sentence)
			}
			c.pending.Reset()
		}
	}
	return out
}

func (c *sentenceChunker) flush() string {
	tail := strings.TrimSpace(c.pending.String())
	c.pending.Reset()
	return tail
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '\n':
		return true
	}
	return false
}
