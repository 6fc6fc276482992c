package ingest

import "strings"

const (
	// DefaultChunkWords is the word-window size for chunking.
	DefaultChunkWords = 180
	// DefaultOverlapWords is how many words adjacent chunks share, so a
	// sentence split across a boundary is still retrievable.
	DefaultOverlapWords = 30
)

// ChunkText splits text into overlapping word windows. Non-positive
// size/overlap fall back to the defaults.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkWords
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlapWords
		if overlap >= size {
			overlap = size / 4
		}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= size {
		return []string{strings.Join(words, " ")}
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
