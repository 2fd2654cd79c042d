package corpus

// Default chunk geometry for the sliding-window splitter.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 64

	// wordBoundaryLookback bounds how far the splitter walks back to find
	// a space or newline before giving up and cutting mid-word.
	wordBoundaryLookback = 100
)

// SplitText splits text into overlapping windows of at most size characters,
// preferring to cut at a word boundary. Consecutive chunks share overlap
// characters. Document order is preserved.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	var parts []string

	for len(text) > 0 {
		chunkSize := size
		if len(text) < chunkSize {
			chunkSize = len(text)
		}

		// Try to break at word boundary
		if chunkSize < len(text) {
			for i := chunkSize; i > chunkSize-wordBoundaryLookback && i > 0; i-- {
				if text[i] == ' ' || text[i] == '\n' {
					chunkSize = i
					break
				}
			}
		}

		parts = append(parts, text[:chunkSize])

		// Move forward with overlap
		if chunkSize > overlap && chunkSize+overlap < len(text) {
			text = text[chunkSize-overlap:]
		} else {
			text = text[chunkSize:]
		}
	}

	return parts
}
