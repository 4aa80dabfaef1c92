package pdfdoc

import "strings"

// ChunkText splits long text into blocks of at most max characters,
// preferring paragraph breaks, then sentence breaks, as split points.
func ChunkText(text string, max int) []string {
	if max <= 0 || len(text) <= max {
		return []string{text}
	}
	var chunks []string
	start := 0
	for start < len(text) {
		end := start + max
		if end > len(text) {
			end = len(text)
		}
		splitAt := strings.LastIndex(text[start:end], "\n\n")
		if splitAt <= 0 {
			splitAt = strings.LastIndex(text[start:end], ". ")
		}
		if splitAt <= 0 || end == len(text) {
			splitAt = end - start
		}
		chunk := strings.TrimSpace(text[start : start+splitAt])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		start += splitAt
	}
	return chunks
}
