// Package chunker splits a response into the ordered pieces streamed to clients.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultMaxChunkSize is used when the caller passes a non-positive size.
const DefaultMaxChunkSize = 50

// sentenceBoundary matches terminal punctuation followed by whitespace.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// Split breaks text into chunks of at most maxChunkSize bytes, never cutting a
// sentence in half. Text that already fits is returned as a single chunk.
// A sentence longer than maxChunkSize becomes its own oversize chunk.
func Split(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if len(text) <= maxChunkSize {
		return []string{text}
	}

	var chunks []string
	var buf strings.Builder

	for _, sentence := range Sentences(text) {
		if buf.Len() > 0 && buf.Len()+1+len(sentence) > maxChunkSize {
			chunks = append(chunks, strings.TrimSpace(buf.String()))
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(sentence)
	}

	if rest := strings.TrimSpace(buf.String()); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

// Sentences returns the sentences of text, each keeping its terminal
// punctuation. The whitespace that separated them is dropped.
func Sentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		// loc[0] is the punctuation mark, keep it with the sentence.
		if s := text[start : loc[0]+1]; strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := text[start:]; strings.TrimSpace(s) != "" {
		out = append(out, s)
	}
	return out
}
