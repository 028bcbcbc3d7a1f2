// Package chunk splits episode transcripts into embedding-sized pieces.
package chunk

import (
	"strings"
	"unicode"
)

// Config defines chunking parameters.
type Config struct {
	// Threshold: only chunk if the transcript exceeds this length
	Threshold int
	// TargetSize: ideal chunk size
	TargetSize int
	// MaxSize: maximum chunk size (larger paragraphs split at sentences)
	MaxSize int
	// Overlap: character overlap between chunks
	Overlap int
}

// DefaultConfig returns sensible defaults for podcast transcripts.
func DefaultConfig() Config {
	return Config{
		Threshold:  1500,
		TargetSize: 750,
		MaxSize:    1000,
		Overlap:    100,
	}
}

// Split breaks a transcript into chunks at paragraph boundaries,
// falling back to sentence boundaries for oversized paragraphs.
// Transcripts under the threshold come back whole.
func Split(content string, config Config) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= config.Threshold {
		return []string{content}
	}
	return applyOverlap(splitParagraphs(content, config), config.Overlap)
}

func splitParagraphs(content string, config Config) []string {
	paragraphs := strings.Split(content, "\n\n")

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len()+len(para) > config.MaxSize && current.Len() > 0 {
			flush()
		}

		// A single paragraph over the max splits at sentences.
		if len(para) > config.MaxSize {
			flush()
			chunks = append(chunks, splitSentenceRuns(para, config)...)
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitSentenceRuns groups sentences into chunks of roughly the target size.
func splitSentenceRuns(text string, config Config) []string {
	sentences := splitSentences(text)

	var chunks []string
	var current strings.Builder

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if current.Len()+len(sentence) > config.TargetSize && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

// splitSentences splits text into sentences.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				// Not an abbreviation (simple heuristic)
				if i > 1 && unicode.IsUpper(runes[i-1]) {
					continue // Likely abbreviation like "Dr."
				}
				sentences = append(sentences, current.String())
				current.Reset()
			}
		}
	}

	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}

	return sentences
}

// applyOverlap prefixes each chunk with the tail of its predecessor so
// retrieval does not lose context at chunk seams.
func applyOverlap(chunks []string, overlap int) []string {
	if overlap <= 0 || len(chunks) <= 1 {
		return chunks
	}

	result := make([]string, len(chunks))
	copy(result, chunks)

	for i := 1; i < len(result); i++ {
		prev := result[i-1]
		if len(prev) > overlap {
			tail := prev[len(prev)-overlap:]
			// Start at a word boundary.
			if spaceIdx := strings.LastIndex(tail, " "); spaceIdx > 0 {
				tail = tail[spaceIdx+1:]
			}
			result[i] = tail + " " + result[i]
		}
	}

	return result
}
