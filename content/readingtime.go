package content

import (
	"strings"

	"github.com/eringen/spacetraveling/richtext"
)

// WordsPerMinute is the assumed reading speed.
const WordsPerMinute = 200

// WordCount counts whitespace-separated words in every heading and body.
func WordCount(blocks []ContentBlock) int {
	total := 0
	for _, b := range blocks {
		total += len(strings.Fields(b.Heading))
		total += len(strings.Fields(richtext.AsText(b.Body, " ")))
	}
	return total
}

// ReadingTime returns the estimated minutes to read blocks, rounded up.
// Empty content reads in 0 minutes.
func ReadingTime(blocks []ContentBlock) int {
	return MinutesFor(WordCount(blocks))
}

// MinutesFor converts a word count into minutes, rounded up.
func MinutesFor(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
