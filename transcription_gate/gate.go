package transcription_gate

import (
	"errors"
	"strings"
	"unicode"
)

// Sustained noise makes the model emit looping text; any bigram recurring
// more often than this rejects the transcription.
const maxRepetitions = 1

const minLength = 5

// Rejection reasons, checked in order. Each one is a hard reject.
var (
	ErrTooShort = errors.New("too short")
	ErrNumeric  = errors.New("contains digits")
	ErrNoise    = errors.New("noise pattern repeated")
	ErrStutter  = errors.New("adjacent word repeated")
	ErrLooped   = errors.New("phrase repeated")
)

// Short function words and hesitation fillers. Real commands use each at most
// once; a transcription of hum or static repeats them.
var noisePatterns = []string{"der", "die", "das", "und", "äh", "ähm", "hm"}

// Filter gates transcribed text before command mapping. It returns the
// trimmed text, or a rejection reason. Rejected text is dropped by the
// caller, not treated as a failure.
func Filter(text string) (string, error) {
	trimmed := strings.TrimSpace(text)

	if len(trimmed) < minLength {
		return "", ErrTooShort
	}

	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			return "", ErrNumeric
		}
	}

	tokens := strings.Fields(strings.ToLower(trimmed))

	for _, pattern := range noisePatterns {
		count := 0
		for _, token := range tokens {
			if token == pattern {
				count++
			}
		}

		if count > 1 {
			return "", ErrNoise
		}
	}

	for i := 1; i < len(tokens); i++ {
		if tokens[i] == tokens[i-1] {
			return "", ErrStutter
		}
	}

	bigrams := make(map[string]int)
	for i := 1; i < len(tokens); i++ {
		bigram := tokens[i-1] + " " + tokens[i]
		bigrams[bigram]++

		if bigrams[bigram] > maxRepetitions {
			return "", ErrLooped
		}
	}

	return trimmed, nil
}
