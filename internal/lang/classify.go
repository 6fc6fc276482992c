package lang

import (
	"log"
	"strings"
	"unicode"
)

// Language is the classification of a piece of query text.
type Language string

const (
	// Primary is English, the language of the reference book.
	Primary Language = "en"
	// Target is Bangla, the language most course notes are written in.
	Target Language = "bn"
	// Mixed marks code-switched text containing both scripts.
	Mixed Language = "mixed"
	// Unknown is returned when the text carries no usable script evidence.
	Unknown Language = "unknown"
)

// MinDetectionLength is the shortest text for which statistical detection
// is trusted. Anything shorter defaults to Primary unless the script says
// otherwise.
const MinDetectionLength = 50

const (
	banglaRangeLo = 0x0980
	banglaRangeHi = 0x09FF
)

// DetectorFunc is a pluggable statistical detector. It is consulted only
// for Latin-script text at or above MinDetectionLength.
type DetectorFunc func(text string) (Language, error)

// Classifier decides the language of incoming queries. Script-range
// heuristics run first because code-switching between Bangla and English
// is common in this corpus and statistical detectors misread it.
type Classifier struct {
	detector DetectorFunc
	logger   *log.Logger
}

// NewClassifier returns a classifier with the default heuristics. A nil
// detector disables the statistical pass.
func NewClassifier(detector DetectorFunc) *Classifier {
	return &Classifier{
		detector: detector,
		logger:   log.New(log.Writer(), "[LANG] ", log.LstdFlags),
	}
}

// Classify never fails: detector errors are swallowed, logged, and the
// text is treated as Primary.
func (c *Classifier) Classify(text string) Language {
	text = strings.TrimSpace(text)
	if text == "" {
		return Primary
	}

	bangla, latin := scriptCounts(text)
	switch {
	case bangla > 0 && latin > 0:
		return Mixed
	case bangla > 0:
		return Target
	}

	if len([]rune(text)) < MinDetectionLength {
		return Primary
	}
	if latin == 0 {
		return Unknown
	}

	if c.detector != nil {
		detected, err := c.detector(text)
		if err != nil {
			c.logger.Printf("WARNING: language detection failed, assuming %s: %v", Primary, err)
			return Primary
		}
		return detected
	}
	return Primary
}

func scriptCounts(text string) (bangla, latin int) {
	for _, r := range text {
		switch {
		case r >= banglaRangeLo && r <= banglaRangeHi:
			bangla++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	return bangla, latin
}
