package lang

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyScriptRanges(t *testing.T) {
	c := NewClassifier(nil)

	cases := []struct {
		name string
		text string
		want Language
	}{
		{"pure bangla", "কুইকসর্ট কীভাবে কাজ করে?", Target},
		{"pure english short", "What is quicksort?", Primary},
		{"code switched", "quicksort এর complexity কত?", Mixed},
		{"empty", "   ", Primary},
		{"digits only short", "12345", Primary},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.text); got != tc.want {
			t.Fatalf("%s: Classify(%q) = %s, want %s", tc.name, tc.text, got, tc.want)
		}
	}
}

func TestClassifyShortTextSkipsDetector(t *testing.T) {
	called := false
	c := NewClassifier(func(string) (Language, error) {
		called = true
		return Target, nil
	})
	if got := c.Classify("short latin text"); got != Primary {
		t.Fatalf("expected Primary for short text, got %s", got)
	}
	if called {
		t.Fatal("detector must not run below the minimum length")
	}
}

func TestClassifyDetectorErrorFallsBackToPrimary(t *testing.T) {
	long := strings.Repeat("the quick brown fox ", 5)
	c := NewClassifier(func(string) (Language, error) {
		return Unknown, errors.New("model not loaded")
	})
	if got := c.Classify(long); got != Primary {
		t.Fatalf("expected Primary on detector failure, got %s", got)
	}
}

func TestClassifyUnknownWithoutLetters(t *testing.T) {
	c := NewClassifier(nil)
	long := strings.Repeat("1234567890 ", 6)
	if got := c.Classify(long); got != Unknown {
		t.Fatalf("expected Unknown for long non-letter text, got %s", got)
	}
}
