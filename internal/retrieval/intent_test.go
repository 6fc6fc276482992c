package retrieval

import "testing"

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		query string
		want  Intent
	}{
		{"What is module 1 of the course?", Structural},
		{"When is the MIDTERM held?", Structural},
		{"ক্লাস টেস্ট কবে হবে?", Structural},
		{"সিলেবাস কোথায় পাবো?", Structural},
		{"Explain quicksort time complexity", Conceptual},
		{"How does a red-black tree rebalance?", Conceptual},
		{"কুইকসর্ট কীভাবে কাজ করে?", Conceptual},
		{"", Conceptual},
	}
	for _, tc := range cases {
		if got := ClassifyIntent(tc.query); got != tc.want {
			t.Fatalf("ClassifyIntent(%q) = %s, want %s", tc.query, got, tc.want)
		}
	}
}

func TestClampK(t *testing.T) {
	if ClampK(0) != DefaultK {
		t.Fatalf("k=0 should clamp to default")
	}
	if ClampK(-3) != DefaultK {
		t.Fatalf("negative k should clamp to default")
	}
	if ClampK(50) != MaxK {
		t.Fatalf("oversized k should clamp to max")
	}
	if ClampK(4) != 4 {
		t.Fatalf("in-range k should pass through")
	}
}
