package slug

import (
	"testing"
)

// Test table covers each stage and combined pipelines.
func TestMake_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "identity ascii",
			in:   "dubai-marina",
			out:  "dubai-marina",
		},
		{
			name: "case fold and spaces",
			in:   "Dubai Marina",
			out:  "dubai-marina",
		},
		{
			name: "utf8 repair drops invalid bytes",
			in:   string([]byte{0xff, 'J', 'L', 'T', 0x80}),
			out:  "jlt",
		},
		{
			name: "diacritics fold",
			in:   "Résidence Café",
			out:  "residence-cafe",
		},
		{
			name: "zero widths stripped",
			in:   "Bur\u200b Dubai\uFEFF",
			out:  "bur-dubai",
		},
		{
			name: "fullwidth folds",
			in:   "ＴＯＷＥＲ ９",
			out:  "tower-9",
		},
		{
			name: "arabic indic digits",
			in:   "برج ٩",
			out:  "برج-9",
		},
		{
			name: "extended arabic indic digits",
			in:   "Phase ۰۲",
			out:  "phase-02",
		},
		{
			name: "punctuation runs collapse",
			in:   "Jumeirah Lake Towers (JLT), Cluster-F",
			out:  "jumeirah-lake-towers-jlt-cluster-f",
		},
		{
			name: "edge hyphens trimmed",
			in:   "  --Palm Jumeirah-- ",
			out:  "palm-jumeirah",
		},
		{
			name: "empty after folding",
			in:   "!!! --- ***",
			out:  "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := Make(tc.in)
			if got != tc.out {
				t.Fatalf("Make(%q) = %q, want %q", tc.in, got, tc.out)
			}
			// Idempotence check: slugging again should be identical
			got2 := Make(got)
			if got2 != got {
				t.Fatalf("Make not idempotent: %q -> %q", got, got2)
			}
		})
	}
}

func TestValid(t *testing.T) {
	if !Valid("dubai-marina") {
		t.Fatalf("canonical slug should validate")
	}
	if Valid("Dubai Marina") {
		t.Fatalf("raw name should not validate")
	}
	if Valid("") {
		t.Fatalf("empty is never a valid slug")
	}
}

// Spot-check internal helpers in isolation.
func TestDigitFold(t *testing.T) {
	in := "٠١٢٣٤٥٦٧٨٩ ۰۹"
	want := "0123456789 09"
	got := digitFold(in)
	if got != want {
		t.Fatalf("digitFold(%q) = %q, want %q", in, got, want)
	}
}

func TestHyphenate(t *testing.T) {
	in := "a  b--c__d"
	want := "a-b-c-d"
	got := hyphenate(in)
	if got != want {
		t.Fatalf("hyphenate(%q) = %q, want %q", in, got, want)
	}
}
