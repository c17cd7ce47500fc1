package cite

import "testing"

func TestPlace(t *testing.T) {
	tests := []struct {
		name string
		text string
		ids  []int
		want string
	}{
		{
			name: "one id per sentence",
			text: "A. B. C.",
			ids:  []int{1, 2},
			want: "A.<sup>[1]</sup> B.<sup>[2]</sup> C.",
		},
		{
			name: "no boundary appends at end",
			text: "no punctuation here",
			ids:  []int{1},
			want: "no punctuation here<sup>[1]</sup>",
		},
		{
			name: "more ids than boundaries",
			text: "A. B. C.",
			ids:  []int{1, 2, 3},
			want: "A.<sup>[1]</sup> B.<sup>[2]</sup> C.<sup>[3]</sup>",
		},
		{
			name: "question and exclamation",
			text: "Really? Yes! Done.",
			ids:  []int{7, 8},
			want: "Really?<sup>[7]</sup> Yes!<sup>[8]</sup> Done.",
		},
		{
			name: "no ids returns text unchanged",
			text: "A. B.",
			ids:  nil,
			want: "A. B.",
		},
		{
			name: "punctuation without whitespace is not a boundary",
			text: "v1.2 released. details follow",
			ids:  []int{3},
			want: "v1.2 released.<sup>[3]</sup> details follow",
		},
		{
			name: "empty text",
			text: "",
			ids:  []int{4},
			want: "<sup>[4]</sup>",
		},
		{
			name: "newline counts as whitespace",
			text: "First.\nSecond.",
			ids:  []int{1},
			want: "First.<sup>[1]</sup>\nSecond.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Place(tt.text, tt.ids); got != tt.want {
				t.Errorf("Place(%q, %v) = %q, want %q", tt.text, tt.ids, got, tt.want)
			}
		})
	}
}

func TestPlaceDeterministic(t *testing.T) {
	text := "Alpha. Beta. Gamma."
	ids := []int{5, 1, 9}
	first := Place(text, ids)
	for i := 0; i < 10; i++ {
		if got := Place(text, ids); got != first {
			t.Fatalf("Place not deterministic: %q vs %q", got, first)
		}
	}
}
