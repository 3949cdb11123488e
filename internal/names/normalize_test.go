package names

import "testing"

func TestNormalize(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "Jane Smith", "jane smith"},
		{"trailing mp", "Jane Smith MP", "jane smith"},
		{"prefix and postfix", "Rt Hon Jane Smith MP", "jane smith"},
		{"dotted rt hon", "The Rt. Hon. John Jones", "john jones"},
		{"dame", "Dame Maria Miller", "maria miller"},
		{"diacritics", "Renée Müller", "renee muller"},
		{"sharp s", "Joß Weiß", "joss weiss"},
		{"the lord contraction", "The Lord Smith of Hindhead", "lord smith of hindhead"},
		{"trailing comma", "Jane Smith,", "jane smith"},
		{"obe postfix", "Jane Smith OBE", "jane smith"},
		{"whitespace", "  Jane Smith  ", "jane smith"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(nil)

	inputs := []string{
		"Rt Hon Jane Smith MP",
		"The Lord Smith of Hindhead",
		"Baroness Jones of Moulsecoomb",
		"Dr Sarah Wollaston",
		"plain name",
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalize_OnlyOnePrefixStripped(t *testing.T) {
	n := New(nil)

	// "mr " matches first; the remaining "dr " is kept because only one
	// prefix is removed per name.
	got := n.Normalize("Mr Dr Jones")
	if got != "dr jones" {
		t.Errorf("Normalize(%q) = %q, want %q", "Mr Dr Jones", got, "dr jones")
	}
}

func TestNormalize_CorrectionsApplyToNormalizedKey(t *testing.T) {
	// Corrections are keyed on the string after all other cleaning, not the
	// raw display name.
	n := New(map[string]string{"jane smyth": "jane smith"})

	got := n.Normalize("Rt Hon Jane Smyth MP")
	if got != "jane smith" {
		t.Errorf("Normalize with correction = %q, want %q", got, "jane smith")
	}

	// The raw form is not a correction key.
	n2 := New(map[string]string{"Rt Hon Jane Smyth MP": "jane smith"})
	got = n2.Normalize("Rt Hon Jane Smyth MP")
	if got != "jane smyth" {
		t.Errorf("Normalize with raw-keyed correction = %q, want %q", got, "jane smyth")
	}
}

func TestIsLord(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Baroness Jones", true},
		{"Lord Smith of Hindhead", true},
		{"Lady Hermon", true},
		{"The Earl of Sandwich", true},
		{"Lord Bishop of Durham", true},
		{"Jane Smith MP", false},
		{"Dr Sarah Wollaston", false},
	}

	for _, tt := range tests {
		if got := IsLord(tt.in); got != tt.want {
			t.Errorf("IsLord(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
