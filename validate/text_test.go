package validate

import (
	"math"
	"testing"
)

func TestHasNegation(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Employees receive 15 days of paid vacation.", false},
		{"Employees receive 0 days of vacation.", true},
		{"Employees must not smoke indoors.", true},
		{"No parking on weekends.", true},
		{"Remote work is prohibited on Mondays.", true},
		{"The office won't open before eight.", true},
		{"The office won’t open before eight.", true},
		{"We have zero tolerance for harassment.", true},
		{"Room 101 seats ten people.", false},
		{"The team received 10 awards.", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := HasNegation(tc.text); got != tc.want {
			t.Errorf("HasNegation(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestNegationAsymmetry(t *testing.T) {
	plain := "Employees receive 15 days of paid vacation."
	negated := "Employees receive no paid vacation."

	if !NegationAsymmetry(negated, plain) {
		t.Error("expected asymmetry between negated and plain text")
	}
	if !NegationAsymmetry(plain, negated) {
		t.Error("asymmetry should be symmetric in its arguments")
	}
	if NegationAsymmetry(plain, plain) {
		t.Error("two plain texts have no asymmetry")
	}
	if NegationAsymmetry(negated, negated) {
		t.Error("two negated texts have no asymmetry")
	}
}

func TestLexicalOverlap(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "vacation policy for employees", "vacation policy for employees", 1.0},
		{"disjoint", "vacation policy", "quarterly revenue", 0.0},
		{"partial", "vacation policy for employees", "vacation policy update", 0.5},
		{"empty", "", "vacation policy", 0.0},
		{"stopwords only", "the of and", "the of and", 0.0},
	}

	for _, tc := range cases {
		got := float64(LexicalOverlap(tc.a, tc.b))
		if math.Abs(got-tc.want) > 1e-6 {
			t.Errorf("%s: LexicalOverlap(%q, %q) = %v, want %v", tc.name, tc.a, tc.b, got, tc.want)
		}
	}
}

func TestIsZeroQuantity(t *testing.T) {
	cases := []struct {
		token string
		want  bool
	}{
		{"0", true},
		{"00", true},
		{"10", false},
		{"zero", false}, // handled by the marker table, not here
		{"", false},
		{"0a", false},
	}

	for _, tc := range cases {
		if got := isZeroQuantity(tc.token); got != tc.want {
			t.Errorf("isZeroQuantity(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}
