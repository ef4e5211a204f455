package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"3.5", 350, true},
		{"3,50", 350, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFloatRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 150, 350, 600, 99999} {
		m := Money{Cents: cents}
		if got := MoneyFromFloat(m.Float()); got != m {
			t.Fatalf("cents %d did not round-trip, got %d", cents, got.Cents)
		}
	}
	if got := MoneyFromFloat(3.5); got.Cents != 350 {
		t.Fatalf("expected 350, got %d", got.Cents)
	}
}
