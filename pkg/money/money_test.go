package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "1.005", want: "1.01"},
		{in: "1.004", want: "1.00"},
		{in: "-1.005", want: "-1.01"},
		{in: "2.675", want: "2.68"},
		{in: "18.9", want: "18.90"},
		{in: "0.125", want: "0.13"},
	}
	for _, tt := range tests {
		got := Format(Round(MustParse(tt.in)))
		if got != tt.want {
			t.Fatalf("Round(%s) expected %s got %s", tt.in, tt.want, got)
		}
	}
}

func TestIsSettled(t *testing.T) {
	for _, raw := range []string{"0", "0.01", "18.9", "100.00", "-3.25"} {
		if !IsSettled(MustParse(raw)) {
			t.Fatalf("expected %s to be settled", raw)
		}
	}
	for _, raw := range []string{"0.005", "99.995", "3.001"} {
		if IsSettled(MustParse(raw)) {
			t.Fatalf("expected %s to carry sub-cent digits", raw)
		}
	}
}

func TestSumSettlesTotal(t *testing.T) {
	got := Sum(MustParse("0.10"), MustParse("0.20"), MustParse("0.30"))
	if !got.Equal(MustParse("0.60")) {
		t.Fatalf("expected 0.60 got %s", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(MustParse("135"), MustParse("553.90")); !got.Equal(MustParse("24.37")) {
		t.Fatalf("expected 24.37 got %s", got)
	}
	if got := Percent(MustParse("10"), decimal.Zero); !got.IsZero() {
		t.Fatalf("expected zero for zero whole, got %s", got)
	}
}

func TestMaxMin(t *testing.T) {
	a, b := MustParse("15"), MustParse("20")
	if !Max(a, b).Equal(b) || !Min(a, b).Equal(a) {
		t.Fatalf("unexpected max/min for %s %s", a, b)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("ten"); err == nil {
		t.Fatal("expected parse error")
	}
}
