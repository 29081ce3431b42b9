package utils

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	expected := []int{3, 1, 2}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := SplitAndTrim(" http://a.test , ,http://b.test ")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected result %v", got)
	}
	if SplitAndTrim("  ") != nil {
		t.Fatalf("blank input must give nil")
	}
}

func TestParseAndFormatAmount(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"1000", "1000.00"},
		{" 400.5 ", "400.50"},
		{"0.01", "0.01"},
		{"0", "0.00"},
	}
	for _, tc := range cases {
		d, err := ParseDecimal(tc.in)
		if err != nil {
			t.Fatalf("ParseDecimal(%q): %v", tc.in, err)
		}
		if got := FormatAmount(d); got != tc.expected {
			t.Fatalf("FormatAmount(%q) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
	if _, err := ParseDecimal(""); err == nil {
		t.Fatalf("expected error for empty string")
	}
	if FormatAmount(decimal.Zero) != "0.00" {
		t.Fatalf("zero must format as 0.00")
	}
}

func TestObtainLock_NilLockerIsNoop(t *testing.T) {
	release, err := ObtainLock(context.Background(), nil, "lock:test", time.Second)
	if err != nil {
		t.Fatalf("ObtainLock: %v", err)
	}
	release()
}

func TestNowFromContext(t *testing.T) {
	fixed := time.Date(2030, time.January, 2, 3, 4, 5, 0, time.UTC)
	ctx := SetClockInContext(context.Background(), func() time.Time { return fixed })
	if got := NowFromContext(ctx); !got.Equal(fixed) {
		t.Fatalf("expected %s, got %s", fixed, got)
	}
	if got := NowFromContext(context.Background()); got.Year() < 2024 || got.Location() != time.UTC {
		t.Fatalf("default clock must be UTC wall-clock, got %s", got)
	}

	ctx = SetCorrelationIdInContext(ctx, "cid-1")
	if cid, ok := GetCorrelationIdFromContext(ctx); !ok || cid != "cid-1" {
		t.Fatalf("correlation id not stored: %q %v", cid, ok)
	}
}
