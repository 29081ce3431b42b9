package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseExpenseStatus_AcceptsDisplayName(t *testing.T) {
	cases := map[string]ExpenseStatus{
		"AWAITING_PAYMENT":    ExpenseStatusAwaitingPayment,
		"awaiting_payment":    ExpenseStatusAwaitingPayment,
		"Awaiting Payment":    ExpenseStatusAwaitingPayment,
		" Partially Paid ":    ExpenseStatusPartiallyPaid,
		"PAID":                ExpenseStatusPaid,
		"Partially Committed": ExpenseStatusPartiallyCommitted,
	}
	for in, expected := range cases {
		got, err := ParseExpenseStatus(in)
		if err != nil || got != expected {
			t.Fatalf("ParseExpenseStatus(%q) = %s, %v; expected %s", in, got, err, expected)
		}
	}
	if _, err := ParseExpenseStatus("CANCELLED"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestExpenseType_UnmarshalJSON(t *testing.T) {
	var input struct {
		Type ExpenseType `json:"type"`
	}
	if err := json.Unmarshal([]byte(`{"type":"Highway Work"}`), &input); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if input.Type != ExpenseTypeHighwayWork {
		t.Fatalf("expected HIGHWAY_WORK, got %s", input.Type)
	}
	// unknown values are kept for the validator to report
	if err := json.Unmarshal([]byte(`{"type":"SHIPYARD"}`), &input); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if input.Type.IsValid() {
		t.Fatalf("SHIPYARD must not be a valid type")
	}
}

func TestMyDate_JSON(t *testing.T) {
	d := NewMyDate(2024, time.March, 5)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"05/03/2024"` {
		t.Fatalf("expected dd/MM/yyyy, got %s", b)
	}

	for _, in := range []string{`"05/03/2024"`, `"2024-03-05"`, `"2024-03-05T15:30:00Z"`} {
		var parsed MyDate
		if err := json.Unmarshal([]byte(in), &parsed); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if !parsed.Time().Equal(d.Time()) {
			t.Fatalf("unmarshal %s: got %s", in, parsed)
		}
	}

	var bad MyDate
	if err := json.Unmarshal([]byte(`"31/02/2024"`), &bad); err == nil {
		t.Fatalf("expected error for impossible date")
	}
}

func TestMyDateTime_JSON(t *testing.T) {
	var d MyDateTime
	if err := json.Unmarshal([]byte(`"05/03/2024 14:45"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := d.Time(); got.Hour() != 14 || got.Minute() != 45 || got.Day() != 5 {
		t.Fatalf("unexpected time %s", got)
	}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"05/03/2024 14:45"` {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestMyDate_Scan(t *testing.T) {
	cases := []interface{}{
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"2024-03-05 00:00:00+00:00",
		[]byte("2024-03-05"),
	}
	for _, in := range cases {
		var d MyDate
		if err := d.Scan(in); err != nil {
			t.Fatalf("Scan(%v): %v", in, err)
		}
		if d.String() != "05/03/2024" {
			t.Fatalf("Scan(%v) = %s", in, d)
		}
	}
}
