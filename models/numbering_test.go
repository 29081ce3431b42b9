package models

import (
	"testing"

	"github.com/sop/financialcontrol/utils"
)

func TestValidateProtocolNumber(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"12345.123456/2024-01", true},
		{"00000.000000/0000-00", true},
		{"1234.123456/2024-01", false},
		{"12345.123456/2024-1", false},
		{"12345-123456/2024-01", false},
		{"12345.123456/2024-01 ", false},
		{"", false},
	}
	for _, tc := range cases {
		err := validateProtocolNumber(tc.in)
		if tc.valid && err != nil {
			t.Fatalf("validateProtocolNumber(%q) unexpected error: %v", tc.in, err)
		}
		if !tc.valid {
			if err == nil {
				t.Fatalf("validateProtocolNumber(%q) expected error", tc.in)
			}
			if err.Error() != "Invalid protocol number format. Expected format: #####.######/####-##" {
				t.Fatalf("unexpected message: %s", err.Error())
			}
		}
	}
}

func TestValidateCommitmentNumber(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"2024NE0001", ""},
		{"2024NE9999", ""},
		{"2023NE0001", "Commitment number must start with the current year: 2024"},
		{"2024NP0001", "Invalid commitment number format. Expected format: ####NE####"},
		{"2024ne0001", "Invalid commitment number format. Expected format: ####NE####"},
		{"2024NE001", "Invalid commitment number format. Expected format: ####NE####"},
	}
	for _, tc := range cases {
		err := validateCommitmentNumber(tc.in, 2024)
		if tc.expected == "" {
			if err != nil {
				t.Fatalf("validateCommitmentNumber(%q) unexpected error: %v", tc.in, err)
			}
			continue
		}
		if err == nil || err.Error() != tc.expected {
			t.Fatalf("validateCommitmentNumber(%q) expected %q, got %v", tc.in, tc.expected, err)
		}
		if !utils.IsBusinessRuleError(err) {
			t.Fatalf("validateCommitmentNumber(%q) expected business rule error", tc.in)
		}
	}
}

func TestValidatePaymentNumber(t *testing.T) {
	if err := validatePaymentNumber("2025NP0042", 2025); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := validatePaymentNumber("2024NP0042", 2025)
	if err == nil || err.Error() != "Payment number must start with the current year: 2025" {
		t.Fatalf("expected year error, got %v", err)
	}
	err = validatePaymentNumber("2025NE0042", 2025)
	if err == nil || err.Error() != "Invalid payment number format. Expected format: ####NP####" {
		t.Fatalf("expected format error, got %v", err)
	}
}
