package models

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sop/financialcontrol/utils"
)

var (
	protocolNumberPattern   = regexp.MustCompile(`^\d{5}\.\d{6}/\d{4}-\d{2}$`)
	commitmentNumberPattern = regexp.MustCompile(`^\d{4}NE\d{4}$`)
	paymentNumberPattern    = regexp.MustCompile(`^\d{4}NP\d{4}$`)
)

func validateProtocolNumber(protocolNumber string) error {
	if !protocolNumberPattern.MatchString(protocolNumber) {
		return utils.NewBusinessRuleError("Invalid protocol number format. Expected format: #####.######/####-##")
	}
	return nil
}

// numbers are YYYY + kind + sequence; YYYY must be the current year
func validateYearPrefixedNumber(number string, pattern *regexp.Regexp, label string, expected string, currentYear int) error {
	if !pattern.MatchString(number) {
		return utils.NewBusinessRuleError("Invalid %s number format. Expected format: %s", strings.ToLower(label), expected)
	}
	year, _ := strconv.Atoi(number[:4])
	if year != currentYear {
		return utils.NewBusinessRuleError("%s number must start with the current year: %d", label, currentYear)
	}
	return nil
}

func validateCommitmentNumber(number string, currentYear int) error {
	return validateYearPrefixedNumber(number, commitmentNumberPattern, "Commitment", "####NE####", currentYear)
}

func validatePaymentNumber(number string, currentYear int) error {
	return validateYearPrefixedNumber(number, paymentNumberPattern, "Payment", "####NP####", currentYear)
}
