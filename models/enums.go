package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/sop/financialcontrol/utils"
)

type ExpenseType string

const (
	ExpenseTypeBuildingWork ExpenseType = "BUILDING_WORK"
	ExpenseTypeHighwayWork  ExpenseType = "HIGHWAY_WORK"
	ExpenseTypeOther        ExpenseType = "OTHER"
)

var expenseTypeNames = map[ExpenseType]string{
	ExpenseTypeBuildingWork: "Building Work",
	ExpenseTypeHighwayWork:  "Highway Work",
	ExpenseTypeOther:        "Other",
}

func (t ExpenseType) IsValid() bool {
	_, ok := expenseTypeNames[t]
	return ok
}

func (t ExpenseType) DisplayName() string {
	return expenseTypeNames[t]
}

// ParseExpenseType accepts the constant ("HIGHWAY_WORK") or the display name ("Highway Work").
func ParseExpenseType(s string) (ExpenseType, error) {
	s = strings.TrimSpace(s)
	for t, name := range expenseTypeNames {
		if strings.EqualFold(string(t), s) || strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return "", errors.New("invalid expense type")
}

// UnmarshalJSON also accepts display names; unknown values are kept as-is
// so field validation can report them.
func (t *ExpenseType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("expense type must be string")
	}
	if parsed, err := ParseExpenseType(s); err == nil {
		*t = parsed
		return nil
	}
	*t = ExpenseType(s)
	return nil
}

type ExpenseStatus string

const (
	ExpenseStatusAwaitingCommitment ExpenseStatus = "AWAITING_COMMITMENT"
	ExpenseStatusPartiallyCommitted ExpenseStatus = "PARTIALLY_COMMITTED"
	ExpenseStatusAwaitingPayment    ExpenseStatus = "AWAITING_PAYMENT"
	ExpenseStatusPartiallyPaid      ExpenseStatus = "PARTIALLY_PAID"
	ExpenseStatusPaid               ExpenseStatus = "PAID"
)

// lifecycle order
var ExpenseStatuses = []ExpenseStatus{
	ExpenseStatusAwaitingCommitment,
	ExpenseStatusPartiallyCommitted,
	ExpenseStatusAwaitingPayment,
	ExpenseStatusPartiallyPaid,
	ExpenseStatusPaid,
}

var expenseStatusNames = map[ExpenseStatus]string{
	ExpenseStatusAwaitingCommitment: "Awaiting Commitment",
	ExpenseStatusPartiallyCommitted: "Partially Committed",
	ExpenseStatusAwaitingPayment:    "Awaiting Payment",
	ExpenseStatusPartiallyPaid:      "Partially Paid",
	ExpenseStatusPaid:               "Paid",
}

func (s ExpenseStatus) IsValid() bool {
	_, ok := expenseStatusNames[s]
	return ok
}

func (s ExpenseStatus) DisplayName() string {
	return expenseStatusNames[s]
}

func ParseExpenseStatus(s string) (ExpenseStatus, error) {
	s = strings.TrimSpace(s)
	for status, name := range expenseStatusNames {
		if strings.EqualFold(string(status), s) || strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return "", errors.New("invalid expense status")
}

const (
	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006 15:04"
)

var dateInputLayouts = []string{dateLayout, "2006-01-02", time.RFC3339}

var dateTimeInputLayouts = []string{dateTimeLayout, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", time.RFC3339}

// MyDate is a calendar date, dd/MM/yyyy on the wire.
type MyDate time.Time

func NewMyDate(year int, month time.Month, day int) MyDate {
	return MyDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func ParseMyDate(s string) (MyDate, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MyDate(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)), nil
		}
	}
	return MyDate{}, fmt.Errorf("invalid date %q, expected dd/MM/yyyy", s)
}

func (d MyDate) Time() time.Time { return time.Time(d) }

func (d MyDate) IsZero() bool { return time.Time(d).IsZero() }

func (d MyDate) String() string { return time.Time(d).Format(dateLayout) }

func (d MyDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *MyDate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = MyDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("date must be a string")
	}
	if s == "" {
		*d = MyDate{}
		return nil
	}
	parsed, err := ParseMyDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements the driver.Valuer interface
func (d MyDate) Value() (driver.Value, error) {
	return time.Time(d), nil
}

// Scan implements the sql.Scanner interface
func (d *MyDate) Scan(value interface{}) error {
	t, err := scanTime(value)
	if err != nil {
		return err
	}
	*d = MyDate(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	return nil
}

// MyDateTime is a timestamp with minute precision, dd/MM/yyyy HH:mm on the wire.
type MyDateTime time.Time

func ParseMyDateTime(s string) (MyDateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MyDateTime(t.UTC()), nil
		}
	}
	return MyDateTime{}, fmt.Errorf("invalid date-time %q, expected dd/MM/yyyy HH:mm", s)
}

func (d MyDateTime) Time() time.Time { return time.Time(d) }

func (d MyDateTime) IsZero() bool { return time.Time(d).IsZero() }

func (d MyDateTime) String() string { return time.Time(d).Format(dateTimeLayout) }

func (d MyDateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *MyDateTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = MyDateTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("date-time must be a string")
	}
	if s == "" {
		*d = MyDateTime{}
		return nil
	}
	parsed, err := ParseMyDateTime(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d MyDateTime) Value() (driver.Value, error) {
	return time.Time(d), nil
}

func (d *MyDateTime) Scan(value interface{}) error {
	t, err := scanTime(value)
	if err != nil {
		return err
	}
	*d = MyDateTime(t.UTC())
	return nil
}

func scanTime(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case []byte:
		return parseStoredTime(string(v))
	case string:
		return parseStoredTime(v)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", value)
	}
}

func parseStoredTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05", time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse stored time %q", s)
}

func init() {
	// `validate:"required"` on dates checks the underlying time.Time
	utils.RegisterValidatorType(func(field reflect.Value) interface{} {
		switch v := field.Interface().(type) {
		case MyDate:
			return time.Time(v)
		case MyDateTime:
			return time.Time(v)
		}
		return nil
	}, MyDate{}, MyDateTime{})
}
