// Package sadl decodes the plaintext of a South African driving licence
// barcode into a Record.
package sadl

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlaintextSize is the length of a decrypted licence buffer.
const PlaintextSize = 640

// DateLayout is how dates are rendered in records and JSON.
const DateLayout = "2006/01/02"

// Date is a calendar date. The zero value means the date is not present
// on the licence.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", *s, err)
	}
	*d = Date{t}
	return nil
}

type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Record holds the fields of one licence. Fields that could not be decoded
// keep their zero value and are listed in Defaulted.
type Record struct {
	VehicleCodes           []string `json:"vehicle_codes"`
	Surname                string   `json:"surname"`
	Initials               string   `json:"initials"`
	PrDPCode               string   `json:"prdp_code"`
	IDCountryOfIssue       string   `json:"id_country_of_issue"`
	LicenceCountryOfIssue  string   `json:"licence_country_of_issue"`
	VehicleRestrictions    []string `json:"vehicle_restrictions"`
	LicenceNumber          string   `json:"licence_number"`
	IDNumber               string   `json:"id_number"`
	IDNumberType           string   `json:"id_number_type"`
	LicenceCodeIssueDates  []Date   `json:"licence_code_issue_dates"`
	DriverRestrictionCodes string   `json:"driver_restriction_codes"`
	PrDPExpiryDate         Date     `json:"prdp_expiry_date"`
	LicenceIssueNumber     string   `json:"licence_issue_number"`
	BirthDate              Date     `json:"birth_date"`
	LicenceIssueDate       Date     `json:"licence_issue_date"`
	LicenceExpiryDate      Date     `json:"licence_expiry_date"`
	Gender                 Gender   `json:"gender"`
	ImageWidth             int      `json:"image_width"`
	ImageHeight            int      `json:"image_height"`
	Image                  []byte   `json:"image,omitempty"`

	// Complete is false when at least one field was defaulted.
	Complete    bool          `json:"complete"`
	Defaulted   []string      `json:"defaulted,omitempty"`
	FieldErrors []*FieldError `json:"-"`
}

// MalformedRecordError is returned when the plaintext buffer does not have
// the expected size. No record is produced.
type MalformedRecordError struct {
	Length   int
	Expected int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: plaintext is %d bytes, expected %d", e.Length, e.Expected)
}

// FieldError describes why a single field was defaulted.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
