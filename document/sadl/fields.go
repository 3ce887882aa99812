package sadl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/text/encoding/charmap"
)

// Field names. They double as slot names of the licence layout and as
// the entries of Record.Defaulted.
const (
	FieldVehicleCodes           = "vehicle_codes"
	FieldSurname                = "surname"
	FieldInitials               = "initials"
	FieldPrDPCode               = "prdp_code"
	FieldIDCountryOfIssue       = "id_country_of_issue"
	FieldLicenceCountryOfIssue  = "licence_country_of_issue"
	FieldVehicleRestrictions    = "vehicle_restrictions"
	FieldLicenceNumber          = "licence_number"
	FieldIDNumber               = "id_number"
	FieldIDNumberType           = "id_number_type"
	FieldLicenceCodeIssueDates  = "licence_code_issue_dates"
	FieldDriverRestrictionCodes = "driver_restriction_codes"
	FieldPrDPExpiryDate         = "prdp_expiry_date"
	FieldLicenceIssueNumber     = "licence_issue_number"
	FieldBirthDate              = "birth_date"
	FieldLicenceIssueDate       = "licence_issue_date"
	FieldLicenceExpiryDate      = "licence_expiry_date"
	FieldGender                 = "gender"
	FieldImageWidth             = "image_width"
	FieldImageHeight            = "image_height"
	FieldImage                  = "image"
)

// Kind selects how the bytes of a field are interpreted.
type Kind int

const (
	KindText           Kind = iota // ISO-8859-1 text, trailing space and NUL trimmed
	KindTextList                   // values separated by the licence delimiters
	KindByteCode                   // one byte rendered as two decimal digits
	KindDigitDate                  // ASCII YYYYMMDD
	KindNibbleCode                 // decimal nibbles rendered as digits
	KindNibbleDate                 // YYYYMMDD nibbles, or one absent nibble
	KindNibbleDateList             // consecutive nibble dates, absent ones dropped
	KindNibbleGender               // 01 male, 02 female
	KindUint16                     // big-endian unsigned
	KindBytes                      // raw copy
)

// Rule locates the bytes of a field within the plaintext.
type Rule interface {
	locate(buf []byte, l layout) ([]byte, error)
}

// Fixed reads exactly Width bytes at Offset.
type Fixed struct {
	Offset int
	Width  int
}

func (r Fixed) locate(buf []byte, _ layout) ([]byte, error) {
	if r.Offset < 0 || r.Width < 0 || r.Offset+r.Width > len(buf) {
		return nil, fmt.Errorf("%w: %d bytes at offset %d", errNotLocated, r.Width, r.Offset)
	}
	return buf[r.Offset : r.Offset+r.Width], nil
}

// Delimited reads from Offset up to the first terminator byte, or at most
// Max bytes. A Max of zero reads to the end of the buffer.
type Delimited struct {
	Offset      int
	Max         int
	Terminators []byte
}

func (r Delimited) locate(buf []byte, _ layout) ([]byte, error) {
	if r.Offset < 0 || r.Offset > len(buf) {
		return nil, fmt.Errorf("%w: offset %d", errNotLocated, r.Offset)
	}
	rest := buf[r.Offset:]
	if r.Max > 0 && len(rest) > r.Max {
		rest = rest[:r.Max]
	}
	for i, b := range rest {
		if bytes.IndexByte(r.Terminators, b) >= 0 {
			return rest[:i], nil
		}
	}
	return rest, nil
}

// Slot takes the span the licence layout scan found for the named slot.
type Slot string

func (r Slot) locate(_ []byte, l layout) ([]byte, error) {
	return l.slot(string(r))
}

// Field is one entry of a decode table. Decode overrides the decoder of
// Kind when set.
type Field struct {
	Name   string
	Rule   Rule
	Kind   Kind
	Decode func(data []byte) (any, error)
}

func (f Field) decoder() (func([]byte) (any, error), error) {
	if f.Decode != nil {
		return f.Decode, nil
	}
	dec, ok := kindDecoders[f.Kind]
	if !ok {
		return nil, fmt.Errorf("field %s: unknown kind %d", f.Name, f.Kind)
	}
	return dec, nil
}

// DefaultFields is the decode table of the licence layout.
func DefaultFields() []Field {
	return []Field{
		{Name: FieldVehicleCodes, Rule: Slot(FieldVehicleCodes), Kind: KindTextList},
		{Name: FieldSurname, Rule: Slot(FieldSurname), Kind: KindText},
		{Name: FieldInitials, Rule: Slot(FieldInitials), Kind: KindText},
		{Name: FieldPrDPCode, Rule: Slot(FieldPrDPCode), Kind: KindText},
		{Name: FieldIDCountryOfIssue, Rule: Slot(FieldIDCountryOfIssue), Kind: KindText},
		{Name: FieldLicenceCountryOfIssue, Rule: Slot(FieldLicenceCountryOfIssue), Kind: KindText},
		{Name: FieldVehicleRestrictions, Rule: Slot(FieldVehicleRestrictions), Kind: KindTextList},
		{Name: FieldLicenceNumber, Rule: Slot(FieldLicenceNumber), Kind: KindText},
		{Name: FieldIDNumber, Rule: Slot(FieldIDNumber), Kind: KindText},
		{Name: FieldIDNumberType, Rule: Slot(FieldIDNumberType), Kind: KindByteCode},
		{Name: FieldLicenceCodeIssueDates, Rule: Slot(FieldLicenceCodeIssueDates), Kind: KindNibbleDateList},
		{Name: FieldDriverRestrictionCodes, Rule: Slot(FieldDriverRestrictionCodes), Kind: KindNibbleCode},
		{Name: FieldPrDPExpiryDate, Rule: Slot(FieldPrDPExpiryDate), Kind: KindNibbleDate},
		{Name: FieldLicenceIssueNumber, Rule: Slot(FieldLicenceIssueNumber), Kind: KindNibbleCode},
		{Name: FieldBirthDate, Rule: Slot(FieldBirthDate), Kind: KindNibbleDate},
		{Name: FieldLicenceIssueDate, Rule: Slot(FieldLicenceIssueDate), Kind: KindNibbleDate},
		{Name: FieldLicenceExpiryDate, Rule: Slot(FieldLicenceExpiryDate), Kind: KindNibbleDate},
		{Name: FieldGender, Rule: Slot(FieldGender), Kind: KindNibbleGender},
		{Name: FieldImageWidth, Rule: Slot(FieldImageWidth), Kind: KindUint16},
		{Name: FieldImageHeight, Rule: Slot(FieldImageHeight), Kind: KindUint16},
		{Name: FieldImage, Rule: Slot(FieldImage), Kind: KindBytes},
	}
}

var kindDecoders = map[Kind]func([]byte) (any, error){
	KindText:           decodeText,
	KindTextList:       decodeTextList,
	KindByteCode:       decodeByteCode,
	KindDigitDate:      decodeDigitDate,
	KindNibbleCode:     decodeNibbleCode,
	KindNibbleDate:     decodeNibbleDate,
	KindNibbleDateList: decodeNibbleDateList,
	KindNibbleGender:   decodeNibbleGender,
	KindUint16:         decodeUint16,
	KindBytes:          decodeBytes,
}

func decodeLatin1(data []byte) (string, error) {
	result, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

func decodeText(data []byte) (any, error) {
	data = bytes.TrimRight(data, " \x00")
	for _, b := range data {
		if b < 0x20 || (b >= 0x7F && b < 0xA0) {
			return nil, fmt.Errorf("non-printable byte %#x", b)
		}
	}
	return decodeLatin1(data)
}

func decodeTextList(data []byte) (any, error) {
	values := []string{}
	start := 0
	for i := 0; i <= len(data); i++ {
		if i < len(data) && data[i] != delimiterPresent && data[i] != delimiterEmpty {
			continue
		}
		v, err := decodeText(data[start:i])
		if err != nil {
			return nil, err
		}
		if s := v.(string); s != "" {
			values = append(values, s)
		}
		start = i + 1
	}
	return values, nil
}

func decodeByteCode(data []byte) (any, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("expected 1 byte, got %d", len(data))
	}
	if data[0] > 99 {
		return nil, fmt.Errorf("code %d has more than two digits", data[0])
	}
	return fmt.Sprintf("%02d", data[0]), nil
}

func decodeDigitDate(data []byte) (any, error) {
	data = bytes.TrimRight(data, " \x00")
	if len(data) == 0 {
		return Date{}, nil
	}
	if len(data) != dateNibbles {
		return nil, fmt.Errorf("invalid date length: %d", len(data))
	}
	digits := make([]byte, len(data))
	for i, b := range data {
		if b < '0' || b > '9' {
			return nil, fmt.Errorf("invalid date: non-digit %q", b)
		}
		digits[i] = b - '0'
	}
	return validDate(digitsValue(digits[0:4]), digitsValue(digits[4:6]), digitsValue(digits[6:8]))
}

func decodeNibbleCode(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, errors.New("empty code")
	}
	return parseNibbleCode(data, len(data))
}

func decodeNibbleDate(data []byte) (any, error) {
	return parseNibbleDate(data)
}

func decodeNibbleDateList(data []byte) (any, error) {
	dates := []Date{}
	for len(data) > 0 {
		w := nibbleDateWidth(data)
		if w > len(data) {
			return nil, fmt.Errorf("truncated date: %d nibbles left", len(data))
		}
		d, err := parseNibbleDate(data[:w])
		if err != nil {
			return nil, err
		}
		if !d.IsZero() {
			dates = append(dates, d)
		}
		data = data[w:]
	}
	return dates, nil
}

func decodeNibbleGender(data []byte) (any, error) {
	code, err := parseNibbleCode(data, 2)
	if err != nil {
		return nil, err
	}
	switch code {
	case "01":
		return GenderMale, nil
	case "02":
		return GenderFemale, nil
	}
	return nil, fmt.Errorf("unknown gender code %s", code)
}

func decodeUint16(data []byte) (any, error) {
	if len(data) != 2 {
		return nil, fmt.Errorf("expected 2 bytes, got %d", len(data))
	}
	return int(binary.BigEndian.Uint16(data)), nil
}

func decodeBytes(data []byte) (any, error) {
	return slices.Clone(data), nil
}
