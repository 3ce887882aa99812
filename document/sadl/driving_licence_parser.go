package sadl

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Decoder applies a decode table to plaintext buffers. It holds no state
// between calls and is safe for concurrent use.
type Decoder struct {
	fields   []Field
	needScan bool
}

var defaultDecoder = func() *Decoder {
	d, err := NewDecoder(DefaultFields())
	if err != nil {
		panic(fmt.Sprintf("default decode table: %v", err))
	}
	return d
}()

// NewDecoder validates a decode table. Every field name must be one of the
// Field constants and appear at most once.
func NewDecoder(fields []Field) (*Decoder, error) {
	d := &Decoder{fields: slices.Clone(fields)}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !knownField(f.Name) {
			return nil, fmt.Errorf("unknown field %q", f.Name)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		if f.Rule == nil {
			return nil, fmt.Errorf("field %s has no rule", f.Name)
		}
		if _, err := f.decoder(); err != nil {
			return nil, err
		}
		if _, ok := f.Rule.(Slot); ok {
			d.needScan = true
		}
	}
	return d, nil
}

// Decode decodes plaintext with the default licence table.
func Decode(plaintext []byte) (*Record, error) {
	return defaultDecoder.Decode(plaintext)
}

// Decode returns a MalformedRecordError when plaintext is not exactly
// PlaintextSize bytes. Otherwise it always returns a record; fields that
// fail are defaulted and the record is marked incomplete.
func (d *Decoder) Decode(plaintext []byte) (*Record, error) {
	if len(plaintext) != PlaintextSize {
		return nil, &MalformedRecordError{Length: len(plaintext), Expected: PlaintextSize}
	}

	var l layout
	if d.needScan {
		l = scanLayout(plaintext)
	}

	r := &Record{Gender: GenderUnknown}
	for _, f := range d.fields {
		if err := d.decodeField(r, f, plaintext, l); err != nil {
			fieldErr := &FieldError{Field: f.Name, Err: err}
			r.FieldErrors = append(r.FieldErrors, fieldErr)
			r.Defaulted = append(r.Defaulted, f.Name)
			slog.Debug("licence field defaulted", "field", f.Name, "error", err)
		}
	}
	r.Complete = len(r.Defaulted) == 0
	if !r.Complete {
		slog.Warn("licence record decoded with defaults", "defaulted", r.Defaulted)
	}
	return r, nil
}

func (d *Decoder) decodeField(r *Record, f Field, buf []byte, l layout) error {
	data, err := f.Rule.locate(buf, l)
	if err != nil {
		return err
	}
	decode, err := f.decoder()
	if err != nil {
		return err
	}
	v, err := decode(data)
	if err != nil {
		return err
	}
	return r.set(f.Name, v)
}

var (
	errWrongType    = errors.New("decoded value has the wrong type")
	errUnknownField = errors.New("unknown field")
)

func assign[T any](dst *T, v any) error {
	t, ok := v.(T)
	if !ok {
		return fmt.Errorf("%w: %T", errWrongType, v)
	}
	*dst = t
	return nil
}

func (r *Record) set(name string, v any) error {
	switch name {
	case FieldVehicleCodes:
		return assign(&r.VehicleCodes, v)
	case FieldSurname:
		return assign(&r.Surname, v)
	case FieldInitials:
		return assign(&r.Initials, v)
	case FieldPrDPCode:
		return assign(&r.PrDPCode, v)
	case FieldIDCountryOfIssue:
		return assign(&r.IDCountryOfIssue, v)
	case FieldLicenceCountryOfIssue:
		return assign(&r.LicenceCountryOfIssue, v)
	case FieldVehicleRestrictions:
		return assign(&r.VehicleRestrictions, v)
	case FieldLicenceNumber:
		return assign(&r.LicenceNumber, v)
	case FieldIDNumber:
		return assign(&r.IDNumber, v)
	case FieldIDNumberType:
		return assign(&r.IDNumberType, v)
	case FieldLicenceCodeIssueDates:
		return assign(&r.LicenceCodeIssueDates, v)
	case FieldDriverRestrictionCodes:
		return assign(&r.DriverRestrictionCodes, v)
	case FieldPrDPExpiryDate:
		return assign(&r.PrDPExpiryDate, v)
	case FieldLicenceIssueNumber:
		return assign(&r.LicenceIssueNumber, v)
	case FieldBirthDate:
		return assign(&r.BirthDate, v)
	case FieldLicenceIssueDate:
		return assign(&r.LicenceIssueDate, v)
	case FieldLicenceExpiryDate:
		return assign(&r.LicenceExpiryDate, v)
	case FieldGender:
		return assign(&r.Gender, v)
	case FieldImageWidth:
		return assign(&r.ImageWidth, v)
	case FieldImageHeight:
		return assign(&r.ImageHeight, v)
	case FieldImage:
		return assign(&r.Image, v)
	}
	return fmt.Errorf("%w %q", errUnknownField, name)
}

func knownField(name string) bool {
	return !errors.Is((&Record{}).set(name, nil), errUnknownField)
}
