package document

import (
	"errors"
	"time"

	"go-sadl-decoder/document/sadl"
	"go-sadl-decoder/models"
)

var ErrIncompleteRecord = errors.New("licence record is incomplete")

// ToLicenceData maps a decoded licence to credential attributes. Only
// complete records can be issued; photo is an optional base64 PNG. Age
// flags are computed at now.
func ToLicenceData(record *sadl.Record, photo string, now time.Time) (models.LicenceData, error) {
	if record == nil || !record.Complete {
		return models.LicenceData{}, ErrIncompleteRecord
	}

	dob := record.BirthDate.Time
	return models.LicenceData{
		Photo:                 photo,
		LicenceNumber:         record.LicenceNumber,
		IDNumber:              record.IDNumber,
		IDNumberType:          record.IDNumberType,
		Surname:               record.Surname,
		Initials:              record.Initials,
		VehicleCodes:          JoinCodes(record.VehicleCodes),
		VehicleRestrictions:   JoinCodes(record.VehicleRestrictions),
		IDCountryOfIssue:      record.IDCountryOfIssue,
		LicenceCountryOfIssue: record.LicenceCountryOfIssue,
		DateOfBirth:           dob,
		DateOfIssue:           record.LicenceIssueDate.Time,
		DateOfExpiry:          record.LicenceExpiryDate.Time,
		Gender:                string(record.Gender),
		PrDPCode:              record.PrDPCode,
		Over12:                BoolToYesNo(IsOlderThan(dob, 12, now)),
		Over16:                BoolToYesNo(IsOlderThan(dob, 16, now)),
		Over18:                BoolToYesNo(IsOlderThan(dob, 18, now)),
		Over21:                BoolToYesNo(IsOlderThan(dob, 21, now)),
		Over65:                BoolToYesNo(IsOlderThan(dob, 65, now)),
	}, nil
}
