package document

import (
	"os"
	"testing"
	"time"

	"go-sadl-decoder/document/sadl"

	"github.com/stretchr/testify/require"
)

func sampleRecord(t *testing.T) *sadl.Record {
	t.Helper()
	plaintext, err := os.ReadFile("sadl/testdata/sample_plaintext.bin")
	require.NoError(t, err)
	record, err := sadl.Decode(plaintext)
	require.NoError(t, err)
	require.True(t, record.Complete)
	return record
}

func TestToLicenceData(t *testing.T) {
	now := time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)

	data, err := ToLicenceData(sampleRecord(t), "cGhvdG8=", now)
	require.NoError(t, err)

	require.Equal(t, "cGhvdG8=", data.Photo)
	require.Equal(t, "412200075WGW", data.LicenceNumber)
	require.Equal(t, "MAPUNGWANA", data.Surname)
	require.Equal(t, "B", data.VehicleCodes)
	require.Equal(t, "0", data.VehicleRestrictions)
	require.Equal(t, "male", data.Gender)
	require.Equal(t, time.Date(1991, time.July, 7, 0, 0, 0, 0, time.UTC), data.DateOfBirth)
	require.Equal(t, time.Date(2025, time.August, 4, 0, 0, 0, 0, time.UTC), data.DateOfExpiry)
	require.Equal(t, "Yes", data.Over12)
	require.Equal(t, "Yes", data.Over16)
	require.Equal(t, "Yes", data.Over18)
	require.Equal(t, "Yes", data.Over21)
	require.Equal(t, "No", data.Over65)
}

func TestToLicenceDataRejectsIncompleteRecords(t *testing.T) {
	record := sampleRecord(t)
	record.Complete = false
	record.Defaulted = []string{sadl.FieldBirthDate}

	_, err := ToLicenceData(record, "", time.Now())
	require.ErrorIs(t, err, ErrIncompleteRecord)

	_, err = ToLicenceData(nil, "", time.Now())
	require.ErrorIs(t, err, ErrIncompleteRecord)
}
