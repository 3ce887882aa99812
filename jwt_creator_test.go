package main

import (
	"fmt"
	"go-sadl-decoder/models"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

const testCredential = "pbdf-staging.pbdf.sadrivinglicence"

func testLicenceData() models.LicenceData {
	return models.LicenceData{
		LicenceNumber:         "412200075WGW",
		IDNumber:              "40242DPMV0005",
		IDNumberType:          "01",
		Surname:               "MAPUNGWANA",
		Initials:              "C",
		VehicleCodes:          "B",
		VehicleRestrictions:   "0",
		IDCountryOfIssue:      "ZA",
		LicenceCountryOfIssue: "ZA",
		DateOfBirth:           time.Date(1991, time.July, 7, 0, 0, 0, 0, time.UTC),
		DateOfIssue:           time.Date(2020, time.August, 5, 0, 0, 0, 0, time.UTC),
		DateOfExpiry:          time.Date(2025, time.August, 4, 0, 0, 0, 0, time.UTC),
		Gender:                "male",
		Over12:                "Yes",
		Over16:                "Yes",
		Over18:                "Yes",
		Over21:                "Yes",
		Over65:                "No",
	}
}

func TestCreatingJwt(t *testing.T) {
	jc, err := NewIrmaJwtCreator("./test-secrets/priv.pem", "sadl_issuer", testCredential, 25)
	require.NoError(t, err)

	createdjwt, err := jc.CreateLicenceJwt(testLicenceData())
	if err != nil {
		t.Fatalf("failed to create jwt: %v", err)
	}

	if createdjwt == "" {
		t.Fatal("jwt is empty")
	}
}

func TestDecodeValidateJwt(t *testing.T) {
	jc, err := NewIrmaJwtCreator("./test-secrets/priv.pem", "sadl_issuer", testCredential, 25)
	require.NoError(t, err)

	tokenString, err := jc.CreateLicenceJwt(testLicenceData())
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	parsedJWT, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, jwtKeyFunc)
	require.NoError(t, err)
	require.NotNil(t, parsedJWT)
	require.True(t, parsedJWT.Valid)

	claims, ok := parsedJWT.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "sadl_issuer", claims["iss"])
}

func TestLicenceAttributes(t *testing.T) {
	attributes := licenceAttributes(testLicenceData())

	require.Equal(t, "412200075WGW", attributes["licenceNumber"])
	require.Equal(t, "1991-07-07", attributes["dateOfBirth"])
	require.Equal(t, "1991", attributes["yearOfBirth"])
	require.Equal(t, "2025-08-04", attributes["dateOfExpiry"])
	require.Equal(t, "male", attributes["gender"])
	require.Equal(t, "No", attributes["over65"])
	require.Equal(t, "", attributes["photo"])
}

func TestBatchSizeConfiguration(t *testing.T) {
	testCases := []struct {
		name      string
		batchSize uint
	}{
		{"batch size 1", 1},
		{"batch size 10", 10},
		{"batch size 25", 25},
		{"batch size 100", 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			jc, err := NewIrmaJwtCreator("./test-secrets/priv.pem", "sadl_issuer", testCredential, tc.batchSize)
			require.NoError(t, err)
			require.NotNil(t, jc)

			require.Equal(t, tc.batchSize, jc.sdJwtBatchSize,
				"JWT creator should store the configured batch size")

			issuanceReq := jc.createIssuanceRequest(licenceAttributes(testLicenceData()))
			require.NotNil(t, issuanceReq)
			require.Len(t, issuanceReq.Credentials, 1, "Should have exactly one credential request")
			require.Equal(t, tc.batchSize, issuanceReq.Credentials[0].SdJwtBatchSize,
				"IssuanceRequest credential should have the configured batch size")

			jwtString, err := jc.CreateLicenceJwt(testLicenceData())
			require.NoError(t, err)

			parsedJWT, err := jwt.ParseWithClaims(jwtString, jwt.MapClaims{}, jwtKeyFunc)
			require.NoError(t, err)
			require.True(t, parsedJWT.Valid)
		})
	}
}

func jwtKeyFunc(token *jwt.Token) (interface{}, error) {
	pubBytes, err := os.ReadFile("./test-secrets/pub.pem")
	if err != nil {
		return nil, err
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, err
	}

	// Ensure the signing method is RS256
	if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %s", token.Header["alg"])
	}
	return pubKey, nil
}

func TestNewIrmaJwtCreator_ErrorCases(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		_, err := NewIrmaJwtCreator("./nonexistent.pem", "issuer", "credential", 25)
		require.Error(t, err)
	})

	t.Run("invalid PEM format", func(t *testing.T) {
		path := t.TempDir() + "/invalid.pem"
		require.NoError(t, os.WriteFile(path, []byte("this is not a valid PEM file"), 0o600))

		_, err := NewIrmaJwtCreator(path, "issuer", "credential", 25)
		require.Error(t, err)
	})
}
