package main

import (
	"crypto/rsa"
	"go-sadl-decoder/models"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	irma "github.com/privacybydesign/irmago"
)

type JwtCreator interface {
	CreateLicenceJwt(licence models.LicenceData) (jwt string, err error)
}

func NewIrmaJwtCreator(privateKeyPath string,
	issuerId string,
	credential string,
	sdJwtBatchSize uint,
) (*DefaultJwtCreator, error) {
	keyBytes, err := os.ReadFile(privateKeyPath)

	if err != nil {
		return nil, err
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)

	if err != nil {
		return nil, err
	}

	return &DefaultJwtCreator{
		issuerId:       issuerId,
		privateKey:     privateKey,
		credential:     credential,
		sdJwtBatchSize: sdJwtBatchSize,
	}, nil
}

type DefaultJwtCreator struct {
	privateKey     *rsa.PrivateKey
	issuerId       string
	credential     string
	sdJwtBatchSize uint
}

func (jc *DefaultJwtCreator) createJwt(attributes map[string]string) (string, error) {
	issuanceRequest := jc.createIssuanceRequest(attributes)

	return irma.SignSessionRequest(
		issuanceRequest,
		jwt.GetSigningMethod(jwt.SigningMethodRS256.Alg()),
		jc.privateKey,
		jc.issuerId,
	)
}

const DATE_FORMAT_CYMD = "2006-01-02"
const DATE_FORMAT_YEAR = "2006"

func licenceAttributes(licence models.LicenceData) map[string]string {
	return map[string]string{
		"photo":                 licence.Photo,
		"licenceNumber":         licence.LicenceNumber,
		"idNumber":              licence.IDNumber,
		"idNumberType":          licence.IDNumberType,
		"surname":               licence.Surname,
		"initials":              licence.Initials,
		"vehicleCodes":          licence.VehicleCodes,
		"vehicleRestrictions":   licence.VehicleRestrictions,
		"idCountryOfIssue":      licence.IDCountryOfIssue,
		"licenceCountryOfIssue": licence.LicenceCountryOfIssue,
		"dateOfBirth":           licence.DateOfBirth.Format(DATE_FORMAT_CYMD),
		"yearOfBirth":           licence.DateOfBirth.Format(DATE_FORMAT_YEAR),
		"dateOfIssue":           licence.DateOfIssue.Format(DATE_FORMAT_CYMD),
		"dateOfExpiry":          licence.DateOfExpiry.Format(DATE_FORMAT_CYMD),
		"gender":                licence.Gender,
		"prdpCode":              licence.PrDPCode,
		"over12":                licence.Over12,
		"over16":                licence.Over16,
		"over18":                licence.Over18,
		"over21":                licence.Over21,
		"over65":                licence.Over65,
	}
}

func (jc *DefaultJwtCreator) CreateLicenceJwt(licence models.LicenceData) (string, error) {
	return jc.createJwt(licenceAttributes(licence))
}

// createIssuanceRequest creates an IRMA issuance request with the licence attributes
// This is a separate method to allow for easier testing
func (jc *DefaultJwtCreator) createIssuanceRequest(attributes map[string]string) *irma.IssuanceRequest {
	validity := irma.Timestamp(time.Unix(time.Now().AddDate(1, 0, 0).Unix(), 0)) // 1 year from now

	return irma.NewIssuanceRequest([]*irma.CredentialRequest{
		{
			CredentialTypeID: irma.NewCredentialTypeIdentifier(jc.credential),
			Attributes:       attributes,
			SdJwtBatchSize:   jc.sdJwtBatchSize,
			Validity:         &validity,
		},
	})
}
