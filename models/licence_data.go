package models

import "time"

// LicenceData holds the credential attributes issued for a decoded licence.
type LicenceData struct {
	Photo                 string    `json:"photo,omitempty"` // base64 PNG, optional
	LicenceNumber         string    `json:"licence_number"`
	IDNumber              string    `json:"id_number"`
	IDNumberType          string    `json:"id_number_type"`
	Surname               string    `json:"surname"`
	Initials              string    `json:"initials"`
	VehicleCodes          string    `json:"vehicle_codes"`
	VehicleRestrictions   string    `json:"vehicle_restrictions"`
	IDCountryOfIssue      string    `json:"id_country_of_issue"`
	LicenceCountryOfIssue string    `json:"licence_country_of_issue"`
	DateOfBirth           time.Time `json:"date_of_birth"`
	DateOfIssue           time.Time `json:"date_of_issue"`
	DateOfExpiry          time.Time `json:"date_of_expiry"`
	Gender                string    `json:"gender"`
	PrDPCode              string    `json:"prdp_code"`
	Over12                string    `json:"over12"`
	Over16                string    `json:"over16"`
	Over18                string    `json:"over18"`
	Over21                string    `json:"over21"`
	Over65                string    `json:"over65"`
}
