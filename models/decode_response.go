package models

import "go-sadl-decoder/document/sadl"

type DecodeResponse struct {
	Version   string       `json:"version"`
	Complete  bool         `json:"complete"`
	Defaulted []string     `json:"defaulted,omitempty"`
	Record    *sadl.Record `json:"record"`
}

type KeyVersionsResponse struct {
	Versions []string `json:"versions"`
	Default  string   `json:"default"`
}

type IssueLicenceResponse struct {
	Jwt           string `json:"jwt"`
	IrmaServerURL string `json:"irma_server_url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
