package models

type DecodeRequest struct {
	Payload string `json:"payload"` // hex, whitespace and separators ignored
}

type IssueLicenceRequest struct {
	Payload      string `json:"payload"`
	IncludePhoto bool   `json:"include_photo,omitempty"`
}
