package document

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go-sadl-decoder/blockcrypt"
	"go-sadl-decoder/document/sadl"
	"go-sadl-decoder/keys"
	"go-sadl-decoder/models"
)

var ErrUnknownKeyVersion = errors.New("unknown key version")

// LicenceDecoder runs a barcode payload through key selection, block
// decryption and record decoding. It is safe for concurrent use.
type LicenceDecoder struct {
	table   *keys.Table
	cryptor blockcrypt.Cryptor
	decoder *sadl.Decoder
}

func NewLicenceDecoder(table *keys.Table, parallel bool) (*LicenceDecoder, error) {
	if table == nil {
		return nil, errors.New("licence decoder needs a key table")
	}
	decoder, err := sadl.NewDecoder(sadl.DefaultFields())
	if err != nil {
		return nil, err
	}
	return &LicenceDecoder{
		table:   table,
		cryptor: blockcrypt.NewCryptor(parallel),
		decoder: decoder,
	}, nil
}

// Decode opens a hex payload and decodes the licence record. An empty
// version selects the key version from the payload header.
func (d *LicenceDecoder) Decode(payload string, version string) (models.DecodeResponse, error) {
	data, err := blockcrypt.HexToBytes(payload, d.cryptor.Layout.TotalSize())
	if err != nil {
		return models.DecodeResponse{}, err
	}
	return d.DecodeBytes(data, version)
}

// DecodeBytes is Decode for a payload that is already binary.
func (d *LicenceDecoder) DecodeBytes(data []byte, version string) (models.DecodeResponse, error) {
	if len(data) != d.cryptor.Layout.TotalSize() {
		return models.DecodeResponse{}, &blockcrypt.InvalidInputError{Length: len(data) * 2, Expected: d.cryptor.Layout.TotalSize() * 2, Reason: "unexpected payload length"}
	}

	v := d.table.Select(data[:d.cryptor.Layout.HeaderSize])
	if version != "" {
		var ok bool
		if v, ok = d.table.Version(version); !ok {
			return models.DecodeResponse{}, fmt.Errorf("%w: %q", ErrUnknownKeyVersion, version)
		}
	}

	plaintext, err := d.cryptor.Open(data, v.BlockKey, v.TrailerKey)
	if err != nil {
		return models.DecodeResponse{}, fmt.Errorf("failed to decrypt payload with key version %s: %w", v.ID, err)
	}

	record, err := d.decoder.Decode(plaintext.Data)
	if err != nil {
		return models.DecodeResponse{}, err
	}
	// the photo runs on into the trailer block
	if plaintext.Trailer != nil && !slices.Contains(record.Defaulted, sadl.FieldImage) {
		record.Image = append(record.Image, plaintext.Trailer...)
	}

	slog.Info("licence decoded", "version", v.ID, "complete", record.Complete, "defaulted", len(record.Defaulted))
	return models.DecodeResponse{
		Version:   v.ID,
		Complete:  record.Complete,
		Defaulted: record.Defaulted,
		Record:    record,
	}, nil
}

func (d *LicenceDecoder) KeyVersions() models.KeyVersionsResponse {
	return models.KeyVersionsResponse{
		Versions: d.table.IDs(),
		Default:  d.table.DefaultID(),
	}
}
