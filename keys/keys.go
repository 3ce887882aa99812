// Package keys holds the table of issuer public keys, one entry per key
// version, and picks the version that matches a payload header.
package keys

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"go-sadl-decoder/blockcrypt"

	"gopkg.in/yaml.v3"
)

// HeaderMagicSize is the number of leading header bytes that identify a
// key version.
const HeaderMagicSize = 4

//go:embed keys.yaml
var defaultTable []byte

type keyEntry struct {
	Modulus  string `yaml:"modulus"`
	Exponent string `yaml:"exponent"`
}

type versionEntry struct {
	ID         string    `yaml:"id"`
	Header     string    `yaml:"header"`
	BlockKey   keyEntry  `yaml:"block_key"`
	TrailerKey *keyEntry `yaml:"trailer_key"`
}

type tableFile struct {
	DefaultVersion string         `yaml:"default_version"`
	Versions       []versionEntry `yaml:"versions"`
}

// Version is one generation of issuer keys.
type Version struct {
	ID         string
	Header     []byte
	BlockKey   blockcrypt.Key
	TrailerKey *blockcrypt.Key
}

// Table is immutable once parsed and safe for concurrent use.
type Table struct {
	defaultID string
	versions  []Version
}

// Default returns the embedded reference table.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// Load reads a key table from path. An empty path yields the embedded
// table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("key table %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML key table and validates every key in it.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse key table: %w", err)
	}
	if len(f.Versions) == 0 {
		return nil, errors.New("key table has no versions")
	}

	t := &Table{defaultID: f.DefaultVersion}
	seen := make(map[string]bool)
	for _, entry := range f.Versions {
		v, err := entry.toVersion()
		if err != nil {
			return nil, fmt.Errorf("version %q: %w", entry.ID, err)
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("duplicate version %q", v.ID)
		}
		for _, other := range t.versions {
			if bytes.Equal(other.Header, v.Header) {
				return nil, fmt.Errorf("versions %q and %q share header %X", other.ID, v.ID, v.Header)
			}
		}
		seen[v.ID] = true
		t.versions = append(t.versions, v)
	}

	if t.defaultID == "" {
		t.defaultID = t.versions[len(t.versions)-1].ID
	}
	if !seen[t.defaultID] {
		return nil, fmt.Errorf("default version %q is not in the table", t.defaultID)
	}
	return t, nil
}

func (e versionEntry) toVersion() (Version, error) {
	if e.ID == "" {
		return Version{}, errors.New("missing id")
	}
	header, err := parseHeader(e.Header)
	if err != nil {
		return Version{}, err
	}
	blockKey, err := e.BlockKey.toKey()
	if err != nil {
		return Version{}, fmt.Errorf("block key: %w", err)
	}
	if err := blockKey.Validate(blockcrypt.DefaultLayout.BlockSize); err != nil {
		return Version{}, fmt.Errorf("block key: %w", err)
	}

	v := Version{ID: e.ID, Header: header, BlockKey: blockKey}
	if e.TrailerKey != nil {
		trailerKey, err := e.TrailerKey.toKey()
		if err != nil {
			return Version{}, fmt.Errorf("trailer key: %w", err)
		}
		if err := trailerKey.Validate(blockcrypt.DefaultLayout.TrailerSize); err != nil {
			return Version{}, fmt.Errorf("trailer key: %w", err)
		}
		v.TrailerKey = &trailerKey
	}
	return v, nil
}

func parseHeader(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if blockcrypt.CleanHex(s) != s {
		return nil, fmt.Errorf("header %q is not hex", s)
	}
	header, err := blockcrypt.HexToBytes(s, HeaderMagicSize)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	return header, nil
}

func (k keyEntry) toKey() (blockcrypt.Key, error) {
	n, err := parseHexInt(k.Modulus)
	if err != nil {
		return blockcrypt.Key{}, &blockcrypt.CryptoError{Block: -1, Reason: "bad modulus", Err: err}
	}
	e, err := parseHexInt(k.Exponent)
	if err != nil {
		return blockcrypt.Key{}, &blockcrypt.CryptoError{Block: -1, Reason: "bad exponent", Err: err}
	}
	return blockcrypt.Key{Modulus: n, Exponent: e}, nil
}

func parseHexInt(s string) (*big.Int, error) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, errors.New("empty value")
	}
	x, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("%q is not a hex integer", s)
	}
	return x, nil
}

// Select returns the version whose header magic matches the start of
// header, or the default version when none matches.
func (t *Table) Select(header []byte) Version {
	if len(header) >= HeaderMagicSize {
		for _, v := range t.versions {
			if bytes.Equal(v.Header, header[:HeaderMagicSize]) {
				return v
			}
		}
	}
	v, _ := t.Version(t.defaultID)
	return v
}

// Version looks up a version by id.
func (t *Table) Version(id string) (Version, bool) {
	for _, v := range t.versions {
		if v.ID == id {
			return v, true
		}
	}
	return Version{}, false
}

// DefaultID is the id used for unrecognised headers.
func (t *Table) DefaultID() string {
	return t.defaultID
}

// IDs lists the version ids in table order.
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.versions))
	for _, v := range t.versions {
		ids = append(ids, v.ID)
	}
	return ids
}
