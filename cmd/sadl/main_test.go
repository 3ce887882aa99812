package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-sadl-decoder/models"

	"github.com/stretchr/testify/require"
)

func samplePayload(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("../../test-data/sample_payload.hex")
	require.NoError(t, err)
	return strings.TrimSpace(string(b))
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	keysPath, logLevel = "", ""

	cmd := rootCmd()
	var out, stderr bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	require.Equal(t, "sadl version "+version+"\n", out)
}

func TestKeysCommand(t *testing.T) {
	out, err := run(t, "", "keys")
	require.NoError(t, err)
	require.Contains(t, out, "01E10245")
	require.Contains(t, out, "019B0945")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[2], "v2"))
	require.True(t, strings.HasSuffix(lines[2], "*"))
}

func TestKeysCommand_BadTable(t *testing.T) {
	_, err := run(t, "", "keys", "--keys", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDecodeCommand_Text(t *testing.T) {
	out, err := run(t, "", "decode", "--hex", samplePayload(t))
	require.NoError(t, err)
	require.Contains(t, out, "MAPUNGWANA")
	require.Contains(t, out, "1991/07/07")
	require.Contains(t, out, "250x200")
	require.NotContains(t, out, "Defaulted")
}

func TestDecodeCommand_JSONFromStdin(t *testing.T) {
	out, err := run(t, samplePayload(t)+"\n", "decode", "--json")
	require.NoError(t, err)

	var response models.DecodeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Equal(t, "v2", response.Version)
	require.True(t, response.Complete)
	require.Equal(t, "412200075WGW", response.Record.LicenceNumber)
}

func TestDecodeCommand_Files(t *testing.T) {
	dir := t.TempDir()

	hexPath := filepath.Join(dir, "payload.hex")
	require.NoError(t, os.WriteFile(hexPath, []byte(samplePayload(t)), 0o600))
	out, err := run(t, "", "decode", "--file", hexPath)
	require.NoError(t, err)
	require.Contains(t, out, "MAPUNGWANA")

	raw, err := hex.DecodeString(samplePayload(t))
	require.NoError(t, err)
	rawPath := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(rawPath, raw, 0o600))
	out, err = run(t, "", "decode", "--file", rawPath, "--raw")
	require.NoError(t, err)
	require.Contains(t, out, "MAPUNGWANA")
}

func TestDecodeCommand_Errors(t *testing.T) {
	t.Run("short payload", func(t *testing.T) {
		_, err := run(t, "", "decode", "--hex", "0102")
		require.ErrorContains(t, err, "invalid input")
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := run(t, "", "decode", "--hex", samplePayload(t), "--version", "v5")
		require.ErrorContains(t, err, "unknown key version")
	})

	t.Run("hex and file together", func(t *testing.T) {
		_, err := run(t, "", "decode", "--hex", "00", "--file", "x")
		require.Error(t, err)
	})

	t.Run("raw and hex together", func(t *testing.T) {
		_, err := run(t, "", "decode", "--raw", "--hex", samplePayload(t))
		require.ErrorContains(t, err, "none of the others can be")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "", "decode", "--file", filepath.Join(t.TempDir(), "missing"))
		require.ErrorContains(t, err, "failed to read payload file")
	})

	t.Run("photo in unknown format", func(t *testing.T) {
		photo := filepath.Join(t.TempDir(), "photo.png")
		_, err := run(t, "", "decode", "--hex", samplePayload(t), "--photo", photo)
		require.ErrorContains(t, err, "unsupported or invalid image format")
		require.NoFileExists(t, photo)
	})
}
