package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go-sadl-decoder/document"
	"go-sadl-decoder/document/sadl"
	"go-sadl-decoder/keys"
	"go-sadl-decoder/models"

	"github.com/stretchr/testify/require"
)

var testConfig = ServerConfig{
	Host:           "localhost",
	Port:           8081,
	UseTls:         false,
	TlsCertPath:    "",
	TlsPrivKeyPath: "",
}

const testBaseURL = "http://localhost:8081"

var testNow = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

func startTestServer(t *testing.T, decoder LicenceDecoder, jwtCreator JwtCreator) *Server {
	t.Helper()

	testState := &ServerState{
		irmaServerURL: "https://irma.example",
		decoder:       decoder,
		jwtCreator:    jwtCreator,
		now:           func() time.Time { return testNow },
	}

	srv, err := NewServer(testState, testConfig)
	require.NoError(t, err)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("server error: %v", err)
		}
	}()

	waitUntilHealthy(t, testBaseURL+"/api/health")
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Logf("error shutting down server: %v", err)
		}
	})
	return srv
}

func waitUntilHealthy(t *testing.T, url string) {
	t.Helper()
	const maxAttempts = 50
	for i := 0; i < maxAttempts; i++ {
		if resp, err := http.Get(url); err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server did not start in time")
}

func postJSON[T any](t *testing.T, url string, payload any) (*http.Response, []byte, *T) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	}
	resp, err := http.Post(url, "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded *T
	var v T
	_ = json.Unmarshal(respBody, &v)
	decoded = &v

	return resp, respBody, decoded
}

func getJSON[T any](t *testing.T, url string) (*http.Response, []byte, *T) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var v T
	_ = json.Unmarshal(respBody, &v)
	return resp, respBody, &v
}

func mustStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body: %s", body)
}

func readSamplePayload(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("test-data/sample_payload.hex")
	require.NoError(t, err, "failed to read sample payload")
	return strings.TrimSpace(string(b))
}

func newTestDecoder(t *testing.T) *document.LicenceDecoder {
	t.Helper()
	table, err := keys.Default()
	require.NoError(t, err)
	decoder, err := document.NewLicenceDecoder(table, false)
	require.NoError(t, err)
	return decoder
}

func completeRecord() *sadl.Record {
	return &sadl.Record{
		VehicleCodes:          []string{"B"},
		Surname:               "DLAMINI",
		Initials:              "T",
		IDCountryOfIssue:      "ZA",
		LicenceCountryOfIssue: "ZA",
		VehicleRestrictions:   []string{"0"},
		LicenceNumber:         "10150000ABCD",
		IDNumber:              "8001015009087",
		IDNumberType:          "02",
		BirthDate:             sadl.NewDate(1980, time.January, 1),
		LicenceIssueDate:      sadl.NewDate(2021, time.March, 4),
		LicenceExpiryDate:     sadl.NewDate(2026, time.March, 3),
		Gender:                sadl.GenderFemale,
		Complete:              true,
	}
}

// test doubles

type fakeJwtCreator struct {
	jwt string
	err error

	mutex  sync.Mutex
	issued []models.LicenceData
}

func (f *fakeJwtCreator) CreateLicenceJwt(licence models.LicenceData) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.issued = append(f.issued, licence)
	return f.jwt, f.err
}

func (f *fakeJwtCreator) lastIssued(t *testing.T) models.LicenceData {
	t.Helper()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	require.NotEmpty(t, f.issued, "no licence was issued")
	return f.issued[len(f.issued)-1]
}

type fakeDecoder struct {
	response models.DecodeResponse
	err      error
	calls    int
}

func (f *fakeDecoder) Decode(_ string, _ string) (models.DecodeResponse, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeDecoder) KeyVersions() models.KeyVersionsResponse {
	return models.KeyVersionsResponse{Versions: []string{"v1", "v2"}, Default: "v2"}
}

type failingCache struct{}

func (failingCache) Get(string) ([]byte, error) { return nil, errors.New("cache down") }
func (failingCache) Put(string, []byte) error   { return errors.New("cache down") }
