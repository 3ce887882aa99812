package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go-sadl-decoder/blockcrypt"
	_ "go-sadl-decoder/docs"
	"go-sadl-decoder/document"
	"go-sadl-decoder/document/sadl"
	"go-sadl-decoder/images"
	"go-sadl-decoder/models"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"
)

const ErrorInternal = "error:internal"
const ERR_MARSHAL = "failed to marshal response message"
const ERR_INVALID_REQUEST = "invalid request"
const ERR_INVALID_PAYLOAD = "invalid payload"
const ERR_MALFORMED_RECORD = "malformed record"
const ERR_UNKNOWN_VERSION = "unknown key version"
const ERR_INCOMPLETE_RECORD = "incomplete record"
const ERR_JWT_CREATION = "failed to create jwt"
const ERR_ISSUANCE_DISABLED = "issuance not configured"

const maxRequestBodySize = 64 << 10

type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	UseTls         bool   `json:"use_tls,omitempty"`
	TlsPrivKeyPath string `json:"tls_priv_key_path,omitempty"`
	TlsCertPath    string `json:"tls_cert_path,omitempty"`
}

type ServerState struct {
	irmaServerURL string
	decoder       LicenceDecoder
	jwtCreator    JwtCreator // nil when issuance is not configured
	now           func() time.Time
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting server with TLS", "host", s.config.Host, "port", s.config.Port, "cert", s.config.TlsCertPath, "key", s.config.TlsPrivKeyPath)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	} else {
		slog.Info("Starting server without TLS", "host", s.config.Host, "port", s.config.Port)
		return s.server.ListenAndServe()
	}
}

func (s *Server) Stop() error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during server shutdown", "error", err)
	} else {
		slog.Info("Server shut down successfully")
	}
	return err
}

func NewRouter(state *ServerState) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Health check request received")
		err := json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		if err != nil {
			slog.Error("failed to write body to http response", "error", err)
		}
	})

	router.HandleFunc("/api/decode", func(w http.ResponseWriter, r *http.Request) {
		handleDecode(state, w, r)
	})
	router.HandleFunc("/api/issue-driving-licence", func(w http.ResponseWriter, r *http.Request) {
		handleIssueDrivingLicence(state, w, r)
	})
	router.HandleFunc("/api/key-versions", func(w http.ResponseWriter, r *http.Request) {
		handleKeyVersions(state, w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/swagger.json", handleSwagger).Methods(http.MethodGet)

	slog.Debug("Registered all API routes")
	return router
}

func NewServer(state *ServerState, config ServerConfig) (*Server, error) {
	slog.Info("Creating new server", "host", config.Host, "port", config.Port, "tls", config.UseTls)
	if state.decoder == nil {
		return nil, errors.New("server has no licence decoder")
	}
	if state.now == nil {
		state.now = time.Now
	}

	addr := fmt.Sprintf("%v:%v", config.Host, config.Port)
	srv := &http.Server{
		Handler:      NewRouter(state),
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	slog.Info("Server created successfully", "address", addr)
	return &Server{
		server: srv,
		config: config,
	}, nil
}

// @Summary Decode a licence barcode payload
// @Accept json
// @Produce json
// @Param request body models.DecodeRequest true "hex payload"
// @Success 200 {object} models.DecodeResponse
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /api/decode [post]
func handleDecode(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	var request models.DecodeRequest
	if err := decodeJSONBody(w, r, &request); err != nil {
		respondWithErr(w, http.StatusBadRequest, ERR_INVALID_REQUEST, "failed to parse decode request", err)
		return
	}

	version := r.URL.Query().Get("version")
	response, err := state.decoder.Decode(request.Payload, version)
	if err != nil {
		code, body := decodeErrorStatus(err)
		respondWithErr(w, code, body, "failed to decode licence", err)
		return
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}
}

// @Summary List the configured key versions
// @Produce json
// @Success 200 {object} models.KeyVersionsResponse
// @Router /api/key-versions [get]
func handleKeyVersions(state *ServerState, w http.ResponseWriter, _ *http.Request) {
	if err := writeJSON(w, http.StatusOK, state.decoder.KeyVersions()); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

// @Summary Decode a licence and create a Yivi issuance request for it
// @Accept json
// @Produce json
// @Param request body models.IssueLicenceRequest true "hex payload"
// @Success 200 {object} models.IssueLicenceResponse
// @Failure 400 {string} string
// @Failure 503 {string} string
// @Router /api/issue-driving-licence [post]
func handleIssueDrivingLicence(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	if state.jwtCreator == nil {
		respondWithErr(w, http.StatusServiceUnavailable, ERR_ISSUANCE_DISABLED, "issuance requested without jwt creator", nil)
		return
	}

	var request models.IssueLicenceRequest
	if err := decodeJSONBody(w, r, &request); err != nil {
		respondWithErr(w, http.StatusBadRequest, ERR_INVALID_REQUEST, "failed to parse issuance request", err)
		return
	}

	slog.Info("Received request to issue driving licence")
	response, err := state.decoder.Decode(request.Payload, r.URL.Query().Get("version"))
	if err != nil {
		code, body := decodeErrorStatus(err)
		respondWithErr(w, code, body, "failed to decode licence", err)
		return
	}

	photo := ""
	if request.IncludePhoto {
		photo = licencePhoto(response.Record)
	}

	licence, err := document.ToLicenceData(response.Record, photo, state.now())
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ERR_INCOMPLETE_RECORD, "refusing to issue licence", fmt.Errorf("%w: %v", err, response.Defaulted))
		return
	}

	jwt, err := state.jwtCreator.CreateLicenceJwt(licence)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ERR_JWT_CREATION, ERR_JWT_CREATION, err)
		return
	}

	issuance := models.IssueLicenceResponse{
		Jwt:           jwt,
		IrmaServerURL: state.irmaServerURL,
	}
	if err := writeJSON(w, http.StatusOK, issuance); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Driving licence issued successfully", "version", response.Version, "photo", photo != "")
}

func handleSwagger(w http.ResponseWriter, _ *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to read api description", err)
		return
	}
	writeStaticJSON(w, []byte(doc))
}

// licencePhoto returns the licence photo as base64 PNG, or "" when the
// image data cannot be decoded.
func licencePhoto(record *sadl.Record) string {
	if record == nil || len(record.Image) == 0 {
		return ""
	}
	container := images.ImageContainer{
		ImageData: record.Image,
		Width:     record.ImageWidth,
		Height:    record.ImageHeight,
	}
	photo, err := container.ConvertToPNG()
	if err != nil {
		slog.Warn("issuing licence without photo", "error", err, "image_size", len(record.Image))
		return ""
	}
	return photo
}

// decodeErrorStatus maps decode failures to a status code and a short
// response body. Key material problems are server side.
func decodeErrorStatus(err error) (int, string) {
	var invalidInput *blockcrypt.InvalidInputError
	var malformed *sadl.MalformedRecordError
	switch {
	case errors.As(err, &invalidInput):
		return http.StatusBadRequest, ERR_INVALID_PAYLOAD
	case errors.As(err, &malformed):
		return http.StatusBadRequest, ERR_MALFORMED_RECORD
	case errors.Is(err, document.ErrUnknownKeyVersion):
		return http.StatusBadRequest, ERR_UNKNOWN_VERSION
	}
	// blockcrypt.CryptoError lands here
	return http.StatusInternalServerError, ErrorInternal
}

func respondWithErr(w http.ResponseWriter, code int, responseBody string, logMsg string, e error) {
	slog.Error(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(responseBody)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// helpers ------------

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}

func writeStaticJSON(w http.ResponseWriter, b []byte) {
	slog.Debug("Writing static JSON", "size", len(b))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := w.Write(b); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

func closeRequestBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		slog.Error("failed to close request body", "error", err)
	}
}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		slog.Debug("Non-POST request rejected", "method", r.Method, "path", r.URL.Path)
		respondWithErr(w, http.StatusMethodNotAllowed, "method not allowed", "invalid method", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	slog.Debug("Writing JSON response", "status_code", status)
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON payload", "error", err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		slog.Error("failed to write body to http response", "error", err)
	} else {
		slog.Debug("JSON response written successfully", "status_code", status, "payload_size", len(payload))
	}
	return nil
}
