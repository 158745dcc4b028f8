package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/BrandonDHaskell/Janus/internal/janus/scan"
)

// Scanner is the part of scan.Controller the HTTP surface drives.
type Scanner interface {
	Submit(raw string) scan.Admission
	Session() *scan.Session
}

type Dependencies struct {
	Logger    *log.Logger
	Addr      string
	StationID string
	Scanner   Scanner

	// Display serves the websocket feed.  Optional.
	Display http.Handler
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	router     *mux.Router
	stationID  string
	scanner    Scanner
}

func NewServer(d Dependencies) *Server {
	r := mux.NewRouter()

	s := &Server{
		logger:    d.Logger,
		router:    r,
		stationID: d.StationID,
		scanner:   d.Scanner,
	}

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/scan", s.handleScan).Methods(http.MethodPost)
	if d.Display != nil {
		r.Handle("/v1/display", d.Display).Methods(http.MethodGet)
	}
	r.Use(loggingMiddleware(d.Logger))

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type statusResponse struct {
	StationID string `json:"station_id"`
	scan.Snapshot
}

type scanRequest struct {
	Code string `json:"code"`
}

type scanResponse struct {
	Admission scan.Admission `json:"admission"`
	State     scan.State     `json:"state"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		StationID: s.stationID,
		Snapshot:  s.scanner.Session().Snapshot(),
	})
}

// handleScan lets a handheld scanner or a test harness feed a decoded
// code into the station as if the camera had read it.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var code string
	if isProtobuf(r) {
		v, err := readScanProto(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_proto", "invalid protobuf body")
			return
		}
		code = v
	} else {
		var req scanRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
			return
		}
		code = req.Code
	}

	if strings.TrimSpace(code) == "" {
		writeError(w, http.StatusBadRequest, "empty_code", "code must not be empty")
		return
	}

	adm := s.scanner.Submit(code)
	resp := scanResponse{Admission: adm, State: s.scanner.Session().Snapshot().State}

	status := http.StatusAccepted
	switch adm {
	case scan.AdmissionAccepted:
	case scan.AdmissionDropped:
		status = http.StatusConflict
	case scan.AdmissionIgnored:
		status = http.StatusBadRequest
	case scan.AdmissionUnavailable, scan.AdmissionClosed:
		status = http.StatusServiceUnavailable
	default:
		s.logger.Printf("scan: unexpected admission %q", adm)
		status = http.StatusInternalServerError
	}

	if isProtobuf(r) {
		writeScanProto(w, status, resp)
		return
	}
	writeJSON(w, status, resp)
}
