// Package servicetest is an in-memory fake of the conversion service for
// tests. Its behavior is scripted by the uploaded file name: names starting
// with "ERRR" fail during processing, everything else completes after two
// running progress reports.
package servicetest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/amonks/fileconverter/api"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// FailurePrefix marks file names whose conversion fails.
const FailurePrefix = "ERRR"

// FailureMessage is the error_message reported for failing conversions.
const FailureMessage = "Invalid PDF structure"

// Steps are the step labels reported while converting.
var Steps = []string{
	"Initializing conversion process",
	"Converting PDF to high-quality images",
	"Segmenting images into form sections",
	"Extracting form code from file name",
	"Processing individual form sections",
	"Writing structured JSON data",
	"Generating final AF package",
}

// Server is the fake service state.
type Server struct {
	mu       sync.Mutex
	config   *api.SaveConfigRequest
	sessions map[string]*session
	files    map[string][]byte
	stats    api.GlobalStats
	nextID   int
	requests []string
}

type session struct {
	id       string
	filename string
	data     []byte
	status   string
	polls    int
	result   api.FileResult
	errorMsg string
}

// New creates an empty fake with no stored configuration.
func New() *Server {
	return &Server{
		sessions: make(map[string]*session),
		files:    make(map[string][]byte),
	}
}

// Handler returns the HTTP routes of the fake.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Post("/config", s.handleSaveConfig)
		r.Post("/upload", s.handleUpload)
		r.Post("/process/{sessionID}", s.handleProcess)
		r.Get("/progress/{sessionID}", s.handleProgress)
		r.Get("/results/{sessionID}", s.handleResults)
		r.Get("/download/*", s.handleDownload)
	})
	return r
}

// SetConfig stores a configuration as if it had been saved by a client.
func (s *Server) SetConfig(config api.SaveConfigRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = &config
}

// Config returns the stored configuration, if any.
func (s *Server) Config() (api.SaveConfigRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		return api.SaveConfigRequest{}, false
	}
	return *s.config, true
}

// AddFile makes data downloadable at /api/download/<name>.
func (s *Server) AddFile(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), data...)
}

// Uploaded returns the bytes received for a session.
func (s *Server) Uploaded(sessionID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), sess.data...), true
}

// Requests returns "METHOD /path" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	response := api.ConfigStatus{}
	if s.config != nil {
		response.ConfigExists = true
		response.SecretsExists = true
		response.Config = api.PackagerConfig{PackagerMode: s.config.PackagerMode}
		response.Secrets = api.Secrets{
			TNumber:    s.config.TNumber,
			APIKey:     s.config.APIKey,
			Endpoint:   s.config.Endpoint,
			ModelName:  s.config.ModelName,
			APIVersion: s.config.APIVersion,
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var request api.SaveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if request.PackagerMode == "" {
		request.PackagerMode = "sandbox"
	}
	s.SetConfig(request)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Configuration saved successfully"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "No files provided")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files provided")
		return
	}
	if len(headers) != 1 || r.FormValue("mode") != api.ModeSingle {
		writeError(w, http.StatusBadRequest, "Only single-file uploads are supported")
		return
	}

	header := headers[0]
	name := path.Base(header.Filename)
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		writeError(w, http.StatusBadRequest, "Invalid file type: "+name)
		return
	}
	file, err := header.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "No files selected")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No files selected")
		return
	}

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("session-%d", s.nextID)
	s.sessions[id] = &session{id: id, filename: name, data: data, status: api.StatusPending}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.UploadResponse{SessionID: id, Files: []string{name}, Mode: api.ModeSingle})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chi.URLParam(r, "sessionID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if sess.status != api.StatusPending {
		writeError(w, http.StatusBadRequest, "Session already processed or in progress")
		return
	}
	sess.status = api.StatusProcessing
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Processing started"})
}

// handleProgress advances the scripted conversion by one step per request.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chi.URLParam(r, "sessionID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	progress := api.Progress{
		SessionID:   sess.id,
		Status:      sess.status,
		Steps:       Steps,
		CurrentFile: sess.filename,
	}
	if sess.status == api.StatusPending {
		writeJSON(w, http.StatusOK, progress)
		return
	}

	if sess.status == api.StatusProcessing {
		sess.polls++
		switch {
		case strings.HasPrefix(sess.filename, FailurePrefix) && sess.polls >= 2:
			sess.status = api.StatusError
			sess.errorMsg = FailureMessage
		case sess.polls >= 3:
			s.complete(sess)
		}
	}

	progress.Status = sess.status
	progress.ElapsedTime = float64(sess.polls * 3)
	switch sess.status {
	case api.StatusCompleted:
		progress.Progress = 100
		progress.CurrentStep = len(Steps) - 1
		progress.Results = []api.FileResult{sess.result}
		stats := s.stats
		progress.GlobalStats = &stats
	case api.StatusError:
		progress.Progress = 30
		progress.CurrentStep = 2
		progress.ErrorMessage = sess.errorMsg
	default:
		progress.Status = api.StatusRunning
		progress.Progress = float64(40 * sess.polls)
		progress.CurrentStep = min(sess.polls*2, len(Steps)-1)
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) complete(sess *session) {
	stem := strings.TrimSuffix(sess.filename, path.Ext(sess.filename))
	pages := max(bytes.Count(sess.data, []byte("/Type /Page /")), 1)
	formCode := strings.ToUpper(stem[:min(4, len(stem))])

	sess.status = api.StatusCompleted
	sess.result = api.FileResult{
		Filename:    sess.filename,
		FormCode:    formCode,
		PageCount:   pages,
		NumSections: pages * 2,
		TotalTokens: pages * 1000,
		TotalCost:   float64(pages) * 0.05,
		PackageName: strings.ToLower(formCode) + "_package",
		JSONFile:    stem + ".json",
		Status:      "success",
	}

	s.stats.TotalTokens += sess.result.TotalTokens
	s.stats.TotalCost += sess.result.TotalCost
	s.stats.TotalPages += sess.result.PageCount
	s.stats.TotalSections += sess.result.NumSections

	document, _ := json.MarshalIndent(map[string]any{
		"form_code": formCode,
		"sections":  sess.result.NumSections,
	}, "", "  ")
	s.files["json_outputs/"+sess.result.JSONFile] = document
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[chi.URLParam(r, "sessionID")]
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if sess.status != api.StatusCompleted {
		writeError(w, http.StatusBadRequest, "Session not completed yet")
		return
	}
	stats := s.stats
	writeJSON(w, http.StatusOK, api.Results{
		SessionID:   sess.id,
		Results:     []api.FileResult{sess.result},
		GlobalStats: &stats,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	s.mu.Lock()
	data, ok := s.files[name]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(name)))
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
