package fakemb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"mountebank-client/models"
)

const (
	codeBadData          = "bad data"
	codeResourceConflict = "resource conflict"
	codeNoSuchResource   = "no such resource"
)

type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSONResponse(logger *slog.Logger, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("failed to write JSON response", "error", err)
		}
	}
}

func writeServiceError(logger *slog.Logger, w http.ResponseWriter, statusCode int, code, message string) {
	writeJSONResponse(logger, w, statusCode, map[string][]serviceError{
		"errors": {{Code: code, Message: message}},
	})
}

// decodeDocument decodes a JSON object keeping numbers exact.
func decodeDocument(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func selfLink(r *http.Request, port int) map[string]any {
	return map[string]any{
		"self": map[string]string{"href": fmt.Sprintf("http://%s/imposters/%d", r.Host, port)},
	}
}

// createImposter handles POST /imposters.
func (s *Service) createImposter(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeServiceError(s.logger, w, http.StatusBadRequest, codeBadData, "unable to read request body")
		return
	}
	imp, err := models.ParseImposter(body)
	if err != nil {
		writeServiceError(s.logger, w, http.StatusBadRequest, codeBadData, err.Error())
		return
	}
	var definition map[string]any
	if err := decodeDocument(body, &definition); err != nil {
		writeServiceError(s.logger, w, http.StatusBadRequest, codeBadData, "invalid JSON")
		return
	}

	if err := s.repo.Create(imp.Port(), definition); err != nil {
		writeServiceError(s.logger, w, http.StatusBadRequest, codeResourceConflict, err.Error())
		return
	}
	s.logger.Info("imposter created", "port", imp.Port(), "protocol", imp.Protocol())
	s.writeImposter(w, r, http.StatusCreated, imp.Port(), false)
}

// listImposters handles GET /imposters.
func (s *Service) listImposters(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(s.logger, w, http.StatusOK, map[string]any{"imposters": s.repo.List()})
}

// deleteAllImposters handles DELETE /imposters.
func (s *Service) deleteAllImposters(w http.ResponseWriter, r *http.Request) {
	removed := s.repo.DeleteAll()
	s.logger.Info("all imposters deleted", "count", len(removed))
	writeJSONResponse(s.logger, w, http.StatusOK, map[string]any{"imposters": removed})
}

// getImposter handles GET /imposters/{port}.
func (s *Service) getImposter(w http.ResponseWriter, r *http.Request, port int) {
	replayable, _ := strconv.ParseBool(r.URL.Query().Get("replayable"))
	s.writeImposter(w, r, http.StatusOK, port, replayable)
}

func (s *Service) writeImposter(w http.ResponseWriter, r *http.Request, status, port int, replayable bool) {
	definition, requests, err := s.repo.Read(port)
	if err != nil {
		writeServiceError(s.logger, w, http.StatusNotFound, codeNoSuchResource, err.Error())
		return
	}
	if !replayable {
		definition["numberOfRequests"] = len(requests)
		definition["requests"] = requests
		definition["_links"] = selfLink(r, port)
	}
	writeJSONResponse(s.logger, w, status, definition)
}

// deleteImposter handles DELETE /imposters/{port}. Deleting an unknown port
// succeeds with an empty object.
func (s *Service) deleteImposter(w http.ResponseWriter, r *http.Request, port int) {
	definition, found := s.repo.Delete(port)
	if !found {
		writeJSONResponse(s.logger, w, http.StatusOK, map[string]any{})
		return
	}
	s.logger.Info("imposter deleted", "port", port)
	writeJSONResponse(s.logger, w, http.StatusOK, definition)
}

// addStub handles POST /imposters/{port}/stubs.
func (s *Service) addStub(w http.ResponseWriter, r *http.Request, port int) {
	var req struct {
		Index *int `json:"index"`
		Stub  any  `json:"stub"`
	}
	body, _ := io.ReadAll(r.Body)
	if err := decodeDocument(body, &req); err != nil || req.Stub == nil {
		writeServiceError(s.logger, w, http.StatusBadRequest, codeBadData, "must contain a stub")
		return
	}
	if err := s.repo.AddStub(port, req.Index, req.Stub); err != nil {
		s.writeRepoError(w, err)
		return
	}
	s.writeImposter(w, r, http.StatusOK, port, false)
}

// replaceStubs handles PUT /imposters/{port}/stubs.
func (s *Service) replaceStubs(w http.ResponseWriter, r *http.Request, port int) {
	var req struct {
		Stubs []any `json:"stubs"`
	}
	body, _ := io.ReadAll(r.Body)
	if err := decodeDocument(body, &req); err != nil {
		writeServiceError(s.logger, w, http.StatusBadRequest, codeBadData, "must contain a stubs array")
		return
	}
	if err := s.repo.ReplaceStubs(port, req.Stubs); err != nil {
		s.writeRepoError(w, err)
		return
	}
	s.writeImposter(w, r, http.StatusOK, port, false)
}

// deleteSavedRequests handles DELETE /imposters/{port}/savedRequests.
func (s *Service) deleteSavedRequests(w http.ResponseWriter, r *http.Request, port int) {
	if err := s.repo.ClearRequests(port); err != nil {
		s.writeRepoError(w, err)
		return
	}
	s.writeImposter(w, r, http.StatusOK, port, false)
}

// deleteSavedProxyResponses handles DELETE /imposters/{port}/savedProxyResponses.
// Proxies never run here, so there is nothing recorded to drop.
func (s *Service) deleteSavedProxyResponses(w http.ResponseWriter, r *http.Request, port int) {
	s.writeImposter(w, r, http.StatusOK, port, false)
}

func (s *Service) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoSuchPort):
		writeServiceError(s.logger, w, http.StatusNotFound, codeNoSuchResource, err.Error())
	default:
		writeServiceError(s.logger, w, http.StatusBadRequest, codeBadData, err.Error())
	}
}

// initAdminRoutes registers the admin API on mux.
func (s *Service) initAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/imposters", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.listImposters(w, r)
		case http.MethodPost:
			s.createImposter(w, r)
		case http.MethodDelete:
			s.deleteAllImposters(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/imposters/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/imposters/"), "/")
		port, err := strconv.Atoi(parts[0])
		if err != nil {
			writeServiceError(s.logger, w, http.StatusBadRequest, codeBadData, fmt.Sprintf("invalid port %q", parts[0]))
			return
		}

		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			s.getImposter(w, r, port)
		case len(parts) == 1 && r.Method == http.MethodDelete:
			s.deleteImposter(w, r, port)
		case len(parts) == 2 && parts[1] == "stubs" && r.Method == http.MethodPost:
			s.addStub(w, r, port)
		case len(parts) == 2 && parts[1] == "stubs" && r.Method == http.MethodPut:
			s.replaceStubs(w, r, port)
		case len(parts) == 2 && parts[1] == "savedRequests" && r.Method == http.MethodDelete:
			s.deleteSavedRequests(w, r, port)
		case len(parts) == 2 && parts[1] == "savedProxyResponses" && r.Method == http.MethodDelete:
			s.deleteSavedProxyResponses(w, r, port)
		default:
			http.NotFound(w, r)
		}
	})
}
