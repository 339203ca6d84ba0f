// ABOUTME: HTTP handlers for accounts, record CRUD, statistics and exports.
// ABOUTME: Each authenticated handler acts only on the caller's own records.
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/harperreed/medrec/internal/analysis"
	"github.com/harperreed/medrec/internal/export"
)

const recordNotFound = "Record not found or unauthorized"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "", "Error creating user")
		return
	}

	if _, err := s.auth.Register(req.Username, req.Password); err != nil {
		s.writeError(w, r, err, "", "Error creating user")
		return
	}
	writeMessage(w, http.StatusOK, "User created successfully")
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, "", "Server error")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username and password required")
		return
	}

	token, u, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err, "", "Server error")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Username: u.Username})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	list, err := s.records.List(currentUser(r).ID, r.URL.Query().Get("search"))
	if err != nil {
		s.writeError(w, r, err, recordNotFound, "Error fetching records")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, "", "")
		return
	}

	rec, err := s.records.Get(currentUser(r).ID, id)
	if err != nil {
		s.writeError(w, r, err, "Record not found", "Error fetching record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type createdResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeRecord(w, r)
	if err != nil {
		s.writeError(w, r, err, "", "Error creating record")
		return
	}

	rec, err := s.records.Create(currentUser(r).ID, fields)
	if err != nil {
		s.writeError(w, r, err, "", "Error creating record")
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: rec.ID, Message: "Record created successfully"})
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, "", "")
		return
	}
	fields, err := decodeRecord(w, r)
	if err != nil {
		s.writeError(w, r, err, "", "Error updating record")
		return
	}

	if _, err := s.records.Update(currentUser(r).ID, id, fields); err != nil {
		s.writeError(w, r, err, recordNotFound, "Error updating record")
		return
	}
	writeMessage(w, http.StatusOK, "Record updated successfully")
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, "", "")
		return
	}

	if err := s.records.Delete(currentUser(r).ID, id); err != nil {
		s.writeError(w, r, err, recordNotFound, "Error deleting record")
		return
	}
	writeMessage(w, http.StatusOK, "Record deleted successfully")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.records.Snapshot(currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err, "", "Error fetching statistics")
		return
	}
	writeJSON(w, http.StatusOK, analysis.ComputeStats(snapshot))
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.records.Snapshot(currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err, "", "Error fetching analysis")
		return
	}
	writeJSON(w, http.StatusOK, analysis.ComputeAnalysis(snapshot))
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, "", "")
		return
	}

	rec, err := s.records.Get(currentUser(r).ID, id)
	if err != nil {
		s.writeError(w, r, err, "Record not found", "Error fetching record")
		return
	}

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, rec, s.now()); err != nil {
		s.serverError(w, r, "Error generating PDF", err)
		return
	}
	attach(w, "application/pdf", export.PDFFileName(rec))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.records.Snapshot(currentUser(r).ID)
	if err != nil {
		s.writeError(w, r, err, "", "Error exporting records")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, snapshot); err != nil {
		s.serverError(w, r, "Error exporting records", err)
		return
	}
	attach(w, "text/csv", export.CSVFileName)
	_, _ = w.Write(buf.Bytes())
}

func attach(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
}
