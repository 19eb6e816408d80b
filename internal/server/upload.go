package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/JustHarshit/Citypulse/internal/dataset"
	"github.com/JustHarshit/Citypulse/internal/transport"
)

// handleUpload accepts the batch as one multipart request (field
// "files", one part per file, order preserved) and answers with the
// structured envelope. Per-file failures are a normal successful
// response; only an unreadable request is a transport-level failure.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	reqID := chimiddleware.GetReqID(r.Context())

	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "expected multipart request",
		})
		return
	}

	resp := transport.UploadResponse{Success: true, Results: []transport.FileResult{}}
	var records []dataset.TrafficRecord
	files := 0

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   fmt.Sprintf("reading multipart body: %v", err),
			})
			return
		}
		if part.FormName() != "files" || part.FileName() == "" {
			continue
		}
		name := part.FileName()
		files++

		data, err := io.ReadAll(io.LimitReader(part, s.maxBytes+1))
		_ = part.Close()
		if err != nil {
			resp.Results = append(resp.Results, errResult(name, fmt.Sprintf("reading file: %v", err)))
			continue
		}
		if int64(len(data)) > s.maxBytes {
			resp.Results = append(resp.Results, errResult(name, "file exceeds size limit"))
			continue
		}

		res, recs := s.proc.ProcessFile(r.Context(), name, data)
		fr := transport.FileResult{
			Filename:     res.Filename,
			DocumentKind: string(res.DocumentKind),
			RecordCount:  res.RecordCount,
			ProcessedAt:  res.CompletedAt.Format(time.RFC3339),
		}
		if res.Outcome == dataset.OutcomeError {
			fr.Error = res.ErrorDetail
			fr.RecordCount = 0
		} else {
			records = append(records, recs...)
		}
		resp.Results = append(resp.Results, fr)
	}

	if files == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "no files provided",
		})
		return
	}

	resp.ProcessedCount = len(resp.Results)
	resp.Records = records
	s.logger.Info("server.upload.ok",
		"req_id", reqID,
		"files", files,
		"records", len(records),
	)
	writeJSON(w, http.StatusOK, resp)
}

func errResult(name, detail string) transport.FileResult {
	return transport.FileResult{
		Filename:    name,
		Error:       detail,
		ProcessedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
