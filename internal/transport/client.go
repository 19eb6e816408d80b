// Package transport carries a batch to the extraction pipeline as a
// single multipart request and decodes the structured JSON envelope
// the pipeline answers with.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JustHarshit/Citypulse/internal/common"
	"github.com/JustHarshit/Citypulse/internal/dataset"
	"github.com/JustHarshit/Citypulse/internal/intake"
)

// FileResult is one per-file entry of the response envelope.
type FileResult struct {
	Filename     string `json:"filename"`
	DocumentKind string `json:"document_kind,omitempty"`
	RecordCount  int    `json:"record_count,omitempty"`
	Error        string `json:"error,omitempty"`
	ProcessedAt  string `json:"processed_at,omitempty"`
}

// UploadResponse is the pipeline's response envelope.
type UploadResponse struct {
	Success        bool                    `json:"success"`
	ProcessedCount int                     `json:"processed_count"`
	Results        []FileResult            `json:"results"`
	Records        []dataset.TrafficRecord `json:"records,omitempty"`
	Error          string                  `json:"error,omitempty"`
}

// Client issues multipart uploads against the pipeline's HTTP surface.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 45 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient, Logger: logger}
}

// Upload sends the batch as one multipart request, one part per file
// in batch order, and returns the decoded envelope. The request ID is
// taken from ctx when the caller stamped one, otherwise generated
// here. ack, when non-nil, fires once the server has answered the
// request, before the body is read or validated. Unreachable server,
// truncated body, non-2xx status, and schema-invalid bodies all come
// back as errors wrapping common.ErrTransport.
func (c *Client) Upload(ctx context.Context, files []intake.FileCandidate, ack func()) (*UploadResponse, error) {
	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("create part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", &body)
	if err != nil {
		c.Logger.Error("transport.build_request_error", "req_id", reqID, "error", err)
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Request-ID", reqID)

	c.Logger.Info("transport.request",
		"req_id", reqID,
		"url", req.URL.String(),
		"files", len(files),
		"content_length", body.Len(),
	)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.Error("transport.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.NewAppError("UNREACHABLE", "pipeline unreachable", common.ErrTransport)
	}
	defer func(b io.ReadCloser) {
		if err := b.Close(); err != nil {
			c.Logger.Warn("transport.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	if ack != nil {
		ack()
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Logger.Error("transport.read_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.NewAppError("READ_FAILED", "reading response body", common.ErrTransport)
	}

	c.Logger.Info("transport.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, common.NewAppError("BAD_STATUS", fmt.Sprintf("non-2xx status: %d", resp.StatusCode), common.ErrTransport)
	}
	if err := ValidateJSONAgainstSchema(BuildUploadResponseSchema(), raw); err != nil {
		c.Logger.Warn("transport.malformed_response", "req_id", reqID, "error", err)
		return nil, common.NewAppError("MALFORMED_RESPONSE", "response failed schema validation", common.ErrTransport)
	}

	var out UploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, common.NewAppError("MALFORMED_RESPONSE", "response is not valid json", common.ErrTransport)
	}
	return &out, nil
}
