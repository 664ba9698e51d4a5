package summarizeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/yanqian/multimodal-summarizer/internal/domain/form"
)

// DefaultBaseURL is where the summarize endpoint listens unless configured otherwise.
const DefaultBaseURL = "http://localhost:8000"

const (
	summarizePath = "/summarize"
	healthPath    = "/health"
	errBodyLimit  = 4 << 10
)

// Client talks to the remote summarize endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an endpoint client. A nil httpClient gets a fresh client with
// no timeout; requests are bounded only by the caller's context.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(url, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the normalized endpoint address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Summarize posts the file and prompt as multipart form data and parses the summary.
func (c *Client) Summarize(ctx context.Context, sub form.Submission) (form.Result, error) {
	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return form.Result{}, fmt.Errorf("encode summarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+summarizePath, body)
	if err != nil {
		return form.Result{}, fmt.Errorf("build summarize request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return form.Result{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return form.Result{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return form.Result{}, &TransportError{Err: fmt.Errorf("read summarize response: %w", err)}
	}
	return parseResponse(raw)
}

// Health probes GET /health and expects {"status":"ok"}.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, errBodyLimit)).Decode(&out); err != nil {
		return &MalformedResponseError{Reason: "health body is not JSON", Err: err}
	}
	if out.Status != "ok" {
		return fmt.Errorf("summarize endpoint unhealthy: status=%q", out.Status)
	}
	return nil
}

// parseResponse accepts only a JSON object whose summary field is a string.
func parseResponse(raw []byte) (form.Result, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return form.Result{}, &MalformedResponseError{Reason: "body is not a JSON object", Err: err}
	}
	field, ok := envelope["summary"]
	if !ok || bytes.Equal(bytes.TrimSpace(field), []byte("null")) {
		return form.Result{}, &MalformedResponseError{Reason: "missing summary field"}
	}
	var summary string
	if err := json.Unmarshal(field, &summary); err != nil {
		return form.Result{}, &MalformedResponseError{Reason: "summary is not a string", Err: err}
	}
	return form.Result{Summary: summary}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeSubmission(sub form.Submission) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(fileName(sub.File))))
	header.Set("Content-Type", mimeType(sub.File))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(sub.File.Content); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("prompt", sub.Prompt); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

func fileName(f form.SelectedFile) string {
	if name := strings.TrimSpace(f.Name); name != "" {
		return name
	}
	return "blob"
}

func mimeType(f form.SelectedFile) string {
	if f.MimeType != "" {
		return f.MimeType
	}
	return "application/octet-stream"
}

var _ form.Submitter = (*Client)(nil)
