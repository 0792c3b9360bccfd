// Package provider wraps the Bouncify bulk email verification API. Every
// method issues a single best-effort call; retry policy is left to callers.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"mailproof/internal/config"
	"mailproof/internal/utils/logger"
)

// Error carries the provider's raw response for diagnostics
type Error struct {
	StatusCode int
	Body       string
	Op         string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("bouncify %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("bouncify %s: %s", e.Op, e.Body)
}

// CategoryCounts mirrors the per-result buckets Bouncify reports
type CategoryCounts struct {
	Deliverable   int `json:"deliverable"`
	Undeliverable int `json:"undeliverable"`
	AcceptAll     int `json:"accept_all"`
	Unknown       int `json:"unknown"`
}

// JobStatus is the state of a remote bulk job
type JobStatus struct {
	JobID     string         `json:"job_id"`
	Status    string         `json:"status"`
	Verified  int            `json:"verified"`
	Processed int            `json:"processed"`
	Total     int            `json:"total"`
	Results   CategoryCounts `json:"results"`
	CreatedAt string         `json:"created_at"`
}

// Completed reports whether the remote job reached its terminal state
func (s *JobStatus) Completed() bool {
	return s.Status == "completed"
}

// VerifiedEmails returns the best available verified counter
func (s *JobStatus) VerifiedEmails() int {
	if s.Verified > 0 {
		return s.Verified
	}
	return s.Processed
}

// SingleResult is the outcome of a synchronous one-address lookup
type SingleResult struct {
	Email  string          `json:"email"`
	Result string          `json:"result"`
	Raw    json.RawMessage `json:"-"`
}

// ResultFilters returns the download filter set for a category name, or
// all four categories when the filter is empty or unrecognised.
func ResultFilters(filter string) []string {
	switch filter {
	case "deliverable", "undeliverable", "accept_all", "unknown":
		return []string{filter}
	default:
		return []string{"deliverable", "undeliverable", "accept_all", "unknown"}
	}
}

// Bouncify is an HTTP client for the Bouncify v1 API
type Bouncify struct {
	apiKey           string
	verifyEndpoint   string
	bulkEndpoint     string
	downloadEndpoint string
	infoEndpoint     string
	http             *http.Client
	log              *logger.Logger
}

func NewBouncify(cfg config.BouncifyConfig) *Bouncify {
	return &Bouncify{
		apiKey:           cfg.APIKey,
		verifyEndpoint:   cfg.VerifyEndpoint,
		bulkEndpoint:     cfg.BulkEndpoint,
		downloadEndpoint: cfg.DownloadEndpoint,
		infoEndpoint:     cfg.InfoEndpoint,
		http:             &http.Client{Timeout: 5 * time.Minute},
		log:              logger.New("bouncify"),
	}
}

func (b *Bouncify) do(ctx context.Context, op string, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := b.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, &Error{Op: op, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// SubmitBatch uploads raw CSV rows and returns the provider job handle
func (b *Bouncify) SubmitBatch(ctx context.Context, filename string, file io.Reader) (string, json.RawMessage, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("local_file", filename)
	if err != nil {
		return "", nil, &Error{Op: "submit", Body: err.Error()}
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", nil, &Error{Op: "submit", Body: err.Error()}
	}
	if err := form.Close(); err != nil {
		return "", nil, &Error{Op: "submit", Body: err.Error()}
	}

	endpoint := fmt.Sprintf("%s?apikey=%s", b.bulkEndpoint, url.QueryEscape(b.apiKey))
	req, err := http.NewRequest(http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", nil, &Error{Op: "submit", Body: err.Error()}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	body, err := b.do(ctx, "submit", req)
	if err != nil {
		return "", nil, err
	}

	var parsed struct {
		JobID string `json:"job_id"`
		ID    string `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil, &Error{Op: "submit", Body: string(body)}
	}
	jobID := parsed.JobID
	if jobID == "" {
		jobID = parsed.ID
	}
	b.log.Success("Bulk batch submitted, job %s", jobID)
	return jobID, body, nil
}

// StartJob begins processing a previously submitted batch
func (b *Bouncify) StartJob(ctx context.Context, jobID string) (json.RawMessage, error) {
	payload := bytes.NewBufferString(`{"action":"start"}`)
	req, err := http.NewRequest(http.MethodPatch, b.jobURL(jobID), payload)
	if err != nil {
		return nil, &Error{Op: "start", Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := b.do(ctx, "start", req)
	if err != nil {
		return nil, err
	}
	b.log.Success("Bulk verification started for job %s", jobID)
	return body, nil
}

// GetJobStatus fetches the current state of a bulk job
func (b *Bouncify) GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	req, err := http.NewRequest(http.MethodGet, b.jobURL(jobID), nil)
	if err != nil {
		return nil, &Error{Op: "status", Body: err.Error()}
	}

	body, err := b.do(ctx, "status", req)
	if err != nil {
		return nil, err
	}

	status := &JobStatus{}
	if err := json.Unmarshal(body, status); err != nil {
		return nil, &Error{Op: "status", Body: string(body)}
	}
	if status.JobID == "" {
		status.JobID = jobID
	}
	return status, nil
}

// DownloadResults streams the result CSV restricted to the requested
// categories. The caller owns the returned body.
func (b *Bouncify) DownloadResults(ctx context.Context, jobID string, filters []string) (io.ReadCloser, error) {
	payload, err := json.Marshal(map[string][]string{"filterResult": filters})
	if err != nil {
		return nil, &Error{Op: "download", Body: err.Error()}
	}

	endpoint := fmt.Sprintf("%s?jobId=%s&apikey=%s",
		b.downloadEndpoint, url.QueryEscape(jobID), url.QueryEscape(b.apiKey))
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Op: "download", Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, &Error{Op: "download", Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &Error{Op: "download", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}

// DeleteJob removes the remote job and its results
func (b *Bouncify) DeleteJob(ctx context.Context, jobID string) error {
	req, err := http.NewRequest(http.MethodDelete, b.jobURL(jobID), nil)
	if err != nil {
		return &Error{Op: "delete", Body: err.Error()}
	}

	if _, err := b.do(ctx, "delete", req); err != nil {
		return err
	}
	b.log.Success("Remote job %s deleted", jobID)
	return nil
}

// VerifySingle runs a synchronous one-address check
func (b *Bouncify) VerifySingle(ctx context.Context, email string) (*SingleResult, error) {
	endpoint := fmt.Sprintf("%s?apikey=%s&email=%s",
		b.verifyEndpoint, url.QueryEscape(b.apiKey), url.QueryEscape(email))
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Op: "verify", Body: err.Error()}
	}

	body, err := b.do(ctx, "verify", req)
	if err != nil {
		return nil, err
	}

	result := &SingleResult{}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, &Error{Op: "verify", Body: string(body)}
	}
	result.Raw = body
	return result, nil
}

// CreditBalance returns the remaining provider credits for the account
func (b *Bouncify) CreditBalance(ctx context.Context) (int, error) {
	endpoint := fmt.Sprintf("%s?apikey=%s", b.infoEndpoint, url.QueryEscape(b.apiKey))
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, &Error{Op: "info", Body: err.Error()}
	}

	body, err := b.do(ctx, "info", req)
	if err != nil {
		return 0, err
	}

	var parsed struct {
		CreditsInfo struct {
			CreditsRemaining int `json:"credits_remaining"`
		} `json:"credits_info"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, &Error{Op: "info", Body: string(body)}
	}
	return parsed.CreditsInfo.CreditsRemaining, nil
}

func (b *Bouncify) jobURL(jobID string) string {
	return fmt.Sprintf("%s/%s?apikey=%s", b.bulkEndpoint, url.PathEscape(jobID), url.QueryEscape(b.apiKey))
}
