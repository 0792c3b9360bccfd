package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailproof/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Bouncify {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBouncify(config.BouncifyConfig{
		APIKey:           "test-key",
		VerifyEndpoint:   srv.URL + "/v1/verify",
		BulkEndpoint:     srv.URL + "/v1/bulk",
		DownloadEndpoint: srv.URL + "/v1/download",
		InfoEndpoint:     srv.URL + "/v1/info",
	})
}

func TestBouncify_SubmitBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		file, header, err := r.FormFile("local_file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "contacts.csv", header.Filename)

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Contains(t, string(content), "alice@example.com")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"job_id":  "job-42",
		})
	})

	jobID, raw, err := client.SubmitBatch(context.Background(), "contacts.csv",
		strings.NewReader("email\nalice@example.com\n"))
	require.NoError(t, err)
	assert.Equal(t, "job-42", jobID)
	assert.Contains(t, string(raw), "job-42")
}

func TestBouncify_SubmitBatch_FallsBackToID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "job-alt"})
	})

	jobID, _, err := client.SubmitBatch(context.Background(), "c.csv", strings.NewReader("email\n"))
	require.NoError(t, err)
	assert.Equal(t, "job-alt", jobID)
}

func TestBouncify_StartJob(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/bulk/job-42", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"action":"start"}`, string(body))

		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})

	ack, err := client.StartJob(context.Background(), "job-42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(ack))
}

func TestBouncify_GetJobStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "completed",
			"verified": 118,
			"total":    120,
			"results": map[string]int{
				"deliverable":   90,
				"undeliverable": 20,
				"accept_all":    5,
				"unknown":       3,
			},
		})
	})

	status, err := client.GetJobStatus(context.Background(), "job-42")
	require.NoError(t, err)
	assert.True(t, status.Completed())
	// Missing job_id in the payload falls back to the requested id.
	assert.Equal(t, "job-42", status.JobID)
	assert.Equal(t, 118, status.VerifiedEmails())
	assert.Equal(t, 90, status.Results.Deliverable)
}

func TestBouncify_DownloadResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "job-42", r.URL.Query().Get("jobId"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"filterResult":["deliverable"]}`, string(body))

		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "email,result\nalice@example.com,deliverable\n")
	})

	reader, err := client.DownloadResults(context.Background(), "job-42", []string{"deliverable"})
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Contains(t, string(content), "alice@example.com")
}

func TestBouncify_DeleteJob(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v1/bulk/job-42", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})

	require.NoError(t, client.DeleteJob(context.Background(), "job-42"))
}

func TestBouncify_VerifySingle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice@example.com", r.URL.Query().Get("email"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"email":  "alice@example.com",
			"result": "deliverable",
			"reason": "accepted_email",
		})
	})

	result, err := client.VerifySingle(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "deliverable", result.Result)
	assert.Contains(t, string(result.Raw), "accepted_email")
}

func TestBouncify_CreditBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"credits_info": map[string]int{"credits_remaining": 9000},
		})
	})

	remaining, err := client.CreditBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9000, remaining)
}

func TestBouncify_ErrorCarriesStatusAndBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		io.WriteString(w, `{"message":"insufficient credits"}`)
	})

	_, err := client.GetJobStatus(context.Background(), "job-42")
	require.Error(t, err)

	var provErr *Error
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusPaymentRequired, provErr.StatusCode)
	assert.Contains(t, provErr.Body, "insufficient credits")
	assert.Contains(t, provErr.Error(), "status 402")
}

func TestResultFilters(t *testing.T) {
	assert.Equal(t, []string{"undeliverable"}, ResultFilters("undeliverable"))
	assert.Equal(t,
		[]string{"deliverable", "undeliverable", "accept_all", "unknown"},
		ResultFilters(""))
	assert.Equal(t,
		[]string{"deliverable", "undeliverable", "accept_all", "unknown"},
		ResultFilters("bogus"))
}
