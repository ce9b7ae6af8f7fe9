package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client talks to the four backend endpoints. It classifies every outcome
// into a typed error; callers never see a raw transport or decode error.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// ListDatasets performs the authenticated listing. It doubles as the login
// probe: a 401/403 here means the credential is bad.
func (c *Client) ListDatasets(ctx context.Context, cred Credential) ([]Dataset, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/datasets/", &cred, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailure, Detail: err.Error()}
	}

	// The listing must be a JSON array; anything else (an HTML error page,
	// a paginated envelope) is a shape mismatch, not a success.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &Error{Kind: KindMalformedResponse, Status: resp.StatusCode}
	}

	var datasets []Dataset
	if err := json.Unmarshal(trimmed, &datasets); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Status: resp.StatusCode, Detail: err.Error()}
	}
	return datasets, nil
}

// Register creates an account. A 4xx with field messages becomes a
// *ValidationError so the form can show them next to the field.
func (c *Client) Register(ctx context.Context, cred Credential) error {
	payload, err := json.Marshal(map[string]string{
		"username": cred.Username,
		"password": cred.Password,
	})
	if err != nil {
		return &Error{Kind: KindNetworkFailure, Detail: err.Error()}
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/register/", nil, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusCreated {
		return nil
	}
	if resp.StatusCode >= 500 {
		return &Error{Kind: KindServerError, Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		var fields map[string][]string
		if err := json.Unmarshal(body, &fields); err == nil {
			if msgs, ok := fields["username"]; ok && len(msgs) > 0 {
				return &ValidationError{Field: "username", Messages: msgs}
			}
			for field, msgs := range fields {
				if len(msgs) > 0 {
					return &ValidationError{Field: field, Messages: msgs}
				}
			}
		}
		return &ValidationError{}
	}
	return &Error{Kind: KindMalformedResponse, Status: resp.StatusCode}
}

// Upload submits a CSV as the multipart field "file".
func (c *Client) Upload(ctx context.Context, cred Credential, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return &Error{Kind: KindNetworkFailure, Detail: err.Error()}
	}
	if _, err := io.Copy(part, r); err != nil {
		return &Error{Kind: KindNetworkFailure, Detail: err.Error()}
	}
	if err := mw.Close(); err != nil {
		return &Error{Kind: KindNetworkFailure, Detail: err.Error()}
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/upload/", &cred, mw.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}
	// A non-auth 4xx carries the backend's reason, e.g. an unreadable CSV.
	body, _ := io.ReadAll(resp.Body)
	return &Error{Kind: KindRejected, Status: resp.StatusCode, Detail: detailMessage(body)}
}

// FetchPDF retrieves the report bytes for one dataset.
func (c *Client) FetchPDF(ctx context.Context, cred Credential, id int) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/datasets/%d/pdf/", id), &cred, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &Error{Kind: KindNetworkFailure, Detail: err.Error()}
		}
		if len(data) == 0 {
			return nil, &Error{Kind: KindMalformedResponse, Status: resp.StatusCode}
		}
		return data, nil
	}
	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	body, _ := io.ReadAll(resp.Body)
	return nil, &Error{Kind: KindRejected, Status: resp.StatusCode, Detail: detailMessage(body)}
}

func (c *Client) do(ctx context.Context, method, endpoint string, cred *Credential, contentType string, body io.Reader) (*http.Response, error) {
	target, err := url.JoinPath(c.BaseURL, endpoint)
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailure, Detail: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailure, Detail: err.Error()}
	}
	if cred != nil {
		req.SetBasicAuth(cred.Username, cred.Password)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	reqID := uuid.NewString()
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("request_id", reqID),
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, &Error{Kind: KindNetworkFailure, Detail: err.Error()}
	}
	c.log.Info("request",
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// classifyStatus maps auth and server failures; other statuses are the
// caller's to interpret per endpoint.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindUnauthorized, Status: status}
	case status >= 500:
		return &Error{Kind: KindServerError, Status: status}
	}
	return nil
}

func detailMessage(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return ""
}
