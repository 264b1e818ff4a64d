// Package crmapi is the typed client for the external CRM HTTP API the
// console is built on. It owns the wire shapes; everything above it works
// with the normalized types from internal/models.
package crmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eduvision/internal/models"
)

const (
	pathCenters  = "/api/pb/lc"
	pathLogin    = "/api/login"
	pathRegister = "/api/pb/reg"
	pathStaff    = "/api/pb/user_staff"

	statusOK = "ok"

	maxBodySize = 4 << 20
)

// Operation names reported to the Recorder.
const (
	OpListCenters    = "list_centers"
	OpLogin          = "login"
	OpRegisterCenter = "register_center"
	OpListStaff      = "list_staff"
)

// Call outcomes reported to the Recorder.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport"
)

// ErrTransport marks requests that never produced a usable response.
var ErrTransport = errors.New("crmapi: transport failure")

// APIError is a request the server answered but rejected: a non-2xx status,
// or a 2xx login whose body does not report success.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("crmapi: server rejected request (status %d)", e.Status)
	}
	return fmt.Sprintf("crmapi: server rejected request (status %d): %s", e.Status, e.Detail)
}

// Recorder receives one observation per call.
type Recorder interface {
	ObserveCall(operation, outcome string, elapsed time.Duration)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every call. Zero keeps calls unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// Client talks to the CRM API rooted at baseURL. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	recorder   Recorder
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCenters fetches GET /api/pb/lc.
func (c *Client) ListCenters(ctx context.Context) ([]models.Center, error) {
	records, err := c.list(ctx, OpListCenters, pathCenters)
	if err != nil {
		return nil, err
	}
	return models.CentersFromRecords(records), nil
}

// ListStaff fetches the staff of one center, filtered server-side by lc_id.
func (c *Client) ListStaff(ctx context.Context, centerID string) ([]models.StaffMember, error) {
	query := url.Values{"filters": {"lc_id:eq:" + centerID}}
	records, err := c.list(ctx, OpListStaff, pathStaff+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	return models.StaffFromRecords(records), nil
}

// Login posts the credentials as given; callers normalize the email.
// A 2xx answer only counts when the body carries status "ok".
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	start := time.Now()
	status, body, err := c.do(ctx, http.MethodPost, pathLogin, creds)
	if err != nil {
		c.observe(OpLogin, OutcomeTransport, start)
		return models.Session{}, err
	}
	if !isSuccess(status) {
		c.observe(OpLogin, OutcomeRejected, start)
		return models.Session{}, &APIError{Status: status, Detail: detailFrom(body)}
	}

	var payload models.Record
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		c.observe(OpLogin, OutcomeTransport, start)
		return models.Session{}, fmt.Errorf("%w: decode login response: %v", ErrTransport, err)
	}
	if payload.String("status") != statusOK {
		c.observe(OpLogin, OutcomeRejected, start)
		return models.Session{}, &APIError{Status: status, Detail: detailFrom(body)}
	}

	c.observe(OpLogin, OutcomeOK, start)
	return models.SessionFromLogin(payload), nil
}

// RegisterCenter posts a registration request. The response body is ignored
// beyond the status check.
func (c *Client) RegisterCenter(ctx context.Context, req models.RegistrationRequest) error {
	start := time.Now()
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	status, body, err := c.do(ctx, http.MethodPost, pathRegister, req)
	if err != nil {
		c.observe(OpRegisterCenter, OutcomeTransport, start)
		return err
	}
	if !isSuccess(status) {
		c.observe(OpRegisterCenter, OutcomeRejected, start)
		return &APIError{Status: status, Detail: detailFrom(body)}
	}
	c.observe(OpRegisterCenter, OutcomeOK, start)
	return nil
}

func (c *Client) list(ctx context.Context, op, path string) ([]models.Record, error) {
	start := time.Now()
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		c.observe(op, OutcomeTransport, start)
		return nil, err
	}
	if !isSuccess(status) {
		c.observe(op, OutcomeRejected, start)
		return nil, &APIError{Status: status, Detail: detailFrom(body)}
	}
	records, err := models.DecodeItems(body)
	if err != nil {
		c.observe(op, OutcomeTransport, start)
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	c.observe(op, OutcomeOK, start)
	return records, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("crmapi: encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("crmapi: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read %s %s: %v", ErrTransport, method, path, err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) observe(op, outcome string, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveCall(op, outcome, time.Since(start))
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// detailFrom pulls the human readable reason out of an error body.
func detailFrom(body []byte) string {
	var payload models.Record
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message", "error"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
