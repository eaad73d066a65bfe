package farm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/infrasmoke/internal/telemetry"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultRetryBudget = 60 * time.Second
	defaultRetryDelay  = 10 * time.Second
)

// Operation labels used for metrics.
const (
	OpHeadDataCenters = "head_dc"
	OpGetDataCenters  = "get_dc"
	OpGetGroups       = "get_groups"
	OpCreateGroup     = "create_group"
	OpDeleteGroup     = "delete_group"
	OpUploadFile      = "upload_file"
	OpCreateVM        = "create_vm"
	OpMountDrives     = "mount_usb_drives"
	OpStartVM         = "start_vm"
	OpHeadURL         = "head_url"
)

// Client is a minimal Farm API client.
// Every method performs a single round-trip; retries are layered on top
// with CallWithRetry.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	metrics     *telemetry.Metrics
	logger      logr.Logger
	retryBudget time.Duration
	retryDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records every round-trip into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRetry sets the default retry budget and the fixed delay between attempts.
func WithRetry(budget, delay time.Duration) Option {
	return func(c *Client) {
		c.retryBudget = budget
		c.retryDelay = delay
	}
}

// NewClient creates a new Farm API client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
		logger:      logr.Discard(),
		retryBudget: defaultRetryBudget,
		retryDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the Farm base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ConsoleURL returns the web console link of a VM.
func (c *Client) ConsoleURL(group, vm string) string {
	return fmt.Sprintf("%s/group/%s/vm/%s/console", c.baseURL, url.PathEscape(group), url.PathEscape(vm))
}

// HeadDataCenters issues HEAD /dc, the Farm health check.
func (c *Client) HeadDataCenters(ctx context.Context) (*Response, error) {
	return c.send(ctx, OpHeadDataCenters, http.MethodHead, c.baseURL+"/dc", nil, "")
}

// GetDataCenters issues GET /dc.
func (c *Client) GetDataCenters(ctx context.Context) (*Response, error) {
	return c.send(ctx, OpGetDataCenters, http.MethodGet, c.baseURL+"/dc", nil, "")
}

// GetGroups issues GET /group.
func (c *Client) GetGroups(ctx context.Context) (*Response, error) {
	return c.send(ctx, OpGetGroups, http.MethodGet, c.baseURL+"/group", nil, "")
}

// CreateGroup issues POST /group/{name}.
func (c *Client) CreateGroup(ctx context.Context, name string, req CreateGroupRequest) (*Response, error) {
	return c.sendJSON(ctx, OpCreateGroup, http.MethodPost, c.groupURL(name), req)
}

// DeleteGroup issues DELETE /group/{name}. All VMs and files of the group go with it.
func (c *Client) DeleteGroup(ctx context.Context, name string) (*Response, error) {
	return c.send(ctx, OpDeleteGroup, http.MethodDelete, c.groupURL(name), nil, "")
}

// UploadFile issues POST /group/{name}/file with the file at path sent as the
// multipart form field.
func (c *Client) UploadFile(ctx context.Context, group, field, path string) (*Response, error) {
	f, err := os.Open(path) //nolint:gosec // path is produced by the image builder
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read upload file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	return c.send(ctx, OpUploadFile, http.MethodPost, c.groupURL(group)+"/file", body.Bytes(), mw.FormDataContentType())
}

// CreateVM issues POST /group/{group}/vm/{vm}.
func (c *Client) CreateVM(ctx context.Context, group, vm string, req CreateVMRequest) (*Response, error) {
	return c.sendJSON(ctx, OpCreateVM, http.MethodPost, c.vmURL(group, vm), req)
}

// MountUSBDrives issues PUT /group/{group}/vm/{vm}/drive-templates/usb-storage.
func (c *Client) MountUSBDrives(ctx context.Context, group, vm string, drives []ImageRef) (*Response, error) {
	return c.sendJSON(ctx, OpMountDrives, http.MethodPut, c.vmURL(group, vm)+"/drive-templates/usb-storage",
		MountDrivesRequest{Drives: drives})
}

// StartVM issues PUT /group/{group}/vm/{vm}/start.
func (c *Client) StartVM(ctx context.Context, group, vm string) (*Response, error) {
	return c.send(ctx, OpStartVM, http.MethodPut, c.vmURL(group, vm)+"/start", nil, "")
}

// HeadURL issues HEAD against an arbitrary URL, e.g. a payload served by a VM.
func (c *Client) HeadURL(ctx context.Context, target string) (*Response, error) {
	return c.send(ctx, OpHeadURL, http.MethodHead, target, nil, "")
}

func (c *Client) groupURL(name string) string {
	return c.baseURL + "/group/" + url.PathEscape(name)
}

func (c *Client) vmURL(group, vm string) string {
	return c.groupURL(group) + "/vm/" + url.PathEscape(vm)
}

func (c *Client) sendJSON(ctx context.Context, op, method, target string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}
	return c.send(ctx, op, method, target, body, "application/json")
}

// send performs one round-trip. Any HTTP status is returned as a Response;
// only transport failures produce an error.
func (c *Client) send(ctx context.Context, op, method, target string, body []byte, contentType string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFarmCall(op, err, time.Since(start))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	c.metrics.RecordFarmCall(op, statusErr(resp.StatusCode, err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		URL:        target,
		Body:       data,
	}, nil
}

func statusErr(code int, err error) error {
	if err != nil {
		return err
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("status %d", code)
	}
	return nil
}
