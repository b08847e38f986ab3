package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// Client calls the conversion service API.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// Timeout bounds each JSON call end to end. Uploads and downloads only
	// wait at most Timeout for response headers once the request body has
	// been sent, so a slow transfer never trips it. Zero means no timeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying client. Timeout still bounds JSON
	// calls but the response header wait is left to the override.
	HTTPClient *http.Client
}

// NewClient creates a client for the given address or URL.
func NewClient(addr string, opts ClientOptions) *Client {
	timeout := max(opts.Timeout, 0)
	httpClient := opts.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = timeout
		httpClient = &http.Client{Transport: transport}
	}
	return &Client{baseURL: NormalizeBaseURL(addr), client: httpClient, timeout: timeout}
}

// NormalizeBaseURL trims trailing slashes and defaults the scheme to http.
func NormalizeBaseURL(addr string) string {
	baseURL := strings.TrimRight(strings.TrimSpace(addr), "/")
	baseURL = strings.TrimSuffix(baseURL, "/api")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return baseURL
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckConfig reports whether the service has a stored configuration.
func (c *Client) CheckConfig(ctx context.Context) (ConfigStatus, error) {
	var response ConfigStatus
	if err := c.do(ctx, opCheckConfig, http.MethodGet, "/api/config", nil, &response); err != nil {
		return ConfigStatus{}, err
	}
	return response, nil
}

// SaveConfig stores the configuration on the service.
func (c *Client) SaveConfig(ctx context.Context, request SaveConfigRequest) error {
	return c.do(ctx, opSaveConfig, http.MethodPost, "/api/config", request, &okResponse{})
}

// UploadFile is a file to send to the service.
type UploadFile struct {
	Name        string
	ContentType string
	// Size is the body length in bytes, or -1 when unknown.
	Size int64
	Body io.Reader
}

// Upload sends a single file and returns the created session.
func (c *Client) Upload(ctx context.Context, file UploadFile) (UploadResponse, error) {
	body, contentType, length, err := multipartBody(file)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("%s: %w", opUpload.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", body)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("%s: %w", opUpload.name, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = length

	var response UploadResponse
	if err := c.send(req, opUpload, &response); err != nil {
		return UploadResponse{}, err
	}
	if response.SessionID == "" {
		return UploadResponse{}, &Error{Op: opUpload.name, StatusCode: http.StatusOK, Message: "upload response is missing a session id"}
	}
	return response, nil
}

// StartProcessing asks the service to begin converting an uploaded session.
func (c *Client) StartProcessing(ctx context.Context, sessionID string) error {
	return c.do(ctx, opStart, http.MethodPost, "/api/process/"+url.PathEscape(sessionID), nil, &okResponse{})
}

// Progress returns the current state of a session.
func (c *Client) Progress(ctx context.Context, sessionID string) (Progress, error) {
	var response Progress
	if err := c.do(ctx, opProgress, http.MethodGet, "/api/progress/"+url.PathEscape(sessionID), nil, &response); err != nil {
		return Progress{}, err
	}
	return response, nil
}

// Results returns the results of a completed session.
func (c *Client) Results(ctx context.Context, sessionID string) (Results, error) {
	var response Results
	if err := c.do(ctx, opResults, http.MethodGet, "/api/results/"+url.PathEscape(sessionID), nil, &response); err != nil {
		return Results{}, err
	}
	return response, nil
}

// Download copies a generated file into w and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/download/"+escapePath(path), nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opDownload.name, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opDownload.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, readErrorResponse(resp, opDownload)
	}
	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, fmt.Errorf("%s: %w", opDownload.name, err)
	}
	return written, nil
}

func (c *Client) do(ctx context.Context, op operation, method, path string, payload any, dest any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: %w", op.name, err)
		}
		body = bytes.NewReader(data)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op.name, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, op, dest)
}

func (c *Client) send(req *http.Request, op operation, dest any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readErrorResponse(resp, op)
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: decode response: %w", op.name, err)
	}
	return nil
}

func readErrorResponse(resp *http.Response, op operation) error {
	apiErr := &Error{Op: op.name, StatusCode: resp.StatusCode, Message: op.fallback}
	var payload errorResponse
	decoder := json.NewDecoder(io.LimitReader(resp.Body, 1<<20))
	if err := decoder.Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		apiErr.Message = payload.Error
	}
	return apiErr
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody frames file as a multipart form with a "files" part and a
// "mode" field. The file body is streamed rather than buffered.
func multipartBody(file UploadFile) (io.Reader, string, int64, error) {
	if file.Body == nil {
		return nil, "", 0, errors.New("file body is required")
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("mode", ModeSingle); err != nil {
		return nil, "", 0, err
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", contentType)
	if _, err := writer.CreatePart(header); err != nil {
		return nil, "", 0, err
	}
	head := append([]byte(nil), buf.Bytes()...)
	buf.Reset()
	if err := writer.Close(); err != nil {
		return nil, "", 0, err
	}
	tail := append([]byte(nil), buf.Bytes()...)

	length := int64(-1)
	if file.Size >= 0 {
		length = int64(len(head)) + file.Size + int64(len(tail))
	}
	body := io.MultiReader(bytes.NewReader(head), file.Body, bytes.NewReader(tail))
	return body, writer.FormDataContentType(), length, nil
}

func escapePath(path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
