package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/tidwall/gjson"
)

// ServerError represents an error response from the server
type ServerError struct {
	Result int    `json:"result"`
	Error  string `json:"error"`
}

// HTTPError represents an error response from the server with a status code.
// Body holds the raw response so commands can surface structured errors.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Doer issues HTTP requests. http.Client satisfies it; tests substitute a
// stub transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClient represents a client for making HTTP requests to the steward server
type HTTPClient struct {
	config     *Config
	httpClient Doer
}

// NewHTTPClient creates a new HTTP client using the provided configuration
func NewHTTPClient(config *Config) *HTTPClient {
	return &HTTPClient{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RequestOptions contains options for making HTTP requests
type RequestOptions struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Body        []byte
	ContentType string
}

// DoRequest makes an HTTP request with the given options
func (c *HTTPClient) DoRequest(opts RequestOptions) ([]byte, string, error) {
	// Build the URL with query parameters
	u, err := url.Parse(c.config.GetServerURL())
	if err != nil {
		return nil, "", fmt.Errorf("invalid server URL: %v", err)
	}
	u.Path = path.Join(u.Path, opts.Path)

	// Add query parameters
	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	// Create the request
	req, err := http.NewRequest(opts.Method, u.String(), bytes.NewReader(opts.Body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %v", err)
	}

	// Set headers
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	// Make the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	// Read the response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %v", err)
	}

	// Check for error status codes
	if resp.StatusCode >= 400 {
		return nil, "", &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    errorMessageFromBody(body),
			Body:       body,
		}
	}

	return body, resp.Header.Get("Location"), nil
}

// errorMessageFromBody extracts the most useful message from an error
// response, falling back to the raw body.
func errorMessageFromBody(body []byte) string {
	var serverErr ServerError
	if err := json.Unmarshal(body, &serverErr); err == nil && serverErr.Error != "" {
		return serverErr.Error
	}
	if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return string(body)
}

// ListResources fetches a resource collection
func (c *HTTPClient) ListResources(resourcePath string, queryParams map[string]string) ([]byte, error) {
	opts := RequestOptions{
		Method:      http.MethodGet,
		Path:        resourcePath,
		QueryParams: queryParams,
	}
	body, _, err := c.DoRequest(opts)
	return body, err
}

// GetResource fetches a single resource by reference
func (c *HTTPClient) GetResource(resourcePath string, resourceRef string) ([]byte, error) {
	opts := RequestOptions{
		Method: http.MethodGet,
		Path:   resourcePath + "/" + resourceRef,
	}
	body, _, err := c.DoRequest(opts)
	return body, err
}

// UploadFile posts a file as a multipart form with a single "file" field
func (c *HTTPClient) UploadFile(endpoint string, filename string, content []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %v", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %v", err)
	}

	opts := RequestOptions{
		Method:      http.MethodPost,
		Path:        endpoint,
		Body:        buf.Bytes(),
		ContentType: writer.FormDataContentType(),
	}
	body, _, err := c.DoRequest(opts)
	return body, err
}
