package cli

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
)

type stubDoer struct {
	req  *http.Request
	resp *http.Response
	err  error
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func stubResponse(status int, body string, headers map[string]string) *http.Response {
	resp := &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func newTestClient(doer Doer) *HTTPClient {
	return &HTTPClient{
		config:     &Config{Version: "1.0", Server: "http://localhost:8291", APIKey: "test-key"},
		httpClient: doer,
	}
}

func TestDoRequest(t *testing.T) {
	doer := &stubDoer{
		resp: stubResponse(http.StatusOK, `{"id":"p1"}`, map[string]string{"Location": "/data-products/p1"}),
	}
	client := newTestClient(doer)

	body, location, err := client.DoRequest(RequestOptions{
		Method:      http.MethodGet,
		Path:        "api/data-products",
		QueryParams: map[string]string{"status": "active"},
	})
	if err != nil {
		t.Fatalf("DoRequest() error = %v", err)
	}
	if string(body) != `{"id":"p1"}` {
		t.Errorf("body = %q", body)
	}
	if location != "/data-products/p1" {
		t.Errorf("location = %q", location)
	}

	req := doer.req
	if req == nil {
		t.Fatal("no request captured")
	}
	if req.URL.Path != "/api/data-products" {
		t.Errorf("path = %q", req.URL.Path)
	}
	if got := req.URL.Query().Get("status"); got != "active" {
		t.Errorf("status query = %q", got)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("authorization = %q", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q", got)
	}
}

func TestDoRequestNoAPIKey(t *testing.T) {
	doer := &stubDoer{resp: stubResponse(http.StatusOK, `[]`, nil)}
	client := newTestClient(doer)
	client.config.APIKey = ""

	if _, _, err := client.DoRequest(RequestOptions{Method: http.MethodGet, Path: "api/teams"}); err != nil {
		t.Fatalf("DoRequest() error = %v", err)
	}
	if got := doer.req.Header.Get("Authorization"); got != "" {
		t.Errorf("unexpected authorization header %q", got)
	}
}

func TestDoRequestServerError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "envelope error",
			status:  http.StatusNotFound,
			body:    `{"result":0,"error":"team not found"}`,
			wantMsg: "team not found",
		},
		{
			name:    "message field",
			status:  http.StatusUnprocessableEntity,
			body:    `{"message":"Validation errors occurred during upload.","errors":[]}`,
			wantMsg: "Validation errors occurred during upload.",
		},
		{
			name:    "raw body fallback",
			status:  http.StatusBadGateway,
			body:    "upstream unavailable",
			wantMsg: "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &stubDoer{resp: stubResponse(tt.status, tt.body, nil)}
			client := newTestClient(doer)

			_, _, err := client.DoRequest(RequestOptions{Method: http.MethodGet, Path: "api/teams"})
			if err == nil {
				t.Fatal("expected error")
			}
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected *HTTPError, got %T", err)
			}
			if httpErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", httpErr.StatusCode, tt.status)
			}
			if httpErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", httpErr.Message, tt.wantMsg)
			}
			if string(httpErr.Body) != tt.body {
				t.Errorf("body = %q, want %q", httpErr.Body, tt.body)
			}
		})
	}
}

func TestDoRequestTransportFailure(t *testing.T) {
	doer := &stubDoer{err: errors.New("connection refused")}
	client := newTestClient(doer)

	if _, _, err := client.DoRequest(RequestOptions{Method: http.MethodGet, Path: "api/teams"}); err == nil {
		t.Fatal("expected error for transport failure")
	}
}

func TestGetResource(t *testing.T) {
	doer := &stubDoer{resp: stubResponse(http.StatusOK, `{"name":"core"}`, nil)}
	client := newTestClient(doer)

	body, err := client.GetResource("api/teams", "core")
	if err != nil {
		t.Fatalf("GetResource() error = %v", err)
	}
	if string(body) != `{"name":"core"}` {
		t.Errorf("body = %q", body)
	}
	if doer.req.URL.Path != "/api/teams/core" {
		t.Errorf("path = %q", doer.req.URL.Path)
	}
}

func TestUploadFile(t *testing.T) {
	doer := &stubDoer{resp: stubResponse(http.StatusCreated, `{"created":[]}`, nil)}
	client := newTestClient(doer)

	content := []byte(`[{"id":"p1"}]`)
	if _, err := client.UploadFile("api/data-products/upload", "products.json", content); err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}

	req := doer.req
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("failed to parse content type: %v", err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("media type = %q", mediaType)
	}

	reader := multipart.NewReader(req.Body, params["boundary"])
	part, err := reader.NextPart()
	if err != nil {
		t.Fatalf("failed to read part: %v", err)
	}
	if part.FormName() != "file" {
		t.Errorf("form name = %q", part.FormName())
	}
	if part.FileName() != "products.json" {
		t.Errorf("file name = %q", part.FileName())
	}
	got, err := io.ReadAll(part)
	if err != nil {
		t.Fatalf("failed to read part content: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("part content = %q, want %q", got, content)
	}
}
