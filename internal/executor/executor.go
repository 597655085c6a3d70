// Package executor resolves a stored or ad-hoc request definition against an
// environment and performs the HTTP call through the configured proxy.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jslink/jslink/internal/model"
	"github.com/jslink/jslink/internal/store"
)

// ErrorKind classifies execution failures for HTTP status mapping.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindNetwork
	KindSubstitution
	KindDatabase
)

// Error is the executor's failure type.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return "Request not found"
	case KindNetwork:
		return "Network error: " + e.Message
	case KindSubstitution:
		return "Variable substitution error: " + e.Message
	default:
		return "Database error"
	}
}

// Payload is the execution input. RequestID selects a stored definition;
// URL/Method/Body/Headers override it field by field, or describe an ad-hoc
// request when RequestID is absent. A non-nil empty Headers map clears the
// stored headers.
type Payload struct {
	RequestID     *int64             `json:"request_id"`
	EnvironmentID *int64             `json:"environment_id"`
	URL           *string            `json:"url"`
	Method        *string            `json:"method"`
	Body          *string            `json:"body"`
	Headers       *map[string]string `json:"headers"`
}

// Response carries the upstream result back to the caller.
type Response struct {
	Status      int               `json:"status"`
	Headers     map[string]string `json:"headers"`
	Body        string            `json:"body"`
	RequestName string            `json:"request_name"`
	RequestURL  string            `json:"request_url"`
}

// Executor runs request definitions.
type Executor struct {
	store   *store.Store
	timeout time.Duration
}

// New returns an Executor backed by the given store.
func New(s *store.Store) *Executor {
	return &Executor{store: s, timeout: 30 * time.Second}
}

// Execute resolves the payload into a concrete request, substitutes
// environment variables, and performs the HTTP call.
func (e *Executor) Execute(ctx context.Context, p Payload) (*Response, error) {
	req, err := e.loadRequest(p)
	if err != nil {
		return nil, err
	}

	vars, err := e.loadVariables(p.EnvironmentID)
	if err != nil {
		return nil, err
	}

	if req.URL, err = Substitute(req.URL, vars); err != nil {
		return nil, err
	}
	if req.Body, err = substituteOpt(req.Body, vars); err != nil {
		return nil, err
	}
	if req.Headers, err = substituteOpt(req.Headers, vars); err != nil {
		return nil, err
	}
	if req.AuthToken, err = substituteOpt(req.AuthToken, vars); err != nil {
		return nil, err
	}
	if req.AuthUsername, err = substituteOpt(req.AuthUsername, vars); err != nil {
		return nil, err
	}
	if req.AuthPassword, err = substituteOpt(req.AuthPassword, vars); err != nil {
		return nil, err
	}

	client, err := e.buildClient()
	if err != nil {
		return nil, err
	}

	log.Printf("[executor] executing %s request to %s", req.Method, req.URL)
	return doRequest(ctx, client, req)
}

func (e *Executor) loadRequest(p Payload) (model.Request, error) {
	if p.RequestID != nil {
		req, err := e.store.GetRequest(*p.RequestID)
		if errors.Is(err, store.ErrNotFound) {
			return model.Request{}, &Error{Kind: KindNotFound}
		}
		if err != nil {
			return model.Request{}, &Error{Kind: KindDatabase, Message: err.Error()}
		}

		if p.URL != nil {
			req.URL = *p.URL
		}
		if p.Method != nil {
			req.Method = *p.Method
		}
		if p.Body != nil {
			req.Body = p.Body
		}
		if p.Headers != nil {
			if len(*p.Headers) == 0 {
				req.Headers = nil
			} else {
				encoded, err := json.Marshal(*p.Headers)
				if err != nil {
					return model.Request{}, &Error{Kind: KindSubstitution, Message: "Failed to serialize headers: " + err.Error()}
				}
				s := string(encoded)
				req.Headers = &s
			}
		}
		return req, nil
	}

	if p.URL == nil || p.Method == nil {
		return model.Request{}, &Error{Kind: KindNetwork, Message: "URL and method are required for direct execution"}
	}
	req := model.Request{
		Name:        "Direct Request",
		Method:      *p.Method,
		URL:         *p.URL,
		Body:        p.Body,
		RequestType: "api",
		BodyType:    "none",
		AuthType:    "none",
	}
	if p.Headers != nil && len(*p.Headers) > 0 {
		if encoded, err := json.Marshal(*p.Headers); err == nil {
			s := string(encoded)
			req.Headers = &s
		}
	}
	return req, nil
}

func (e *Executor) loadVariables(environmentID *int64) (map[string]string, error) {
	vars := map[string]string{}
	if environmentID == nil {
		return vars, nil
	}
	env, err := e.store.GetEnvironment(*environmentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &Error{Kind: KindNotFound}
	}
	if err != nil {
		return nil, &Error{Kind: KindDatabase, Message: err.Error()}
	}
	if err := json.Unmarshal([]byte(env.Variables), &vars); err != nil {
		return nil, &Error{Kind: KindSubstitution, Message: "Failed to parse environment variables: " + err.Error()}
	}
	return vars, nil
}

// buildClient applies the stored network settings. Auto mode defers to the
// standard environment variables; manual mode uses the configured per-scheme
// proxies.
func (e *Executor) buildClient() (*http.Client, error) {
	settings, err := e.store.GetNetworkSettings()
	if err != nil {
		log.Printf("[executor] network settings unavailable, using defaults: %v", err)
		settings = model.NetworkSettings{ID: 1, AutoProxy: true}
	}

	transport := &http.Transport{}
	if settings.AutoProxy {
		transport.Proxy = http.ProxyFromEnvironment
	} else {
		var httpProxy, httpsProxy *url.URL
		if settings.HTTPProxy != nil && *settings.HTTPProxy != "" {
			httpProxy, err = url.Parse(*settings.HTTPProxy)
			if err != nil {
				return nil, &Error{Kind: KindNetwork, Message: "Invalid HTTP proxy: " + *settings.HTTPProxy}
			}
		}
		if settings.HTTPSProxy != nil && *settings.HTTPSProxy != "" {
			httpsProxy, err = url.Parse(*settings.HTTPSProxy)
			if err != nil {
				return nil, &Error{Kind: KindNetwork, Message: "Invalid HTTPS proxy: " + *settings.HTTPSProxy}
			}
		}
		transport.Proxy = func(r *http.Request) (*url.URL, error) {
			if r.URL.Scheme == "https" && httpsProxy != nil {
				return httpsProxy, nil
			}
			if httpProxy != nil {
				return httpProxy, nil
			}
			return nil, nil
		}
	}

	return &http.Client{Transport: transport, Timeout: e.timeout}, nil
}

func doRequest(ctx context.Context, client *http.Client, req model.Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		return nil, &Error{Kind: KindNetwork, Message: "Invalid HTTP method"}
	}

	body, contentType, err := buildBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: err.Error()}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	switch req.AuthType {
	case "bearer":
		if req.AuthToken != nil {
			httpReq.Header.Set("Authorization", "Bearer "+*req.AuthToken)
		}
	case "basic":
		if req.AuthUsername != nil && req.AuthPassword != nil {
			httpReq.SetBasicAuth(*req.AuthUsername, *req.AuthPassword)
		}
	}

	// Explicit headers come last so they can override the body's
	// Content-Type.
	if req.Headers != nil {
		headerMap := map[string]string{}
		if err := json.Unmarshal([]byte(*req.Headers), &headerMap); err != nil {
			return nil, &Error{Kind: KindSubstitution, Message: "Failed to parse request headers: " + err.Error()}
		}
		for key, value := range headerMap {
			httpReq.Header.Set(key, value)
		}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	respHeaders := map[string]string{}
	for name, values := range resp.Header {
		if len(values) > 0 {
			respHeaders[strings.ToLower(name)] = values[0]
		}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: err.Error()}
	}

	log.Printf("[executor] %s %s -> %d", method, req.URL, resp.StatusCode)
	return &Response{
		Status:      resp.StatusCode,
		Headers:     respHeaders,
		Body:        string(respBody),
		RequestName: req.Name,
		RequestURL:  req.URL,
	}, nil
}

// buildBody returns the request body reader and the Content-Type implied by
// the body type. BodyContent with its typed dispatch wins; the legacy Body
// field is the fallback with no implied Content-Type.
func buildBody(req model.Request) (io.Reader, string, error) {
	if req.BodyContent != nil {
		content := *req.BodyContent
		switch req.BodyType {
		case "json":
			return strings.NewReader(content), "application/json", nil
		case "xml":
			return strings.NewReader(content), "application/xml", nil
		case "text":
			return strings.NewReader(content), "text/plain", nil
		case "binary":
			return strings.NewReader(content), "application/octet-stream", nil
		case "form":
			encoded, err := encodeForm(content)
			if err != nil {
				return nil, "", err
			}
			return strings.NewReader(encoded), "application/x-www-form-urlencoded", nil
		case "multipart":
			return buildMultipart(content)
		}
		return nil, "", nil
	}
	if req.Body != nil {
		return strings.NewReader(*req.Body), "", nil
	}
	return nil, "", nil
}

// encodeForm turns a {"key":"value"} JSON object into percent-encoded form
// data. Spaces encode as %20, not +.
func encodeForm(content string) (string, error) {
	fields := map[string]string{}
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return "", &Error{Kind: KindSubstitution, Message: "Failed to parse form data: " + err.Error()}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(fields[k]))
	}
	return strings.Join(pairs, "&"), nil
}

func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func buildMultipart(content string) (io.Reader, string, error) {
	fields := map[string]string{}
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, "", &Error{Kind: KindSubstitution, Message: "Failed to parse multipart data: " + err.Error()}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	w := multipart.NewWriter(&buf)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", &Error{Kind: KindNetwork, Message: err.Error()}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", &Error{Kind: KindNetwork, Message: err.Error()}
	}
	return strings.NewReader(buf.String()), w.FormDataContentType(), nil
}
