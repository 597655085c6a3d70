package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jslink/jslink/internal/bridge"
	"github.com/jslink/jslink/internal/executor"
	"github.com/jslink/jslink/internal/model"
	"github.com/jslink/jslink/internal/store"
)

func newTestServer(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := NewServer("127.0.0.1:0", st, executor.New(st), bridge.New(), 1<<20)
	return srv.Handler(), st
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope ErrorResponse
	decodeJSON(t, rec, &envelope)
	return envelope.Error.Code
}

func TestFolderLifecycle(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, "POST", "/api/folders", `{"name":"My API"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var folder model.Folder
	decodeJSON(t, rec, &folder)
	if folder.ID == 0 || folder.Name != "My API" {
		t.Fatalf("created folder: %+v", folder)
	}

	rec = do(t, h, "PUT", "/api/folders/1/archive", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("archive status: got %d, want %d", rec.Code, http.StatusOK)
	}

	rec = do(t, h, "GET", "/api/folders", "")
	var active []model.Folder
	decodeJSON(t, rec, &active)
	if len(active) != 0 {
		t.Fatalf("active folders: %+v", active)
	}

	rec = do(t, h, "GET", "/api/folders?include_archived=true", "")
	var all []model.Folder
	decodeJSON(t, rec, &all)
	if len(all) != 1 || all[0].ArchivedAt == nil {
		t.Fatalf("all folders: %+v", all)
	}

	rec = do(t, h, "PUT", "/api/folders/1/unarchive", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unarchive status: got %d, want %d", rec.Code, http.StatusOK)
	}

	rec = do(t, h, "DELETE", "/api/folders/1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status: got %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = do(t, h, "GET", "/api/folders/1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
	if errorCode(t, rec) != "NOT_FOUND" {
		t.Fatalf("error code: %s", rec.Body.String())
	}
}

func TestCreateFolderEmptyName(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, "POST", "/api/folders", `{"name":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var envelope ErrorResponse
	decodeJSON(t, rec, &envelope)
	if envelope.Error.Code != "INVALID_ARGUMENT" || envelope.Error.Message != "Invalid folder name" {
		t.Fatalf("envelope: %+v", envelope)
	}
}

func TestFolderInvalidID(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, "GET", "/api/folders/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, "POST", "/api/requests", `{"name":"bad","method":"BREW","url":"https://x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var envelope ErrorResponse
	decodeJSON(t, rec, &envelope)
	if envelope.Error.Message != "Invalid HTTP method" {
		t.Fatalf("envelope: %+v", envelope)
	}

	// Lowercase methods are accepted.
	rec = do(t, h, "POST", "/api/requests", `{"name":"ok","method":"get","url":"https://x"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("lowercase method status: got %d (%s)", rec.Code, rec.Body.String())
	}

	// WebSocket definitions skip method validation.
	rec = do(t, h, "POST", "/api/requests", `{"name":"socket","request_type":"ws","url":"wss://x"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ws status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var req model.Request
	decodeJSON(t, rec, &req)
	if req.RequestType != "ws" || req.BodyType != "none" || req.AuthType != "none" {
		t.Fatalf("defaults: %+v", req)
	}
}

func TestListRequestsByFolder(t *testing.T) {
	h, st := newTestServer(t)

	folder, err := st.CreateFolder("A")
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}

	rec := do(t, h, "POST", "/api/requests", `{"name":"in","method":"GET","url":"https://x","folder_id":1}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d", rec.Code)
	}
	rec = do(t, h, "POST", "/api/requests", `{"name":"out","method":"GET","url":"https://x"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d", rec.Code)
	}

	rec = do(t, h, "GET", "/api/requests?folder_id=1", "")
	var scoped []model.Request
	decodeJSON(t, rec, &scoped)
	if len(scoped) != 1 || scoped[0].Name != "in" {
		t.Fatalf("scoped: %+v", scoped)
	}
	if scoped[0].FolderID == nil || *scoped[0].FolderID != folder.ID {
		t.Fatalf("folder id: %+v", scoped[0].FolderID)
	}

	rec = do(t, h, "GET", "/api/requests?folder_id=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad folder_id status: got %d", rec.Code)
	}
}

func TestEnvironmentDefaultsVariables(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, "POST", "/api/environments", `{"name":"dev"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var env model.Environment
	decodeJSON(t, rec, &env)
	if env.Variables != "{}" {
		t.Fatalf("variables: %q", env.Variables)
	}

	rec = do(t, h, "POST", "/api/environments", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name status: got %d", rec.Code)
	}
	var envelope ErrorResponse
	decodeJSON(t, rec, &envelope)
	if envelope.Error.Message != "Invalid environment name" {
		t.Fatalf("envelope: %+v", envelope)
	}
}

func TestNetworkSettingsRoundTrip(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, "GET", "/api/settings/network", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status: got %d", rec.Code)
	}
	var ns model.NetworkSettings
	decodeJSON(t, rec, &ns)
	if !ns.AutoProxy {
		t.Fatalf("default settings: %+v", ns)
	}

	rec = do(t, h, "PUT", "/api/settings/network",
		`{"auto_proxy":false,"http_proxy":"http://proxy.local:8080","no_proxy":"localhost"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status: got %d (%s)", rec.Code, rec.Body.String())
	}
	decodeJSON(t, rec, &ns)
	if ns.AutoProxy || ns.HTTPProxy == nil || *ns.HTTPProxy != "http://proxy.local:8080" {
		t.Fatalf("updated settings: %+v", ns)
	}

	rec = do(t, h, "GET", "/api/settings/network", "")
	decodeJSON(t, rec, &ns)
	if ns.NoProxy == nil || *ns.NoProxy != "localhost" {
		t.Fatalf("persisted settings: %+v", ns)
	}
}

func TestExecuteDirectEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pong":true}`))
	}))
	defer upstream.Close()

	h, _ := newTestServer(t)

	rec := do(t, h, "POST", "/api/execute-direct", `{"url":"`+upstream.URL+`","method":"GET"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp executor.Response
	decodeJSON(t, rec, &resp)
	if resp.Status != http.StatusOK || resp.Body != `{"pong":true}` {
		t.Fatalf("response: %+v", resp)
	}
	if resp.RequestName != "Direct Request" {
		t.Fatalf("request name: %q", resp.RequestName)
	}
}

func TestExecuteRequestNotFound(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, "POST", "/api/execute", `{"request_id":12345}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	if errorCode(t, rec) != "NOT_FOUND" {
		t.Fatalf("error code: %s", rec.Body.String())
	}
}

func TestExecuteUnresolvedVariable(t *testing.T) {
	h, st := newTestServer(t)

	req, err := st.CreateRequest(store.RequestParams{
		Name: "broken", Method: "GET", URL: "{{missing}}/x",
		RequestType: "api", BodyType: "none", AuthType: "none",
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	rec := do(t, h, "POST", "/api/execute", `{"request_id":`+jsonInt(req.ID)+`}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var envelope ErrorResponse
	decodeJSON(t, rec, &envelope)
	if envelope.Error.Code != "SUBSTITUTION_ERROR" {
		t.Fatalf("envelope: %+v", envelope)
	}
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

const thunderUpload = `{
	"clientName": "Thunder Client",
	"collectionName": "Billing",
	"folders": [{"_id": "fld-1", "name": "Invoices"}],
	"requests": [
		{
			"containerId": "fld-1",
			"name": "Get Invoice",
			"url": "https://billing.example.com/invoices/1",
			"method": "GET",
			"headers": []
		}
	]
}`

func multipartUpload(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestImportPreview(t *testing.T) {
	h, st := newTestServer(t)

	body, contentType := multipartUpload(t, "thunder.json", thunderUpload)
	r := httptest.NewRequest("POST", "/api/import?preview=true", body)
	r.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp ImportPreviewResponse
	decodeJSON(t, rec, &resp)
	if !resp.Preview || len(resp.Collections) != 1 {
		t.Fatalf("preview: %+v", resp)
	}
	if resp.Collections[0].Name != "Invoices" || resp.Collections[0].RequestCount != 1 {
		t.Fatalf("collections: %+v", resp.Collections)
	}

	// Preview must not persist anything.
	folders, err := st.ListFolders(true)
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}
	if len(folders) != 0 {
		t.Fatalf("folders persisted during preview: %+v", folders)
	}
}

func TestImportSave(t *testing.T) {
	h, st := newTestServer(t)

	body, contentType := multipartUpload(t, "thunder.json", thunderUpload)
	r := httptest.NewRequest("POST", "/api/import", body)
	r.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp ImportResultResponse
	decodeJSON(t, rec, &resp)
	if resp.Preview {
		t.Fatalf("preview flag set: %+v", resp)
	}
	if resp.Message != "Success: Successfully imported 1 requests\n" {
		t.Fatalf("message: %q", resp.Message)
	}

	folders, err := st.ListFolders(false)
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}
	if len(folders) != 1 || folders[0].Name != "Invoices" {
		t.Fatalf("folders: %+v", folders)
	}
}

func TestImportUnknownFormat(t *testing.T) {
	h, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "mystery.json", `{"some":"json"}`)
	r := httptest.NewRequest("POST", "/api/import", body)
	r.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp ImportResultResponse
	decodeJSON(t, rec, &resp)
	if !strings.HasPrefix(resp.Message, "Error parsing mystery.json:") {
		t.Fatalf("message: %q", resp.Message)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	srv := NewServer("127.0.0.1:0", st, executor.New(st), bridge.New(), 64)

	payload := `{"name":"` + strings.Repeat("x", 200) + `"}`
	rec := do(t, srv.Handler(), "POST", "/api/folders", payload)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if errorCode(t, rec) != "PAYLOAD_TOO_LARGE" {
		t.Fatalf("error code: %s", rec.Body.String())
	}
}

func TestInvalidJSONBody(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, "POST", "/api/folders", `{"name":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", rec.Code)
	}
	if errorCode(t, rec) != "INVALID_ARGUMENT" {
		t.Fatalf("error code: %s", rec.Body.String())
	}
}
