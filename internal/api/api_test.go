package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/namohub/internal/importer"
	"github.com/starford/namohub/internal/itemservice"
	"github.com/starford/namohub/internal/storage"
	"github.com/starford/namohub/internal/testutil"
	"github.com/starford/namohub/internal/views"
)

// testEnv sets up an in-memory store, SQLite index, service and router.
// A non-empty authToken enables token mode.
func testEnv(t *testing.T, authToken string) (*itemservice.Service, http.Handler) {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*itemservice.Service, http.Handler) {
	t.Helper()
	svc := itemservice.New(storage.NewMemory(), testutil.TestDB(t))
	return svc, NewRouter(svc, authEnabled, authToken, sseHandler)
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *bytes.Reader
	switch b := body.(type) {
	case nil:
		r = bytes.NewReader(nil)
	case string:
		r = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seed(t *testing.T, router http.Handler) {
	t.Helper()
	doc := `[
		{"id":"1","title":"Market sizing","content":"sales problem","status":"Draft"},
		{"id":"2","title":"Deploy api","content":"step one deploy","status":"Reviewed"},
		{"id":"3","title":"Benchmark","content":"benchmark result","status":"Final"}
	]`
	if w := do(t, router, http.MethodPost, "/import", doc); w.Code != http.StatusOK {
		t.Fatalf("seed import = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestCreateAndGetItem(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/items", CreateItemRequest{Title: "Hello", Content: "step by step", Tags: "a, b"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created Item
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" || created.Nature != "Solution" || created.Completeness != 35 {
		t.Errorf("created = %+v", created)
	}

	w = do(t, router, http.MethodGet, "/items/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got Item
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Title != "Hello" || len(got.Tags) != 2 {
		t.Errorf("got = %+v", got)
	}
}

func TestCreateItem_Invalid(t *testing.T) {
	_, router := testEnv(t, "")

	if w := do(t, router, http.MethodPost, "/items", "{not json"); w.Code != http.StatusBadRequest {
		t.Errorf("bad JSON = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/items", CreateItemRequest{Title: " "}); w.Code != http.StatusBadRequest {
		t.Errorf("blank title = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/items", CreateItemRequest{Title: "x", Nature: "Recipe"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad nature = %d, want 400", w.Code)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/items/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing item = %d, want 404", w.Code)
	}
}

func TestListItems_Filters(t *testing.T) {
	_, router := testEnv(t, "")
	seed(t, router)

	cases := map[string]int{
		"/items":                           3,
		"/items?nature=All":                3,
		"/items?nature=Solution":           2,
		"/items?domain=Business":           1,
		"/items?status=Final":              1,
		"/items?q=DEPLOY":                  1,
		"/items?nature=Blueprint&q=deploy": 0,
	}
	for target, want := range cases {
		w := do(t, router, http.MethodGet, target, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s = %d", target, w.Code)
		}
		var resp ItemListResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Total != want || len(resp.Items) != want {
			t.Errorf("%s: total = %d, want %d", target, resp.Total, want)
		}
	}
}

func TestSetStatus(t *testing.T) {
	_, router := testEnv(t, "")
	seed(t, router)

	w := do(t, router, http.MethodPut, "/items/1/status", SetStatusRequest{Status: "Final"})
	if w.Code != http.StatusOK {
		t.Fatalf("set status = %d, body = %s", w.Code, w.Body.String())
	}
	var it Item
	_ = json.Unmarshal(w.Body.Bytes(), &it)
	if it.Status != "Final" {
		t.Errorf("status = %s", it.Status)
	}

	if w := do(t, router, http.MethodPut, "/items/1/status", SetStatusRequest{Status: "Done"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPut, "/items/ghost/status", SetStatusRequest{Status: "Draft"}); w.Code != http.StatusNotFound {
		t.Errorf("missing item = %d, want 404", w.Code)
	}
}

func TestClassify(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/classify", ClassifyRequest{Text: "Market ROI workflow"})
	if w.Code != http.StatusOK {
		t.Fatalf("classify = %d", w.Code)
	}
	var c Classification
	_ = json.Unmarshal(w.Body.Bytes(), &c)
	if c.Nature != "Blueprint" || c.Domain != "Business" || c.Status != "Draft" || c.Completeness != 5 {
		t.Errorf("classification = %+v", c)
	}
}

func TestImport_StatusCodes(t *testing.T) {
	_, router := testEnv(t, "")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `[{"title":`, http.StatusBadRequest},
		{"not array", `{"title":"x"}`, http.StatusBadRequest},
		{"rejected", `[{"title":"ok","content":"c"}, "junk"]`, http.StatusUnprocessableEntity},
		{"clean", `[{"title":"ok","content":"c"}]`, http.StatusOK},
		{"empty", `[]`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/import", tc.body)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestImport_RejectedBodyCarriesOutcome(t *testing.T) {
	_, router := testEnv(t, "")
	seed(t, router)

	w := do(t, router, http.MethodPost, "/import", `[{"title":"ok","content":"c"}, 3]`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	var out importer.Outcome
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if len(out.Errors) != 1 || out.Errors[0] != "Item 2 is not an object." {
		t.Errorf("errors = %v", out.Errors)
	}

	// Collection untouched.
	lw := do(t, router, http.MethodGet, "/items", nil)
	var resp ItemListResponse
	_ = json.Unmarshal(lw.Body.Bytes(), &resp)
	if resp.Total != 3 {
		t.Errorf("total after rejected import = %d, want 3", resp.Total)
	}
}

func TestImport_YAMLQueryFormat(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/import?format=yaml", "- title: Y\n  content: research notes\n")
	if w.Code != http.StatusOK {
		t.Fatalf("yaml import = %d, body = %s", w.Code, w.Body.String())
	}
	var out importer.Outcome
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if len(out.Normalized) != 1 || out.Normalized[0].Domain != "Research" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestExportAndIfMatch(t *testing.T) {
	_, router := testEnv(t, "")

	if w := do(t, router, http.MethodGet, "/export", nil); w.Code != http.StatusNotFound {
		t.Fatalf("empty export = %d, want 404", w.Code)
	}
	seed(t, router)

	w := do(t, router, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ExportFilename) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	var items []Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil || len(items) != 3 {
		t.Fatalf("export body: %v, %d items", err, len(items))
	}

	// Re-importing the export under its own ETag is accepted; a stale tag is not.
	req := httptest.NewRequest(http.MethodPost, "/import", bytes.NewReader(w.Body.Bytes()))
	req.Header.Set("If-Match", `"stale"`)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)
	if rw.Code != http.StatusConflict {
		t.Errorf("stale If-Match = %d, want 409", rw.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/import", bytes.NewReader(w.Body.Bytes()))
	req.Header.Set("If-Match", etag)
	rw = httptest.NewRecorder()
	router.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Errorf("matching If-Match = %d, want 200, body = %s", rw.Code, rw.Body.String())
	}
}

func TestClearItems(t *testing.T) {
	_, router := testEnv(t, "")
	seed(t, router)

	if w := do(t, router, http.MethodDelete, "/items", nil); w.Code != http.StatusNoContent {
		t.Fatalf("clear = %d, want 204", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/export", nil); w.Code != http.StatusNotFound {
		t.Errorf("export after clear = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	seed(t, router)

	w := do(t, router, http.MethodGet, "/search?q=benchmark", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].ID != "3" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestViews(t *testing.T) {
	_, router := testEnv(t, "")
	seed(t, router)

	w := do(t, router, http.MethodGet, "/views/kanban?nature=Solution", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("kanban = %d", w.Code)
	}
	var kb views.KanbanView
	_ = json.Unmarshal(w.Body.Bytes(), &kb)
	if len(kb.Lanes) != 3 || len(kb.Lanes[0].Cards) != 0 || len(kb.Lanes[1].Cards) != 1 || len(kb.Lanes[2].Cards) != 1 {
		t.Errorf("kanban = %+v", kb)
	}

	w = do(t, router, http.MethodGet, "/views/matrix", nil)
	var mx views.MatrixView
	_ = json.Unmarshal(w.Body.Bytes(), &mx)
	if len(mx.Rows) != 2 {
		t.Errorf("matrix rows = %d", len(mx.Rows))
	}

	if w := do(t, router, http.MethodGet, "/views/gantt", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown mode = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	body, _ := json.Marshal(CreateItemRequest{Title: "auth", Content: "test"})
	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	if w := do(t, router, http.MethodGet, "/items", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/items", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// sseStub writes headers and blocks until the request context is done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvFull(t, true, "secret", sseStub)
	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvFull(t, true, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestAuthMiddleware_QueryTokenOnlyForEvents(t *testing.T) {
	_, router := testEnvFull(t, true, "tok", sseStub)

	if w := do(t, router, http.MethodGet, "/items?access_token=tok", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("query token on /items = %d, want 401", w.Code)
	} else if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("401 should carry WWW-Authenticate")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("query token on /events = %d, want 200", w.Code)
	}
}
