package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeUpstream is an httptest server that answers analytics API paths with
// canned responses. Paths are relative to the /v2 base, e.g. "/video/7".
// A route registered as "/video?page=2" matches only that page.
type FakeUpstream struct {
	server *httptest.Server

	mu     sync.Mutex
	routes map[string]fakeRoute
	calls  map[string]int
	auth   []string
	query  map[string]string
}

type fakeRoute struct {
	status int
	body   string
}

// NewFakeUpstream starts a server that is closed when the test ends.
func NewFakeUpstream(t testing.TB) *FakeUpstream {
	t.Helper()

	f := &FakeUpstream{
		routes: make(map[string]fakeRoute),
		calls:  make(map[string]int),
		query:  make(map[string]string),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the base URL to configure the client with.
func (f *FakeUpstream) URL() string {
	return f.server.URL + "/v2"
}

// Data registers a {"data": payload} response.
func (f *FakeUpstream) Data(path string, payload any) {
	f.JSON(path, map[string]any{"data": payload})
}

// JSON registers payload encoded verbatim.
func (f *FakeUpstream) JSON(path string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	f.Raw(path, http.StatusOK, string(body))
}

// Raw registers an arbitrary status and body.
func (f *FakeUpstream) Raw(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = fakeRoute{status: status, body: body}
}

// Remove drops a registered route so it answers 404.
func (f *FakeUpstream) Remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.routes, path)
}

// Calls reports how many requests hit path (page-qualified for listings).
func (f *FakeUpstream) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// AuthHeaders returns the Authorization header of every request received.
func (f *FakeUpstream) AuthHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

// LastQuery returns the raw query string of the latest request to path.
func (f *FakeUpstream) LastQuery(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query[path]
}

func (f *FakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v2")
	key := path
	if page := r.URL.Query().Get("page"); page != "" {
		key = path + "?page=" + page
	}

	f.mu.Lock()
	f.calls[key]++
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.query[path] = r.URL.RawQuery
	route, ok := f.routes[key]
	if !ok {
		route, ok = f.routes[path]
	}
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(route.status)
	_, _ = w.Write([]byte(route.body))
}
