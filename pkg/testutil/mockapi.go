package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	gojson "github.com/goccy/go-json"
)

// MockAPI serves a paginated "character" collection shaped like the
// Rick and Morty API. Page N is served for ?page=N, and a request without a
// page parameter gets page 1. Every request is recorded.
type MockAPI struct {
	Server *httptest.Server

	mu         sync.Mutex
	pages      [][]map[string]interface{}
	requests   []*http.Request
	rootStatus int
	pageStatus map[string]int
	pageBody   map[string]string
	headers    []http.Header
}

// NewMockAPI starts a mock API serving the given pages. Without pages it
// serves 25 characters over two pages (20 + 5), like the real API. The
// server is closed when the test finishes.
func NewMockAPI(t testing.TB, pages ...[]map[string]interface{}) *MockAPI {
	if len(pages) == 0 {
		pages = [][]map[string]interface{}{Characters(1, 20), Characters(21, 5)}
	}
	m := &MockAPI{
		pages:      pages,
		rootStatus: http.StatusOK,
		pageStatus: make(map[string]int),
		pageBody:   make(map[string]string),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Server.Close)
	return m
}

// URL returns the API base URL, with a trailing slash.
func (m *MockAPI) URL() string {
	return m.Server.URL + "/api/"
}

// SetRootStatus changes the status returned for GET /api/.
func (m *MockAPI) SetRootStatus(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rootStatus = code
}

// SetPageStatus makes the given page token answer with code.
func (m *MockAPI) SetPageStatus(page string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageStatus[page] = code
}

// SetPageBody makes the given page token answer 200 with a raw body.
func (m *MockAPI) SetPageBody(page string, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageBody[page] = body
}

// Requests returns the number of requests served so far.
func (m *MockAPI) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// PageParams returns the page query value of every collection request in
// order, with "<none>" for requests that carried no page parameter.
func (m *MockAPI) PageParams() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, r := range m.requests {
		if !strings.HasSuffix(r.URL.Path, "/character") {
			continue
		}
		if _, ok := r.URL.Query()["page"]; !ok {
			out = append(out, "<none>")
			continue
		}
		out = append(out, r.URL.Query().Get("page"))
	}
	return out
}

// LastHeader returns the named header of the most recent request.
func (m *MockAPI) LastHeader(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.headers) == 0 {
		return ""
	}
	return m.headers[len(m.headers)-1].Get(name)
}

func (m *MockAPI) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, r)
	m.headers = append(m.headers, r.Header.Clone())
	rootStatus := m.rootStatus
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "/api":
		w.WriteHeader(rootStatus)
		_, _ = w.Write([]byte(`{"characters":"` + m.Server.URL + `/api/character","locations":"` +
			m.Server.URL + `/api/location","episodes":"` + m.Server.URL + `/api/episode"}`))
	case "/api/character":
		m.serveCharacters(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"There is nothing here"}`))
	}
}

func (m *MockAPI) serveCharacters(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("page")

	m.mu.Lock()
	status, forced := m.pageStatus[token]
	body, raw := m.pageBody[token]
	m.mu.Unlock()

	if forced {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"forced status"}`))
		return
	}
	if raw {
		_, _ = w.Write([]byte(body))
		return
	}

	page := 1
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"There is nothing here"}`))
			return
		}
		page = n
	}
	if page < 1 || page > len(m.pages) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"There is nothing here"}`))
		return
	}

	count := 0
	for _, p := range m.pages {
		count += len(p)
	}

	info := map[string]interface{}{
		"count": count,
		"pages": len(m.pages),
		"next":  nil,
		"prev":  nil,
	}
	if page < len(m.pages) {
		info["next"] = fmt.Sprintf("%s/api/character?page=%d", m.Server.URL, page+1)
	}
	if page > 1 {
		info["prev"] = fmt.Sprintf("%s/api/character?page=%d", m.Server.URL, page-1)
	}

	out, err := gojson.Marshal(map[string]interface{}{
		"info":    info,
		"results": m.pages[page-1],
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(out)
}

// Characters builds n character objects with ids starting at firstID.
func Characters(firstID, n int) []map[string]interface{} {
	out := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		id := firstID + i
		out[i] = map[string]interface{}{
			"id":      id,
			"name":    fmt.Sprintf("Character %d", id),
			"status":  "Alive",
			"species": "Human",
			"gender":  "Male",
			"origin":  map[string]interface{}{"name": "Earth (C-137)", "url": ""},
			"episode": []string{"https://rickandmortyapi.com/api/episode/1"},
			"created": "2017-11-04T18:48:46.250Z",
		}
	}
	return out
}
