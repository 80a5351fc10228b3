// Package testutil provides testing utilities for the BigQuery rows client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Result is the canned result set of one query text.
type Result struct {
	// Rows are raw row objects, e.g. `{"f":[{"v":"1"}]}`.
	Rows []string

	// TotalRows overrides the reported total; empty means len(Rows).
	TotalRows string

	// OmitJobReference drops jobReference from the jobs.query response.
	OmitJobReference bool
}

// Request is one request the mock received.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   map[string]any
	Header http.Header
}

// Failure is an injected error response.
type Failure struct {
	StatusCode int
	Reason     string
	Message    string
}

type job struct {
	id     string
	result Result
}

// MockBigQuery is an httptest server speaking the subset of the BigQuery v2
// REST API used by jobs.query and jobs.getQueryResults.
type MockBigQuery struct {
	server *httptest.Server

	mu       sync.Mutex
	results  map[string]Result
	jobs     map[string]*job
	failures []Failure
	nextJob  int
	requests []Request
}

// NewMockBigQuery starts a mock server.
func NewMockBigQuery() *MockBigQuery {
	m := &MockBigQuery{
		results: make(map[string]Result),
		jobs:    make(map[string]*job),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the mock server URL, usable as a client base URL.
func (m *MockBigQuery) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBigQuery) Close() {
	m.server.Close()
}

// SetResult registers the result set returned for sql.
func (m *MockBigQuery) SetResult(sql string, result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[sql] = result
}

// FailNext makes the next requests fail, one injected failure per request.
func (m *MockBigQuery) FailNext(failures ...Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, failures...)
}

// Requests returns a copy of every request received.
func (m *MockBigQuery) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// PageRequests returns only the getQueryResults requests.
func (m *MockBigQuery) PageRequests() []Request {
	var out []Request
	for _, r := range m.Requests() {
		if r.Method == http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockBigQuery) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockBigQuery) serve(w http.ResponseWriter, r *http.Request) {
	rec := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  map[string]string{},
		Header: r.Header.Clone(),
	}
	for k := range r.URL.Query() {
		rec.Query[k] = r.URL.Query().Get(k)
	}
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&rec.Body); err != nil {
			writeError(w, Failure{StatusCode: http.StatusBadRequest, Reason: "invalid", Message: err.Error()})
			return
		}
	}

	m.mu.Lock()
	m.requests = append(m.requests, rec)
	var failure *Failure
	if len(m.failures) > 0 {
		f := m.failures[0]
		m.failures = m.failures[1:]
		failure = &f
	}
	m.mu.Unlock()

	if failure != nil {
		writeError(w, *failure)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "projects" && parts[2] == "queries":
		m.handleQuery(w, parts[1], rec.Body)
	case r.Method == http.MethodGet && len(parts) == 4 && parts[0] == "projects" && parts[2] == "queries":
		m.handleGetQueryResults(w, parts[1], parts[3], rec.Query)
	default:
		writeError(w, Failure{StatusCode: http.StatusNotFound, Reason: "notFound", Message: "unknown path " + r.URL.Path})
	}
}

func (m *MockBigQuery) handleQuery(w http.ResponseWriter, project string, body map[string]any) {
	sql, _ := body["query"].(string)
	if sql == "" {
		writeError(w, Failure{StatusCode: http.StatusBadRequest, Reason: "invalid", Message: "query is required"})
		return
	}

	m.mu.Lock()
	result, ok := m.results[sql]
	if !ok {
		m.mu.Unlock()
		writeError(w, Failure{StatusCode: http.StatusBadRequest, Reason: "invalidQuery", Message: "unknown query " + sql})
		return
	}
	m.nextJob++
	j := &job{id: fmt.Sprintf("job_%d", m.nextJob), result: result}
	m.jobs[j.id] = j
	m.mu.Unlock()

	maxResults := toInt(body["maxResults"], len(result.Rows))
	resp := pageResponse(project, j, 0, maxResults)
	if result.OmitJobReference {
		delete(resp, "jobReference")
	}
	resp["kind"] = "bigquery#queryResponse"
	writeJSON(w, http.StatusOK, resp)
}

func (m *MockBigQuery) handleGetQueryResults(w http.ResponseWriter, project, jobID string, q map[string]string) {
	m.mu.Lock()
	j, ok := m.jobs[jobID]
	m.mu.Unlock()
	if !ok {
		writeError(w, Failure{StatusCode: http.StatusNotFound, Reason: "notFound", Message: "Not found: Job " + jobID})
		return
	}

	start, _ := strconv.Atoi(q["startIndex"])
	maxResults, err := strconv.Atoi(q["maxResults"])
	if err != nil {
		maxResults = len(j.result.Rows)
	}
	resp := pageResponse(project, j, start, maxResults)
	resp["kind"] = "bigquery#getQueryResultsResponse"
	writeJSON(w, http.StatusOK, resp)
}

// pageResponse slices rows [start, start+size) of j.
func pageResponse(project string, j *job, start, size int) map[string]any {
	total := j.result.TotalRows
	if total == "" {
		total = strconv.Itoa(len(j.result.Rows))
	}
	resp := map[string]any{
		"jobReference": map[string]any{"projectId": project, "jobId": j.id},
		"jobComplete":  true,
		"totalRows":    total,
	}

	if start < 0 {
		start = 0
	}
	end := start + size
	if end > len(j.result.Rows) {
		end = len(j.result.Rows)
	}
	if start < end {
		rows := make([]json.RawMessage, 0, end-start)
		for _, row := range j.result.Rows[start:end] {
			rows = append(rows, json.RawMessage(row))
		}
		resp["rows"] = rows
	}
	return resp
}

func toInt(v any, fallback int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, f Failure) {
	writeJSON(w, f.StatusCode, map[string]any{
		"error": map[string]any{
			"code":    f.StatusCode,
			"message": f.Message,
			"status":  http.StatusText(f.StatusCode),
			"errors": []map[string]any{
				{"reason": f.Reason, "message": f.Message},
			},
		},
	})
}

// Rows builds n rows numbered from start, each with a single column.
func Rows(start, n int) []string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"f":[{"v":"%d"}]}`, start+i)
	}
	return rows
}
