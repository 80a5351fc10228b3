package query

import (
	"encoding/json"
	"strconv"
)

// Row is one result row, passed through verbatim from the API.
type Row = json.RawMessage

// JobReference identifies the job a query ran as.
type JobReference struct {
	ProjectID string `json:"projectId,omitempty"`
	JobID     string `json:"jobId,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Response is the body of a jobs.query or jobs.getQueryResults call. Only
// the fields the package reads are decoded; rows and schema stay raw.
type Response struct {
	Kind                string          `json:"kind,omitempty"`
	JobReference        *JobReference   `json:"jobReference,omitempty"`
	Schema              json.RawMessage `json:"schema,omitempty"`
	Rows                []Row           `json:"rows,omitempty"`
	TotalRows           json.Number     `json:"totalRows,omitempty"`
	PageToken           string          `json:"pageToken,omitempty"`
	JobComplete         bool            `json:"jobComplete,omitempty"`
	TotalBytesProcessed json.Number     `json:"totalBytesProcessed,omitempty"`
	CacheHit            bool            `json:"cacheHit,omitempty"`
}

// JobID returns the job id, or ErrMissingJobReference.
func (r *Response) JobID() (string, error) {
	if r == nil || r.JobReference == nil || r.JobReference.JobID == "" {
		return "", ErrMissingJobReference
	}
	return r.JobReference.JobID, nil
}

// Total returns the declared total row count. Absent or unparsable values
// count as zero.
func (r *Response) Total() int64 {
	if r == nil || r.TotalRows == "" {
		return 0
	}
	n, err := strconv.ParseInt(string(r.TotalRows), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// HasRows reports whether the response carries a non-empty rows field.
func (r *Response) HasRows() bool {
	return r != nil && len(r.Rows) > 0
}
