package query

import (
	"context"
	"encoding/json"
	"fmt"
)

// fakeAPI serves scripted responses and records every call.
type fakeAPI struct {
	first    *Response
	firstErr error
	pages    []*Response
	pageErr  error

	bodies []Body
	calls  []PageParams
	jobIDs []string
}

func (f *fakeAPI) RunQuery(_ context.Context, body Body) (*Response, error) {
	f.bodies = append(f.bodies, body)
	return f.first, f.firstErr
}

func (f *fakeAPI) GetQueryResults(_ context.Context, jobID string, params PageParams) (*Response, error) {
	f.jobIDs = append(f.jobIDs, jobID)
	f.calls = append(f.calls, params)
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	if len(f.calls) > len(f.pages) {
		return &Response{}, nil
	}
	return f.pages[len(f.calls)-1], nil
}

// page builds a response carrying rows numbered from start.
func page(jobID string, start, n int, total string) *Response {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = json.RawMessage(fmt.Sprintf(`{"f":[{"v":"%d"}]}`, start+i))
	}
	res := &Response{Rows: rows, TotalRows: json.Number(total)}
	if jobID != "" {
		res.JobReference = &JobReference{JobID: jobID}
	}
	return res
}
