package query

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
)

// Default request parameters merged under every query.
const (
	DefaultTimeoutMs  = 90_000
	DefaultMaxResults = 10_000
)

// Body keys the package itself reads or writes.
const (
	KeyQuery      = "query"
	KeyTimeoutMs  = "timeoutMs"
	KeyMaxResults = "maxResults"
	KeyStartIndex = "startIndex"
)

// Options describes one query submission.
type Options struct {
	// Query is the SQL text. Required.
	Query string

	// TimeoutMs bounds how long the API waits for the job before returning.
	// Zero means DefaultTimeoutMs.
	TimeoutMs int

	// MaxResults is the page size. Zero means DefaultMaxResults.
	MaxResults int

	// Extra holds passthrough body fields (useLegacySql, defaultDataset,
	// labels, ...). A timeoutMs or maxResults entry applies when the named
	// field is zero. A query entry is always replaced by Query.
	Extra map[string]any
}

// Body is a JSON request body for the jobs.query call.
type Body map[string]any

// PageParams selects one page of a job's results.
type PageParams struct {
	StartIndex int64
	TimeoutMs  int
	MaxResults int
}

// Values renders the page parameters as URL query values.
func (p PageParams) Values() url.Values {
	v := url.Values{}
	v.Set(KeyStartIndex, strconv.FormatInt(p.StartIndex, 10))
	v.Set(KeyTimeoutMs, strconv.Itoa(p.TimeoutMs))
	v.Set(KeyMaxResults, strconv.Itoa(p.MaxResults))
	return v
}

// BodyParams merges opts over the defaults. Extra entries override the
// defaults, and non-zero named fields override both. It does not validate;
// an empty Query leaves the query key out of the result.
func BodyParams(opts Options) Body {
	body := Body{
		KeyTimeoutMs:  DefaultTimeoutMs,
		KeyMaxResults: DefaultMaxResults,
	}
	for k, v := range opts.Extra {
		body[k] = v
	}
	if opts.TimeoutMs != 0 {
		body[KeyTimeoutMs] = opts.TimeoutMs
	}
	if opts.MaxResults != 0 {
		body[KeyMaxResults] = opts.MaxResults
	}
	if opts.Query != "" {
		body[KeyQuery] = opts.Query
	} else {
		delete(body, KeyQuery)
	}
	return body
}

// NewPageParams returns the parameters for the page starting at currentRow,
// using the timeout and page size of the merged body params of opts.
func NewPageParams(currentRow int64, opts Options) PageParams {
	body := BodyParams(opts)
	return PageParams{
		StartIndex: currentRow,
		TimeoutMs:  intParam(body[KeyTimeoutMs], DefaultTimeoutMs),
		MaxResults: intParam(body[KeyMaxResults], DefaultMaxResults),
	}
}

// intParam reads a numeric body value as decoded from JSON or typed by hand.
// Values that are not whole numbers yield def.
func intParam(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}
