package cache

import (
	"fmt"
	"strings"
)

// PageKey identifies one cached result page.
type PageKey struct {
	ProjectID  string
	JobID      string
	StartIndex int64
	MaxResults int
}

// String generates a deterministic cache key string.
//
// Example:
//
//	bq:page:my-project:job_abc:start=10000:max=10000
func (k PageKey) String() string {
	parts := []string{"bq", "page"}
	if k.ProjectID != "" {
		parts = append(parts, escape(k.ProjectID))
	}
	parts = append(parts,
		escape(k.JobID),
		fmt.Sprintf("start=%d", k.StartIndex),
		fmt.Sprintf("max=%d", k.MaxResults),
	)
	return strings.Join(parts, ":")
}

// escape keeps ':' inside ids from colliding with the key separator.
func escape(s string) string {
	return strings.ReplaceAll(s, ":", "%3A")
}
