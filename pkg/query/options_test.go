package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyParams(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want Body
	}{
		{
			name: "query only gets defaults",
			opts: Options{Query: "SELECT 1"},
			want: Body{"query": "SELECT 1", "timeoutMs": 90000, "maxResults": 10000},
		},
		{
			name: "explicit values override defaults",
			opts: Options{Query: "SELECT 1", TimeoutMs: 500, MaxResults: 25},
			want: Body{"query": "SELECT 1", "timeoutMs": 500, "maxResults": 25},
		},
		{
			name: "passthrough fields are kept",
			opts: Options{Query: "SELECT 1", Extra: map[string]any{"useLegacySql": false}},
			want: Body{"query": "SELECT 1", "timeoutMs": 90000, "maxResults": 10000, "useLegacySql": false},
		},
		{
			name: "named fields win over extra",
			opts: Options{Query: "SELECT 2", MaxResults: 7, Extra: map[string]any{"query": "SELECT 1", "maxResults": 3}},
			want: Body{"query": "SELECT 2", "timeoutMs": 90000, "maxResults": 7},
		},
		{
			name: "extra applies when named fields are zero",
			opts: Options{Query: "SELECT 1", Extra: map[string]any{"timeoutMs": 5, "maxResults": float64(50)}},
			want: Body{"query": "SELECT 1", "timeoutMs": 5, "maxResults": float64(50)},
		},
		{
			name: "empty query is left out",
			opts: Options{Extra: map[string]any{"query": "SELECT 1"}},
			want: Body{"timeoutMs": 90000, "maxResults": 10000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BodyParams(tt.opts))
		})
	}
}

func TestBodyParams_DoesNotMutateExtra(t *testing.T) {
	extra := map[string]any{"labels": "x"}
	BodyParams(Options{Query: "SELECT 1", Extra: extra})
	assert.Equal(t, map[string]any{"labels": "x"}, extra)
}

func TestNewPageParams(t *testing.T) {
	assert.Equal(t,
		PageParams{StartIndex: 5, TimeoutMs: 90000, MaxResults: 10000},
		NewPageParams(5, Options{Query: "SELECT 1"}))

	assert.Equal(t,
		PageParams{StartIndex: 0, TimeoutMs: 10, MaxResults: 2},
		NewPageParams(0, Options{TimeoutMs: 10, MaxResults: 2}))
}

func TestNewPageParams_FromExtra(t *testing.T) {
	tests := []struct {
		name  string
		extra map[string]any
		want  PageParams
	}{
		{
			name:  "json numbers",
			extra: map[string]any{"timeoutMs": float64(5), "maxResults": float64(50)},
			want:  PageParams{StartIndex: 3, TimeoutMs: 5, MaxResults: 50},
		},
		{
			name:  "strings",
			extra: map[string]any{"timeoutMs": "5", "maxResults": "50"},
			want:  PageParams{StartIndex: 3, TimeoutMs: 5, MaxResults: 50},
		},
		{
			name:  "non-numeric falls back to defaults",
			extra: map[string]any{"timeoutMs": "soon", "maxResults": 2.5},
			want:  PageParams{StartIndex: 3, TimeoutMs: 90000, MaxResults: 10000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPageParams(3, Options{Query: "SELECT 1", Extra: tt.extra}))
		})
	}
}

func TestPageParams_Values(t *testing.T) {
	v := PageParams{StartIndex: 10000, TimeoutMs: 90000, MaxResults: 10000}.Values()
	assert.Equal(t, "10000", v.Get("startIndex"))
	assert.Equal(t, "90000", v.Get("timeoutMs"))
	assert.Equal(t, "10000", v.Get("maxResults"))
}
