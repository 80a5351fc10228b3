package cache

import "testing"

func TestPageKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  PageKey
		want string
	}{
		{
			name: "first page",
			key:  PageKey{ProjectID: "my-project", JobID: "job_abc", StartIndex: 0, MaxResults: 10000},
			want: "bq:page:my-project:job_abc:start=0:max=10000",
		},
		{
			name: "later page",
			key:  PageKey{ProjectID: "my-project", JobID: "job_abc", StartIndex: 20000, MaxResults: 10000},
			want: "bq:page:my-project:job_abc:start=20000:max=10000",
		},
		{
			name: "no project",
			key:  PageKey{JobID: "job_abc", StartIndex: 5, MaxResults: 5},
			want: "bq:page:job_abc:start=5:max=5",
		},
		{
			name: "colon in project is escaped",
			key:  PageKey{ProjectID: "example.com:proj", JobID: "job_1", MaxResults: 1},
			want: "bq:page:example.com%3Aproj:job_1:start=0:max=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageKey_DistinctPageSizes(t *testing.T) {
	a := PageKey{JobID: "job", StartIndex: 0, MaxResults: 5}
	b := PageKey{JobID: "job", StartIndex: 0, MaxResults: 10}

	if a.String() == b.String() {
		t.Error("keys for different page sizes must differ")
	}
}
