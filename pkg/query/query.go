package query

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
)

// API is the remote query service. Implementations own transport concerns
// such as authentication and retry.
type API interface {
	// RunQuery submits a query job and returns its first page of results.
	RunQuery(ctx context.Context, body Body) (*Response, error)

	// GetQueryResults returns one page of results for a job.
	GetQueryResults(ctx context.Context, jobID string, params PageParams) (*Response, error)
}

// Client submits queries and walks their result pages.
type Client struct {
	api    API
	logger zerolog.Logger
}

// NewClient creates a Client on top of api.
func NewClient(api API) *Client {
	return &Client{
		api:    api,
		logger: log.With().Str("component", "bq-query").Logger(),
	}
}

// SetLogger replaces the client logger.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// Query merges opts over the defaults and submits the query. It fails with a
// *MissingParameterError before any network call when no query is given.
// API errors are returned unchanged.
func (c *Client) Query(ctx context.Context, opts Options) (*Response, error) {
	body := BodyParams(opts)
	if _, ok := body[KeyQuery]; !ok {
		bqQueriesTotal.WithLabelValues("invalid").Inc()
		return nil, &MissingParameterError{Name: KeyQuery}
	}

	c.logger.Debug().
		Interface("timeout_ms", body[KeyTimeoutMs]).
		Interface("max_results", body[KeyMaxResults]).
		Msg("Submitting query")

	res, err := c.api.RunQuery(ctx, body)
	if err != nil {
		bqQueriesTotal.WithLabelValues("error").Inc()
		c.logger.Error().Err(err).Msg("Query failed")
		return nil, err
	}
	bqQueriesTotal.WithLabelValues("ok").Inc()
	return res, nil
}

// EachRow runs the query and calls fn once per result row, in order, across
// all pages. An error from fn stops iteration and is returned as is.
func (c *Client) EachRow(ctx context.Context, opts Options, fn func(Row) error) error {
	it := c.Rows(ctx, opts)
	for {
		row, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// Rows returns an iterator over every result row of the query. The query is
// submitted on the first call to Next.
func (c *Client) Rows(ctx context.Context, opts Options) *RowIterator {
	return &RowIterator{
		ctx:    ctx,
		client: c,
		opts:   opts,
	}
}
