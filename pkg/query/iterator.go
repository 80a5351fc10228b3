package query

import (
	"context"
	"errors"
	"iter"

	"google.golang.org/api/iterator"
)

// RowIterator walks the rows of one query. It is not safe for concurrent use.
type RowIterator struct {
	ctx    context.Context
	client *Client
	opts   Options

	started bool
	done    bool
	err     error

	jobID   string
	last    *Response
	buf     []Row
	current int64
	pages   int
}

// Next returns the next row. It returns iterator.Done once the result set is
// exhausted; any other error is sticky.
func (it *RowIterator) Next() (Row, error) {
	if it.err != nil {
		return nil, it.err
	}
	for len(it.buf) == 0 {
		if it.done {
			return nil, iterator.Done
		}
		if err := it.fetch(); err != nil {
			it.err = err
			return nil, err
		}
	}
	row := it.buf[0]
	it.buf = it.buf[1:]
	bqRowsDeliveredTotal.Inc()
	return row, nil
}

// All adapts the iterator to a range-over-func sequence. A failure is
// yielded once with a nil row, then the sequence ends.
func (it *RowIterator) All() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			row, err := it.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// JobID returns the id of the submitted job, empty before the first Next.
func (it *RowIterator) JobID() string {
	return it.jobID
}

// RowsRead returns how many rows the pages received so far carried.
func (it *RowIterator) RowsRead() int64 {
	return it.current
}

// fetch loads the next page into buf, or marks the iterator done.
func (it *RowIterator) fetch() error {
	if !it.started {
		it.started = true
		res, err := it.client.Query(it.ctx, it.opts)
		if err != nil {
			return err
		}
		jobID, err := res.JobID()
		if err != nil {
			return err
		}
		it.jobID = jobID
		it.accept(res)
		return nil
	}

	// totalRows comes from the latest page, not the first one.
	if !it.last.HasRows() || it.current >= it.last.Total() {
		it.finish()
		return nil
	}

	params := NewPageParams(it.current, it.opts)
	it.client.logger.Debug().
		Str("job_id", it.jobID).
		Int64("start_index", params.StartIndex).
		Int("max_results", params.MaxResults).
		Msg("Fetching next page")

	res, err := it.client.api.GetQueryResults(it.ctx, it.jobID, params)
	if err != nil {
		it.client.logger.Error().
			Err(err).
			Str("job_id", it.jobID).
			Int64("start_index", params.StartIndex).
			Msg("Page fetch failed")
		return err
	}
	// A fetched page is delivered only if it has rows and its own totalRows
	// still lies beyond the rows already read.
	if !res.HasRows() || it.current >= res.Total() {
		it.last = res
		it.pages++
		bqPagesFetchedTotal.Inc()
		it.finish()
		return nil
	}
	it.accept(res)
	return nil
}

func (it *RowIterator) accept(res *Response) {
	it.last = res
	it.pages++
	bqPagesFetchedTotal.Inc()
	if res.HasRows() {
		it.buf = res.Rows
		it.current += int64(len(res.Rows))
	}
}

func (it *RowIterator) finish() {
	it.done = true
	it.client.logger.Info().
		Str("job_id", it.jobID).
		Int("pages", it.pages).
		Int64("rows", it.current).
		Int64("total_rows", it.last.Total()).
		Msg("Query results exhausted")
}
