// Package query submits queries to the BigQuery jobs API and pages through
// every result row.
//
// A query is submitted once with Client.Query. Client.EachRow and
// Client.Rows then walk the result set page by page, asking the API for the
// next page at the running row offset until a page comes back empty or the
// offset reaches the total row count reported by the latest page.
//
// Example usage:
//
//	c := query.NewClient(api)
//	err := c.EachRow(ctx, query.Options{Query: "SELECT 1"}, func(row query.Row) error {
//		fmt.Println(string(row))
//		return nil
//	})
//
// Pull-based iteration:
//
//	it := c.Rows(ctx, query.Options{Query: "SELECT 1"})
//	for {
//		row, err := it.Next()
//		if err == iterator.Done {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		...
//	}
//
// The package does not retry. Transport concerns (authentication, retry,
// connection reuse) belong to the API implementation, see package rest.
package query
