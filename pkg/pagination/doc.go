// Package pagination collects every item of a paginated PulsePass list endpoint.
//
// The API pages its collections with page/limit query parameters and answers
// with a JSON envelope:
//
//	{"success": true, "data": [...], "pagination": {"has_next": true, ...}}
//
// The Collector walks the pages strictly in order, starting at page 1, and
// concatenates each page's data until the server reports has_next = false.
//
// Example usage:
//
//	collector := pagination.NewCollector(apiClient, pagination.DefaultConfig())
//	result := collector.Collect(ctx, "/api/conciertos", url.Values{"artista_id": {"7"}})
//	for _, item := range result.Items {
//		// item is the raw JSON of one concert
//	}
//
// The collector fails soft:
//   - A transport error, non-2xx status or non-JSON body ends the walk and
//     the items gathered so far are returned (Result.Err says why)
//   - A page with success = false or a non-array data contributes no items
//     but does not stop the walk on its own
//   - A missing pagination object or has_next field means "no next page"
//   - MaxPages bounds a server that keeps answering has_next = true
package pagination
