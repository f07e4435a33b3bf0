// Package pagination turns "load more" requests on a single list into page
// jobs for a jobexecutor.Executor.
//
// The executor runs jobs one at a time and only knows about jobs; the Pager
// remembers which pages were requested and which arrived, derives the page
// count from the total item count and the page size, and assembles the
// loaded items in page order.
//
// Example usage:
//
//	exec := jobexecutor.New[movies.MovieItem](jobexecutor.WithName("movies"))
//	exec.AttachDataProvider(provider)
//
//	pager := pagination.NewPager(exec, pagination.DefaultConfig())
//	pager.Start()
//	pager.Wait(ctx)
//	for pager.LoadMore() {
//		pager.Wait(ctx)
//	}
//	snap := pager.Snapshot()
//
// Page 1 is the initial page. LoadMore requests the page after the highest
// one requested so far, and only once the initial page has reported a total
// that makes that page exist. Failed pages stay requested; Retry hands them
// back to the executor.
package pagination
