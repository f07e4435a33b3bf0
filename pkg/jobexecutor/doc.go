// Package jobexecutor provides a sequential, single-flight executor for paged
// data requests.
//
// Callers submit "load the first page" and "load page N" requests. Each request
// becomes a job in a FIFO queue and exactly one job talks to the attached
// PagedDataProvider at a time. Every job delivers its own typed result to its
// own callback, while a single aggregate BatchStatus tracks whether something
// is in flight and how the tail of the current burst ended.
//
// Example usage:
//
//	exec := jobexecutor.New[movies.MovieItem](
//		jobexecutor.WithName("movies"),
//		jobexecutor.WithStatusObserver(func(s jobexecutor.BatchStatus) {
//			log.Info().Str("status", s.String()).Msg("List status changed")
//		}),
//	)
//	exec.AttachDataProvider(provider)
//	exec.LoadInitialPage(func(r jobexecutor.InitialPagedResponse[movies.MovieItem]) { ... })
//	exec.LoadPage(2, func(r jobexecutor.FollowingPagedResponse[movies.MovieItem]) { ... })
//
// Aggregate status rules:
//   - Loading is emitted every time a job is started
//   - Loaded / Failed are emitted only when a job completes and no job is pending
//   - a failure in the middle of a burst is kept in the failed-job store and
//     never reported through the aggregate status
//
// Failed jobs are retried only when RetryFailedJobs is called. They are put in
// front of the pending queue in the order they failed.
//
// Known limitations: a dispatched job cannot be cancelled and has no timeout
// of its own, and neither the queue nor the failed-job store is bounded.
package jobexecutor
