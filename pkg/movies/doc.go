// Package movies adapts the page client to the job executor for the movie
// discovery list.
//
// A Provider is bound to one sort order and implements
// jobexecutor.PagedDataProvider[MovieItem]. Every request runs on its own
// goroutine under a per-request timeout and finishes through exactly one of
// its callbacks:
//
//	factory := movies.NewProviderFactory(pageClient, 10*time.Second)
//	provider := factory.Create(movies.SortPopularity)
//	defer provider.Close()
//
//	exec := jobexecutor.New[movies.MovieItem]()
//	exec.AttachDataProvider(provider)
//
// Closing a provider cancels its in-flight requests, which then fail with a
// context error.
package movies
