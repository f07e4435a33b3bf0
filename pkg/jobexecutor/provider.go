package jobexecutor

// PagedDataProvider is the data source the executor delegates to.
//
// Both operations are asynchronous and single-shot: an implementation must
// invoke exactly one of the two callbacks exactly once, from any goroutine,
// possibly before the call returns.
type PagedDataProvider[T any] interface {
	// RequestInitialPage fetches the first page.
	RequestInitialPage(onSuccess func(InitialPagedResponse[T]), onFailure func(error))

	// RequestPage fetches the given page. The page number is passed through
	// as-is; the executor does not validate it.
	RequestPage(page int, onSuccess func(FollowingPagedResponse[T]), onFailure func(error))
}
