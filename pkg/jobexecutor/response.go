package jobexecutor

// InitialPagedResponse is the result of a first-page request.
type InitialPagedResponse[T any] struct {
	// TotalCount is the total number of items the source reports.
	TotalCount int
	// Items holds the items of the first page.
	Items []T
}

// FollowingPagedResponse is the result of a page-N request.
type FollowingPagedResponse[T any] struct {
	TotalCount int
	// PageNumber echoes the page number the job was created with.
	PageNumber int
	Items      []T
}
