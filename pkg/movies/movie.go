package movies

import (
	"fmt"
	"strings"
)

// MovieItem is one entry of the discovery list.
type MovieItem struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	VoteCount   int     `json:"vote_count"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date"`
}

// SortOption is an upstream sort_by value.
type SortOption string

const (
	SortPopularity  SortOption = "popularity.desc"
	SortVoteAverage SortOption = "vote_average.desc"
	SortReleaseDate SortOption = "release_date.desc"
	SortRevenue     SortOption = "revenue.desc"
)

// DefaultSort is used when no sort is configured.
const DefaultSort = SortPopularity

// SortOptions lists the supported sort orders.
func SortOptions() []SortOption {
	return []SortOption{SortPopularity, SortVoteAverage, SortReleaseDate, SortRevenue}
}

// ParseSortOption accepts either the sort_by value ("vote_average.desc") or
// its short name ("vote_average"), case-insensitively.
func ParseSortOption(s string) (SortOption, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return "", fmt.Errorf("empty sort option")
	}
	for _, opt := range SortOptions() {
		if normalized == string(opt) || normalized == opt.Name() {
			return opt, nil
		}
	}
	return "", fmt.Errorf("unknown sort option %q", s)
}

// Name returns the sort field without its direction.
func (s SortOption) Name() string {
	return strings.TrimSuffix(string(s), ".desc")
}

func (s SortOption) String() string {
	return string(s)
}
