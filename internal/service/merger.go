package service

// SourceRank orders the display-field precedence of the upstream sources.
// Higher wins; at equal rank the last writer wins, which is what lets a
// canonical inbox profile override the pre-resolution one.
type SourceRank int

const (
	RankMessageHistory SourceRank = iota
	RankInboxDirectory
	RankNameService
	RankSocialGraph
)

func (r SourceRank) String() string {
	switch r {
	case RankSocialGraph:
		return "social-graph"
	case RankNameService:
		return "name-service"
	case RankInboxDirectory:
		return "inbox-directory"
	default:
		return "message-history"
	}
}

// rankedValue is a display-field accumulator: the current best value and
// the rank of the source that supplied it.
type rankedValue struct {
	value string
	rank  SourceRank
}

// apply offers a candidate at the given rank. The candidate wins when it is
// non-empty and its rank is greater than or equal to the held rank.
func (v rankedValue) apply(candidate string, rank SourceRank) rankedValue {
	if candidate == "" || rank < v.rank {
		return v
	}
	return rankedValue{value: candidate, rank: rank}
}

// firstNonEmpty walks an ordered list of candidate providers and returns the
// first non-empty value. It makes fallback chains a first-class list instead
// of implicit code order.
func firstNonEmpty(providers ...func() string) string {
	for _, p := range providers {
		if v := p(); v != "" {
			return v
		}
	}
	return ""
}
