package service

import "testing"

func TestRankedValueApply(t *testing.T) {
	tests := []struct {
		name      string
		start     rankedValue
		candidate string
		rank      SourceRank
		want      string
		wantRank  SourceRank
	}{
		{
			name:      "higher rank wins",
			start:     rankedValue{value: "history-name", rank: RankMessageHistory},
			candidate: "social-name",
			rank:      RankSocialGraph,
			want:      "social-name",
			wantRank:  RankSocialGraph,
		},
		{
			name:      "lower rank is ignored",
			start:     rankedValue{value: "social-name", rank: RankSocialGraph},
			candidate: "directory-name",
			rank:      RankInboxDirectory,
			want:      "social-name",
			wantRank:  RankSocialGraph,
		},
		{
			name:      "equal rank last writer wins",
			start:     rankedValue{value: "pre-profile", rank: RankInboxDirectory},
			candidate: "canonical-profile",
			rank:      RankInboxDirectory,
			want:      "canonical-profile",
			wantRank:  RankInboxDirectory,
		},
		{
			name:      "empty candidate never wins",
			start:     rankedValue{value: "kept", rank: RankMessageHistory},
			candidate: "",
			rank:      RankSocialGraph,
			want:      "kept",
			wantRank:  RankMessageHistory,
		},
		{
			name:      "zero value accepts anything",
			start:     rankedValue{},
			candidate: "first",
			rank:      RankMessageHistory,
			want:      "first",
			wantRank:  RankMessageHistory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.apply(tt.candidate, tt.rank)
			if got.value != tt.want {
				t.Errorf("value = %q, want %q", got.value, tt.want)
			}
			if got.rank != tt.wantRank {
				t.Errorf("rank = %v, want %v", got.rank, tt.wantRank)
			}
		})
	}
}

// Applying the full cascade in any order must leave the highest-ranked
// non-empty candidate in place.
func TestRankedValueCascade(t *testing.T) {
	v := rankedValue{}
	v = v.apply("from-history", RankMessageHistory)
	v = v.apply("from-directory", RankInboxDirectory)
	v = v.apply("from-ens", RankNameService)
	v = v.apply("from-social", RankSocialGraph)
	if v.value != "from-social" {
		t.Fatalf("ascending order: got %q", v.value)
	}

	v = rankedValue{}
	v = v.apply("from-social", RankSocialGraph)
	v = v.apply("from-ens", RankNameService)
	v = v.apply("from-directory", RankInboxDirectory)
	v = v.apply("from-history", RankMessageHistory)
	if v.value != "from-social" {
		t.Fatalf("descending order: got %q", v.value)
	}
}

func TestSourceRankString(t *testing.T) {
	tests := []struct {
		rank SourceRank
		want string
	}{
		{RankSocialGraph, "social-graph"},
		{RankNameService, "name-service"},
		{RankInboxDirectory, "inbox-directory"},
		{RankMessageHistory, "message-history"},
	}
	for _, tt := range tests {
		if got := tt.rank.String(); got != tt.want {
			t.Errorf("SourceRank(%d).String() = %q, want %q", tt.rank, got, tt.want)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	got := firstNonEmpty(
		func() string { return "" },
		func() string { return "second" },
		func() string { return "third" },
	)
	if got != "second" {
		t.Errorf("got %q, want %q", got, "second")
	}

	if got := firstNonEmpty(func() string { return "" }); got != "" {
		t.Errorf("all empty: got %q, want empty", got)
	}
}
