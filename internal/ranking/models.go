package ranking

import "errors"

var ErrNoCurrentSeason = errors.New("no current season")

type Season struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	StartsAt int64  `json:"starts_at"`
	EndsAt   int64  `json:"ends_at"`
}

// Entry is one user's standing in one season, folded in by the validator on
// each confirmed session.
type Entry struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	SeasonID      string `json:"season_id"`
	MatchesPlayed int    `json:"matches_played"`
	BestScore     int64  `json:"best_score"`
	TotalScore    int64  `json:"total_score"`
	BestAt        int64  `json:"best_at,omitempty"`
	LastPlayedAt  int64  `json:"last_played_at,omitempty"`
}

// RankedEntry is an Entry with its banzuke position resolved.
type RankedEntry struct {
	Entry
	Username string `json:"username"`
	Rank     int    `json:"rank"`
	Title    string `json:"title"`
}

// banzuke titles by position, sumo style. Everyone below the named ranks is
// a maegashira numbered by how far down they sit.
var titles = []string{"横綱", "大関", "関脇", "小結"}

func TitleForRank(rank int) string {
	if rank >= 1 && rank <= len(titles) {
		return titles[rank-1]
	}
	return "前頭"
}
