package group

import "errors"

var (
	ErrNotFound  = errors.New("group not found")
	ErrNotOwner  = errors.New("only the group owner may do this")
	ErrNotMember = errors.New("not a member of this group")
)

type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerID     string `json:"owner_id"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
	MemberCount int    `json:"member_count,omitempty"`
}

type Member struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	JoinedAt int64  `json:"joined_at"`
}

// LeaderboardRow is a member's standing in one season, for the club board.
type LeaderboardRow struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	BestScore     int64  `json:"best_score"`
	MatchesPlayed int    `json:"matches_played"`
}
