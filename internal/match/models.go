package match

import "errors"

// Session status lifecycle. A session is mutable while in_progress or
// submitted; the three terminal states are immutable once written.
const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
	StatusConfirmed  = "confirmed"
	StatusInvalid    = "invalid"
	StatusExpired    = "expired"
)

// Invalidity reason codes returned by the validator. Human-readable on
// purpose: the learner and admin dashboards show them verbatim.
const (
	ReasonIncompleteRounds  = "incomplete_rounds"
	ReasonExcessRounds      = "excess_rounds"
	ReasonDuplicateRound    = "duplicate_round"
	ReasonUnknownPoem       = "unknown_poem"
	ReasonCorrectNotOnBoard = "correct_not_on_board"
	ReasonRoundTooFast      = "round_too_fast"
	ReasonRoundTooSlow      = "round_too_slow"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotOwner        = errors.New("session belongs to another user")
	ErrWrongState      = errors.New("session is not in a valid state for this operation")
	ErrLevelNotFound   = errors.New("level not found")
)

type Session struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	SeasonID   string `json:"season_id"`
	EntryID    string `json:"entry_id"`
	LevelID    string `json:"level_id"`
	RoundCount int    `json:"round_count"`
	Status     string `json:"status"`

	// Board is the transient working state, persisted on the session row so
	// answer requests can land on any instance. Cleared on submission.
	Board Board `json:"board"`

	RoundIndex  int   `json:"round_index"`
	StartedAt   int64 `json:"started_at"` // unix seconds
	SubmittedAt int64 `json:"submitted_at,omitempty"`
	ConfirmedAt int64 `json:"confirmed_at,omitempty"`

	Score          int64    `json:"score,omitempty"`
	CorrectCount   int      `json:"correct_count,omitempty"`
	TotalElapsedMs int64    `json:"total_elapsed_ms,omitempty"`
	Reasons        []string `json:"reasons,omitempty"`
}

func (s Session) Terminal() bool {
	switch s.Status {
	case StatusConfirmed, StatusInvalid, StatusExpired:
		return true
	}
	return false
}

// Board is the working set of candidate cards for the current round. Slots
// keeps display order; replacements happen in place so the client UI does
// not reflow.
type Board struct {
	Slots     []string `json:"slots"`
	CorrectID string   `json:"correct_id"`
	// UsedIDs are poems already played as the correct answer this session,
	// excluded from the next-correct pick until the pool runs dry.
	UsedIDs []string `json:"used_ids"`
}

func (b Board) Contains(id string) bool {
	for _, s := range b.Slots {
		if s == id {
			return true
		}
	}
	return false
}

type Round struct {
	SessionID     string   `json:"session_id"`
	RoundIndex    int      `json:"round_index"`
	CorrectPoemID string   `json:"correct_poem_id"`
	BoardIDs      []string `json:"board_ids"`
	SelectedID    string   `json:"selected_poem_id"`
	IsCorrect     bool     `json:"is_correct"`
	ElapsedMs     int64    `json:"elapsed_ms"`
	AnsweredAt    int64    `json:"answered_at"`
}

// Verdict is the validator's authoritative outcome for a session.
type Verdict struct {
	SessionID      string   `json:"session_id"`
	Status         string   `json:"status"` // confirmed|invalid|expired
	Score          int64    `json:"score"`
	CorrectCount   int      `json:"correct_count"`
	TotalElapsedMs int64    `json:"total_elapsed_ms"`
	Reasons        []string `json:"reasons,omitempty"`
}

// Stats is the running client-facing aggregate; the server never trusts it
// for scoring.
type Stats struct {
	RoundsAnswered   int   `json:"rounds_answered"`
	CorrectCount     int   `json:"correct_count"`
	TotalElapsedMs   int64 `json:"total_elapsed_ms"`
	AverageElapsedMs int64 `json:"average_elapsed_ms"`
	AccuracyPercent  int   `json:"accuracy_percent"`
}
