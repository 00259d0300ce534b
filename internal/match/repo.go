package match

import "context"

type ListOpts struct {
	UserID   string
	SeasonID string
	Status   string
	Limit    int
	Offset   int
}

// Store is the persistence surface for sessions and rounds. The session and
// its rounds are single-writer for their active lifetime; the only contended
// write is Finalize, which is conditional.
type Store interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, opts ListOpts) ([]Session, error)

	// SaveProgress persists the working board and round index after an
	// answer (and the submitted status flip when the last round lands).
	SaveProgress(ctx context.Context, s Session) error

	AppendRound(ctx context.Context, r Round) error
	ListRounds(ctx context.Context, sessionID string) ([]Round, error)

	// Finalize writes the terminal verdict only if the session is still
	// submitted. Returns false when a concurrent writer won; the caller
	// then reads back the stored verdict.
	Finalize(ctx context.Context, v Verdict) (bool, error)

	// EnsureEntry returns the entry id for user+season, creating it if
	// missing.
	EnsureEntry(ctx context.Context, userID, seasonID string) (string, error)

	// RecordResult folds a confirmed verdict into the season entry.
	RecordResult(ctx context.Context, entryID string, score int64, at int64) error

	// SweepExpired marks stale non-terminal sessions expired and returns
	// how many it touched.
	SweepExpired(ctx context.Context, olderThan int64) (int64, error)
}
