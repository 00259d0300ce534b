package syncx

import (
	"context"
	"database/sql"
	"time"
)

// Session lifecycle event types appended by the validator and the sweep.
const (
	EventSessionConfirmed = "SessionConfirmed"
	EventSessionInvalid   = "SessionInvalid"
	EventSessionExpired   = "SessionExpired"
	EventSessionsSwept    = "SessionsSwept"
)

type Event struct {
	Offset    int64
	SiteID    string
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// AppendTyped is the convenience form used by the match validator.
func (r *EventRepo) AppendTyped(ctx context.Context, typ, key, dataJSON string) error {
	return r.Append(ctx, Event{Type: typ, Key: key, DataJSON: dataJSON})
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}
