package match

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateSession(ctx context.Context, sess Session) error {
	bj, err := json.Marshal(sess.Board)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id,user_id,season_id,entry_id,level_id,round_count,status,board_json,round_index,started_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		sess.ID, sess.UserID, sess.SeasonID, sess.EntryID, sess.LevelID, sess.RoundCount,
		sess.Status, string(bj), sess.RoundIndex, sess.StartedAt)
	return err
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,user_id,season_id,entry_id,level_id,round_count,status,board_json,round_index,
		        started_at,submitted_at,confirmed_at,score,correct_count,total_elapsed_ms,reasons_json
		 FROM sessions WHERE id=$1`, id)
	return scanSession(row)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	var bj string
	var submittedAt, confirmedAt, score, totalMs sql.NullInt64
	var correct sql.NullInt64
	var reasons sql.NullString
	err := row.Scan(&sess.ID, &sess.UserID, &sess.SeasonID, &sess.EntryID, &sess.LevelID,
		&sess.RoundCount, &sess.Status, &bj, &sess.RoundIndex, &sess.StartedAt,
		&submittedAt, &confirmedAt, &score, &correct, &totalMs, &reasons)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if err := json.Unmarshal([]byte(bj), &sess.Board); err != nil {
		return Session{}, fmt.Errorf("session %s board: %w", sess.ID, err)
	}
	sess.SubmittedAt = submittedAt.Int64
	sess.ConfirmedAt = confirmedAt.Int64
	sess.Score = score.Int64
	sess.CorrectCount = int(correct.Int64)
	sess.TotalElapsedMs = totalMs.Int64
	if reasons.Valid && reasons.String != "" {
		_ = json.Unmarshal([]byte(reasons.String), &sess.Reasons)
	}
	return sess, nil
}

func (s *SQLStore) ListSessions(ctx context.Context, opts ListOpts) ([]Session, error) {
	q := `SELECT id,user_id,season_id,entry_id,level_id,round_count,status,board_json,round_index,
	             started_at,submitted_at,confirmed_at,score,correct_count,total_elapsed_ms,reasons_json
	      FROM sessions WHERE 1=1`
	var args []any
	n := 0
	add := func(clause string, v any) {
		n++
		q += fmt.Sprintf(" AND %s=$%d", clause, n)
		args = append(args, v)
	}
	if opts.UserID != "" {
		add("user_id", opts.UserID)
	}
	if opts.SeasonID != "" {
		add("season_id", opts.SeasonID)
	}
	if opts.Status != "" {
		add("status", opts.Status)
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveProgress(ctx context.Context, sess Session) error {
	bj, err := json.Marshal(sess.Board)
	if err != nil {
		return err
	}
	var submittedAt any
	if sess.SubmittedAt != 0 {
		submittedAt = sess.SubmittedAt
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET board_json=$1, round_index=$2, status=$3, submitted_at=$4 WHERE id=$5`,
		string(bj), sess.RoundIndex, sess.Status, submittedAt, sess.ID)
	return err
}

func (s *SQLStore) AppendRound(ctx context.Context, r Round) error {
	bj, err := json.Marshal(r.BoardIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rounds (session_id,round_index,correct_poem_id,board_json,selected_poem_id,is_correct,elapsed_ms,answered_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.SessionID, r.RoundIndex, r.CorrectPoemID, string(bj), r.SelectedID, r.IsCorrect, r.ElapsedMs, r.AnsweredAt)
	return err
}

func (s *SQLStore) ListRounds(ctx context.Context, sessionID string) ([]Round, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id,round_index,correct_poem_id,board_json,selected_poem_id,is_correct,elapsed_ms,answered_at
		 FROM rounds WHERE session_id=$1 ORDER BY round_index`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Round
	for rows.Next() {
		var r Round
		var bj string
		if err := rows.Scan(&r.SessionID, &r.RoundIndex, &r.CorrectPoemID, &bj, &r.SelectedID, &r.IsCorrect, &r.ElapsedMs, &r.AnsweredAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(bj), &r.BoardIDs); err != nil {
			return nil, fmt.Errorf("round %s/%d board: %w", r.SessionID, r.RoundIndex, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Finalize is the guarded terminal write: it only lands while the session is
// still submitted, so two concurrent submissions cannot both win and an
// active match can never be settled. RowsAffected tells the loser to read
// back the winner's verdict.
func (s *SQLStore) Finalize(ctx context.Context, v Verdict) (bool, error) {
	rj, err := json.Marshal(v.Reasons)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions
		 SET status=$1, score=$2, correct_count=$3, total_elapsed_ms=$4, reasons_json=$5,
		     confirmed_at=$6, board_json='{}'
		 WHERE id=$7 AND status='submitted'`,
		v.Status, v.Score, v.CorrectCount, v.TotalElapsedMs, string(rj),
		time.Now().Unix(), v.SessionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLStore) EnsureEntry(ctx context.Context, userID, seasonID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM entries WHERE user_id=$1 AND season_id=$2`, userID, seasonID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	id = uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (id,user_id,season_id) VALUES ($1,$2,$3)
		 ON CONFLICT (user_id,season_id) DO NOTHING`, id, userID, seasonID)
	if err != nil {
		return "", err
	}
	// Re-read in case a concurrent insert won the conflict.
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM entries WHERE user_id=$1 AND season_id=$2`, userID, seasonID).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLStore) RecordResult(ctx context.Context, entryID string, score int64, at int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE entries SET
		   matches_played = matches_played + 1,
		   total_score    = total_score + $1,
		   best_score     = CASE WHEN $1 > best_score THEN $1 ELSE best_score END,
		   best_at        = CASE WHEN $1 > best_score THEN $2 ELSE best_at END,
		   last_played_at = $2
		 WHERE id=$3`, score, at, entryID)
	return err
}

func (s *SQLStore) SweepExpired(ctx context.Context, olderThan int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status='expired', board_json='{}'
		 WHERE status IN ('in_progress','submitted') AND started_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
