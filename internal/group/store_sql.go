package group

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// Create makes a group and enrolls the owner as its first member.
func (s *SQLStore) Create(ctx context.Context, name, description, ownerID string) (Group, error) {
	g := Group{
		ID:          uuid.NewString(),
		Name:        name,
		OwnerID:     ownerID,
		Description: description,
		CreatedAt:   time.Now().Unix(),
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Group{}, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO groups (id,name,owner_id,description,created_at) VALUES ($1,$2,$3,$4,$5)`,
		g.ID, g.Name, g.OwnerID, g.Description, g.CreatedAt); err != nil {
		return Group{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id,user_id,joined_at) VALUES ($1,$2,$3)`,
		g.ID, ownerID, g.CreatedAt); err != nil {
		return Group{}, err
	}
	if err := tx.Commit(); err != nil {
		return Group{}, err
	}
	g.MemberCount = 1
	return g, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Group, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT g.id, g.name, g.owner_id, g.description, g.created_at,
		        (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id)
		 FROM groups g WHERE g.id=$1`, id)
	var g Group
	err := row.Scan(&g.ID, &g.Name, &g.OwnerID, &g.Description, &g.CreatedAt, &g.MemberCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, err
	}
	return g, nil
}

func (s *SQLStore) List(ctx context.Context, limit, offset int) ([]Group, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.owner_id, g.description, g.created_at,
		        (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id)
		 FROM groups g ORDER BY g.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.OwnerID, &g.Description, &g.CreatedAt, &g.MemberCount); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLStore) Join(ctx context.Context, groupID, userID string) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id,user_id,joined_at) VALUES ($1,$2,$3)
		 ON CONFLICT (group_id,user_id) DO NOTHING`,
		groupID, userID, time.Now().Unix())
	return err
}

// Leave removes a member. The owner removing someone else requires owner
// checks in the caller; the owner cannot leave their own group.
func (s *SQLStore) Leave(ctx context.Context, groupID, userID string) error {
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == userID {
		return ErrNotOwner
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotMember
	}
	return nil
}

// RemoveMember is the owner expelling a member. Only the owner may do it,
// and the owner cannot expel themselves.
func (s *SQLStore) RemoveMember(ctx context.Context, groupID, callerID, targetID string) error {
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID != callerID || targetID == g.OwnerID {
		return ErrNotOwner
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, targetID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotMember
	}
	return nil
}

func (s *SQLStore) Members(ctx context.Context, groupID string) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.user_id, u.username, m.joined_at
		 FROM group_members m JOIN users u ON u.id = m.user_id
		 WHERE m.group_id=$1 ORDER BY m.joined_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Username, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Leaderboard joins the club roster against the season's entries.
func (s *SQLStore) Leaderboard(ctx context.Context, groupID, seasonID string) ([]LeaderboardRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.user_id, u.username, COALESCE(e.best_score,0), COALESCE(e.matches_played,0)
		 FROM group_members m
		 JOIN users u ON u.id = m.user_id
		 LEFT JOIN entries e ON e.user_id = m.user_id AND e.season_id = $2
		 WHERE m.group_id = $1
		 ORDER BY COALESCE(e.best_score,0) DESC, u.username`, groupID, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.BestScore, &r.MatchesPlayed); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
