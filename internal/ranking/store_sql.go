package ranking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateSeason(ctx context.Context, name string, startsAt, endsAt int64) (Season, error) {
	se := Season{ID: uuid.NewString(), Name: name, StartsAt: startsAt, EndsAt: endsAt}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO seasons (id,name,starts_at,ends_at) VALUES ($1,$2,$3,$4)`,
		se.ID, se.Name, se.StartsAt, se.EndsAt)
	if err != nil {
		return Season{}, err
	}
	return se, nil
}

// CurrentSeason returns the season whose window contains now. When windows
// overlap the most recently started one wins.
func (s *SQLStore) CurrentSeason(ctx context.Context, now int64) (Season, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,name,starts_at,ends_at FROM seasons
		 WHERE starts_at <= $1 AND ends_at > $1
		 ORDER BY starts_at DESC LIMIT 1`, now)
	var se Season
	err := row.Scan(&se.ID, &se.Name, &se.StartsAt, &se.EndsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Season{}, ErrNoCurrentSeason
	}
	if err != nil {
		return Season{}, err
	}
	return se, nil
}

func (s *SQLStore) GetSeason(ctx context.Context, id string) (Season, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,name,starts_at,ends_at FROM seasons WHERE id=$1`, id)
	var se Season
	err := row.Scan(&se.ID, &se.Name, &se.StartsAt, &se.EndsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Season{}, ErrNoCurrentSeason
	}
	if err != nil {
		return Season{}, err
	}
	return se, nil
}

// List returns one page of the season's banzuke: entries by best score
// descending, ties broken by whoever got there first. Ranks are dense (tied
// scores share a rank) and computed over the whole season in SQL, so a tie
// spanning a page boundary keeps its rank on both pages.
func (s *SQLStore) List(ctx context.Context, seasonID string, limit, offset int) ([]RankedEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.user_id, u.username, e.season_id, e.matches_played,
		        e.best_score, e.total_score, COALESCE(e.best_at,0), COALESCE(e.last_played_at,0),
		        DENSE_RANK() OVER (ORDER BY e.best_score DESC)
		 FROM entries e JOIN users u ON u.id = e.user_id
		 WHERE e.season_id=$1 AND e.matches_played > 0
		 ORDER BY e.best_score DESC, e.best_at ASC
		 LIMIT $2 OFFSET $3`, seasonID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RankedEntry
	for rows.Next() {
		var re RankedEntry
		if err := rows.Scan(&re.ID, &re.UserID, &re.Username, &re.SeasonID, &re.MatchesPlayed,
			&re.BestScore, &re.TotalScore, &re.BestAt, &re.LastPlayedAt, &re.Rank); err != nil {
			return nil, err
		}
		re.Title = TitleForRank(re.Rank)
		out = append(out, re)
	}
	return out, rows.Err()
}
