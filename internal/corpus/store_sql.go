package corpus

import (
	"context"
	"database/sql"
	"errors"
)

// SQLStore persists the corpus and implements Accessor on top of it.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// Replace validates and installs a full corpus, replacing whatever was
// there. Imports are all-or-nothing; a partial corpus would break level
// eligibility pools.
func (s *SQLStore) Replace(ctx context.Context, poems []Poem) error {
	if err := Validate(poems); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM poems`); err != nil {
		return err
	}
	for _, p := range poems {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO poems (id,ord,kami,kami_kana,shimo,shimo_kana,kimariji,kimariji_len,author)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			p.ID, p.Order, p.Kami, p.KamiKana, p.Shimo, p.ShimoKana, p.Kimariji, p.KimarijiLen, p.Author); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) All(ctx context.Context) ([]Poem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,ord,kami,kami_kana,shimo,shimo_kana,kimariji,kimariji_len,author FROM poems ORDER BY ord`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPoems(rows)
}

func (s *SQLStore) ByID(ctx context.Context, id string) (Poem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,ord,kami,kami_kana,shimo,shimo_kana,kimariji,kimariji_len,author FROM poems WHERE id=$1`, id)
	var p Poem
	err := row.Scan(&p.ID, &p.Order, &p.Kami, &p.KamiKana, &p.Shimo, &p.ShimoKana, &p.Kimariji, &p.KimarijiLen, &p.Author)
	if errors.Is(err, sql.ErrNoRows) {
		return Poem{}, ErrNotFound
	}
	if err != nil {
		return Poem{}, err
	}
	return p, nil
}

func (s *SQLStore) FilterByMaxKimariji(ctx context.Context, n int) ([]Poem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,ord,kami,kami_kana,shimo,shimo_kana,kimariji,kimariji_len,author
		 FROM poems WHERE kimariji_len <= $1 ORDER BY ord`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPoems(rows)
}

func scanPoems(rows *sql.Rows) ([]Poem, error) {
	var out []Poem
	for rows.Next() {
		var p Poem
		if err := rows.Scan(&p.ID, &p.Order, &p.Kami, &p.KamiKana, &p.Shimo, &p.ShimoKana, &p.Kimariji, &p.KimarijiLen, &p.Author); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
