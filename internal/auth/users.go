package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) Create(ctx context.Context, username, password, role string) (User, error) {
	if role == "" {
		role = "player"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{ID: uuid.NewString(), Username: username, Role: role}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id,username,pass_hash,role,created_at) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Username, string(hash), u.Role, time.Now().Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return u, nil
}

func (s *UserStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,username,pass_hash,role FROM users WHERE username=$1`, username)
	var u User
	var hash string
	err := row.Scan(&u.ID, &u.Username, &hash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserStore) ByID(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,username,role FROM users WHERE id=$1`, id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	return u, err
}

// EnsureAdmin makes sure the bootstrap admin from config exists. The hash is
// taken as-is (already bcrypt).
func (s *UserStore) EnsureAdmin(ctx context.Context, username, passHash string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id,username,pass_hash,role,created_at) VALUES ($1,$2,$3,'admin',$4)
		 ON CONFLICT (username) DO NOTHING`,
		uuid.NewString(), username, passHash, time.Now().Unix())
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}
