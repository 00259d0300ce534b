package match_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fudahub/fudahub/internal/match"
)

// fakeStore is an in-memory match.Store with failure injection for the
// append path and call counting for idempotency checks.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]match.Session
	rounds   map[string][]match.Round
	entries  map[string]string // user|season -> entry id

	failAppends   int // fail this many AppendRound calls, then succeed
	appendCalls   int
	finalizeCalls int
	results       []recordedResult
}

type recordedResult struct {
	entryID string
	score   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]match.Session{},
		rounds:   map[string][]match.Round{},
		entries:  map[string]string{},
	}
}

func (f *fakeStore) CreateSession(ctx context.Context, s match.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) GetSession(ctx context.Context, id string) (match.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return match.Session{}, match.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeStore) ListSessions(ctx context.Context, opts match.ListOpts) ([]match.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []match.Session
	for _, s := range f.sessions {
		if opts.UserID != "" && s.UserID != opts.UserID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) SaveProgress(ctx context.Context, s match.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.sessions[s.ID]
	if !ok {
		return match.ErrSessionNotFound
	}
	cur.Board = s.Board
	cur.RoundIndex = s.RoundIndex
	cur.Status = s.Status
	cur.SubmittedAt = s.SubmittedAt
	f.sessions[s.ID] = cur
	return nil
}

func (f *fakeStore) AppendRound(ctx context.Context, r match.Round) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendCalls++
	if f.failAppends > 0 {
		f.failAppends--
		return errors.New("simulated append failure")
	}
	f.rounds[r.SessionID] = append(f.rounds[r.SessionID], r)
	return nil
}

func (f *fakeStore) ListRounds(ctx context.Context, sessionID string) ([]match.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]match.Round, len(f.rounds[sessionID]))
	copy(out, f.rounds[sessionID])
	return out, nil
}

func (f *fakeStore) Finalize(ctx context.Context, v match.Verdict) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalizeCalls++
	s, ok := f.sessions[v.SessionID]
	if !ok {
		return false, match.ErrSessionNotFound
	}
	if s.Status != match.StatusSubmitted {
		return false, nil
	}
	s.Status = v.Status
	s.Score = v.Score
	s.CorrectCount = v.CorrectCount
	s.TotalElapsedMs = v.TotalElapsedMs
	s.Reasons = v.Reasons
	f.sessions[v.SessionID] = s
	return true, nil
}

func (f *fakeStore) EnsureEntry(ctx context.Context, userID, seasonID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := userID + "|" + seasonID
	if id, ok := f.entries[k]; ok {
		return id, nil
	}
	id := fmt.Sprintf("entry-%d", len(f.entries)+1)
	f.entries[k] = id
	return id, nil
}

func (f *fakeStore) RecordResult(ctx context.Context, entryID string, score int64, at int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, recordedResult{entryID: entryID, score: score})
	return nil
}

func (f *fakeStore) SweepExpired(ctx context.Context, olderThan int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.sessions {
		if !s.Terminal() && s.StartedAt < olderThan {
			s.Status = match.StatusExpired
			f.sessions[id] = s
			n++
		}
	}
	return n, nil
}
