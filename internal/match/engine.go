package match

import (
	"context"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/fudahub/fudahub/internal/config"
	"github.com/fudahub/fudahub/internal/corpus"
)

// Engine drives a session through its lifecycle: in_progress while rounds
// are answered, submitted once the last round lands, then handed to the
// Validator for the terminal verdict. One learner, one session, one writer;
// the working board rides on the session row so any instance can serve the
// next answer.
type Engine struct {
	store     Store
	poems     corpus.Accessor
	cfg       config.MatchConfig
	rng       Rand
	validator *Validator
	now       func() time.Time
}

func NewEngine(store Store, poems corpus.Accessor, cfg config.MatchConfig, v *Validator, rng Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{store: store, poems: poems, cfg: cfg, rng: rng, validator: v, now: time.Now}
}

// Question is what the learner sees for one round: the recited half of the
// correct poem and the grabbing cards for every board slot. Which card
// matches is exactly what the learner is being tested on.
type Question struct {
	SessionID  string `json:"session_id"`
	RoundIndex int    `json:"round_index"`
	Prompt     string `json:"prompt"`
	PromptKana string `json:"prompt_kana"`
	Cards      []Card `json:"cards"`
}

type Card struct {
	PoemID    string `json:"poem_id"`
	Shimo     string `json:"shimo"`
	ShimoKana string `json:"shimo_kana"`
}

type AnswerResult struct {
	RoundIndex    int       `json:"round_index"`
	IsCorrect     bool      `json:"is_correct"`
	CorrectPoemID string    `json:"correct_poem_id"`
	Completed     bool      `json:"completed"`
	Next          *Question `json:"next,omitempty"`
	// Duplicate is set when the round index was already answered and the
	// call was a no-op.
	Duplicate bool `json:"duplicate,omitempty"`
}

// Start creates a session for the given level in the given season and deals
// the first board. A level whose eligibility pool is smaller than its board
// size fails here with ErrPoolTooSmall and no session is created.
func (e *Engine) Start(ctx context.Context, userID, levelID, seasonID string) (Session, Question, error) {
	level, ok := LevelByID(levelID)
	if !ok {
		return Session{}, Question{}, ErrLevelNotFound
	}
	eligible, err := e.poems.FilterByMaxKimariji(ctx, level.MaxKimariji)
	if err != nil {
		return Session{}, Question{}, err
	}
	board, err := Initialize(eligible, level.BoardSize, e.rng)
	if err != nil {
		return Session{}, Question{}, err
	}
	entryID, err := e.store.EnsureEntry(ctx, userID, seasonID)
	if err != nil {
		return Session{}, Question{}, err
	}
	sess := Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		SeasonID:   seasonID,
		EntryID:    entryID,
		LevelID:    level.ID,
		RoundCount: level.RoundCount,
		Status:     StatusInProgress,
		Board:      board,
		StartedAt:  e.now().Unix(),
	}
	if err := e.store.CreateSession(ctx, sess); err != nil {
		return Session{}, Question{}, err
	}
	q, err := e.question(ctx, sess)
	if err != nil {
		return Session{}, Question{}, err
	}
	return sess, q, nil
}

// Answer records the learner's pick for one round. Calls for an already
// processed round index are idempotent no-ops. Elapsed time is clamped to
// the configured floor to absorb timer-resolution noise and reject
// zero-latency artifacts.
func (e *Engine) Answer(ctx context.Context, sessionID, userID string, roundIndex int, selectedID string, elapsedMs int64) (AnswerResult, error) {
	sess, err := e.owned(ctx, sessionID, userID)
	if err != nil {
		return AnswerResult{}, err
	}
	if sess.Status != StatusInProgress {
		return AnswerResult{}, ErrWrongState
	}
	if roundIndex != sess.RoundIndex {
		// Duplicate or out-of-order delivery; report current position
		// without mutating anything.
		return AnswerResult{RoundIndex: sess.RoundIndex, Duplicate: true}, nil
	}

	if elapsedMs < e.cfg.RoundFloorMs {
		elapsedMs = e.cfg.RoundFloorMs
	}
	isCorrect := selectedID == sess.Board.CorrectID

	rec := Round{
		SessionID:     sess.ID,
		RoundIndex:    roundIndex,
		CorrectPoemID: sess.Board.CorrectID,
		BoardIDs:      append([]string{}, sess.Board.Slots...),
		SelectedID:    selectedID,
		IsCorrect:     isCorrect,
		ElapsedMs:     elapsedMs,
		AnsweredAt:    e.now().Unix(),
	}
	if err := e.appendWithRetry(ctx, rec); err != nil {
		// Availability over durability: the learner keeps playing and the
		// validator will judge the resulting gap at submission.
		log.Printf("match: round append failed for session %s round %d: %v", sess.ID, roundIndex, err)
	}

	prevCorrect := sess.Board.CorrectID
	sess.RoundIndex++
	res := AnswerResult{RoundIndex: roundIndex, IsCorrect: isCorrect, CorrectPoemID: prevCorrect}

	if sess.RoundIndex >= sess.RoundCount {
		sess.Status = StatusSubmitted
		sess.SubmittedAt = e.now().Unix()
		sess.Board = Board{UsedIDs: append(sess.Board.UsedIDs, prevCorrect)}
		res.Completed = true
	} else {
		level, _ := LevelByID(sess.LevelID)
		eligible, err := e.poems.FilterByMaxKimariji(ctx, level.MaxKimariji)
		if err != nil {
			return AnswerResult{}, err
		}
		ids := make([]string, len(eligible))
		for i, p := range eligible {
			ids[i] = p.ID
		}
		sess.Board = Advance(sess.Board, ids, selectedID, isCorrect, e.rng)
	}

	if err := e.store.SaveProgress(ctx, sess); err != nil {
		return AnswerResult{}, err
	}
	if !res.Completed {
		q, err := e.question(ctx, sess)
		if err != nil {
			return AnswerResult{}, err
		}
		res.Next = &q
	}
	return res, nil
}

// Submit asks the validator for the authoritative verdict. Only a session
// whose last round has been answered can be judged; submitting mid-match is
// ErrWrongState. Safe to retry: the validator returns the stored verdict for
// already-terminal sessions.
func (e *Engine) Submit(ctx context.Context, sessionID, userID string) (Verdict, error) {
	return e.validator.Validate(ctx, sessionID, userID)
}

// CurrentQuestion rebuilds the question for the session's current round.
func (e *Engine) CurrentQuestion(ctx context.Context, sessionID, userID string) (Question, error) {
	sess, err := e.owned(ctx, sessionID, userID)
	if err != nil {
		return Question{}, err
	}
	if sess.Status != StatusInProgress {
		return Question{}, ErrWrongState
	}
	return e.question(ctx, sess)
}

// Stats recomputes the running aggregates from the persisted rounds.
// Accuracy is rounded to the nearest integer percent.
func (e *Engine) Stats(ctx context.Context, sessionID, userID string) (Stats, error) {
	if _, err := e.owned(ctx, sessionID, userID); err != nil {
		return Stats{}, err
	}
	rounds, err := e.store.ListRounds(ctx, sessionID)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(rounds), nil
}

func ComputeStats(rounds []Round) Stats {
	var st Stats
	for _, r := range rounds {
		st.RoundsAnswered++
		if r.IsCorrect {
			st.CorrectCount++
		}
		st.TotalElapsedMs += r.ElapsedMs
	}
	if st.RoundsAnswered > 0 {
		st.AverageElapsedMs = st.TotalElapsedMs / int64(st.RoundsAnswered)
		st.AccuracyPercent = int(math.Round(float64(st.CorrectCount) / float64(st.RoundsAnswered) * 100))
	}
	return st
}

func (e *Engine) owned(ctx context.Context, sessionID, userID string) (Session, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if userID != "" && sess.UserID != userID {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (e *Engine) appendWithRetry(ctx context.Context, r Round) error {
	err := e.store.AppendRound(ctx, r)
	for i := 0; err != nil && i < e.cfg.AppendRetries; i++ {
		err = e.store.AppendRound(ctx, r)
	}
	return err
}

func (e *Engine) question(ctx context.Context, sess Session) (Question, error) {
	prompt, err := e.poems.ByID(ctx, sess.Board.CorrectID)
	if err != nil {
		return Question{}, err
	}
	q := Question{
		SessionID:  sess.ID,
		RoundIndex: sess.RoundIndex,
		Prompt:     prompt.Kami,
		PromptKana: prompt.KamiKana,
		Cards:      make([]Card, 0, len(sess.Board.Slots)),
	}
	for _, id := range sess.Board.Slots {
		p, err := e.poems.ByID(ctx, id)
		if err != nil {
			return Question{}, err
		}
		q.Cards = append(q.Cards, Card{PoemID: p.ID, Shimo: p.Shimo, ShimoKana: p.ShimoKana})
	}
	return q, nil
}
