package match

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/fudahub/fudahub/internal/config"
	"github.com/fudahub/fudahub/internal/corpus"
)

// EventSink receives session lifecycle events. Nil-able.
type EventSink interface {
	AppendTyped(ctx context.Context, typ, key, dataJSON string) error
}

// Validator produces the single authoritative verdict for a session. It
// never trusts client-reported aggregates: correct count and elapsed time
// are re-derived from the persisted rounds, and card content is checked
// against the corpus. The terminal write is conditional, which is what makes
// Submit safe to retry.
type Validator struct {
	store  Store
	poems  corpus.Accessor
	cfg    config.MatchConfig
	events EventSink
	now    func() time.Time
}

func NewValidator(store Store, poems corpus.Accessor, cfg config.MatchConfig, events EventSink) *Validator {
	return &Validator{store: store, poems: poems, cfg: cfg, events: events, now: time.Now}
}

// Validate settles the session identified by sessionID. callerID guards
// ownership; the empty string skips the check (admin re-validation). A
// session that is already terminal returns its stored verdict unchanged.
func (v *Validator) Validate(ctx context.Context, sessionID, callerID string) (Verdict, error) {
	sess, err := v.store.GetSession(ctx, sessionID)
	if err != nil {
		return Verdict{}, err
	}
	if callerID != "" && sess.UserID != callerID {
		return Verdict{}, ErrSessionNotFound
	}
	if sess.Terminal() {
		return storedVerdict(sess), nil
	}
	// Only a fully answered session may be judged. An in_progress session is
	// still the learner's live match; abandoned ones are settled by the
	// expiry sweep, not by a stray submit.
	if sess.Status != StatusSubmitted {
		return Verdict{}, ErrWrongState
	}

	verdict := v.judge(ctx, sess)

	won, err := v.store.Finalize(ctx, verdict)
	if err != nil {
		return Verdict{}, err
	}
	if !won {
		// A concurrent submission landed first; its verdict is the truth.
		settled, err := v.store.GetSession(ctx, sessionID)
		if err != nil {
			return Verdict{}, err
		}
		return storedVerdict(settled), nil
	}

	if verdict.Status == StatusConfirmed {
		if err := v.store.RecordResult(ctx, sess.EntryID, verdict.Score, v.now().Unix()); err != nil {
			log.Printf("match: record result for entry %s: %v", sess.EntryID, err)
		}
	}
	v.emit(ctx, verdict)
	return verdict, nil
}

// judge re-derives the verdict from the persisted rounds and the corpus.
// Structural problems yield a well-formed invalid result, never an error.
func (v *Validator) judge(ctx context.Context, sess Session) Verdict {
	verdict := Verdict{SessionID: sess.ID}

	if v.now().Unix()-sess.StartedAt > int64(v.cfg.Expiry/time.Second) {
		verdict.Status = StatusExpired
		return verdict
	}

	rounds, err := v.store.ListRounds(ctx, sess.ID)
	if err != nil {
		// Treat an unreadable round set like a missing one: invalid, not a
		// crash, so the learner sees a reason instead of a 500.
		log.Printf("match: list rounds for session %s: %v", sess.ID, err)
		verdict.Status = StatusInvalid
		verdict.Reasons = []string{ReasonIncompleteRounds}
		return verdict
	}

	reasons := newReasonSet()
	seen := make(map[int]bool, len(rounds))
	correct := 0
	var totalMs int64

	for _, r := range rounds {
		if r.RoundIndex < 0 || r.RoundIndex >= sess.RoundCount {
			// A row beyond the configured round count never contributes to
			// the score; it can only have been planted.
			reasons.add(ReasonExcessRounds)
			continue
		}
		if seen[r.RoundIndex] {
			reasons.add(ReasonDuplicateRound)
			continue
		}
		seen[r.RoundIndex] = true

		if r.ElapsedMs < v.cfg.RoundFloorMs {
			reasons.add(ReasonRoundTooFast)
		}
		if r.ElapsedMs > v.cfg.RoundCeilingMs {
			reasons.add(ReasonRoundTooSlow)
		}

		if _, err := v.poems.ByID(ctx, r.CorrectPoemID); err != nil {
			reasons.add(ReasonUnknownPoem)
		}
		if !contains(r.BoardIDs, r.CorrectPoemID) {
			reasons.add(ReasonCorrectNotOnBoard)
		}

		// Correctness is re-derived, never read from the stored flag.
		if r.SelectedID == r.CorrectPoemID {
			correct++
		}
		totalMs += r.ElapsedMs
	}

	for i := 0; i < sess.RoundCount; i++ {
		if !seen[i] {
			reasons.add(ReasonIncompleteRounds)
			break
		}
	}

	verdict.CorrectCount = correct
	verdict.TotalElapsedMs = totalMs
	if rs := reasons.list(); len(rs) > 0 {
		verdict.Status = StatusInvalid
		verdict.Reasons = rs
		return verdict
	}
	verdict.Status = StatusConfirmed
	verdict.Score = ComputeScore(correct, totalMs, sess.RoundCount, v.cfg)
	return verdict
}

func (v *Validator) emit(ctx context.Context, verdict Verdict) {
	if v.events == nil {
		return
	}
	typ := map[string]string{
		StatusConfirmed: "SessionConfirmed",
		StatusInvalid:   "SessionInvalid",
		StatusExpired:   "SessionExpired",
	}[verdict.Status]
	data, _ := json.Marshal(verdict)
	if err := v.events.AppendTyped(ctx, typ, verdict.SessionID, string(data)); err != nil {
		log.Printf("match: event append for session %s: %v", verdict.SessionID, err)
	}
}

func storedVerdict(sess Session) Verdict {
	return Verdict{
		SessionID:      sess.ID,
		Status:         sess.Status,
		Score:          sess.Score,
		CorrectCount:   sess.CorrectCount,
		TotalElapsedMs: sess.TotalElapsedMs,
		Reasons:        sess.Reasons,
	}
}

// reasonSet keeps reason codes unique while preserving first-seen order.
type reasonSet struct {
	seen  map[string]bool
	order []string
}

func newReasonSet() *reasonSet { return &reasonSet{seen: map[string]bool{}} }

func (s *reasonSet) add(code string) {
	if !s.seen[code] {
		s.seen[code] = true
		s.order = append(s.order, code)
	}
}

func (s *reasonSet) list() []string { return s.order }

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
