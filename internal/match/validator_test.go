package match_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fudahub/fudahub/internal/config"
	"github.com/fudahub/fudahub/internal/corpus/corpustest"
	"github.com/fudahub/fudahub/internal/match"
)

func newValidator(store match.Store, events match.EventSink) *match.Validator {
	return match.NewValidator(store, corpustest.Accessor(), config.DefaultMatch(), events)
}

// seedSubmitted plants a submitted session with the given round count.
func seedSubmitted(t *testing.T, store *fakeStore, roundCount int) match.Session {
	t.Helper()
	sess := match.Session{
		ID:          "sess-1",
		UserID:      "user-1",
		SeasonID:    "season-1",
		EntryID:     "entry-1",
		LevelID:     "kyu-10",
		RoundCount:  roundCount,
		Status:      match.StatusSubmitted,
		RoundIndex:  roundCount,
		StartedAt:   time.Now().Add(-5 * time.Minute).Unix(),
		SubmittedAt: time.Now().Unix(),
	}
	require.NoError(t, store.CreateSession(context.Background(), sess))
	return sess
}

// seedRound appends one round built from the synthetic corpus. The board is
// three cards with the correct one in the middle.
func seedRound(t *testing.T, store *fakeStore, sessID string, index int, selectRight bool, elapsedMs int64) match.Round {
	t.Helper()
	poems := corpustest.Corpus()
	correct := poems[index%len(poems)]
	decoyA := poems[(index+10)%len(poems)]
	decoyB := poems[(index+20)%len(poems)]
	selected := correct.ID
	if !selectRight {
		selected = decoyA.ID
	}
	r := match.Round{
		SessionID:     sessID,
		RoundIndex:    index,
		CorrectPoemID: correct.ID,
		BoardIDs:      []string{decoyA.ID, correct.ID, decoyB.ID},
		SelectedID:    selected,
		IsCorrect:     selectRight,
		ElapsedMs:     elapsedMs,
		AnsweredAt:    time.Now().Unix(),
	}
	require.NoError(t, store.AppendRound(context.Background(), r))
	return r
}

func TestValidateConfirmsAndScores(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 3)
	for i := 0; i < 3; i++ {
		seedRound(t, store, sess.ID, i, true, 1000)
	}

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusConfirmed, verdict.Status)
	assert.Equal(t, 3, verdict.CorrectCount)
	assert.Equal(t, int64(3000), verdict.TotalElapsedMs)
	// 3*100 points plus (3*10000-3000)/100 speed bonus.
	assert.Equal(t, int64(570), verdict.Score)
	assert.Empty(t, verdict.Reasons)

	require.Len(t, store.results, 1)
	assert.Equal(t, "entry-1", store.results[0].entryID)
	assert.Equal(t, int64(570), store.results[0].score)
}

func TestValidateRederivesCorrectnessFromRounds(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 2)
	seedRound(t, store, sess.ID, 0, true, 1000)
	// Stored flag claims correct but the selected card says otherwise.
	r := seedRound(t, store, sess.ID, 1, false, 1000)
	r.IsCorrect = true
	store.mu.Lock()
	store.rounds[sess.ID][1] = r
	store.mu.Unlock()

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusConfirmed, verdict.Status)
	assert.Equal(t, 1, verdict.CorrectCount)
}

func TestValidateRejectsMidMatchSubmit(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 5)
	sess.Status = match.StatusInProgress
	sess.RoundIndex = 1
	store.mu.Lock()
	store.sessions[sess.ID] = sess
	store.mu.Unlock()
	seedRound(t, store, sess.ID, 0, true, 1000)

	_, err := v.Validate(context.Background(), sess.ID, "user-1")
	assert.ErrorIs(t, err, match.ErrWrongState)

	// The live match is untouched.
	after, err := store.GetSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusInProgress, after.Status)
	assert.Zero(t, store.finalizeCalls)
}

func TestValidateExcessRounds(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 2)
	seedRound(t, store, sess.ID, 0, true, 1000)
	seedRound(t, store, sess.ID, 1, true, 1000)
	// A planted third round must invalidate, not inflate the score.
	seedRound(t, store, sess.ID, 2, true, 1000)

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusInvalid, verdict.Status)
	assert.Contains(t, verdict.Reasons, match.ReasonExcessRounds)
	assert.Equal(t, 2, verdict.CorrectCount, "out-of-range round must not be counted")
	assert.Equal(t, int64(2000), verdict.TotalElapsedMs)
	assert.Zero(t, verdict.Score)
	assert.Empty(t, store.results)
}

func TestValidateIncompleteRounds(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 3)
	seedRound(t, store, sess.ID, 0, true, 1000)
	seedRound(t, store, sess.ID, 2, true, 1000)

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err, "a gap in the rounds is a verdict, not a failure")
	assert.Equal(t, match.StatusInvalid, verdict.Status)
	assert.Contains(t, verdict.Reasons, match.ReasonIncompleteRounds)
	assert.Zero(t, verdict.Score)
	assert.Empty(t, store.results, "invalid sessions never touch the ranking")
}

func TestValidateDuplicateRound(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 2)
	seedRound(t, store, sess.ID, 0, true, 1000)
	seedRound(t, store, sess.ID, 0, true, 1000)

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusInvalid, verdict.Status)
	assert.Contains(t, verdict.Reasons, match.ReasonDuplicateRound)
	assert.Contains(t, verdict.Reasons, match.ReasonIncompleteRounds)
}

func TestValidateCorrectCardMissingFromBoard(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 1)
	r := seedRound(t, store, sess.ID, 0, true, 1000)
	r.BoardIDs = []string{"not-the-one", "nor-this"}
	store.mu.Lock()
	store.rounds[sess.ID][0] = r
	store.mu.Unlock()

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusInvalid, verdict.Status)
	assert.Contains(t, verdict.Reasons, match.ReasonCorrectNotOnBoard)
}

func TestValidateUnknownPoem(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 1)
	r := seedRound(t, store, sess.ID, 0, true, 1000)
	r.CorrectPoemID = "ghost"
	r.BoardIDs = []string{"ghost", r.BoardIDs[0]}
	r.SelectedID = "ghost"
	store.mu.Lock()
	store.rounds[sess.ID][0] = r
	store.mu.Unlock()

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusInvalid, verdict.Status)
	assert.Contains(t, verdict.Reasons, match.ReasonUnknownPoem)
}

func TestValidateTimingBounds(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 2)
	seedRound(t, store, sess.ID, 0, true, 50)     // under the 200ms floor
	seedRound(t, store, sess.ID, 1, true, 300000) // over the 120s ceiling

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusInvalid, verdict.Status)
	assert.Contains(t, verdict.Reasons, match.ReasonRoundTooFast)
	assert.Contains(t, verdict.Reasons, match.ReasonRoundTooSlow)
}

func TestValidateExpiredSession(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 1)
	sess.StartedAt = time.Now().Add(-3 * time.Hour).Unix()
	store.mu.Lock()
	store.sessions[sess.ID] = sess
	store.mu.Unlock()
	seedRound(t, store, sess.ID, 0, true, 1000)

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusExpired, verdict.Status)
	assert.Zero(t, verdict.Score)
}

func TestValidateIsIdempotent(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 1)
	seedRound(t, store, sess.ID, 0, true, 1000)

	first, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, match.StatusConfirmed, first.Status)

	second, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.finalizeCalls, "a settled session must not be re-finalized")
	assert.Len(t, store.results, 1, "the ranking entry is credited exactly once")
}

func TestValidateOwnership(t *testing.T) {
	store := newFakeStore()
	v := newValidator(store, nil)
	sess := seedSubmitted(t, store, 1)
	seedRound(t, store, sess.ID, 0, true, 1000)

	_, err := v.Validate(context.Background(), sess.ID, "user-2")
	assert.ErrorIs(t, err, match.ErrSessionNotFound)

	// Empty caller skips the ownership check (admin re-validation).
	verdict, err := v.Validate(context.Background(), sess.ID, "")
	require.NoError(t, err)
	assert.Equal(t, match.StatusConfirmed, verdict.Status)
}

// racingStore loses every Finalize race and settles the session with a rival
// verdict instead, the way a concurrent submission on another instance would.
type racingStore struct {
	*fakeStore
	rival match.Verdict
}

func (r *racingStore) Finalize(ctx context.Context, v match.Verdict) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[v.SessionID]
	s.Status = r.rival.Status
	s.Score = r.rival.Score
	s.CorrectCount = r.rival.CorrectCount
	s.TotalElapsedMs = r.rival.TotalElapsedMs
	s.Reasons = r.rival.Reasons
	r.sessions[v.SessionID] = s
	return false, nil
}

func TestValidateLoserReadsBackWinnerVerdict(t *testing.T) {
	base := newFakeStore()
	sess := seedSubmitted(t, base, 1)
	seedRound(t, base, sess.ID, 0, true, 1000)
	store := &racingStore{
		fakeStore: base,
		rival: match.Verdict{
			SessionID:    sess.ID,
			Status:       match.StatusInvalid,
			Reasons:      []string{match.ReasonDuplicateRound},
			CorrectCount: 1,
		},
	}
	v := newValidator(store, nil)

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusInvalid, verdict.Status)
	assert.Equal(t, []string{match.ReasonDuplicateRound}, verdict.Reasons)
	assert.Empty(t, base.results, "the losing validation must not credit the entry")
}

type capturingSink struct {
	types []string
	keys  []string
}

func (c *capturingSink) AppendTyped(ctx context.Context, typ, key, dataJSON string) error {
	c.types = append(c.types, typ)
	c.keys = append(c.keys, key)
	return nil
}

func TestValidateEmitsLifecycleEvent(t *testing.T) {
	store := newFakeStore()
	sink := &capturingSink{}
	v := newValidator(store, sink)
	sess := seedSubmitted(t, store, 1)
	seedRound(t, store, sess.ID, 0, false, 1000)

	verdict, err := v.Validate(context.Background(), sess.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, match.StatusConfirmed, verdict.Status)
	require.Equal(t, []string{"SessionConfirmed"}, sink.types)
	assert.Equal(t, []string{sess.ID}, sink.keys)
}

func TestComputeScoreNeverGoesNegativeOnSlowPlay(t *testing.T) {
	cfg := config.DefaultMatch()
	// Far beyond the time budget: the bonus floors at zero.
	assert.Equal(t, int64(200), match.ComputeScore(2, 500000, 3, cfg))
	assert.Equal(t, int64(0), match.ComputeScore(0, 500000, 3, cfg))
}
