package match_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fudahub/fudahub/internal/config"
	"github.com/fudahub/fudahub/internal/corpus/corpustest"
	"github.com/fudahub/fudahub/internal/match"
)

func newEngine(store *fakeStore, cfg config.MatchConfig) *match.Engine {
	poems := corpustest.Accessor()
	v := match.NewValidator(store, poems, cfg, nil)
	return match.NewEngine(store, poems, cfg, v, rand.New(rand.NewSource(99)))
}

func TestStartCreatesSessionAndFirstQuestion(t *testing.T) {
	store := newFakeStore()
	eng := newEngine(store, config.DefaultMatch())

	sess, q, err := eng.Start(context.Background(), "user-1", "kyu-6", "season-1")
	require.NoError(t, err)

	assert.Equal(t, match.StatusInProgress, sess.Status)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, 10, sess.RoundCount)
	assert.NotEmpty(t, sess.EntryID)
	assert.Equal(t, 0, q.RoundIndex)
	assert.Len(t, q.Cards, 9)
	assert.NotEmpty(t, q.Prompt)

	stored, err := store.GetSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, stored.ID)
}

func TestStartUnknownLevel(t *testing.T) {
	eng := newEngine(newFakeStore(), config.DefaultMatch())
	_, _, err := eng.Start(context.Background(), "user-1", "kyu-99", "season-1")
	assert.ErrorIs(t, err, match.ErrLevelNotFound)
}

func TestAnswerClampsElapsedToFloor(t *testing.T) {
	store := newFakeStore()
	eng := newEngine(store, config.DefaultMatch())
	ctx := context.Background()

	sess, q, err := eng.Start(ctx, "user-1", "kyu-10", "season-1")
	require.NoError(t, err)

	// 50ms is below the 200ms floor.
	_, err = eng.Answer(ctx, sess.ID, "user-1", q.RoundIndex, q.Cards[0].PoemID, 50)
	require.NoError(t, err)

	rounds, err := store.ListRounds(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, int64(200), rounds[0].ElapsedMs)
}

func TestAnswerDuplicateRoundIsNoOp(t *testing.T) {
	store := newFakeStore()
	eng := newEngine(store, config.DefaultMatch())
	ctx := context.Background()

	sess, q, err := eng.Start(ctx, "user-1", "kyu-10", "season-1")
	require.NoError(t, err)

	res, err := eng.Answer(ctx, sess.ID, "user-1", q.RoundIndex, q.Cards[0].PoemID, 1500)
	require.NoError(t, err)
	require.False(t, res.Duplicate)

	// Replaying round 0 must not append a second record or move the board.
	dup, err := eng.Answer(ctx, sess.ID, "user-1", 0, q.Cards[1].PoemID, 1500)
	require.NoError(t, err)
	assert.True(t, dup.Duplicate)
	assert.Equal(t, 1, dup.RoundIndex)

	rounds, err := store.ListRounds(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, rounds, 1)
}

func TestAnswerWrongOwnerLooksLikeMissing(t *testing.T) {
	store := newFakeStore()
	eng := newEngine(store, config.DefaultMatch())
	ctx := context.Background()

	sess, q, err := eng.Start(ctx, "user-1", "kyu-10", "season-1")
	require.NoError(t, err)

	_, err = eng.Answer(ctx, sess.ID, "user-2", q.RoundIndex, q.Cards[0].PoemID, 1000)
	assert.ErrorIs(t, err, match.ErrSessionNotFound)
}

// playThrough answers every remaining round with the first card on the
// board and returns how many picks happened to be correct.
func playThrough(t *testing.T, eng *match.Engine, sessID string, q match.Question) int {
	t.Helper()
	ctx := context.Background()
	correct := 0
	cur := &q
	for {
		res, err := eng.Answer(ctx, sessID, "user-1", cur.RoundIndex, cur.Cards[0].PoemID, 1000)
		require.NoError(t, err)
		if res.IsCorrect {
			correct++
		}
		if res.Completed {
			return correct
		}
		cur = res.Next
	}
}

func TestFullSessionReachesSubmittedWithDenseRounds(t *testing.T) {
	store := newFakeStore()
	eng := newEngine(store, config.DefaultMatch())
	ctx := context.Background()

	sess, q, err := eng.Start(ctx, "user-1", "kyu-10", "season-1")
	require.NoError(t, err)

	playThrough(t, eng, sess.ID, q)

	stored, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusSubmitted, stored.Status)
	assert.Equal(t, 5, stored.RoundIndex)
	assert.NotZero(t, stored.SubmittedAt)

	rounds, err := store.ListRounds(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 5)
	for i, r := range rounds {
		assert.Equal(t, i, r.RoundIndex, "round indices must be dense 0..n-1")
		assert.True(t, containsID(r.BoardIDs, r.CorrectPoemID))
	}

	// Answering after completion is rejected.
	_, err = eng.Answer(ctx, sess.ID, "user-1", 5, rounds[0].CorrectPoemID, 1000)
	assert.ErrorIs(t, err, match.ErrWrongState)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestAppendFailureDoesNotBlockTheLearner(t *testing.T) {
	store := newFakeStore()
	store.failAppends = 2 // first attempt and its retry both fail
	eng := newEngine(store, config.DefaultMatch())
	ctx := context.Background()

	sess, q, err := eng.Start(ctx, "user-1", "kyu-10", "season-1")
	require.NoError(t, err)

	res, err := eng.Answer(ctx, sess.ID, "user-1", q.RoundIndex, q.Cards[0].PoemID, 1000)
	require.NoError(t, err, "a dropped round append must not surface to the learner")
	require.NotNil(t, res.Next)
	assert.Equal(t, 1, res.Next.RoundIndex)

	// The round is gone durably; the validator will see the gap.
	rounds, err := store.ListRounds(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, rounds)
	assert.Equal(t, 2, store.appendCalls)
}

func TestSubmitMidMatchLeavesSessionPlayable(t *testing.T) {
	store := newFakeStore()
	eng := newEngine(store, config.DefaultMatch())
	ctx := context.Background()

	sess, q, err := eng.Start(ctx, "user-1", "kyu-10", "season-1")
	require.NoError(t, err)

	_, err = eng.Answer(ctx, sess.ID, "user-1", q.RoundIndex, q.Cards[0].PoemID, 1000)
	require.NoError(t, err)

	// One answered round out of five: submitting now must not settle the
	// match as incomplete.
	_, err = eng.Submit(ctx, sess.ID, "user-1")
	assert.ErrorIs(t, err, match.ErrWrongState)

	stored, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusInProgress, stored.Status)
	assert.Equal(t, 1, stored.RoundIndex)

	// And the next round still plays.
	res, err := eng.Answer(ctx, sess.ID, "user-1", 1, stored.Board.Slots[0], 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RoundIndex)
}

func TestComputeStatsAccuracyRounding(t *testing.T) {
	rounds := []match.Round{
		{RoundIndex: 0, IsCorrect: true, ElapsedMs: 1200},
		{RoundIndex: 1, IsCorrect: true, ElapsedMs: 800},
		{RoundIndex: 2, IsCorrect: false, ElapsedMs: 1000},
	}
	st := match.ComputeStats(rounds)
	assert.Equal(t, 3, st.RoundsAnswered)
	assert.Equal(t, 2, st.CorrectCount)
	assert.Equal(t, int64(3000), st.TotalElapsedMs)
	assert.Equal(t, int64(1000), st.AverageElapsedMs)
	assert.Equal(t, 67, st.AccuracyPercent, "2/3 rounds to 67, not 66")
}

func TestComputeStatsEmpty(t *testing.T) {
	st := match.ComputeStats(nil)
	assert.Zero(t, st.RoundsAnswered)
	assert.Zero(t, st.AccuracyPercent)
}
