package match

import (
	"fmt"

	"github.com/fudahub/fudahub/internal/corpus"
)

// Rand is the injectable randomness source. *math/rand.Rand satisfies it;
// tests script the sequence.
type Rand interface {
	Float64() float64
}

// ErrPoolTooSmall signals a level misconfiguration: the eligibility pool
// must admit at least a full board.
type ErrPoolTooSmall struct {
	Eligible  int
	BoardSize int
}

func (e ErrPoolTooSmall) Error() string {
	return fmt.Sprintf("eligible pool has %d poems, board needs %d", e.Eligible, e.BoardSize)
}

// Initialize builds the first working board: boardSize distinct poems drawn
// uniformly without replacement, one of them picked uniformly as the first
// correct card.
func Initialize(eligible []corpus.Poem, boardSize int, rng Rand) (Board, error) {
	if len(eligible) < boardSize {
		return Board{}, ErrPoolTooSmall{Eligible: len(eligible), BoardSize: boardSize}
	}
	pool := make([]string, len(eligible))
	for i, p := range eligible {
		pool[i] = p.ID
	}
	slots := sampleWithoutReplacement(pool, boardSize, rng)
	correct := slots[pick(len(slots), rng)]
	return Board{Slots: slots, CorrectID: correct, UsedIDs: []string{}}, nil
}

// Advance produces the next board after an answer. The previous correct card
// always retires; a wrong selection retires too when it differs from the
// correct card, so neither the answer nor the learner's mistake reappears
// immediately. Replacement is in place, slot for slot. The next correct card
// is chosen by a three-tier fallback, uniform within the active tier:
//
//  1. board cards never yet used as the correct answer this session;
//  2. board cards other than the just-placed replacements;
//  3. any board card.
//
// Tier 1 minimizes repeats, tier 3 guarantees progress. The degradation
// order is a policy decision, not an accident.
func Advance(b Board, eligibleIDs []string, selectedID string, isCorrect bool, rng Rand) Board {
	retiring := map[string]bool{b.CorrectID: true}
	if !isCorrect && selectedID != b.CorrectID && b.Contains(selectedID) {
		retiring[selectedID] = true
	}

	used := append(append([]string{}, b.UsedIDs...), b.CorrectID)
	usedSet := toSet(used)
	onBoard := toSet(b.Slots)

	// Fresh pool: never shown cards. Reuse pool tolerates cards seen before
	// but keeps current board members and the retiring cards out.
	var fresh, reuse []string
	for _, id := range eligibleIDs {
		if onBoard[id] || retiring[id] {
			continue
		}
		reuse = append(reuse, id)
		if !usedSet[id] {
			fresh = append(fresh, id)
		}
	}

	slots := make([]string, len(b.Slots))
	copy(slots, b.Slots)
	placed := map[string]bool{}
	for i, id := range slots {
		if !retiring[id] {
			continue
		}
		var repl string
		switch {
		case len(fresh) > 0:
			repl, fresh = draw(fresh, rng)
			reuse = remove(reuse, repl)
		case len(reuse) > 0:
			repl, reuse = draw(reuse, rng)
			fresh = remove(fresh, repl)
		default:
			// Pool exhausted entirely; keep the card rather than shrink
			// the board.
			continue
		}
		slots[i] = repl
		placed[repl] = true
	}

	next := pickNextCorrect(slots, usedSet, placed, rng)
	return Board{Slots: slots, CorrectID: next, UsedIDs: used}
}

func pickNextCorrect(slots []string, used, justPlaced map[string]bool, rng Rand) string {
	var tier []string
	for _, id := range slots {
		if !used[id] {
			tier = append(tier, id)
		}
	}
	if len(tier) == 0 {
		for _, id := range slots {
			if !justPlaced[id] {
				tier = append(tier, id)
			}
		}
	}
	if len(tier) == 0 {
		tier = slots
	}
	return tier[pick(len(tier), rng)]
}

func pick(n int, rng Rand) int {
	i := int(rng.Float64() * float64(n))
	if i >= n { // Float64 returning exactly 1.0 is out of contract, guard anyway
		i = n - 1
	}
	return i
}

// sampleWithoutReplacement draws k distinct items via partial Fisher-Yates.
func sampleWithoutReplacement(pool []string, k int, rng Rand) []string {
	p := make([]string, len(pool))
	copy(p, pool)
	for i := 0; i < k; i++ {
		j := i + pick(len(p)-i, rng)
		p[i], p[j] = p[j], p[i]
	}
	return p[:k]
}

func draw(pool []string, rng Rand) (string, []string) {
	i := pick(len(pool), rng)
	v := pool[i]
	return v, append(pool[:i:i], pool[i+1:]...)
}

func remove(pool []string, id string) []string {
	for i, v := range pool {
		if v == id {
			return append(pool[:i:i], pool[i+1:]...)
		}
	}
	return pool
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
