package match

import "github.com/fudahub/fudahub/internal/config"

// ComputeScore is the single authoritative score formula:
//
//	score = correct * PointsPerCorrect + speedBonus
//	speedBonus = max(0, roundCount*RoundBudgetMs - totalElapsedMs) / SpeedDivisorMs
//
// Integer math throughout so the result is deterministic across platforms.
// The weights are configuration; the validator and any offline re-scoring
// tool must agree on them.
func ComputeScore(correct int, totalElapsedMs int64, roundCount int, cfg config.MatchConfig) int64 {
	score := int64(correct) * cfg.PointsPerCorrect
	budget := int64(roundCount) * cfg.RoundBudgetMs
	if rem := budget - totalElapsedMs; rem > 0 && cfg.SpeedDivisorMs > 0 {
		score += rem / cfg.SpeedDivisorMs
	}
	return score
}
