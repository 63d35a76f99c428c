package app

import (
	"quiz-attempt-service/internal/domain"

	"github.com/shopspring/decimal"
)

// PointsPerCorrect is the fixed weight of a correct answer.
const PointsPerCorrect = 4

// Score evaluates answers against the answer key.
//
// Only questions present in correctOptions count towards Total. Unanswered or
// cleared questions are skipped; a choice that differs from the key, including
// an option id that exists nowhere, is wrong. The score is
// correct*PointsPerCorrect - wrong*negativeMarking and may go below zero.
func Score(negativeMarking float64, correctOptions map[string]string, answers domain.Answers) domain.ScoreResult {
	result := domain.ScoreResult{Total: len(correctOptions)}
	for questionID, correctID := range correctOptions {
		chosen, ok := answers[questionID]
		if !ok || chosen == "" {
			continue
		}
		if chosen == correctID {
			result.Correct++
		} else {
			result.Wrong++
		}
	}

	neg := decimal.NewFromFloat(negativeMarking)
	if neg.IsNegative() {
		neg = decimal.Zero
	}
	earned := decimal.NewFromInt(int64(result.Correct * PointsPerCorrect))
	penalty := neg.Mul(decimal.NewFromInt(int64(result.Wrong)))
	result.Score = earned.Sub(penalty).InexactFloat64()
	return result
}
