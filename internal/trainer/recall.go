package trainer

import (
	"context"
	"strconv"
	"strings"

	"github.com/dykhalkin/ankichat/internal/domain"
	"github.com/dykhalkin/ankichat/internal/srs"
)

// recallTrainer implements the classic flashcard flow: show the front,
// let the user recall the back, then have them rate their own recall.
type recallTrainer struct {
	card *domain.Card
}

func (t *recallTrainer) Mode() Mode { return ModeRecall }

func (t *recallTrainer) Render(_ context.Context) (*Prompt, error) {
	return &Prompt{
		Mode:        ModeRecall,
		Front:       t.card.Front,
		Instruction: "Recall the answer, then rate yourself from 0 (blackout) to 5 (perfect).",
	}, nil
}

// Grade parses the answer as a self-reported 0-5 score. Unparsable or
// out-of-range input grades as 0 so the session always moves forward.
func (t *recallTrainer) Grade(answer string) *Result {
	score := srs.CompleteBlackout
	if n, err := strconv.Atoi(strings.TrimSpace(answer)); err == nil && srs.Score(n).Valid() {
		score = srs.Score(n)
	}

	return &Result{
		Score:         score,
		IsCorrect:     score.Successful(),
		CorrectAnswer: t.card.Back,
		UserAnswer:    answer,
		CorrectIndex:  -1,
	}
}
