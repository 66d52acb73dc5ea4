package trainer

import (
	"context"
	"math/rand"
	"strconv"
	"strings"

	"github.com/dykhalkin/ankichat/internal/domain"
	"github.com/dykhalkin/ankichat/internal/srs"
)

// distractorCount is the number of wrong options shown next to the
// correct answer.
const distractorCount = 3

// choiceTrainer presents the card's back among shuffled distractors and
// grades the selected option index.
type choiceTrainer struct {
	card *domain.Card

	// correctIndex is the position of the back content in the shuffled
	// option list. Set by Render.
	correctIndex int
}

func (t *choiceTrainer) Mode() Mode { return ModeChoice }

func (t *choiceTrainer) Render(_ context.Context) (*Prompt, error) {
	correct := t.card.Back
	options := append(t.distractors(), correct)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	t.correctIndex = -1
	for i, opt := range options {
		if opt == correct {
			t.correctIndex = i
			break
		}
	}

	return &Prompt{
		Mode:        ModeChoice,
		Front:       t.card.Front,
		Options:     options,
		Instruction: "Choose the number of the correct answer.",
	}, nil
}

// Grade parses the answer as an option index. The right index scores 5,
// any wrong index 1, and unparsable input 0.
func (t *choiceTrainer) Grade(answer string) *Result {
	selected, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return &Result{
			Score:         srs.CompleteBlackout,
			IsCorrect:     false,
			CorrectAnswer: t.card.Back,
			UserAnswer:    answer,
			CorrectIndex:  t.correctIndex,
		}
	}

	score := srs.IncorrectRecognized
	correct := selected == t.correctIndex
	if correct {
		score = srs.PerfectRecall
	}

	return &Result{
		Score:         score,
		IsCorrect:     correct,
		CorrectAnswer: t.card.Back,
		UserAnswer:    answer,
		CorrectIndex:  t.correctIndex,
	}
}

// distractors builds wrong options from the other lines of the back
// content, padded from a generic template list when the card does not
// have enough material of its own.
func (t *choiceTrainer) distractors() []string {
	var out []string
	for _, part := range strings.Split(t.card.Back, "\n") {
		part = strings.TrimSpace(part)
		if part != "" && part != t.card.Back && len(out) < distractorCount {
			out = append(out, part)
		}
	}

	generic := []string{
		"None of the above",
		"Not specified on the card",
		"The opposite of " + t.card.Front,
		"A different form of " + t.card.Front,
	}
	for _, g := range generic {
		if len(out) >= distractorCount {
			break
		}
		if !contains(out, g) {
			out = append(out, g)
		}
	}
	return out
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
