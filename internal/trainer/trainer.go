package trainer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dykhalkin/ankichat/internal/domain"
	"github.com/dykhalkin/ankichat/internal/srs"
)

// Mode selects how a card is presented and graded during review.
type Mode string

const (
	// ModeRecall shows the front and asks the user to self-rate recall 0-5.
	ModeRecall Mode = "recall"
	// ModeCloze blanks the card's term out of a generated sentence.
	ModeCloze Mode = "cloze"
	// ModeChoice presents the answer among shuffled distractors.
	ModeChoice Mode = "choice"
)

// ErrGeneratorUnavailable is returned by Render when a mode needs the
// sentence generator and none is available or the call failed. Callers
// decide whether to retry or switch modes; there is no silent fallback.
var ErrGeneratorUnavailable = errors.New("trainer: sentence generator unavailable")

// SentenceGenerator produces a natural sentence containing the given
// term, using the card's back content as context. It is the only
// external collaborator a trainer may call.
type SentenceGenerator interface {
	Sentence(ctx context.Context, term, definition string) (string, error)
}

// Prompt is the user-facing presentation of one card.
type Prompt struct {
	Mode        Mode
	Front       string
	Instruction string

	// BlankedSentence is set in cloze mode.
	BlankedSentence string

	// Options is set in choice mode.
	Options []string
}

// Result is the graded outcome of one answer.
type Result struct {
	Score         srs.Score
	IsCorrect     bool
	CorrectAnswer string
	UserAnswer    string

	// Similarity is set in cloze mode, in [0, 1].
	Similarity float64

	// CorrectIndex is set in choice mode, -1 otherwise.
	CorrectIndex int
}

// Trainer binds one card to one presentation and grading strategy.
// Render may suspend on the generator; Grade is always synchronous and
// always produces a score, treating malformed input as the worst
// possible rating for the mode.
type Trainer interface {
	Mode() Mode
	Render(ctx context.Context) (*Prompt, error)
	Grade(answer string) *Result
}

// New creates the trainer for the given mode, bound to the card.
func New(mode Mode, card *domain.Card, gen SentenceGenerator) (Trainer, error) {
	switch mode {
	case ModeRecall:
		return &recallTrainer{card: card}, nil
	case ModeCloze:
		return &clozeTrainer{card: card, gen: gen}, nil
	case ModeChoice:
		return &choiceTrainer{card: card}, nil
	default:
		return nil, fmt.Errorf("trainer: unknown mode %q", mode)
	}
}
