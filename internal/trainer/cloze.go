package trainer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dykhalkin/ankichat/internal/domain"
	"github.com/dykhalkin/ankichat/internal/srs"
)

// BlankMarker is the fixed-width placeholder substituted for the term
// in a cloze sentence.
const BlankMarker = "____________"

// clozeTrainer blanks the card's front term out of a generated sentence
// and grades the user's fill-in by character-set similarity.
type clozeTrainer struct {
	card *domain.Card
	gen  SentenceGenerator

	// expected is the term as it appeared in the sentence, with its
	// source casing preserved. Set by Render.
	expected string
}

func (t *clozeTrainer) Mode() Mode { return ModeCloze }

// Render asks the generator for a sentence containing the term and
// replaces its first occurrence with the blank marker. Without a
// generator this mode has no value, so Render fails instead of
// degrading to some other presentation.
func (t *clozeTrainer) Render(ctx context.Context) (*Prompt, error) {
	if t.gen == nil {
		return nil, ErrGeneratorUnavailable
	}

	term := strings.TrimSpace(t.card.Front)
	sentence, err := t.gen.Sentence(ctx, term, t.card.Back)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}

	blanked, matched, ok := blankTerm(sentence, term)
	if !ok {
		// The generator ignored the term; fall back to a templated
		// sentence built from the definition.
		matched = term
		blanked = fmt.Sprintf("The term %s refers to %s.", BlankMarker, firstSentence(t.card.Back))
	}
	t.expected = matched

	return &Prompt{
		Mode:            ModeCloze,
		Front:           t.card.Front,
		BlankedSentence: blanked,
		Instruction:     "Fill in the blank with the missing word.",
	}, nil
}

// Grade scores the answer by Jaccard similarity between the character
// sets of the lower-cased answer and the lower-cased expected term.
// The floor is 1, never 0: an answer was given, and 0 is reserved for
// the self-reported complete blackout of recall mode.
func (t *clozeTrainer) Grade(answer string) *Result {
	similarity := charSimilarity(
		strings.ToLower(strings.TrimSpace(answer)),
		strings.ToLower(t.expected),
	)

	var score srs.Score
	switch {
	case similarity > 0.8:
		score = srs.PerfectRecall
	case similarity > 0.6:
		score = srs.CorrectHesitation
	case similarity > 0.4:
		score = srs.CorrectDifficult
	case similarity > 0.2:
		score = srs.IncorrectFamiliar
	default:
		score = srs.IncorrectRecognized
	}

	return &Result{
		Score:         score,
		IsCorrect:     score.Successful(),
		CorrectAnswer: t.expected,
		UserAnswer:    answer,
		Similarity:    similarity,
		CorrectIndex:  -1,
	}
}

// blankTerm replaces the first case-insensitive occurrence of term in
// sentence with the blank marker and returns the matched substring with
// its source casing. ok is false when the term does not occur.
func blankTerm(sentence, term string) (blanked, matched string, ok bool) {
	if term == "" {
		return "", "", false
	}
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
	loc := pattern.FindStringIndex(sentence)
	if loc == nil {
		return "", "", false
	}
	matched = sentence[loc[0]:loc[1]]
	blanked = sentence[:loc[0]] + BlankMarker + sentence[loc[1]:]
	return blanked, matched, true
}

// firstSentence returns the text before the first period, trimmed.
func firstSentence(text string) string {
	if i := strings.Index(text, "."); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// charSimilarity is the Jaccard similarity of the rune sets of a and b.
func charSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	setA := make(map[rune]struct{})
	for _, r := range a {
		setA[r] = struct{}{}
	}
	setB := make(map[rune]struct{})
	for _, r := range b {
		setB[r] = struct{}{}
	}

	var intersection int
	for r := range setA {
		if _, found := setB[r]; found {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
