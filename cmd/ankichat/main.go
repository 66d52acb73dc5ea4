package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/dykhalkin/ankichat/internal/config"
	"github.com/dykhalkin/ankichat/internal/csvio"
	"github.com/dykhalkin/ankichat/internal/domain"
	"github.com/dykhalkin/ankichat/internal/llm"
	"github.com/dykhalkin/ankichat/internal/review"
	"github.com/dykhalkin/ankichat/internal/source"
	"github.com/dykhalkin/ankichat/internal/storage"
	"github.com/dykhalkin/ankichat/internal/trainer"
)

func main() {
	flags := pflag.NewFlagSet("ankichat", pflag.ExitOnError)
	configPath := flags.String("config", "", "Path to a YAML config file")
	flags.String("db_path", "ankichat.db", "Path to the SQLite database file")
	flags.Int("max_cards", 20, "Maximum cards per review session")
	flags.String("repos_dir", "repos", "Directory for cloned deck sources")
	user := flags.String("user", "local", "User identity owning decks and sessions")
	deckName := flags.String("deck", "", "Deck to review or export")
	mode := flags.String("mode", string(trainer.ModeRecall), "Training mode: recall, cloze, or choice")
	importPath := flags.String("import", "", "Import a CSV file as a new deck and exit")
	exportPath := flags.String("export", "", "Export the deck to a CSV file and exit")
	syncURL := flags.String("sync", "", "Sync decks from a git repository of CSV files and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	switch {
	case *importPath != "":
		runImport(db, *importPath, *user)
	case *exportPath != "":
		runExport(db, *exportPath, *user, *deckName)
	case *syncURL != "":
		runSync(db, cfg, *syncURL, *user)
	default:
		runReview(db, cfg, *user, *deckName, trainer.Mode(*mode))
	}
}

// runImport creates a deck named after the CSV file and fills it.
func runImport(db *storage.DB, path, userID string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	deckName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	existing, err := db.FindDeckByName(userID, deckName)
	if err != nil {
		log.Fatalf("Failed to check for deck %s: %v", deckName, err)
	}
	if existing != nil {
		log.Fatalf("Deck %q already exists; use --sync for incremental updates", deckName)
	}

	deck, err := csvio.Import(f, deckName, userID)
	if err != nil {
		log.Fatalf("Failed to import %s: %v", path, err)
	}
	if err := db.InsertDeck(deck); err != nil {
		log.Fatalf("Failed to store deck: %v", err)
	}
	for _, card := range deck.Cards {
		if err := db.InsertCard(card); err != nil {
			log.Fatalf("Failed to store card %q: %v", card.Front, err)
		}
	}
	fmt.Printf("Imported %d cards into deck %q.\n", len(deck.Cards), deckName)
}

func runExport(db *storage.DB, path, userID, deckName string) {
	deck := mustDeck(db, userID, deckName)
	cards, err := db.GetDeckCards(deck.ID)
	if err != nil {
		log.Fatalf("Failed to load cards: %v", err)
	}
	deck.Cards = cards

	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := csvio.Export(f, deck); err != nil {
		log.Fatalf("Failed to export deck: %v", err)
	}
	fmt.Printf("Exported %d cards from deck %q to %s.\n", len(cards), deckName, path)
}

func runSync(db *storage.DB, cfg *config.Config, repoURL, userID string) {
	syncer := source.NewSyncer(db, cfg.ReposDir)
	imported, err := syncer.Sync(repoURL, userID)
	if err != nil {
		log.Fatalf("Failed to sync %s: %v", repoURL, err)
	}
	fmt.Printf("Sync complete: %d new cards.\n", imported)
}

// runReview walks the user through one interactive review session on
// stdin/stdout.
func runReview(db *storage.DB, cfg *config.Config, userID, deckName string, mode trainer.Mode) {
	deck := mustDeck(db, userID, deckName)
	cards, err := db.GetDeckCards(deck.ID)
	if err != nil {
		log.Fatalf("Failed to load cards: %v", err)
	}

	var gen trainer.SentenceGenerator
	if cfg.OpenAI.APIKey != "" {
		client, err := llm.NewClient(llm.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
		if err != nil {
			log.Fatalf("Failed to create generator client: %v", err)
		}
		gen = client
	}

	registry := review.NewRegistry(gen, cfg.MaxCards)
	session, err := registry.Begin(userID, deck.ID, mode, cards, time.Now())
	switch {
	case errors.Is(err, review.ErrNothingDue):
		fmt.Println("No cards are due for review. Come back later.")
		return
	case errors.Is(err, trainer.ErrGeneratorUnavailable):
		fmt.Println("Cloze mode needs a configured OpenAI API key. Try --mode recall or --mode choice.")
		return
	case err != nil:
		log.Fatalf("Failed to start session: %v", err)
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		turn, err := session.Advance(ctx)
		if err != nil {
			if errors.Is(err, trainer.ErrGeneratorUnavailable) {
				fmt.Println("Sentence generation is unavailable right now; ending the session.")
				break
			}
			log.Fatalf("Failed to prepare the next card: %v", err)
		}
		if turn == nil {
			break
		}

		printTurn(turn)
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		outcome := session.Grade(scanner.Text())
		if err := db.UpdateCard(outcome.Card); err != nil {
			log.Fatalf("Failed to persist card %s: %v", outcome.Card.ID, err)
		}
		logErr := db.InsertReviewLog(&domain.ReviewLog{
			CardID:    outcome.Card.ID,
			UserID:    userID,
			Timestamp: time.Now(),
			Score:     int(outcome.Result.Score),
		})
		if logErr != nil {
			log.Printf("Failed to record review log: %v", logErr)
		}
		printOutcome(outcome)
	}

	summary, err := registry.End(userID)
	if err != nil {
		log.Fatalf("Failed to end session: %v", err)
	}
	printSummary(summary)
}

func printTurn(turn *review.Turn) {
	fmt.Printf("\n[%d/%d] ", turn.Progress.Current, turn.Progress.Total)
	switch turn.Prompt.Mode {
	case trainer.ModeCloze:
		fmt.Println(turn.Prompt.BlankedSentence)
	case trainer.ModeChoice:
		fmt.Println(turn.Prompt.Front)
		for i, option := range turn.Prompt.Options {
			fmt.Printf("  %d) %s\n", i, option)
		}
	default:
		fmt.Println(turn.Prompt.Front)
	}
	fmt.Println(turn.Prompt.Instruction)
}

func printOutcome(outcome *review.Outcome) {
	if outcome.Result.IsCorrect {
		fmt.Println("Correct!")
	} else {
		fmt.Printf("Not quite. The answer was: %s\n", outcome.Result.CorrectAnswer)
	}
	if outcome.Result.Similarity > 0 {
		fmt.Printf("Similarity: %.0f%%\n", outcome.Result.Similarity*100)
	}
}

func printSummary(summary *review.Summary) {
	fmt.Printf("\nSession complete: %d reviewed, %d correct, %d incorrect (%.0f%% accuracy) in %.0fs.\n",
		summary.CardsReviewed,
		summary.Correct,
		summary.Incorrect,
		summary.Accuracy*100,
		summary.DurationSeconds,
	)
}

func mustDeck(db *storage.DB, userID, deckName string) *domain.Deck {
	if deckName == "" {
		log.Fatal("A deck is required; pass --deck <name>")
	}
	deck, err := db.FindDeckByName(userID, deckName)
	if err != nil {
		log.Fatalf("Failed to look up deck %q: %v", deckName, err)
	}
	if deck == nil {
		log.Fatalf("Deck %q does not exist for user %q", deckName, userID)
	}
	return deck
}
