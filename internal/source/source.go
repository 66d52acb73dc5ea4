// Package source keeps decks in sync with git repositories of CSV
// files. Each CSV file in a synced repository becomes a deck named
// after the file; cards already known keep their scheduling metadata.
package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/dykhalkin/ankichat/internal/csvio"
	"github.com/dykhalkin/ankichat/internal/storage"
)

// Syncer clones or pulls deck repositories and reconciles their CSV
// files into storage.
type Syncer struct {
	db       *storage.DB
	reposDir string
	logger   *slog.Logger
}

// NewSyncer creates a syncer that keeps local clones under reposDir.
func NewSyncer(db *storage.DB, reposDir string) *Syncer {
	return &Syncer{
		db:       db,
		reposDir: reposDir,
		logger:   slog.Default(),
	}
}

// Sync fetches the repository and imports its CSV decks for the user.
// It returns the number of new cards imported.
func (s *Syncer) Sync(repoURL, userID string) (int, error) {
	localPath, err := localPathFor(s.reposDir, repoURL)
	if err != nil {
		return 0, err
	}

	if err := cloneOrPull(repoURL, localPath); err != nil {
		return 0, err
	}

	var imported int
	walkErr := filepath.WalkDir(localPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".csv") {
			return nil
		}

		n, importErr := s.importFile(path, userID)
		if importErr != nil {
			s.logger.Warn("skipping deck file", "path", path, "error", importErr)
			return nil
		}
		imported += n
		return nil
	})
	if walkErr != nil {
		return imported, fmt.Errorf("walking %s: %w", localPath, walkErr)
	}

	s.logger.Info("source sync complete", "url", repoURL, "new_cards", imported)
	return imported, nil
}

// importFile reconciles one CSV file into a deck named after it. Cards
// whose front already exists in the deck are left alone so their review
// progress survives repeated syncs.
func (s *Syncer) importFile(path, userID string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	deckName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parsed, err := csvio.Import(f, deckName, userID)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	deck, err := s.db.FindDeckByName(userID, deckName)
	if err != nil {
		return 0, err
	}
	if deck == nil {
		deck = parsed
		deck.Cards = nil
		if err := s.db.InsertDeck(deck); err != nil {
			return 0, err
		}
		s.logger.Info("new deck from source", "deck", deckName, "user_id", userID)
	}

	var inserted int
	for _, card := range parsed.Cards {
		existing, err := s.db.FindCardByFront(deck.ID, card.Front)
		if err != nil {
			return inserted, err
		}
		if existing != nil {
			continue
		}
		card.DeckID = deck.ID
		if err := s.db.InsertCard(card); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// cloneOrPull clones the repository if no local copy exists, or pulls
// the latest changes if one does.
func cloneOrPull(repoURL, localPath string) error {
	_, err := os.Stat(localPath)
	if os.IsNotExist(err) {
		if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: repoURL}); err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	repo, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
	}
	if err := worktree.Pull(&git.PullOptions{RemoteName: "origin"}); err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
	}
	return nil
}

// localPathFor maps a repository URL to a stable directory under
// baseDir, handling both https and scp-style git URLs.
func localPathFor(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		return filepath.Join(baseDir, parsed.Host, strings.TrimSuffix(parsed.Path, ".git")), nil
	}

	// scp-style: git@host:owner/repo.git
	if strings.Contains(repoURL, "@") {
		parts := strings.SplitN(repoURL, ":", 2)
		if len(parts) == 2 {
			hostParts := strings.SplitN(parts[0], "@", 2)
			if len(hostParts) == 2 {
				return filepath.Join(baseDir, hostParts[1], strings.TrimSuffix(parts[1], ".git")), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
