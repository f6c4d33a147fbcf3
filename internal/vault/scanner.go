// Package vault finds Markdown note files in the course subdirectories of
// a vault root.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JosephMelesse/anki-vert/pkg/logger"
	"github.com/JosephMelesse/anki-vert/pkg/models"
)

type DirectoryScanner struct {
	logger *logger.Logger
}

func New(log *logger.Logger) *DirectoryScanner {
	return &DirectoryScanner{
		logger: log,
	}
}

// FindNotes walks each course subdirectory under root and collects every
// Markdown file in lexical order, so repeated scans see files in the same
// order. A missing course directory is a warning, not an error; the course
// is skipped and the walk continues.
func (s *DirectoryScanner) FindNotes(ctx context.Context, root string, courses []string) ([]models.NoteFile, error) {
	var notes []models.NoteFile

	for _, course := range courses {
		courseDir := filepath.Join(root, course)

		info, err := os.Stat(courseDir)
		if err != nil || !info.IsDir() {
			s.logger.Warn("missing course directory: %s", courseDir)
			continue
		}

		walkErr := filepath.WalkDir(courseDir, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				return fmt.Errorf("error accessing path %s: %w", path, err)
			}

			if d.IsDir() {
				s.logger.Debug("scanning directory: %s", path)
				return nil
			}

			if filepath.Ext(path) != ".md" {
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}

			notes = append(notes, models.NoteFile{
				Course:       course,
				AbsolutePath: path,
				RelativePath: rel,
			})

			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	return notes, nil
}

// Courses lists the visible subdirectories of root. It backs the default of
// scanning every course when no subset is configured.
func (s *DirectoryScanner) Courses(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault root %s: %w", root, err)
	}

	var courses []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		courses = append(courses, entry.Name())
	}

	return courses, nil
}
