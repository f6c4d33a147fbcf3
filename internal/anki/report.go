package anki

import (
	"time"

	"github.com/JosephMelesse/anki-vert/pkg/logger"
)

// Report summarizes one sync run. Files is filled in by the caller, which
// knows how many note files fed the card set.
type Report struct {
	DryRun    bool
	Files     int
	Cards     int
	Decks     int
	Added     int
	Updated   int
	StartTime time.Time
	EndTime   time.Time
}

// Print writes the run summary.
func (r *Report) Print(log *logger.Logger) {
	if r.DryRun {
		log.Info("Dry run complete:")
		log.Info("- Files scanned: %d", r.Files)
		log.Info("- Cards that would be synced: %d", r.Cards)
		log.Info("- Decks that would be ensured: %d", r.Decks)
		return
	}

	log.Info("Sync complete:")
	log.Info("- Files scanned: %d", r.Files)
	log.Info("- Total cards: %d", r.Cards)
	log.Info("- Added: %d", r.Added)
	log.Info("- Updated: %d", r.Updated)
	log.Info("- Decks: %d", r.Decks)
	log.Info("- Duration: %s", r.EndTime.Sub(r.StartTime).Round(time.Millisecond))
}
