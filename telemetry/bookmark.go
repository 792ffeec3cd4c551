package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkAlleleFixed     BookmarkType = "allele_fixed"
	BookmarkAlleleLost      BookmarkType = "allele_lost"
	BookmarkExtinction      BookmarkType = "extinction"
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkCapacityReached BookmarkType = "capacity_reached"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Generation  int32        `csv:"generation" json:"generation"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// crashDrop is the fraction lost from the recent peak that counts as a crash.
const crashDrop = 0.5

// BookmarkDetector detects notable moments in a run.
type BookmarkDetector struct {
	capacity int

	// Allele ID -> whether it was present last generation
	present map[string]bool
	// Allele ID -> whether it held the whole population last generation
	fixed map[string]bool

	recentPeak  int
	extinct     bool
	atCapacity  bool
	initialized bool
}

// NewBookmarkDetector creates a detector. capacity <= 0 disables capacity bookmarks.
func NewBookmarkDetector(capacity int) *BookmarkDetector {
	return &BookmarkDetector{
		capacity: capacity,
		present:  make(map[string]bool),
		fixed:    make(map[string]bool),
	}
}

// Check analyzes the latest generation and returns any triggered bookmarks.
// Each condition fires on the transition into it, not on every generation it holds.
func (bd *BookmarkDetector) Check(stats GenerationStats, freqs []AlleleFrequency) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCrash(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCapacity(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Allele transitions are meaningless once everyone is dead
	if stats.Population > 0 {
		for _, f := range freqs {
			present := f.Count > 0
			fixed := f.Count == stats.Population

			if bd.initialized && bd.present[f.Allele] && !present {
				bookmarks = append(bookmarks, Bookmark{
					Type:        BookmarkAlleleLost,
					Generation:  stats.Generation,
					Description: fmt.Sprintf("Allele %s of %s lost", f.Allele, f.Gene),
				})
			}
			if bd.initialized && !bd.fixed[f.Allele] && fixed {
				bookmarks = append(bookmarks, Bookmark{
					Type:        BookmarkAlleleFixed,
					Generation:  stats.Generation,
					Description: fmt.Sprintf("Allele %s fixed for %s across %d individuals", f.Allele, f.Gene, stats.Population),
				})
			}

			bd.present[f.Allele] = present
			bd.fixed[f.Allele] = fixed
		}
		bd.initialized = true
	}

	return bookmarks
}

// Reset forgets all history, e.g. after the population is reseeded.
func (bd *BookmarkDetector) Reset() {
	bd.present = make(map[string]bool)
	bd.fixed = make(map[string]bool)
	bd.recentPeak = 0
	bd.extinct = false
	bd.atCapacity = false
	bd.initialized = false
}

func (bd *BookmarkDetector) checkExtinction(stats GenerationStats) *Bookmark {
	if stats.Population > 0 {
		bd.extinct = false
		return nil
	}
	if bd.extinct {
		return nil
	}
	bd.extinct = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Population extinct after %d deaths", stats.Deaths),
	}
}

func (bd *BookmarkDetector) checkCrash(stats GenerationStats) *Bookmark {
	if stats.Population > bd.recentPeak {
		bd.recentPeak = stats.Population
		return nil
	}
	if bd.recentPeak == 0 || stats.Population == 0 {
		return nil
	}

	drop := 1.0 - float64(stats.Population)/float64(bd.recentPeak)
	if drop < crashDrop {
		return nil
	}

	// Reset peak after crash
	oldPeak := bd.recentPeak
	bd.recentPeak = stats.Population

	return &Bookmark{
		Type:        BookmarkPopulationCrash,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Population),
	}
}

func (bd *BookmarkDetector) checkCapacity(stats GenerationStats) *Bookmark {
	if bd.capacity <= 0 {
		return nil
	}
	reached := stats.Population >= bd.capacity
	if !reached {
		bd.atCapacity = false
		return nil
	}
	if bd.atCapacity {
		return nil
	}
	bd.atCapacity = true
	return &Bookmark{
		Type:        BookmarkCapacityReached,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Population reached capacity %d", bd.capacity),
	}
}
