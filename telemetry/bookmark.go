package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkConflictSurge    BookmarkType = "conflict_surge"
	BookmarkAnimalRecovery   BookmarkType = "animal_recovery"
	BookmarkAnimalExtinction BookmarkType = "animal_extinction"
	BookmarkPlantCrash       BookmarkType = "plant_crash"
	BookmarkStableEcosystem  BookmarkType = "stable_ecosystem"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentAnimalMin    int // minimum animal count in recent history
	recentPlantPeak    int // peak plant count in recent history
	stableWindowsCount int // consecutive windows with stable populations
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable ecosystem detection
	}
	return &BookmarkDetector{
		history:         make([]WindowStats, historySize),
		historySize:     historySize,
		recentAnimalMin: -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		for _, check := range []func(WindowStats) *Bookmark{
			bd.checkConflictSurge,
			bd.checkAnimalExtinction,
			bd.checkAnimalRecovery,
			bd.checkPlantCrash,
			bd.checkStableEcosystem,
		} {
			if b := check(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}

	bd.addToHistory(stats)

	if bd.recentAnimalMin < 0 || stats.Animals < bd.recentAnimalMin {
		bd.recentAnimalMin = stats.Animals
	}
	if stats.Plants > bd.recentPlantPeak {
		bd.recentPlantPeak = stats.Plants
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the recorded windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) last() WindowStats {
	h := bd.getHistory()
	return h[len(h)-1]
}

func (bd *BookmarkDetector) checkConflictSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Conflicts
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Conflicts) > avg*2.0 && stats.Conflicts >= 5 {
		return &Bookmark{
			Type:        BookmarkConflictSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d conflicts is %.1fx average (%.1f)", stats.Conflicts, float64(stats.Conflicts)/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkAnimalExtinction(stats WindowStats) *Bookmark {
	prev := bd.last()
	if prev.Animals == 0 || stats.Animals != 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkAnimalExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Last of %d animals died", prev.Animals),
	}
}

func (bd *BookmarkDetector) checkAnimalRecovery(stats WindowStats) *Bookmark {
	if bd.recentAnimalMin <= 0 || bd.recentAnimalMin > 3 {
		return nil
	}

	threshold := bd.recentAnimalMin * 3
	if stats.Animals >= threshold && stats.Animals >= 6 {
		// Reset the minimum after triggering
		oldMin := bd.recentAnimalMin
		bd.recentAnimalMin = stats.Animals

		return &Bookmark{
			Type:        BookmarkAnimalRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Animal population recovered from %d to %d", oldMin, stats.Animals),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPlantCrash(stats WindowStats) *Bookmark {
	if bd.recentPlantPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Plants)/float64(bd.recentPlantPeak)
	if dropPercent > 0.30 && stats.Plants < bd.recentPlantPeak-10 {
		// Reset peak after crash
		oldPeak := bd.recentPlantPeak
		bd.recentPlantPeak = stats.Plants

		return &Bookmark{
			Type:        BookmarkPlantCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Plants crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Plants),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	// Need both populations present
	if stats.Plants < 10 || stats.Animals < 3 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Check variance in recent windows
	recent := history[len(history)-4:]
	var plantSum, animalSum float64
	for _, h := range recent {
		plantSum += float64(h.Plants)
		animalSum += float64(h.Animals)
	}
	plantMean := plantSum / 4
	animalMean := animalSum / 4

	var plantVar, animalVar float64
	for _, h := range recent {
		plantDiff := float64(h.Plants) - plantMean
		animalDiff := float64(h.Animals) - animalMean
		plantVar += plantDiff * plantDiff
		animalVar += animalDiff * animalDiff
	}
	plantVar /= 4
	animalVar /= 4

	// Low variance: coefficient of variation < 20%
	plantCV := 0.0
	if plantMean > 0 {
		plantCV = plantVar / (plantMean * plantMean)
	}
	animalCV := 0.0
	if animalMean > 0 {
		animalCV = animalVar / (animalMean * animalMean)
	}

	if plantCV < 0.04 && animalCV < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable ecosystem with %d plants, %d animals over 5+ windows", stats.Plants, stats.Animals),
		}
	}

	return nil
}
