package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_ConflictSurge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Add some history with few conflicts
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick: int32(i * 60),
			Conflicts:     3,
		})
	}

	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 300,
		Conflicts:     12, // 4x the average of 3
	})
	if !hasBookmark(bookmarks, BookmarkConflictSurge) {
		t.Error("expected conflict_surge bookmark")
	}
}

func TestBookmarkDetector_PlantCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Build up plant population
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick: int32(i * 60),
			Plants:        100,
			Animals:       10,
		})
	}

	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 300,
		Plants:        50, // 50% drop
		Animals:       10,
	})
	if !hasBookmark(bookmarks, BookmarkPlantCrash) {
		t.Error("expected plant_crash bookmark")
	}

	// The peak resets, so the same level does not trigger again.
	bookmarks = bd.Check(WindowStats{WindowEndTick: 360, Plants: 50, Animals: 10})
	if hasBookmark(bookmarks, BookmarkPlantCrash) {
		t.Error("plant_crash triggered twice")
	}
}

func TestBookmarkDetector_AnimalRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Animal population drops to critical level
	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{
			WindowEndTick: int32(i * 60),
			Plants:        100,
			Animals:       2,
		})
	}

	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 240,
		Plants:        100,
		Animals:       10, // 5x the minimum of 2
	})
	if !hasBookmark(bookmarks, BookmarkAnimalRecovery) {
		t.Error("expected animal_recovery bookmark")
	}
}

func TestBookmarkDetector_AnimalExtinction(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEndTick: 60, Animals: 4, Plants: 50})
	bookmarks := bd.Check(WindowStats{WindowEndTick: 120, Animals: 0, Plants: 50})
	if !hasBookmark(bookmarks, BookmarkAnimalExtinction) {
		t.Fatal("expected animal_extinction bookmark")
	}

	bookmarks = bd.Check(WindowStats{WindowEndTick: 180, Animals: 0, Plants: 50})
	if hasBookmark(bookmarks, BookmarkAnimalExtinction) {
		t.Error("extinction reported again with no animals left")
	}
}

func TestBookmarkDetector_StableEcosystem(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: int32(i * 60),
			Plants:        100,
			Animals:       20,
		})
		if hasBookmark(bookmarks, BookmarkStableEcosystem) {
			triggered++
		}
	}
	if triggered != 1 {
		t.Errorf("stable_ecosystem triggered %d times, want 1", triggered)
	}
}

func TestBookmark_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Bookmark{Type: BookmarkPlantCrash, Tick: 42, Description: "gone"}.LogBookmark(logger)

	out := buf.String()
	if !strings.Contains(out, "type=plant_crash") || !strings.Contains(out, "tick=42") {
		t.Errorf("log = %q", out)
	}
}
