package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/automata/components"
	"github.com/pthm-cable/automata/config"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("", 1)
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// All methods are no-ops on a nil manager.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteDeaths([]*LifetimeStats{{ID: 1}}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" || om.RunID() != "" {
		t.Error("nil manager reports a directory or run id")
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir, 42)
	if err != nil {
		t.Fatal(err)
	}
	if om.RunID() == "" {
		t.Error("empty run id")
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	for i := int32(1); i <= 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: i * 10, Animals: 3, Plants: 7}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WritePerf(PerfStats{PhasePct: map[string]float64{}}, 10); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkPlantCrash, Tick: 10, Description: "crash"}); err != nil {
		t.Fatal(err)
	}

	lt := NewLifetimeTracker()
	lt.Register(5, "fox", components.KindAnimal, 0, 10)
	if err := om.WriteDeaths([]*LifetimeStats{lt.Remove(5, 20, 1200)}); err != nil {
		t.Fatal(err)
	}
	if err := om.Finish(20); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	telemetry := readFile(t, filepath.Join(dir, "telemetry.csv"))
	lines := strings.Split(strings.TrimSpace(telemetry), "\n")
	if len(lines) != 3 {
		t.Fatalf("telemetry.csv has %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time,animals,plants") {
		t.Errorf("header = %q", lines[0])
	}

	if deaths := readFile(t, filepath.Join(dir, "deaths.csv")); !strings.Contains(deaths, "5,fox,animal,0,20,1200") {
		t.Errorf("deaths.csv = %q", deaths)
	}
	if bookmarks := readFile(t, filepath.Join(dir, "bookmarks.csv")); !strings.Contains(bookmarks, "plant_crash,10,crash") {
		t.Errorf("bookmarks.csv = %q", bookmarks)
	}

	var m Manifest
	if err := yaml.Unmarshal([]byte(readFile(t, filepath.Join(dir, "run.yaml"))), &m); err != nil {
		t.Fatal(err)
	}
	if m.RunID != om.RunID() || m.Seed != 42 || m.Ticks != 20 {
		t.Errorf("manifest = %+v", m)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Error(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
