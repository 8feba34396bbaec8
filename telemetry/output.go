package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/automata/config"
)

// Manifest identifies one simulation run in its output directory.
type Manifest struct {
	RunID   string    `yaml:"run_id"`
	Started time.Time `yaml:"started"`
	Seed    int64     `yaml:"seed"`
	Ticks   int32     `yaml:"ticks,omitempty"`
}

// csvFile appends records to a CSV file, writing the header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir      string
	manifest Manifest

	telemetry *csvFile
	perf      *csvFile
	bookmarks *csvFile
	deaths    *csvFile
}

var outputFiles = []string{"telemetry.csv", "perf.csv", "bookmarks.csv", "deaths.csv"}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string, seed int64) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{
		dir: dir,
		manifest: Manifest{
			RunID:   uuid.NewString(),
			Started: time.Now().UTC(),
			Seed:    seed,
		},
	}

	files := make([]*csvFile, 0, len(outputFiles))
	for _, name := range outputFiles {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			for _, opened := range files {
				opened.f.Close()
			}
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		files = append(files, &csvFile{f: f})
	}
	om.telemetry, om.perf, om.bookmarks, om.deaths = files[0], files[1], files[2], files[3]

	if err := om.writeManifest(); err != nil {
		om.Close()
		return nil, err
	}

	return om, nil
}

// RunID returns the unique identifier of this run.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.manifest.RunID
}

func (om *OutputManager) writeManifest() error {
	data, err := yaml.Marshal(om.manifest)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "run.yaml"), data, 0644); err != nil {
		return fmt.Errorf("writing run.yaml: %w", err)
	}
	return nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WriteDeaths appends closed lifetime records to deaths.csv.
func (om *OutputManager) WriteDeaths(records []*LifetimeStats) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	if err := om.deaths.write(records); err != nil {
		return fmt.Errorf("writing deaths: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Finish records the final tick count in the run manifest.
func (om *OutputManager) Finish(ticks int32) error {
	if om == nil {
		return nil
	}
	om.manifest.Ticks = ticks
	return om.writeManifest()
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.telemetry, om.perf, om.bookmarks, om.deaths} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
