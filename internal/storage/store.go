// Package storage persists per-run telemetry: a metadata.json describing
// the run and a frames.csv of aggregate statistics sampled during it.
// Particle state is never written.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/sphfluid/internal/metrics"

	"github.com/gocarina/gocsv"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Particles  int                `json:"particles"`
	Integrator string             `json:"integrator"`
	Kernel     string             `json:"kernel"`
	Frames     int                `json:"frames"`
	Metrics    map[string]float64 `json:"metrics"`
}

// FrameRecord is the CSV row form of metrics.Frame.
type FrameRecord struct {
	Step          int     `csv:"step"`
	Time          float64 `csv:"time"`
	KineticEnergy float64 `csv:"kinetic_energy"`
	MeanDensity   float64 `csv:"mean_density"`
	DensityStdDev float64 `csv:"density_stddev"`
	MaxDensity    float64 `csv:"max_density"`
	MaxSpeed      float64 `csv:"max_speed"`
	Finite        float64 `csv:"finite"`
}

func toRecord(f metrics.Frame) FrameRecord {
	return FrameRecord{
		Step:          f.Step,
		Time:          f.Time,
		KineticEnergy: f.KineticEnergy,
		MeanDensity:   f.MeanDensity,
		DensityStdDev: f.DensityStdDev,
		MaxDensity:    f.MaxDensity,
		MaxSpeed:      f.MaxSpeed,
		Finite:        f.Finite,
	}
}

// Frame converts the record back into a metrics.Frame.
func (r FrameRecord) Frame() metrics.Frame {
	return metrics.Frame{
		Step:          r.Step,
		Time:          r.Time,
		KineticEnergy: r.KineticEnergy,
		MeanDensity:   r.MeanDensity,
		DensityStdDev: r.DensityStdDev,
		MaxDensity:    r.MaxDensity,
		MaxSpeed:      r.MaxSpeed,
		Finite:        r.Finite,
	}
}

// Save writes a new run directory named after meta.Name and returns its ID.
// ID, Timestamp and Frames are filled in by the store. Path separators in
// the name are replaced, so the run always lands directly under the store.
// On failure nothing is left behind.
func (s *Store) Save(meta RunMetadata, frames []metrics.Frame) (id string, err error) {
	now := s.now()
	meta.ID = fmt.Sprintf("%s_%d", runName(meta.Name), now.UnixNano())
	meta.Timestamp = now
	meta.Frames = len(frames)
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	err = writeFile(filepath.Join(runDir, metadataFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return "", fmt.Errorf("writing metadata: %w", err)
	}

	records := make([]FrameRecord, len(frames))
	for i, f := range frames {
		records[i] = toRecord(f)
	}
	err = writeFile(filepath.Join(runDir, framesFile), func(f *os.File) error {
		return gocsv.MarshalFile(&records, f)
	})
	if err != nil {
		return "", fmt.Errorf("writing frames: %w", err)
	}

	return meta.ID, nil
}

// runName makes name safe to use as a single path element.
func runName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
	switch name {
	case "", ".", "..":
		return "run"
	}
	return name
}

// writeFile creates path, fills it with write and reports the first error,
// close included.
func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// List returns the metadata of every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames reads the frames.csv of a run.
func (s *Store) LoadFrames(runID string) ([]FrameRecord, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, fmt.Errorf("loading frames %s: %w", runID, err)
	}
	defer f.Close()

	var records []FrameRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing frames %s: %w", runID, err)
	}
	return records, nil
}

// FramesPath is the location of a run's frames.csv.
func (s *Store) FramesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, framesFile)
}
