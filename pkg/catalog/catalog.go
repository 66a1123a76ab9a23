// Package catalog keeps a persistent history of conversion runs in a pebble
// database. Runs are keyed by KSUID so iteration order is creation order.
package catalog

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/goccy/go-json"
	"github.com/segmentio/ksuid"

	"github.com/CEA-LIST/sgntx/pkg/batch"
)

const runPrefix = "run/"

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// FileEntry is the outcome of one file within a run.
type FileEntry struct {
	Source      string        `json:"source"`
	Destination string        `json:"destination"`
	Records     int64         `json:"records"`
	Bytes       int64         `json:"bytes"`
	Duration    time.Duration `json:"duration_ns"`
	Error       string        `json:"error,omitempty"`
}

// Run describes one invocation of the batch converter.
type Run struct {
	ID         ksuid.KSUID `json:"id"`
	Mode       string      `json:"mode"`
	InputDir   string      `json:"input_dir"`
	OutputDir  string      `json:"output_dir"`
	Workers    int         `json:"workers"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Files      []FileEntry `json:"files"`
}

// Succeeded counts files without an error.
func (r *Run) Succeeded() int {
	n := 0
	for _, f := range r.Files {
		if f.Error == "" {
			n++
		}
	}
	return n
}

// Failed counts files with an error.
func (r *Run) Failed() int {
	return len(r.Files) - r.Succeeded()
}

// Records sums records over successful files.
func (r *Run) Records() int64 {
	var n int64
	for _, f := range r.Files {
		if f.Error == "" {
			n += f.Records
		}
	}
	return n
}

// NewRun builds a Run from batch results.
func NewRun(mode, inputDir, outputDir string, workers int, started, finished time.Time, results []batch.Result) *Run {
	run := &Run{
		Mode:       mode,
		InputDir:   inputDir,
		OutputDir:  outputDir,
		Workers:    workers,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		Files:      make([]FileEntry, 0, len(results)),
	}
	for _, res := range results {
		entry := FileEntry{
			Source:      res.Job.Source,
			Destination: res.Job.Destination,
			Records:     res.Stats.Records,
			Bytes:       res.Stats.Bytes,
			Duration:    res.Duration,
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		run.Files = append(run.Files, entry)
	}
	return run
}

// Catalog stores runs. It is safe for concurrent use.
type Catalog struct {
	db *pebble.DB

	mu   sync.Mutex
	last ksuid.KSUID
}

// Open opens or creates the catalog database in dir.
func Open(dir string) (*Catalog, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %s", dir)
	}

	c := &Catalog{db: db}
	if err := c.loadLast(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) loadLast() error {
	iter, err := c.db.NewIter(prefixBounds())
	if err != nil {
		return errors.Wrap(err, "open iterator")
	}
	defer iter.Close()

	if iter.Last() {
		id, err := idFromKey(iter.Key())
		if err != nil {
			return err
		}
		c.last = id
	}
	return iter.Error()
}

// nextID returns a KSUID strictly greater than every id handed out so far.
func (c *Catalog) nextID(at time.Time) (ksuid.KSUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := ksuid.NewRandomWithTime(at)
	if err != nil {
		return ksuid.Nil, errors.Wrap(err, "generate run id")
	}
	if ksuid.Compare(id, c.last) <= 0 {
		id = c.last.Next()
	}
	c.last = id
	return id, nil
}

// CreateRun assigns an id to run, stores it and returns the id.
func (c *Catalog) CreateRun(run *Run) (ksuid.KSUID, error) {
	at := run.StartedAt
	if at.IsZero() {
		at = time.Now()
	}
	id, err := c.nextID(at)
	if err != nil {
		return ksuid.Nil, err
	}
	run.ID = id

	data, err := json.Marshal(run)
	if err != nil {
		return ksuid.Nil, errors.Wrap(err, "encode run")
	}
	if err := c.db.Set(runKey(id), data, pebble.Sync); err != nil {
		return ksuid.Nil, errors.Wrapf(err, "store run %s", id)
	}
	return id, nil
}

// GetRun returns the run with the given id.
func (c *Catalog) GetRun(id ksuid.KSUID) (*Run, error) {
	data, closer, err := c.db.Get(runKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrRunNotFound, "run %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read run %s", id)
	}
	defer closer.Close()

	return decodeRun(data)
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (c *Catalog) ListRuns(limit int) ([]*Run, error) {
	iter, err := c.db.NewIter(prefixBounds())
	if err != nil {
		return nil, errors.Wrap(err, "open iterator")
	}
	defer iter.Close()

	var runs []*Run
	for valid := iter.Last(); valid; valid = iter.Prev() {
		run, err := decodeRun(iter.Value())
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
		if limit > 0 && len(runs) >= limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterate runs")
	}
	return runs, nil
}

// DeleteRun removes a run. Deleting a missing run returns ErrRunNotFound.
func (c *Catalog) DeleteRun(id ksuid.KSUID) error {
	if _, err := c.GetRun(id); err != nil {
		return err
	}
	if err := c.db.Delete(runKey(id), pebble.Sync); err != nil {
		return errors.Wrapf(err, "delete run %s", id)
	}
	return nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func runKey(id ksuid.KSUID) []byte {
	return append([]byte(runPrefix), id.Bytes()...)
}

func idFromKey(key []byte) (ksuid.KSUID, error) {
	id, err := ksuid.FromBytes(key[len(runPrefix):])
	if err != nil {
		return ksuid.Nil, errors.Wrapf(err, "malformed catalog key %q", key)
	}
	return id, nil
}

func prefixBounds() *pebble.IterOptions {
	upper := []byte(runPrefix)
	upper[len(upper)-1]++
	return &pebble.IterOptions{
		LowerBound: []byte(runPrefix),
		UpperBound: upper,
	}
}

// decodeRun copies out of data, which pebble may reuse.
func decodeRun(data []byte) (*Run, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, errors.Wrap(err, "decode run")
	}
	return &run, nil
}
