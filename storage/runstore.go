package storage

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tolelom/redactchain/stats"
)

// RunStore buffers one or more runs' recorded Statistics in memory and
// flushes them to a DB as run:<n> JSON blobs on Commit. It keeps the
// teacher's dirty-write-buffer-then-batch shape, but over whole-run
// snapshots rather than individual world-state keys: there is no
// redactable "account" or "asset" state in this simulator, only the rows
// each run's Statistics accumulates.
type RunStore struct {
	db    DB
	dirty map[int][]byte
}

// NewRunStore creates a RunStore backed by db.
func NewRunStore(db DB) *RunStore {
	return &RunStore{db: db, dirty: make(map[int][]byte)}
}

func runKey(run int) []byte {
	return []byte(fmt.Sprintf("run:%d", run))
}

// Stage serializes st and holds it in the write buffer until Commit.
func (r *RunStore) Stage(run int, st *stats.Statistics) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal run %d statistics: %w", run, err)
	}
	r.dirty[run] = data
	return nil
}

// Commit atomically flushes every staged run snapshot to the DB via a
// WriteBatch and clears the write buffer.
func (r *RunStore) Commit() error {
	batch := r.db.NewBatch()
	for run, data := range r.dirty {
		batch.Set(runKey(run), data)
	}
	if err := batch.Write(); err != nil {
		return err
	}
	r.dirty = make(map[int][]byte)
	return nil
}

// Load returns the persisted Statistics for run.
func (r *RunStore) Load(run int) (*stats.Statistics, error) {
	data, err := r.db.Get(runKey(run))
	if err != nil {
		return nil, err
	}
	var st stats.Statistics
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Checksum returns a deterministic digest over a run's block rows, sorted
// by depth, so two runs built from the same seed can be compared for
// byte-identical chain reproduction without diffing full JSON blobs.
func Checksum(rows []stats.BlockRow) string {
	sorted := append([]stats.BlockRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Depth < sorted[j].Depth })

	h := sha256.New()
	var lenBuf [4]byte
	for _, row := range sorted {
		id := []byte(row.ID)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(id)))
		h.Write(lenBuf[:])
		h.Write(id)
	}
	return hex.EncodeToString(h.Sum(nil))
}
