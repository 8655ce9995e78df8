package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/tolelom/redactchain/core"
)

// ErrNotFound is returned by DB.Get and ChainStore lookups that miss.
var ErrNotFound = errors.New("storage: not found")

// LevelDB implements DB using LevelDB.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens (or creates) a LevelDB database at path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %q: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return val, err
}

func (l *LevelDB) Set(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *LevelDB) NewIterator(prefix []byte) Iterator {
	return l.db.NewIterator(util.BytesPrefix(prefix), nil)
}

func (l *LevelDB) NewBatch() Batch {
	return &levelBatch{db: l.db, batch: new(leveldb.Batch)}
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

// levelBatch adapts *leveldb.Batch to the Batch interface.
type levelBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelBatch) Set(key, value []byte) { b.batch.Put(key, value) }
func (b *levelBatch) Delete(key []byte)     { b.batch.Delete(key) }
func (b *levelBatch) Write() error          { return b.db.Write(b.batch, nil) }
func (b *levelBatch) Reset()                { b.batch.Reset() }

// ---- ChainStore ----

// ChainStore persists one node's local blockchain view to a DB, keyed by
// node id and depth, so a run's final per-node chains can be inspected or
// diffed after the simulator process exits (e.g. to confirm two nodes
// converged on an identical canonical chain, or that a redaction rewrote a
// block's id in place rather than appending a new one).
type ChainStore struct {
	db DB
}

// NewChainStore wraps db as a ChainStore.
func NewChainStore(db DB) *ChainStore {
	return &ChainStore{db: db}
}

func blockKey(nodeID, depth int) []byte {
	return []byte(fmt.Sprintf("node:%d:block:%d", nodeID, depth))
}

func tipKey(nodeID int) []byte {
	return []byte(fmt.Sprintf("node:%d:tip", nodeID))
}

// PutChain persists every block in chain under nodeID in a single batch,
// overwriting whatever was stored there before, and records the new tip
// depth so Tip need not scan.
func (s *ChainStore) PutChain(nodeID int, chain []*core.Block) error {
	batch := s.db.NewBatch()
	for _, b := range chain {
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshal node %d block at depth %d: %w", nodeID, b.Depth, err)
		}
		batch.Set(blockKey(nodeID, b.Depth), data)
	}
	batch.Set(tipKey(nodeID), []byte(strconv.Itoa(len(chain)-1)))
	return batch.Write()
}

// GetBlock returns the block nodeID had stored at depth.
func (s *ChainStore) GetBlock(nodeID, depth int) (*core.Block, error) {
	data, err := s.db.Get(blockKey(nodeID, depth))
	if err != nil {
		return nil, err
	}
	var b core.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Tip returns the depth of nodeID's persisted chain tip.
func (s *ChainStore) Tip(nodeID int) (int, error) {
	data, err := s.db.Get(tipKey(nodeID))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}
