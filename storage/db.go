package storage

import (
	"errors"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// Database is a generic key-value store. The contract core is written against
// this interface so tests run on an in-memory map while the daemon persists to
// LevelDB.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	WriteBatch(ops []BatchOp) error
	Close()
}

// BatchOp is one staged write inside an atomic batch.
type BatchOp struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// MemDB is an in-memory Database used by tests.
type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	db.data[string(key)] = stored
	return nil
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (db *MemDB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.data, string(key))
	return nil
}

// WriteBatch applies every staged operation under a single lock so no reader
// observes a partially applied batch.
func (db *MemDB) WriteBatch(ops []BatchOp) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, op := range ops {
		if op.Delete {
			delete(db.data, string(op.Key))
			continue
		}
		stored := make([]byte, len(op.Value))
		copy(stored, op.Value)
		db.data[string(op.Key)] = stored
	}
	return nil
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {}

// LevelDB is a persistent Database backed by goleveldb.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := ldb.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

// WriteBatch applies every staged operation through a leveldb batch, which the
// backend commits atomically.
func (ldb *LevelDB) WriteBatch(ops []BatchOp) error {
	batch := new(leveldb.Batch)
	for _, op := range ops {
		if op.Delete {
			batch.Delete(op.Key)
			continue
		}
		batch.Put(op.Key, op.Value)
	}
	return ldb.db.Write(batch, nil)
}

func (ldb *LevelDB) Close() {
	ldb.db.Close()
}
