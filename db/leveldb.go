package db

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = leveldb.ErrNotFound

// LevelDB wraps the actual LevelDB connection
type LevelDB struct {
	conn *leveldb.DB
}

// NewLevelDB opens (or creates) a LevelDB instance at the given path
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{conn: db}, nil
}

// Close safely closes the LevelDB connection
func (l *LevelDB) Close() error {
	return l.conn.Close()
}

// Put inserts or updates a key-value pair
func (l *LevelDB) Put(key, value []byte) error {
	return l.conn.Put(key, value, nil)
}

// Get retrieves the value for a given key
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	return l.conn.Get(key, nil)
}

// WriteBatch applies all puts and deletes atomically.
func (l *LevelDB) WriteBatch(puts map[string][]byte, deletes []string) error {
	batch := new(leveldb.Batch)
	for _, k := range deletes {
		batch.Delete([]byte(k))
	}
	for k, v := range puts {
		batch.Put([]byte(k), v)
	}
	return l.conn.Write(batch, nil)
}

// NewIterator returns an iterator over all keys starting with prefix.
// A nil prefix iterates the whole database.
func (l *LevelDB) NewIterator(prefix []byte) iterator.Iterator {
	if prefix == nil {
		return l.conn.NewIterator(nil, nil)
	}
	return l.conn.NewIterator(util.BytesPrefix(prefix), nil)
}
