package storage

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	gethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Database is a generic interface for a key-value store. Both backends expose a
// trie database over the same keyspace so state roots and metadata live side by
// side.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	TrieDB() *triedb.Database
	Close() // A way to gracefully shut down the database connection.
}

type kvStore struct {
	kv ethdb.KeyValueStore

	once   sync.Once
	trieDB *triedb.Database
}

func (s *kvStore) Put(key []byte, value []byte) error {
	return s.kv.Put(key, value)
}

func (s *kvStore) Get(key []byte) ([]byte, error) {
	ok, err := s.kv.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.kv.Get(key)
}

func (s *kvStore) Has(key []byte) (bool, error) {
	return s.kv.Has(key)
}

// TrieDB lazily wraps the key-value store in a hash-scheme trie database.
func (s *kvStore) TrieDB() *triedb.Database {
	s.once.Do(func() {
		s.trieDB = triedb.NewDatabase(rawdb.NewDatabase(s.kv), triedb.HashDefaults)
	})
	return s.trieDB
}

func (s *kvStore) Close() {
	if s.trieDB != nil {
		_ = s.trieDB.Close()
	}
	_ = s.kv.Close()
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	*kvStore
}

func NewMemDB() *MemDB {
	return &MemDB{kvStore: &kvStore{kv: memorydb.New()}}
}

// --- Persistent DB ---

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	*kvStore
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := gethleveldb.NewCustom(path, "gainjar/db/", func(o *opt.Options) {
		o.OpenFilesCacheCapacity = 64
		o.BlockCacheCapacity = 16 * opt.MiB
		o.WriteBuffer = 8 * opt.MiB
	})
	if err != nil {
		return nil, err
	}
	return &LevelDB{kvStore: &kvStore{kv: db}}, nil
}
