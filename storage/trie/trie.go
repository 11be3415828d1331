package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"

	"gainjar/storage"
)

// Trie is a reusable Merkle Patricia trie over a storage.Database. Writes stay
// in memory until Commit; after each commit the trie is reopened at the new
// root so one instance serves every transaction.
//
// Keys must already be keccak256 hashes. Trie is not safe for concurrent use.
type Trie struct {
	db   *triedb.Database
	live *gethtrie.Trie
	root common.Hash
}

// Checkpoint holds a copy of the uncommitted trie.
type Checkpoint struct {
	saved *gethtrie.Trie
}

// NewTrie opens the trie at root. An empty root opens the empty trie.
func NewTrie(store storage.Database, root []byte) (*Trie, error) {
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	t := &Trie{db: store.TrieDB()}
	if err := t.Reset(rootHash); err != nil {
		return nil, fmt.Errorf("trie: open root %s: %w", rootHash.Hex(), err)
	}
	return t, nil
}

// Get returns nil for missing keys.
func (t *Trie) Get(key []byte) ([]byte, error) { return t.live.Get(key) }

func (t *Trie) Update(key, value []byte) error { return t.live.Update(key, value) }

func (t *Trie) Delete(key []byte) error { return t.live.Delete(key) }

// Hash includes uncommitted writes.
func (t *Trie) Hash() common.Hash { return t.live.Hash() }

// Root is the last committed root.
func (t *Trie) Root() common.Hash { return t.root }

func (t *Trie) Checkpoint() *Checkpoint {
	return &Checkpoint{saved: t.live.Copy()}
}

// Revert restores the contents captured by cp. A checkpoint may be reverted
// to more than once.
func (t *Trie) Revert(cp *Checkpoint) {
	if cp == nil || cp.saved == nil {
		return
	}
	t.live = cp.saved.Copy()
}

// Reset drops uncommitted writes and reopens the trie at root.
func (t *Trie) Reset(root common.Hash) error {
	live, err := gethtrie.New(gethtrie.TrieID(root), t.db)
	if err != nil {
		return err
	}
	t.live = live
	t.root = root
	return nil
}

// Commit writes pending nodes to disk as the state for height and returns the
// new root.
func (t *Trie) Commit(height uint64) (common.Hash, error) {
	next, nodes := t.live.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		if err := t.db.Update(next, t.root, height, merged, nil); err != nil {
			return common.Hash{}, fmt.Errorf("trie: update at height %d: %w", height, err)
		}
		if err := t.db.Commit(next, false); err != nil {
			return common.Hash{}, fmt.Errorf("trie: commit at height %d: %w", height, err)
		}
	}
	if err := t.Reset(next); err != nil {
		return common.Hash{}, err
	}
	return next, nil
}
