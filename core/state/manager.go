package state

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"gainjar/storage/trie"
)

var errEmptyKey = errors.New("state: key must not be empty")

// Manager is the keyed view over the state trie shared by the bank and the
// payroll engine. Logical keys are hashed with keccak256 before they reach
// the trie; values are RLP encoded.
type Manager struct {
	trie *trie.Trie
}

func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

// Checkpoint marks a point a failed transaction can roll back to.
type Checkpoint struct {
	snapshot *trie.Checkpoint
}

func (m *Manager) Checkpoint() Checkpoint {
	return Checkpoint{snapshot: m.trie.Checkpoint()}
}

// Revert discards every write made since cp.
func (m *Manager) Revert(cp Checkpoint) {
	m.trie.Revert(cp.snapshot)
}

// Hash is the root over committed and pending writes.
func (m *Manager) Hash() common.Hash { return m.trie.Hash() }

// Commit persists pending writes as the state for height.
func (m *Manager) Commit(height uint64) (common.Hash, error) {
	return m.trie.Commit(height)
}

func (m *Manager) raw(key []byte) (hashed, data []byte, err error) {
	if len(key) == 0 {
		return nil, nil, errEmptyKey
	}
	hashed = ethcrypto.Keccak256(key)
	data, err = m.trie.Get(hashed)
	if err != nil {
		return nil, nil, fmt.Errorf("state: read %q: %w", key, err)
	}
	return hashed, data, nil
}

// KVPut RLP-encodes value under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return errEmptyKey
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.trie.Update(ethcrypto.Keccak256(key), encoded)
}

// KVGet decodes the value under key into out and reports whether the key was
// present. A nil out only checks presence.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	_, data, err := m.raw(key)
	if err != nil || len(data) == 0 {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVAppend adds value to the ordered byte-slice list under key. Values
// already in the list are skipped so index order is first-insertion order.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	hashed, data, err := m.raw(key)
	if err != nil {
		return err
	}
	var list [][]byte
	if len(data) > 0 {
		if err := rlp.DecodeBytes(data, &list); err != nil {
			return fmt.Errorf("state: decode list %q: %w", key, err)
		}
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	encoded, err := rlp.EncodeToBytes(append(list, bytes.Clone(value)))
	if err != nil {
		return err
	}
	return m.trie.Update(hashed, encoded)
}

// KVGetList decodes the list under key into out, which must point to a
// slice. A missing key yields an empty, non-nil slice.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Ptr || target.IsNil() || target.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("state: list destination must be a non-nil slice pointer, got %T", out)
	}
	_, data, err := m.raw(key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		target.Elem().Set(reflect.MakeSlice(target.Elem().Type(), 0, 0))
		return nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return fmt.Errorf("state: decode list %q: %w", key, err)
	}
	return nil
}
