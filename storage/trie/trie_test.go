package trie

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"gainjar/storage"
)

func TestTrieCommitFlushPersistsData(t *testing.T) {
	dir := t.TempDir()

	db1, err := storage.NewLevelDB(dir)
	require.NoError(t, err)

	tr, err := NewTrie(db1, nil)
	require.NoError(t, err)

	key := crypto.Keccak256Hash([]byte("key"))
	value := []byte("value")

	require.NoError(t, tr.Update(key.Bytes(), value))
	root, err := tr.Commit(1)
	require.NoError(t, err)

	db1.Close()

	db2, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	restored, err := NewTrie(db2, root.Bytes())
	require.NoError(t, err)

	got, err := restored.Get(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestTrieRevertDiscardsMutations(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)

	kept := crypto.Keccak256Hash([]byte("kept"))
	dropped := crypto.Keccak256Hash([]byte("dropped"))
	require.NoError(t, tr.Update(kept.Bytes(), []byte{0x01}))
	before := tr.Hash()

	cp := tr.Checkpoint()
	require.NoError(t, tr.Update(dropped.Bytes(), []byte{0x02}))
	require.NoError(t, tr.Update(kept.Bytes(), []byte{0x03}))
	require.NotEqual(t, before, tr.Hash())

	tr.Revert(cp)
	require.Equal(t, before, tr.Hash())

	got, err := tr.Get(kept.Bytes())
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, got)

	got, err = tr.Get(dropped.Bytes())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestTrieResetDropsPendingWrites(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)
	key := crypto.Keccak256Hash([]byte("payroll"))
	require.NoError(t, tr.Update(key.Bytes(), []byte{0x01}))
	root, err := tr.Commit(1)
	require.NoError(t, err)
	require.Equal(t, root, tr.Root())

	require.NoError(t, tr.Update(key.Bytes(), []byte{0x02}))
	require.NoError(t, tr.Reset(root))

	got, err := tr.Get(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, got)
}
