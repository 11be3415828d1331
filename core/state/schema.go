package state

import (
	"errors"
	"fmt"
)

// SchemaVersion is the layout of payroll and bank records this binary reads.
// Bump it whenever a stored encoding changes.
const SchemaVersion uint32 = 1

var schemaKey = []byte("gainjar/schema")

// ErrSchemaMismatch reports a data directory written by an incompatible
// binary or for another chain.
var ErrSchemaMismatch = errors.New("state: schema mismatch")

type schemaRecord struct {
	Version uint32
	ChainID string
}

// WriteSchema stamps the state with the current schema version and the chain
// it belongs to.
func (m *Manager) WriteSchema(chainID string) error {
	return m.KVPut(schemaKey, schemaRecord{Version: SchemaVersion, ChainID: chainID})
}

// CheckSchema verifies that existing state was written by this schema
// version for chainID.
func (m *Manager) CheckSchema(chainID string) error {
	var stored schemaRecord
	ok, err := m.KVGet(schemaKey, &stored)
	if err != nil {
		return err
	}
	switch {
	case !ok:
		return fmt.Errorf("%w: no schema record", ErrSchemaMismatch)
	case stored.Version != SchemaVersion:
		return fmt.Errorf("%w: on-disk version %d, expected %d", ErrSchemaMismatch, stored.Version, SchemaVersion)
	case stored.ChainID != chainID:
		return fmt.Errorf("%w: data belongs to chain %q, not %q", ErrSchemaMismatch, stored.ChainID, chainID)
	}
	return nil
}
