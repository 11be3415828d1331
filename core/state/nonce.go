package state

import "fmt"

var noncePrefix = []byte("account/nonce/")

func nonceKey(addr [20]byte) []byte {
	key := make([]byte, len(noncePrefix)+len(addr))
	copy(key, noncePrefix)
	copy(key[len(noncePrefix):], addr[:])
	return key
}

// Nonce returns the next expected transaction nonce for addr.
func (m *Manager) Nonce(addr [20]byte) (uint64, error) {
	var nonce uint64
	if _, err := m.KVGet(nonceKey(addr), &nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

// IncrementNonce consumes the current nonce for addr.
func (m *Manager) IncrementNonce(addr [20]byte) error {
	current, err := m.Nonce(addr)
	if err != nil {
		return err
	}
	if current == ^uint64(0) {
		return fmt.Errorf("state: nonce overflow")
	}
	return m.KVPut(nonceKey(addr), current+1)
}
