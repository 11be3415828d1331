package crypto

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
)

var errKeystorePath = errors.New("crypto: keystore path required")

// SaveToKeystore encrypts key into a v3 keystore file at path, replacing any
// existing file. Missing parent directories are created with 0700.
func SaveToKeystore(path string, key *PrivateKey, passphrase string) error {
	if key == nil || key.PrivateKey == nil {
		return errors.New("crypto: nil private key")
	}
	if path == "" {
		return errKeystorePath
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("crypto: keystore dir: %w", err)
	}

	// go-ethereum names keystore files itself, so encrypt into a scratch
	// directory next to the target and move the single file into place.
	scratch, err := os.MkdirTemp(dir, ".gainjar-keystore-")
	if err != nil {
		return fmt.Errorf("crypto: keystore scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	ks := keystore.NewKeyStore(scratch, keystore.StandardScryptN, keystore.StandardScryptP)
	account, err := ks.ImportECDSA(key.PrivateKey, passphrase)
	if err != nil {
		return fmt.Errorf("crypto: encrypt key: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Rename(account.URL.Path, path); err != nil {
		return fmt.Errorf("crypto: move keystore: %w", err)
	}
	return os.Chmod(path, 0o600)
}

// LoadFromKeystore decrypts the v3 keystore file at path.
func LoadFromKeystore(path, passphrase string) (*PrivateKey, error) {
	keyJSON, err := readKeystore(path)
	if err != nil {
		return nil, err
	}
	decrypted, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, fmt.Errorf("crypto: decrypt %s: %w", path, err)
	}
	return &PrivateKey{PrivateKey: decrypted.PrivateKey}, nil
}

// KeystoreAddress reads the account address recorded in a keystore file
// without decrypting it.
func KeystoreAddress(path string) (Address, error) {
	keyJSON, err := readKeystore(path)
	if err != nil {
		return Address{}, err
	}
	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(keyJSON, &header); err != nil {
		return Address{}, fmt.Errorf("crypto: parse %s: %w", path, err)
	}
	raw, err := hex.DecodeString(header.Address)
	if err != nil || len(raw) != 20 {
		return Address{}, fmt.Errorf("crypto: %s has no valid address field", path)
	}
	return NewAddress(GainJarPrefix, raw)
}

func readKeystore(path string) ([]byte, error) {
	if path == "" {
		return nil, errKeystorePath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("crypto: read keystore: %w", err)
	}
	return data, nil
}
