package crypto

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTripBech32AndHex(t *testing.T) {
	var raw [20]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	encoded := FormatAddress(raw)
	require.True(t, strings.HasPrefix(encoded, "gj1"))

	parsed, err := ParseAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, parsed)

	parsed, err = ParseAddress("0x0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	require.Equal(t, raw, parsed)
}

func TestParseAddressRejectsMalformedInput(t *testing.T) {
	_, err := ParseAddress("")
	require.Error(t, err)
	_, err = ParseAddress("0x1234")
	require.Error(t, err)
	_, err = ParseAddress("not-an-address")
	require.Error(t, err)
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "keys", "employer.keystore")

	require.NoError(t, SaveToKeystore(path, key, "correct horse"))
	loaded, err := LoadFromKeystore(path, "correct horse")
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().String(), loaded.PubKey().Address().String())

	_, err = LoadFromKeystore(path, "wrong")
	require.Error(t, err)

	addr, err := KeystoreAddress(path)
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().String(), addr.String())
}

func TestKeystoreAddressRequiresFile(t *testing.T) {
	_, err := KeystoreAddress("")
	require.Error(t, err)
	_, err = KeystoreAddress(filepath.Join(t.TempDir(), "missing.keystore"))
	require.Error(t, err)
}
