package vault_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/miketerry-org/kickstart-mvc/internal/vault"
)

const testKeyHex = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func TestParseKeyLength(t *testing.T) {
	tests := []struct {
		name   string
		keyHex string
		ok     bool
	}{
		{"valid", testKeyHex, true},
		{"empty", "", false},
		{"short", testKeyHex[:63], false},
		{"long", testKeyHex + "00", false},
		{"not hex", strings.Repeat("zz", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := vault.ParseKey(tt.keyHex)
			if tt.ok {
				require.NoError(t, err)
				require.Len(t, key, 32)
				return
			}
			require.Error(t, err)
		})
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := vault.ParseKey(testKeyHex)
	require.NoError(t, err)

	blob, err := vault.Seal(key, []byte(`{"port":3000}`))
	require.NoError(t, err)

	plaintext, err := vault.Open(key, blob)
	require.NoError(t, err)
	require.JSONEq(t, `{"port":3000}`, string(plaintext))
}

func TestOpenRejectsTamperedBlob(t *testing.T) {
	key, err := vault.ParseKey(testKeyHex)
	require.NoError(t, err)

	blob, err := vault.Seal(key, []byte("payload"))
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0xff
	_, err = vault.Open(key, blob)
	require.Error(t, err)
}

func TestOpenRejectsShortBlob(t *testing.T) {
	key, err := vault.ParseKey(testKeyHex)
	require.NoError(t, err)

	_, err = vault.Open(key, []byte("tiny"))
	require.Error(t, err)
}

func TestSealOpenJSONFile(t *testing.T) {
	key, err := vault.ParseKey(testKeyHex)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.secure")
	in := map[string]any{"port": float64(3000), "db_url": "postgres://localhost/app"}
	require.NoError(t, vault.SealJSONFile(key, path, in))

	var out map[string]any
	require.NoError(t, vault.OpenJSONFile(key, path, &out))
	require.Equal(t, in, out)
}

func TestOpenJSONFileWrongKey(t *testing.T) {
	key, err := vault.ParseKey(testKeyHex)
	require.NoError(t, err)
	otherKey, err := vault.ParseKey(strings.Repeat("42", 32))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.secure")
	require.NoError(t, vault.SealJSONFile(key, path, map[string]any{"a": "b"}))

	var out map[string]any
	require.Error(t, vault.OpenJSONFile(otherKey, path, &out))
}
