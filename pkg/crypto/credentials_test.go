package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// "test-key-for-unit-tests-32-bytes"
const testKey = "dGVzdC1rZXktZm9yLXVuaXQtdGVzdHMtMzItYnl0ZXM="

func TestNewConnectionEncryptor(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "32-byte base64 key", key: testKey},
		{name: "passphrase", key: "local-dev-passphrase"},
		{name: "short base64 key hashed", key: base64.StdEncoding.EncodeToString([]byte("sixteen-byte-key"))},
		{name: "empty", key: "", wantErr: ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewConnectionEncryptor(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	enc, err := NewConnectionEncryptor(testKey)
	require.NoError(t, err)

	connStr := "Server=db1;Database=sales;User Id=bi;Password=s3cret;"
	sealed, err := enc.Encrypt(connStr)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "s3cret")

	opened, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, connStr, opened)

	again, err := enc.Encrypt(connStr)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")
}

func TestEncryptDecrypt_Empty(t *testing.T) {
	enc, err := NewConnectionEncryptor(testKey)
	require.NoError(t, err)

	sealed, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	opened, err := enc.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, opened)
}

func TestDecrypt_Failures(t *testing.T) {
	enc, err := NewConnectionEncryptor(testKey)
	require.NoError(t, err)
	other, err := NewConnectionEncryptor("a-different-key")
	require.NoError(t, err)

	sealed, err := enc.Encrypt("postgres://bi:pw@db1/sales")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		dec   *ConnectionEncryptor
	}{
		{name: "wrong key", input: sealed, dec: other},
		{name: "not base64", input: "%%%", dec: enc},
		{name: "too short", input: base64.StdEncoding.EncodeToString([]byte("abc")), dec: enc},
		{name: "tampered", input: strings.Repeat("A", len(sealed)), dec: enc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.dec.Decrypt(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecryptionFailed))
		})
	}
}
