package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	require.Len(t, a, 43) // 32 bytes base64url, no padding

	b, err := GenerateToken(TokenSize256)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	_, err = GenerateToken(0)
	require.Error(t, err)
}

func TestFingerprintTokenIsDeterministic(t *testing.T) {
	fp1 := FingerprintToken("opaque-value")
	fp2 := FingerprintToken("opaque-value")
	require.Equal(t, fp1, fp2)
	require.NotEqual(t, fp1, FingerprintToken("other-value"))
	require.Len(t, fp1, 43)
}

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, c := range code {
		require.True(t, c >= '0' && c <= '9')
	}

	_, err = GenerateNumericCode(0)
	require.Error(t, err)
}
