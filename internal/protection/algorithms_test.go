package protection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

func TestLookupPayloadCipher(t *testing.T) {
	tests := []struct {
		id       string
		family   Family
		keyBytes int
		ivBytes  int
	}{
		{AlgorithmAES128CBC, FamilyAES, 16, 16},
		{AlgorithmAES192CBC, FamilyAES, 24, 16},
		{AlgorithmAES256CBC, FamilyAES, 32, 16},
		{AlgorithmTripleDESCBC, FamilyTripleDES, 24, 8},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			alg, err := LookupPayloadCipher(tt.id)
			require.NoError(t, err)
			require.Equal(t, tt.id, alg.ID)
			require.Equal(t, KindPayload, alg.Kind)
			require.Equal(t, tt.family, alg.Family)
			require.Equal(t, tt.keyBytes, alg.KeyBytes())
			require.Equal(t, tt.ivBytes, alg.IVBytes)
			require.Equal(t, tt.keyBytes+tt.ivBytes, alg.PreMasterSecretSize())
		})
	}
}

func TestLookupKeyWrap(t *testing.T) {
	alg, err := LookupKeyWrap(AlgorithmRSAv15)
	require.NoError(t, err)
	require.Equal(t, FamilyRSA, alg.Family)
	require.Equal(t, KindKeyWrap, alg.Kind)
}

func TestLookup_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		lookup func(string) (Algorithm, error)
		id     string
	}{
		{"unknown payload", LookupPayloadCipher, "http://www.w3.org/2001/04/xmlenc#aes512-cbc"},
		{"unknown key wrap", LookupKeyWrap, "urn:example:rsa"},
		{"empty", LookupPayloadCipher, ""},
		{"OAEP is recognized but not implemented", LookupKeyWrap, AlgorithmRSAOAEP},
		{"key wrap used as payload", LookupPayloadCipher, AlgorithmRSAv15},
		{"payload used as key wrap", LookupKeyWrap, AlgorithmAES256CBC},
		{"GCM is not in the registry", LookupPayloadCipher, "http://www.w3.org/2009/xmlenc11#aes128-gcm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.lookup(tt.id)
			require.Error(t, err)
			require.True(t, errors.Is(err, kerrors.ErrUnsupportedAlgorithm), "got %v", err)
		})
	}
}

func TestLookup_OAEPMessageSaysNotImplemented(t *testing.T) {
	_, err := LookupKeyWrap(AlgorithmRSAOAEP)
	require.ErrorIs(t, err, kerrors.ErrUnsupportedAlgorithm)
	require.Contains(t, err.Error(), "not implemented")
}

func TestAlgorithms_Ordering(t *testing.T) {
	algs := Algorithms()
	require.Len(t, algs, 6)

	seenKeyWrap := false
	for _, alg := range algs {
		if alg.Kind == KindKeyWrap {
			seenKeyWrap = true
			continue
		}
		require.False(t, seenKeyWrap, "payload cipher %s listed after key-wrap algorithms", alg.Name)
	}
}
