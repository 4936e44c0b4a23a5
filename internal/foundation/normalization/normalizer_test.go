package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type mode string

func newModes() *Normalizer[mode] {
	return NewNormalizer(map[string]mode{"Alpha": "alpha", "beta": "beta"}, "alpha")
}

func TestNormalize(t *testing.T) {
	n := newModes()
	require.Equal(t, mode("beta"), n.Normalize("  BETA "))
	require.Equal(t, mode("alpha"), n.Normalize("alpha"))
	require.Equal(t, mode("alpha"), n.Normalize("unknown"))
}

func TestNormalizeWithError(t *testing.T) {
	n := newModes()
	v, err := n.NormalizeWithError("Beta")
	require.NoError(t, err)
	require.Equal(t, mode("beta"), v)

	_, err = n.NormalizeWithError("gamma")
	require.ErrorContains(t, err, "valid options: [alpha beta]")
}

func TestValidKeys_ReturnsCopy(t *testing.T) {
	n := newModes()
	keys := n.ValidKeys()
	require.Equal(t, []string{"alpha", "beta"}, keys)
	keys[0] = "changed"
	require.Equal(t, []string{"alpha", "beta"}, n.ValidKeys())
}
