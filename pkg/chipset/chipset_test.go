package chipset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledrx/pkg/chipset"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"ws2812b", "WS2812B", "Ws2812b"} {
		ct, err := chipset.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, "WS2812B", ct.Name)
		assert.Equal(t, uint32(400), ct.T1)
		assert.Equal(t, uint32(400), ct.T2)
		assert.Equal(t, uint32(450), ct.T3)
		assert.Equal(t, uint32(50000), ct.ResetUs)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := chipset.Lookup("apa102")
	assert.ErrorIs(t, err, chipset.ErrUnknown)
}

func TestNames(t *testing.T) {
	names := chipset.Names()

	assert.Contains(t, names, "WS2812B")
	assert.Contains(t, names, "SK6812")
	assert.IsIncreasing(t, names)

	// every listed name resolves
	for _, name := range names {
		_, err := chipset.Lookup(name)
		assert.NoError(t, err, name)
	}
}
