package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStaticTable(t *testing.T) {
	prices, err := ParseStaticTable(" Charizard = 75.00 ; Pikachu=3.5;; ")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "75", prices["Charizard"].String())
	assert.Equal(t, "3.5", prices["Pikachu"].String())

	empty, err := ParseStaticTable("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{"Charizard", "=5", "Mew=abc", "Mew=-1"} {
		_, err := ParseStaticTable(bad)
		assert.Error(t, err, bad)
	}
}

func TestStaticOracle(t *testing.T) {
	prices, err := ParseStaticTable("Charizard=75")
	require.NoError(t, err)
	o := NewStaticOracle(prices)

	p, ok := o.LookupLastSoldPrice(context.Background(), "charizard")
	require.True(t, ok)
	assert.Equal(t, "75.00", p.StringFixed(2))

	_, ok = o.LookupLastSoldPrice(context.Background(), "Mew")
	assert.False(t, ok)

	_, ok = NoopOracle{}.LookupLastSoldPrice(context.Background(), "Charizard")
	assert.False(t, ok)
}
