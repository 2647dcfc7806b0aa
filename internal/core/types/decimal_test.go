package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{"10", NewQuantityFromInt(10)},
		{"12.5", Quantity(125_000)},
		{"-3.25", Quantity(-32_500)},
		{" 0.00019 ", Quantity(2)},
		{"0.00014", Quantity(1)},
		{"-0.00005", Quantity(-1)},
		{"1e2", NewQuantityFromInt(100)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuantity(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseQuantity("abc")
	assert.Error(t, err)
	_, err = ParseQuantity("")
	assert.Error(t, err)
}

func TestQuantity_DecimalAndJSON(t *testing.T) {
	q := Quantity(305_000)
	assert.True(t, q.Decimal().Equal(MustMoney("30.5")))

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t, "30.5000", string(data))

	var back Quantity
	require.NoError(t, json.Unmarshal([]byte(`"30.5"`), &back))
	assert.Equal(t, q, back)
	require.NoError(t, json.Unmarshal([]byte(`12.25`), &back))
	assert.Equal(t, Quantity(122_500), back)
	require.NoError(t, json.Unmarshal([]byte(`null`), &back))
	assert.True(t, back.IsZero())

	assert.Equal(t, "-0.2500", Quantity(-2_500).String())
	assert.Equal(t, 2.5, NewQuantityFromFloat(2.5).Float64())
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, "10.01", RoundPrice(MustMoney("10.005")).String())
	assert.Equal(t, "10", RoundPrice(MustMoney("10.004")).String())
	assert.Equal(t, PriceKey(MustMoney("10.00")), PriceKey(MustMoney("10")))
}
