package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type priced struct {
	Price Amount `json:"price"`
}

func TestAmount_MarshalsAsNumber(t *testing.T) {
	raw, err := json.Marshal(priced{Price: Of(decimal.RequireFromString("10.50"))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":10.5}`, string(raw))

	raw, err = json.Marshal(priced{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":0}`, string(raw))
}

func TestAmount_IgnoresQuotedSetting(t *testing.T) {
	prev := decimal.MarshalJSONWithoutQuotes
	decimal.MarshalJSONWithoutQuotes = false
	t.Cleanup(func() { decimal.MarshalJSONWithoutQuotes = prev })

	raw, err := json.Marshal(priced{Price: Of(decimal.NewFromInt(7))})
	require.NoError(t, err)
	assert.Equal(t, `{"price":7}`, string(raw))
}

func TestAmount_Unmarshal(t *testing.T) {
	for _, in := range []string{`{"price":6.25}`, `{"price":"6.25"}`} {
		var p priced
		require.NoError(t, json.Unmarshal([]byte(in), &p), in)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("6.25")), in)
	}

	var p priced
	assert.Error(t, json.Unmarshal([]byte(`{"price":"cheap"}`), &p))
}
