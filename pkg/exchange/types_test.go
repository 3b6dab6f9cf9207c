package exchange

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1000000, "1000000"},
		{0.4, "0.4"},
		{1.5, "1.5"},
		{0.123456789, "0.12345679"},
		{0.000000001, "0"},
		{12345.6789, "12345.6789"},
		{math.NaN(), "0"},
		{math.Inf(1), "0"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.in), func(t *testing.T) {
			assert.Equal(t, tc.want, FormatUnits(tc.in))
		})
	}
}

func TestFormatOrderUnitsTruncates(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{0.4, "0.4"},
		{2.0 / 3.0, "0.66666666"},
		{0.123456789, "0.12345678"},
		{0.000000009, "0"},
		{math.NaN(), "0"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.in), func(t *testing.T) {
			assert.Equal(t, tc.want, FormatOrderUnits(tc.in))
		})
	}
	assert.Equal(t, "0.66666667", FormatUnits(2.0/3.0), "display formatting still rounds")
}

func TestPair(t *testing.T) {
	p := NewPair(" btc", "krw ")
	assert.Equal(t, "BTC/KRW", p.String())
	assert.Equal(t, "BTC_KRW", p.Symbol())
	assert.True(t, p.Valid())
	assert.False(t, Pair{OrderCurrency: "BTC"}.Valid())
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide("BUY")
	require.NoError(t, err)
	assert.Equal(t, SideBid, s)
	s, err = ParseSide("ask")
	require.NoError(t, err)
	assert.Equal(t, SideAsk, s)
	_, err = ParseSide("long")
	assert.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	err := fmt.Errorf("place: %w", &Error{Code: "5600", Message: "insufficient balance"})
	assert.True(t, IsExchangeError(err))
	assert.Contains(t, err.Error(), "insufficient balance")
	assert.Equal(t, "exchange http 502: bad gateway", (&Error{HTTPStatus: 502, Message: "bad gateway"}).Error())
	assert.False(t, IsExchangeError(fmt.Errorf("plain")))
}
