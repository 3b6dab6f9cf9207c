package decision

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for in, want := range map[string]Action{
		"BUY":    ActionBuy,
		" sell ": ActionSell,
		"Hold":   ActionHold,
	} {
		got, err := ParseAction(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseAction("close")
	assert.Error(t, err)
}

func TestActionZeroValueIsHold(t *testing.T) {
	var a Action
	assert.Equal(t, ActionHold, a)
	assert.Equal(t, "HOLD", a.String())
	assert.Zero(t, a.Sign())
	assert.Equal(t, 1.0, ActionBuy.Sign())
	assert.Equal(t, -1.0, ActionSell.Sign())
}

func TestActionTextRoundTrip(t *testing.T) {
	var a Action
	require.NoError(t, a.UnmarshalText([]byte("sell")))
	assert.Equal(t, ActionSell, a)
	b, err := a.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "SELL", string(b))
	assert.Error(t, a.UnmarshalText([]byte("short")))
}

func TestWithAdjustersLeaveOriginalUntouched(t *testing.T) {
	orig, err := New(Fields{Action: ActionBuy, Confidence: 0.8, Amount: 2, Reasoning: "base", RawResponse: "raw"})
	require.NoError(t, err)

	adj := orig.WithAmount(1).WithTargetPrice(100).WithProtection(98, 103).WithReasoning("base | adjusted")

	assert.Equal(t, 2.0, orig.Amount())
	_, ok := orig.TargetPrice()
	assert.False(t, ok)
	_, ok = orig.StopLoss()
	assert.False(t, ok)
	assert.Equal(t, "base", orig.Reasoning())

	assert.Equal(t, 1.0, adj.Amount())
	tp, _ := adj.TargetPrice()
	sl, _ := adj.StopLoss()
	take, _ := adj.TakeProfit()
	assert.Equal(t, 100.0, tp)
	assert.Equal(t, 98.0, sl)
	assert.Equal(t, 103.0, take)
	assert.Equal(t, "raw", adj.RawResponse())
	assert.Equal(t, 0.8, adj.Confidence())
}

func TestHold(t *testing.T) {
	d := Hold(0.4, "nothing to do", "raw text")
	assert.Equal(t, ActionHold, d.Action())
	assert.Equal(t, 0.4, d.Confidence())
	assert.Zero(t, d.Amount())
	assert.False(t, d.IsTrade())
	assert.Equal(t, "raw text", d.RawResponse())
}

func TestMarshalJSON(t *testing.T) {
	d, err := New(Fields{Action: ActionSell, Confidence: 0.9, Amount: 0.4, Reasoning: "take profit"})
	require.NoError(t, err)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"SELL","confidence":0.9,"amount":0.4,"target_price":null,"reasoning":"take profit"}`, string(b))
}

func TestEntry(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, loc)
	d := Hold(0.1, "wait", "").WithTargetPrice(5000)
	e := d.Entry(ts)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
	assert.True(t, e.Timestamp.Equal(ts))
	require.NotNil(t, e.Price)
	assert.Equal(t, 5000.0, *e.Price)
	assert.Equal(t, ActionHold, e.Action)
}
