package decision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BareObject(t *testing.T) {
	text := `Here is my call: {"action":"buy","confidence":0.82,"amount":0.25,"target_price":1000000,"reasoning":"  momentum  "} good luck`
	d, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, ActionBuy, d.Action())
	assert.Equal(t, 0.82, d.Confidence())
	assert.Equal(t, 0.25, d.Amount())
	price, ok := d.TargetPrice()
	assert.True(t, ok)
	assert.Equal(t, 1000000.0, price)
	assert.Equal(t, "momentum", d.Reasoning())
	assert.Equal(t, text, d.RawResponse())
}

func TestParse_FencedBlockPreferred(t *testing.T) {
	text := "noise {\"ignored\": true}\n```json\n{\"action\": \"SELL\", \"confidence\": \"0.6\", \"amount\": \"1.5\"}\n```"
	d, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, ActionSell, d.Action())
	assert.Equal(t, 0.6, d.Confidence())
	assert.Equal(t, 1.5, d.Amount())
	_, ok := d.TargetPrice()
	assert.False(t, ok)
}

func TestParse_UntaggedFence(t *testing.T) {
	d, err := Parse("```\n{\"action\":\"hold\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, ActionHold, d.Action())
	assert.Zero(t, d.Confidence())
	assert.Zero(t, d.Amount())
	assert.Empty(t, d.Reasoning())
}

func TestParse_NullOptionalFields(t *testing.T) {
	d, err := Parse(`{"action":"BUY","confidence":0.7,"amount":1,"target_price":null,"stop_loss":null,"reasoning":null}`)
	require.NoError(t, err)
	_, ok := d.TargetPrice()
	assert.False(t, ok)
	_, ok = d.StopLoss()
	assert.False(t, ok)
	assert.Empty(t, d.Reasoning())
}

func TestParse_Failures(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		reason string
	}{
		{"no object", "I would hold for now.", "could not locate"},
		{"malformed json", `{"action": BUY}`, "valid JSON"},
		{"missing action", `{"confidence": 0.9}`, "'action'"},
		{"unknown action", `{"action":"SHORT"}`, "unsupported action: SHORT"},
		{"confidence above one", `{"action":"BUY","confidence":1.2,"amount":1}`, "confidence must be between 0 and 1"},
		{"negative confidence", `{"action":"BUY","confidence":-0.1,"amount":1}`, "confidence must be between 0 and 1"},
		{"negative amount", `{"action":"SELL","confidence":0.9,"amount":-2}`, "cannot be negative"},
		{"zero target", `{"action":"BUY","confidence":0.9,"amount":1,"target_price":0}`, "target price must be positive"},
		{"non numeric amount", `{"action":"BUY","confidence":0.9,"amount":"lots"}`, "'amount' must be numeric"},
		{"boolean confidence", `{"action":"BUY","confidence":true}`, "'confidence' must be numeric"},
		{"array payload", "```json\n[1,2]\n```", "could not locate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "error should be a *ParseError")
			assert.Contains(t, pe.Reason, tc.reason)
			assert.Equal(t, tc.text, pe.Raw)
		})
	}
}

func TestParse_NeverClampsOutOfRange(t *testing.T) {
	for _, text := range []string{
		`{"action":"BUY","confidence":"NaN","amount":1}`,
		`{"action":"BUY","confidence":0.5,"amount":"-Inf"}`,
		`{"action":"BUY","confidence":0.5,"amount":1,"target_price":-10}`,
	} {
		_, err := Parse(text)
		assert.Error(t, err, text)
	}
}
