package decision

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	fencedObject = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	bareObject   = regexp.MustCompile(`(?s)\{.*\}`)
)

// Parse extracts and validates a decision from free-form model output.
// Any failure is reported as *ParseError; no field is ever guessed or clamped.
func Parse(text string) (TradeDecision, error) {
	candidate, ok := extractObject(text)
	if !ok {
		return TradeDecision{}, &ParseError{Reason: "could not locate a JSON object in model response", Raw: text}
	}
	if !gjson.Valid(candidate) {
		return TradeDecision{}, &ParseError{Reason: "model response did not contain valid JSON", Raw: text}
	}
	doc := gjson.Parse(candidate)
	if !doc.IsObject() {
		return TradeDecision{}, &ParseError{Reason: "model response did not contain valid JSON", Raw: text}
	}

	actionField := doc.Get("action")
	if !actionField.Exists() || actionField.Type == gjson.Null {
		return TradeDecision{}, &ParseError{Reason: "decision JSON must include an 'action' field", Raw: text}
	}
	action, err := ParseAction(actionField.String())
	if err != nil {
		return TradeDecision{}, &ParseError{Reason: "unsupported action: " + actionField.String(), Raw: text}
	}

	f := Fields{Action: action, RawResponse: text}
	if f.Confidence, err = number(doc, "confidence", text); err != nil {
		return TradeDecision{}, err
	}
	if f.Amount, err = number(doc, "amount", text); err != nil {
		return TradeDecision{}, err
	}
	if f.TargetPrice, err = optional(doc, "target_price", text); err != nil {
		return TradeDecision{}, err
	}
	if f.StopLoss, err = optional(doc, "stop_loss", text); err != nil {
		return TradeDecision{}, err
	}
	if f.TakeProfit, err = optional(doc, "take_profit", text); err != nil {
		return TradeDecision{}, err
	}
	if r := doc.Get("reasoning"); r.Exists() && r.Type != gjson.Null {
		f.Reasoning = strings.TrimSpace(r.String())
	}
	return New(f)
}

func extractObject(text string) (string, bool) {
	if m := fencedObject.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := bareObject.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

// number reads a required-with-default numeric field. Absent means zero;
// numeric strings are accepted; any other kind fails.
func number(doc gjson.Result, key, raw string) (float64, error) {
	v := doc.Get(key)
	if !v.Exists() {
		return 0, nil
	}
	n, ok := coerce(v)
	if !ok {
		return 0, &ParseError{Reason: "field '" + key + "' must be numeric", Raw: raw}
	}
	return n, nil
}

// optional reads a field that may be absent or null.
func optional(doc gjson.Result, key, raw string) (*float64, error) {
	v := doc.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	n, ok := coerce(v)
	if !ok {
		return nil, &ParseError{Reason: "field '" + key + "' must be numeric", Raw: raw}
	}
	return &n, nil
}

func coerce(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Float(), true
	case gjson.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
