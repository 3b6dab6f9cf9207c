package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"bithumb-llm-trader/pkg/decision"
	"bithumb-llm-trader/pkg/exchange"
	"bithumb-llm-trader/pkg/manager"
)

// DecisionSummary is the compact decision view printed by the CLI.
type DecisionSummary struct {
	Action     decision.Action `json:"action"`
	Amount     float64         `json:"amount"`
	Price      *float64        `json:"price"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// DecisionSummaryJSON renders d as indented JSON.
func DecisionSummaryJSON(d decision.TradeDecision) (string, error) {
	s := DecisionSummary{
		Action:     d.Action(),
		Amount:     d.Amount(),
		Confidence: d.Confidence(),
		Reasoning:  d.Reasoning(),
	}
	if p, ok := d.TargetPrice(); ok {
		s.Price = &p
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cli: encode decision: %w", err)
	}
	return string(b), nil
}

// WriteStrategyReport prints one strategy result.
func WriteStrategyReport(w io.Writer, r manager.StrategyCycleResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s (%s) ==\n", r.Name, r.Pair)
	fmt.Fprintf(&b, "closing price: %s %s\n", exchange.FormatUnits(r.Market.Ticker.ClosingPrice()), r.Pair.PaymentCurrency)
	fmt.Fprintf(&b, "available: %s %s / %s %s\n",
		exchange.FormatUnits(r.Account.AvailableAsset), r.Pair.OrderCurrency,
		exchange.FormatUnits(r.Account.AvailableQuote), r.Pair.PaymentCurrency)
	fmt.Fprintf(&b, "model decision: %s\n", r.LLMDecision)

	final, err := DecisionSummaryJSON(r.FinalDecision)
	if err != nil {
		return err
	}
	fmt.Fprintf(&b, "final decision:\n%s\n", final)
	if r.OrderResponse != nil {
		fmt.Fprintf(&b, "order: %s\n", orNone(r.OrderResponse.OrderID))
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", r.Error)
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// WriteCycleReport prints every strategy followed by portfolio totals.
func WriteCycleReport(w io.Writer, out *manager.PortfolioCycleResult) error {
	if out == nil {
		return nil
	}
	for _, r := range out.StrategyResults {
		if err := WriteStrategyReport(w, r); err != nil {
			return err
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "== portfolio %s @ %s ==\n", out.ID, out.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	for _, ccy := range sortedKeys(out.CashByCurrency) {
		fmt.Fprintf(&b, "cash %s: %s\n", ccy, exchange.FormatUnits(out.CashByCurrency[ccy]))
	}
	for _, name := range sortedKeys(out.PositionsByPair) {
		fmt.Fprintf(&b, "position %s: %s (value %s)\n", name,
			exchange.FormatUnits(out.PositionsByPair[name]),
			exchange.FormatUnits(out.PositionValuesByPair[name]))
	}
	fmt.Fprintf(&b, "total cash: %s\n", exchange.FormatUnits(out.TotalCash))
	fmt.Fprintf(&b, "total positions value: %s\n", exchange.FormatUnits(out.TotalPositionsValue))
	fmt.Fprintf(&b, "net exposure change: %s\n", exchange.FormatUnits(out.NetExposureChange))
	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
