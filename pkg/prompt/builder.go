package prompt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bithumb-llm-trader/pkg/decision"
	"bithumb-llm-trader/pkg/exchange"
	"bithumb-llm-trader/pkg/market"
	"bithumb-llm-trader/pkg/risk"
)

const (
	orderBookDepth = 5
	historyDepth   = 3
)

// DefaultInstructions is the stock header describing the JSON answer contract.
const DefaultInstructions = `You are an autonomous crypto trading strategist operating on the Bithumb exchange.
Analyse the provided market data and account balances to decide whether to BUY, SELL or HOLD
the pair {{.OrderCurrency}}/{{.PaymentCurrency}}. Your answer must be a single JSON object with the following fields:
- action: one of BUY, SELL, HOLD
- confidence: value between 0 and 1
- amount: number of {{.OrderCurrency}} units to trade
- target_price: desired execution price in {{.PaymentCurrency}} (optional)
- reasoning: concise explanation for the decision
- stop_loss: optional stop loss price in {{.PaymentCurrency}}
- take_profit: optional take profit price in {{.PaymentCurrency}}

Ensure the JSON is valid and does not include additional commentary.`

// HeaderData is what instruction templates may reference.
type HeaderData struct {
	OrderCurrency   string
	PaymentCurrency string
	Symbol          string
}

// Input carries everything one prompt is built from.
type Input struct {
	Pair    exchange.Pair
	Market  market.MarketSnapshot
	Account market.AccountSnapshot
	Risk    risk.Config
	History []decision.HistoryEntry
}

// Builder renders trading prompts: an instruction header followed by the
// market, account and risk sections.
type Builder struct {
	header *Template
}

// NewBuilder uses the template file at path for the header, or
// DefaultInstructions when path is empty.
func NewBuilder(path string) (*Builder, error) {
	var (
		tmpl *Template
		err  error
	)
	if strings.TrimSpace(path) == "" {
		tmpl, err = ParseTemplate("default", DefaultInstructions)
	} else {
		tmpl, err = LoadTemplate(path)
	}
	if err != nil {
		return nil, err
	}
	return &Builder{header: tmpl}, nil
}

// Digest identifies the header template in use.
func (b *Builder) Digest() string { return b.header.Digest() }

// Build renders the full prompt for in.
func (b *Builder) Build(in Input) (string, error) {
	header, err := b.header.Render(HeaderData{
		OrderCurrency:   in.Pair.OrderCurrency,
		PaymentCurrency: in.Pair.PaymentCurrency,
		Symbol:          in.Pair.Symbol(),
	})
	if err != nil {
		return "", err
	}
	sections := []string{
		strings.TrimSpace(header),
		marketSection(in.Market),
		accountSection(in.Pair, in.Account, in.Risk),
		riskSection(in.Risk, in.History),
	}
	return strings.Join(sections, "\n\n"), nil
}

func marketSection(ms market.MarketSnapshot) string {
	var b strings.Builder
	b.WriteString("Market snapshot:\n")
	fmt.Fprintf(&b, "- Closing price: %s\n", ms.Ticker.Text("closing_price"))
	fmt.Fprintf(&b, "- 24h change (%%): %s\n", ms.Ticker.Text("fluctate_rate_24H"))
	fmt.Fprintf(&b, "- 24h volume: %s\n\n", ms.Ticker.Text("acc_trade_value_24H"))
	b.WriteString("Orderbook (top levels):\n")
	b.WriteString(formatOrderBook(ms.OrderBook.Top(orderBookDepth)))
	return b.String()
}

func formatOrderBook(book market.OrderBook) string {
	lines := []string{"Top Asks:"}
	lines = append(lines, formatLevels(book.Asks)...)
	lines = append(lines, "", "Top Bids:")
	lines = append(lines, formatLevels(book.Bids)...)
	return strings.Join(lines, "\n")
}

func formatLevels(levels []market.Level) []string {
	out := make([]string, 0, len(levels))
	for i, l := range levels {
		out = append(out, fmt.Sprintf("%d. %s (%s)", i+1, num(l.Price), num(l.Quantity)))
	}
	return out
}

func accountSection(pair exchange.Pair, acct market.AccountSnapshot, cfg risk.Config) string {
	return strings.Join([]string{
		"Account:",
		fmt.Sprintf("- Available %s: %s", pair.OrderCurrency, num(acct.AvailableAsset)),
		fmt.Sprintf("- Available %s: %s", pair.PaymentCurrency, num(acct.AvailableQuote)),
		fmt.Sprintf("- Position value limit: %s %s", num(cfg.MaxTradeValue), pair.PaymentCurrency),
		fmt.Sprintf("- Position size limit: %s %s", num(cfg.MaxPositionSize), pair.OrderCurrency),
	}, "\n")
}

func riskSection(cfg risk.Config, history []decision.HistoryEntry) string {
	return strings.Join([]string{
		"Risk constraints:",
		fmt.Sprintf("- Minimum confidence to trade: %s", num(cfg.MinConfidence)),
		fmt.Sprintf("- Stop loss tolerance: %.2f%%", cfg.StopLossPct*100),
		fmt.Sprintf("- Take profit target: %.2f%%", cfg.TakeProfitPct*100),
		"Trade history:",
		historyBlock(history),
	}, "\n")
}

func historyBlock(history []decision.HistoryEntry) string {
	if len(history) > historyDepth {
		history = history[len(history)-historyDepth:]
	}
	if len(history) == 0 {
		return "- No previous trades"
	}
	lines := make([]string, 0, len(history))
	for _, h := range history {
		price := "None"
		if h.Price != nil {
			price = num(*h.Price)
		}
		lines = append(lines, fmt.Sprintf("- %s: %s (amount=%s, price=%s, confidence=%.2f)",
			h.Timestamp.UTC().Format(time.RFC3339), h.Action, num(h.Amount), price, h.Confidence))
	}
	return strings.Join(lines, "\n")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
