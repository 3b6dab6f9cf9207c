// Package decider turns a strategy's market context into a model decision.
package decider

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"bithumb-llm-trader/pkg/decision"
	"bithumb-llm-trader/pkg/llm"
	"bithumb-llm-trader/pkg/prompt"
)

// Decider produces the raw trade decision for one strategy cycle.
type Decider interface {
	Decide(ctx context.Context, in prompt.Input) (decision.TradeDecision, error)
}

// LLMDecider renders a prompt, asks the completion client and parses the
// answer. Parse failures are returned as *decision.ParseError.
type LLMDecider struct {
	client  llm.TextCompletionClient
	builder *prompt.Builder
	params  llm.Params
}

// New wires a decider. A nil builder uses the default instructions.
func New(client llm.TextCompletionClient, builder *prompt.Builder, params llm.Params) (*LLMDecider, error) {
	if client == nil {
		return nil, errors.New("decider: completion client is nil")
	}
	if builder == nil {
		var err error
		if builder, err = prompt.NewBuilder(""); err != nil {
			return nil, err
		}
	}
	return &LLMDecider{client: client, builder: builder, params: params}, nil
}

// Decide implements Decider.
func (d *LLMDecider) Decide(ctx context.Context, in prompt.Input) (decision.TradeDecision, error) {
	text, err := d.builder.Build(in)
	if err != nil {
		return decision.TradeDecision{}, fmt.Errorf("decider: build prompt %s: %w", in.Pair, err)
	}
	answer, err := d.client.Generate(ctx, text, d.params)
	if err != nil {
		return decision.TradeDecision{}, fmt.Errorf("decider: generate %s: %w", in.Pair, err)
	}
	out, err := decision.Parse(answer)
	if err != nil {
		logx.WithContext(ctx).Errorf("decider: parse failed pair=%s err=%v", in.Pair, err)
		return decision.TradeDecision{}, err
	}
	logx.WithContext(ctx).Debugf("decider: pair=%s decision=%s", in.Pair, out)
	return out, nil
}

// Func adapts a plain function to Decider.
type Func func(ctx context.Context, in prompt.Input) (decision.TradeDecision, error)

func (f Func) Decide(ctx context.Context, in prompt.Input) (decision.TradeDecision, error) {
	return f(ctx, in)
}
