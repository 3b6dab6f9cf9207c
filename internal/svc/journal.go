package svc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"bithumb-llm-trader/pkg/journal"
	managerpkg "bithumb-llm-trader/pkg/manager"
)

// JournalSink writes each portfolio cycle to a journal directory.
type JournalSink struct {
	w       *journal.Writer
	digests map[string]string
}

func NewJournalSink(w *journal.Writer, promptDigests map[string]string) *JournalSink {
	return &JournalSink{w: w, digests: promptDigests}
}

// RecordCycle implements manager.CycleSink.
func (s *JournalSink) RecordCycle(ctx context.Context, result *managerpkg.PortfolioCycleResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("journal sink: encode cycle %s: %w", result.ID, err)
	}
	rec := &journal.CycleRecord{
		Timestamp:     result.Timestamp,
		CycleID:       result.ID,
		PromptDigests: s.digests,
		Result:        payload,
		Success:       true,
	}
	for _, r := range result.StrategyResults {
		rec.Strategies = append(rec.Strategies, r.Name)
		if r.Error != "" {
			rec.Success = false
			rec.FailedStrategy = append(rec.FailedStrategy, r.Name)
		}
	}
	path, err := s.w.WriteCycle(rec)
	if err != nil {
		return err
	}
	logx.WithContext(ctx).Debugf("journal sink: cycle %s written to %s", result.ID, path)
	return nil
}
