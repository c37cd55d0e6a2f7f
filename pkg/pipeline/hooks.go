package pipeline

import (
	"github.com/mojo-fit/mojo-indexer/pkg/eventBus/eventBusTypes"
)

func (p *Pipeline) HandleWindowProcessedHook(window *WindowResult, ledgerTip uint64) {
	byKind := make(map[string]int, len(window.FactsByKind))
	for k, v := range window.FactsByKind {
		byKind[string(k)] = v
	}
	p.eventBus.Publish(&eventBusTypes.Event{
		Name: eventBusTypes.Event_WindowProcessed,
		Data: &eventBusTypes.WindowProcessedData{
			FromPosition: window.FromPosition,
			ToPosition:   window.ToPosition,
			LedgerTip:    ledgerTip,
			FactCount:    window.FactCount,
			FactsByKind:  byKind,
			StateRoot:    window.StateRoot,
			Duration:     window.Duration,
		},
	})
}

func (p *Pipeline) HandleRunCompletedHook(result *RunResult, err error) {
	data := &eventBusTypes.RunCompletedData{Err: err}
	if result != nil {
		data.StartPosition = result.StartPosition
		data.EndPosition = result.EndPosition
		data.LedgerTip = result.LedgerTip
		data.WindowsProcessed = result.WindowsProcessed
		data.FactsApplied = result.FactsApplied
	}
	p.eventBus.Publish(&eventBusTypes.Event{
		Name: eventBusTypes.Event_RunCompleted,
		Data: data,
	})
}
