package aggregates

import (
	"database/sql"

	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SessionTotals struct {
	SessionId      uint64
	TotalUpStake   decimal.Decimal
	TotalDownStake decimal.Decimal
}

// Recalculator derives session stake totals from the stake rows themselves.
type Recalculator struct {
	logger *zap.Logger
}

func NewRecalculator(l *zap.Logger) *Recalculator {
	return &Recalculator{logger: l}
}

// SumStakes re-scans every stake of a session. Amounts are summed as decimals
// since they exceed 64 bits.
func (r *Recalculator) SumStakes(tx *gorm.DB, sessionId uint64) (*SessionTotals, error) {
	var stakes []storage.Stake
	res := tx.Where("session_id = ?", sessionId).Find(&stakes)
	if res.Error != nil {
		return nil, res.Error
	}

	totals := &SessionTotals{
		SessionId:      sessionId,
		TotalUpStake:   decimal.Zero,
		TotalDownStake: decimal.Zero,
	}
	for _, s := range stakes {
		if s.IsUp {
			totals.TotalUpStake = totals.TotalUpStake.Add(s.Amount)
		} else {
			totals.TotalDownStake = totals.TotalDownStake.Add(s.Amount)
		}
	}
	return totals, nil
}

// RecalculateSessionTotals rewrites the up/down totals of a session. A session that
// does not exist yet is skipped; the stake rows are kept and picked up later.
func (r *Recalculator) RecalculateSessionTotals(tx *gorm.DB, sessionId uint64) (*SessionTotals, error) {
	totals, err := r.SumStakes(tx, sessionId)
	if err != nil {
		return nil, err
	}

	query := `
		update sessions set
			total_up_stake = @up,
			total_down_stake = @down
		where id = @id
	`
	res := tx.Exec(query,
		sql.Named("up", totals.TotalUpStake.String()),
		sql.Named("down", totals.TotalDownStake.String()),
		sql.Named("id", sessionId),
	)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		r.logger.Sugar().Debugw("Session not found, skipping totals",
			zap.Uint64("sessionId", sessionId),
		)
		return nil, nil
	}
	return totals, nil
}
