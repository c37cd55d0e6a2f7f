package challenges

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/base"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/fighters"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/stateManager"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/types"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"github.com/mojo-fit/mojo-indexer/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MODEL_NAME = "ChallengesModel"

type ChallengesModel struct {
	base.BaseStateModel
	stateManager *stateManager.StateManager
	logger       *zap.Logger
	globalConfig *config.Config
}

func NewChallengesModel(
	sm *stateManager.StateManager,
	logger *zap.Logger,
	globalConfig *config.Config,
) (*ChallengesModel, error) {
	model := &ChallengesModel{
		BaseStateModel: base.BaseStateModel{Logger: logger},
		stateManager:   sm,
		logger:         logger,
		globalConfig:   globalConfig,
	}

	sm.RegisterState(model, 3)
	return model, nil
}

func (c *ChallengesModel) GetModelName() string {
	return MODEL_NAME
}

func (c *ChallengesModel) IsInterestingFact(fact events.Fact) bool {
	return c.BaseStateModel.IsInterestingFact([]events.EventKind{
		events.EventKind_ChallengeCreated,
		events.EventKind_ChallengeAccepted,
		events.EventKind_ChallengeResolved,
	}, fact)
}

func (c *ChallengesModel) HandleFact(tx *gorm.DB, fact events.Fact) (interface{}, error) {
	switch f := fact.(type) {
	case *events.ChallengeCreated:
		return c.createChallenge(tx, f)
	case *events.ChallengeAccepted:
		return c.acceptChallenge(tx, f)
	case *events.ChallengeResolved:
		return c.resolveChallenge(tx, f)
	}
	return nil, fmt.Errorf("unexpected fact type %T for %s", fact, c.GetModelName())
}

func (c *ChallengesModel) createChallenge(tx *gorm.DB, fact *events.ChallengeCreated) (*storage.Challenge, error) {
	for _, address := range []string{fact.Challenger, fact.Opponent} {
		if err := fighters.EnsureFighter(tx, address, fact.BlockNumber); err != nil {
			return nil, err
		}
	}

	query := `
		insert into challenges (id, challenger, opponent, wager, status, winner, payout, block_number)
		values (@id, @challenger, @opponent, @wager, @status, null, '0', @blockNumber)
		on conflict (id) do nothing
	`
	res := tx.Exec(query,
		sql.Named("id", fact.ChallengeId),
		sql.Named("challenger", fact.Challenger),
		sql.Named("opponent", fact.Opponent),
		sql.Named("wager", fact.Wager.String()),
		sql.Named("status", storage.ChallengeStatus_Pending),
		sql.Named("blockNumber", fact.BlockNumber),
	)
	if res.Error != nil {
		c.logger.Sugar().Errorw("Failed to insert challenge", zap.Uint64("challengeId", fact.ChallengeId), zap.Error(res.Error))
		return nil, res.Error
	}
	return &storage.Challenge{
		Id:          fact.ChallengeId,
		Challenger:  fact.Challenger,
		Opponent:    fact.Opponent,
		Wager:       fact.Wager,
		Status:      storage.ChallengeStatus_Pending,
		BlockNumber: fact.BlockNumber,
	}, nil
}

func (c *ChallengesModel) getChallenge(tx *gorm.DB, id uint64, kind events.EventKind) (*storage.Challenge, error) {
	challenge := &storage.Challenge{}
	res := tx.Model(&storage.Challenge{}).Where("id = ?", id).First(challenge)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, &types.MissingEntityError{
				Entity: "challenge",
				Id:     fmt.Sprintf("%d", id),
				Kind:   kind,
			}
		}
		return nil, res.Error
	}
	return challenge, nil
}

// acceptChallenge moves a pending challenge to accepted. Later statuses are left alone.
func (c *ChallengesModel) acceptChallenge(tx *gorm.DB, fact *events.ChallengeAccepted) (*storage.Challenge, error) {
	challenge, err := c.getChallenge(tx, fact.ChallengeId, fact.Kind)
	if err != nil {
		return nil, err
	}
	if challenge.Status != storage.ChallengeStatus_Pending {
		c.logger.Sugar().Debugw("Challenge already past pending",
			zap.Uint64("challengeId", fact.ChallengeId),
			zap.String("status", challenge.Status.String()),
		)
		return challenge, nil
	}

	res := tx.Exec(`update challenges set status = @status where id = @id`,
		sql.Named("status", storage.ChallengeStatus_Accepted),
		sql.Named("id", fact.ChallengeId),
	)
	if res.Error != nil {
		return nil, res.Error
	}
	challenge.Status = storage.ChallengeStatus_Accepted
	return challenge, nil
}

func (c *ChallengesModel) resolveChallenge(tx *gorm.DB, fact *events.ChallengeResolved) (*storage.Challenge, error) {
	challenge, err := c.getChallenge(tx, fact.ChallengeId, fact.Kind)
	if err != nil {
		return nil, err
	}

	res := tx.Exec(`
		update challenges set
			status = @status,
			winner = @winner,
			payout = @payout
		where id = @id
	`,
		sql.Named("status", storage.ChallengeStatus_Resolved),
		sql.Named("winner", fact.Winner),
		sql.Named("payout", fact.Payout.String()),
		sql.Named("id", fact.ChallengeId),
	)
	if res.Error != nil {
		return nil, res.Error
	}

	loser := challenge.Challenger
	if utils.AreAddressesEqual(challenge.Challenger, fact.Winner) {
		loser = challenge.Opponent
	}

	if c.globalConfig.IndexerConfig.IdempotentBattleCredits {
		credited, err := c.recordBattleCredit(tx, fact, loser)
		if err != nil {
			return nil, err
		}
		if !credited {
			c.logger.Sugar().Debugw("Battle already credited", zap.Uint64("challengeId", fact.ChallengeId))
			return c.resolved(challenge, fact), nil
		}
	}

	if err := c.creditBattle(tx, fact.Winner, loser, fact.BlockNumber); err != nil {
		return nil, err
	}
	return c.resolved(challenge, fact), nil
}

func (c *ChallengesModel) resolved(challenge *storage.Challenge, fact *events.ChallengeResolved) *storage.Challenge {
	winner := fact.Winner
	challenge.Status = storage.ChallengeStatus_Resolved
	challenge.Winner = &winner
	challenge.Payout = fact.Payout
	return challenge
}

// recordBattleCredit returns true only when this call created the credit row.
func (c *ChallengesModel) recordBattleCredit(tx *gorm.DB, fact *events.ChallengeResolved, loser string) (bool, error) {
	res := tx.Exec(`
		insert into battle_credits (challenge_id, winner, loser, block_number)
		values (@challengeId, @winner, @loser, @blockNumber)
		on conflict (challenge_id) do nothing
	`,
		sql.Named("challengeId", fact.ChallengeId),
		sql.Named("winner", fact.Winner),
		sql.Named("loser", loser),
		sql.Named("blockNumber", fact.BlockNumber),
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (c *ChallengesModel) creditBattle(tx *gorm.DB, winner string, loser string, blockNumber uint64) error {
	for _, address := range []string{winner, loser} {
		if err := fighters.EnsureFighter(tx, address, blockNumber); err != nil {
			return err
		}
	}
	if res := tx.Exec(`update fighters set wins = wins + 1 where address = @address`, sql.Named("address", winner)); res.Error != nil {
		return res.Error
	}
	if res := tx.Exec(`update fighters set losses = losses + 1 where address = @address`, sql.Named("address", loser)); res.Error != nil {
		return res.Error
	}
	return nil
}
