package indexDataService

import (
	"context"
	"errors"
	"fmt"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/pkg/service/baseDataService"
	"github.com/mojo-fit/mojo-indexer/pkg/service/types"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"github.com/mojo-fit/mojo-indexer/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

// Leaderboard sort keys mapped to their fighters column.
var leaderboardSorts = map[string]string{
	"totalReps": "total_reps",
	"level":     "level",
	"wins":      "wins",
	"strength":  "strength",
	"agility":   "agility",
	"endurance": "endurance",
}

const DefaultLeaderboardSort = "totalReps"

type IndexDataService struct {
	baseDataService.BaseDataService
	db           *gorm.DB
	logger       *zap.Logger
	globalConfig *config.Config
}

func NewIndexDataService(
	db *gorm.DB,
	logger *zap.Logger,
	globalConfig *config.Config,
) *IndexDataService {
	return &IndexDataService{
		BaseDataService: baseDataService.BaseDataService{DB: db},
		db:              db,
		logger:          logger,
		globalConfig:    globalConfig,
	}
}

type SessionWithStakes struct {
	Session *storage.Session
	Stakes  []*storage.Stake
}

type LeaderboardEntry struct {
	Rank    int
	Fighter *storage.Fighter
	Label   string
	Value   uint64
}

func (s *IndexDataService) ListSessions(ctx context.Context, status *storage.SessionStatus, limit int) ([]*storage.Session, error) {
	sessions := make([]*storage.Session, 0)
	query := s.db.WithContext(ctx).Model(&storage.Session{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	res := query.Order("id desc").Limit(types.NormalizeLimit(limit)).Find(&sessions)
	if res.Error != nil {
		return nil, res.Error
	}
	return sessions, nil
}

func (s *IndexDataService) GetSession(ctx context.Context, id uint64) (*SessionWithStakes, error) {
	session := &storage.Session{}
	res := s.db.WithContext(ctx).Model(&storage.Session{}).Where("id = ?", id).First(session)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %d: %w", id, ErrNotFound)
		}
		return nil, res.Error
	}

	stakes := make([]*storage.Stake, 0)
	res = s.db.WithContext(ctx).Model(&storage.Stake{}).
		Where("session_id = ?", id).
		Order("block_number asc, staker asc").
		Find(&stakes)
	if res.Error != nil {
		return nil, res.Error
	}
	return &SessionWithStakes{Session: session, Stakes: stakes}, nil
}

func (s *IndexDataService) ListChallenges(ctx context.Context, opponent string, status *storage.ChallengeStatus, limit int) ([]*storage.Challenge, error) {
	challenges := make([]*storage.Challenge, 0)
	query := s.db.WithContext(ctx).Model(&storage.Challenge{})
	if opponent != "" {
		query = query.Where("opponent = ?", utils.NormalizeAddress(opponent))
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	res := query.Order("id desc").Limit(types.NormalizeLimit(limit)).Find(&challenges)
	if res.Error != nil {
		return nil, res.Error
	}
	return challenges, nil
}

func (s *IndexDataService) GetFighter(ctx context.Context, address string) (*storage.Fighter, error) {
	fighter := &storage.Fighter{}
	res := s.db.WithContext(ctx).Model(&storage.Fighter{}).Where("address = ?", utils.NormalizeAddress(address)).First(fighter)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("fighter %s: %w", address, ErrNotFound)
		}
		return nil, res.Error
	}
	return fighter, nil
}

// NormalizeLeaderboardSort falls back to totalReps for unknown sort keys.
func NormalizeLeaderboardSort(sort string) string {
	if _, ok := leaderboardSorts[sort]; ok {
		return sort
	}
	return DefaultLeaderboardSort
}

func (s *IndexDataService) GetLeaderboard(ctx context.Context, sort string, limit int) ([]*LeaderboardEntry, error) {
	sort = NormalizeLeaderboardSort(sort)
	column := leaderboardSorts[sort]

	fighters := make([]*storage.Fighter, 0)
	res := s.db.WithContext(ctx).Model(&storage.Fighter{}).
		Order(fmt.Sprintf("%s desc, address asc", column)).
		Limit(types.NormalizeLimit(limit)).
		Find(&fighters)
	if res.Error != nil {
		return nil, res.Error
	}

	entries := make([]*LeaderboardEntry, 0, len(fighters))
	for i, f := range fighters {
		entries = append(entries, &LeaderboardEntry{
			Rank:    i + 1,
			Fighter: f,
			Label:   sort,
			Value:   leaderboardValue(f, sort),
		})
	}
	return entries, nil
}

func leaderboardValue(f *storage.Fighter, sort string) uint64 {
	switch sort {
	case "level":
		return f.Level
	case "wins":
		return f.Wins
	case "strength":
		return f.Strength
	case "agility":
		return f.Agility
	case "endurance":
		return f.Endurance
	}
	return f.TotalReps
}
