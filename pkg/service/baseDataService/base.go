package baseDataService

import (
	"context"
	"errors"

	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"gorm.io/gorm"
)

type BaseDataService struct {
	DB *gorm.DB
}

// GetLatestWindow returns the most recently committed window, or nil before the first run.
func (b *BaseDataService) GetLatestWindow(ctx context.Context) (*storage.WindowStateRoot, error) {
	window := &storage.WindowStateRoot{}
	res := b.DB.WithContext(ctx).Model(&storage.WindowStateRoot{}).Order("to_position desc").First(window)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return window, nil
}
