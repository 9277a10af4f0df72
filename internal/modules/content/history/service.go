package history

import (
	"context"
	"errors"

	"github.com/jdforge/core/internal/models"
	"github.com/jdforge/core/internal/modules/processing/markdown"
	"github.com/jdforge/core/internal/pkg/pagination"
	"github.com/jdforge/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PageSize is fixed; clients cannot change it.
const PageSize = 5

var errRecordNotFound = errors.New("record not found")

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, logger: logger.Named("HistoryService")}
}

// Entry is a stored record together with its rendered answer.
type Entry struct {
	models.GenerationRecord
	HTML string `json:"html"`
}

// List returns userID's records newest first, PageSize per page.
func (s *Service) List(ctx context.Context, userID string, q pagination.Query) ([]models.GenerationRecord, response.Pagination, error) {
	q.Size = PageSize
	var records []models.GenerationRecord
	query := s.db.WithContext(ctx).
		Model(&models.GenerationRecord{}).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	p, err := pagination.Paginate(query, q, &records)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	return records, p, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Entry, error) {
	var record models.GenerationRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Entry{GenerationRecord: record, HTML: markdown.RenderJobDescription(record.Answer)}, nil
}

// Delete removes one record. Records owned by someone else are reported as missing.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.GenerationRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errRecordNotFound
	}
	s.logger.Info("history record deleted", zap.String("user_id", userID), zap.String("id", id))
	return nil
}
