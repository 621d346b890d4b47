package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"meloch/internal/ledger"
	"meloch/internal/logger"
	"meloch/internal/models"
)

// GormStore keeps each user's state in a single ledger_documents row.
type GormStore struct {
	db            *gorm.DB
	defaultBudget ledger.Money
}

// NewGormStore creates a GormStore. New users start with defaultBudget as
// their monthly budget.
func NewGormStore(db *gorm.DB, defaultBudget ledger.Money) *GormStore {
	return &GormStore{db: db, defaultBudget: defaultBudget}
}

func (s *GormStore) Load(ctx context.Context, userID uint) (ledger.State, error) {
	var doc models.LedgerDocument
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.NewStateWithBudget(s.defaultBudget), nil
	}
	if err != nil {
		return ledger.State{}, fmt.Errorf("load ledger for user %d: %w", userID, err)
	}

	st, warnings, err := ledger.DecodeState([]byte(doc.State))
	if err != nil {
		return ledger.State{}, fmt.Errorf("load ledger for user %d: %w", userID, err)
	}
	for _, w := range warnings {
		logger.Get().Warnw("ledger document value replaced on load",
			"user_id", userID,
			"warning", w.String(),
		)
	}
	return st, nil
}

func (s *GormStore) Save(ctx context.Context, userID uint, st ledger.State) error {
	data, err := ledger.EncodeState(st)
	if err != nil {
		return fmt.Errorf("encode ledger for user %d: %w", userID, err)
	}

	doc := models.LedgerDocument{
		UserID:        userID,
		SchemaVersion: ledger.EncodingVersion,
		State:         string(data),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"schema_version", "state", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("save ledger for user %d: %w", userID, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Unscoped().Where("user_id = ?", userID).Delete(&models.LedgerDocument{}).Error
	if err != nil {
		return fmt.Errorf("delete ledger for user %d: %w", userID, err)
	}
	return nil
}
