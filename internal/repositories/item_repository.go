package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/findit/backend/internal/apperr"
	"github.com/anonto42/findit/backend/internal/models"
	"gorm.io/gorm"
)

// ItemRepository defines the interface for lost/found item operations
type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id uint) (*models.Item, error)
	ListItems(ctx context.Context, filter models.ItemFilter, offset, limit int) ([]models.Item, int64, error)
	ListMatchCandidates(ctx context.Context, status models.ItemStatus, excludeOwner string) ([]models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	SetStatus(ctx context.Context, id uint, status models.ItemStatus) error
	Claim(ctx context.Context, id uint, claimantUID string) error
	Verify(ctx context.Context, id uint) error
	MarkQRRegistered(ctx context.Context, id uint) error
	DeleteItem(ctx context.Context, id uint) error
}

// PostgresItemRepository implements ItemRepository for PostgreSQL
type PostgresItemRepository struct {
	db *gorm.DB
}

// NewPostgresItemRepository creates a new PostgresItemRepository
func NewPostgresItemRepository(db *gorm.DB) *PostgresItemRepository {
	return &PostgresItemRepository{db: db}
}

func (r *PostgresItemRepository) CreateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *PostgresItemRepository) GetItemByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, "item")
	}
	return &item, nil
}

func (r *PostgresItemRepository) scoped(ctx context.Context, filter models.ItemFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Item{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.OwnerUID != "" {
		q = q.Where("owner_uid = ?", filter.OwnerUID)
	}
	if filter.Open {
		q = q.Where("claimed_by = ''")
	}
	return q
}

// ListItems returns a page of items, newest first, plus the total match count
func (r *PostgresItemRepository) ListItems(ctx context.Context, filter models.ItemFilter, offset, limit int) ([]models.Item, int64, error) {
	var total int64
	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Item
	err := r.scoped(ctx, filter).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	return items, total, err
}

// ListMatchCandidates returns every open item with the given status that does
// not belong to excludeOwner
func (r *PostgresItemRepository) ListMatchCandidates(ctx context.Context, status models.ItemStatus, excludeOwner string) ([]models.Item, error) {
	var items []models.Item
	q := r.scoped(ctx, models.ItemFilter{Status: status, Open: true})
	if excludeOwner != "" {
		q = q.Where("owner_uid <> ?", excludeOwner)
	}
	err := q.Order("created_at ASC").Find(&items).Error
	return items, err
}

func (r *PostgresItemRepository) UpdateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *PostgresItemRepository) SetStatus(ctx context.Context, id uint, status models.ItemStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

// Claim records claimantUID on an unclaimed item. Claiming an item that is
// already claimed by someone else is a conflict; re-claiming is a no-op.
func (r *PostgresItemRepository) Claim(ctx context.Context, id uint, claimantUID string) error {
	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND (claimed_by = '' OR claimed_by = ?)", id, claimantUID).
		Updates(map[string]interface{}{"claimed_by": claimantUID, "verified": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetItemByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("item already claimed: %w", apperr.ErrConflict)
	}
	return nil
}

func (r *PostgresItemRepository) Verify(ctx context.Context, id uint) error {
	return r.updateColumn(ctx, id, "verified", true)
}

func (r *PostgresItemRepository) MarkQRRegistered(ctx context.Context, id uint) error {
	return r.updateColumn(ctx, id, "qr_registered", true)
}

func (r *PostgresItemRepository) DeleteItem(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Item{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %w", apperr.ErrNotFound)
	}
	return nil
}

func (r *PostgresItemRepository) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %w", apperr.ErrNotFound)
	}
	return nil
}
