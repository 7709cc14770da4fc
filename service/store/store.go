/*
 * @module service/store/store
 * @description Narrow data access layer: storefront read accessors plus sync state persistence
 * @architecture layered architecture - data access layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow syncers read entities here, then record the attempt outcome here
 * @rules remote_id is first-write-wins; needs_sync is cleared only after a confirmed success
 * @dependencies gorm.io/gorm, service/models, service/meta
 * @refs service/syncer, service/batch
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pennylane-sync-service/service/models"

	"gorm.io/gorm"
)

// NotFoundError reports that a local entity vanished between selection and
// processing. The batch driver counts it separately from errors.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// Store is the gorm-backed data access layer.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store on top of db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetCustomer loads one storefront customer.
func (s *Store) GetCustomer(ctx context.Context, id int64) (*models.StoreCustomer, error) {
	var customer models.StoreCustomer
	err := s.db.WithContext(ctx).First(&customer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "customer", Key: fmt.Sprint(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("load customer %d: %w", id, err)
	}
	return &customer, nil
}

// GetProduct loads one storefront product.
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.StoreProduct, error) {
	var product models.StoreProduct
	err := s.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "product", Key: fmt.Sprint(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", id, err)
	}
	return &product, nil
}

// GetOrder loads one storefront order with its line items.
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.StoreOrder, error) {
	var order models.StoreOrder
	err := s.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "order", Key: fmt.Sprint(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}
	return &order, nil
}

// GetLatestGuestOrder loads the most recent guest order for an email. It is
// the synthetic "local record" behind a guest customer sync.
func (s *Store) GetLatestGuestOrder(ctx context.Context, email string) (*models.StoreOrder, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var order models.StoreOrder
	err := s.db.WithContext(ctx).
		Where("customer_id IS NULL AND LOWER(email) = ?", email).
		Order("ordered_at DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "guest order", Key: email}
	}
	if err != nil {
		return nil, fmt.Errorf("load guest order for %s: %w", email, err)
	}
	return &order, nil
}

// ListDirtyIDs returns local IDs flagged needs_sync for a kind, excluded
// entities filtered out, paged by offset/limit, along with the total count.
func (s *Store) ListDirtyIDs(ctx context.Context, kind string, offset, limit int) ([]int64, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.SyncState{}).
		Where("entity_kind = ? AND needs_sync = ? AND excluded = ?", kind, true, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count dirty %s entities: %w", kind, err)
	}

	var ids []int64
	err := query.Order("local_id").Offset(offset).Limit(limit).Pluck("local_id", &ids).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list dirty %s entities: %w", kind, err)
	}
	return ids, total, nil
}

// ListDirtyGuestEmails returns guest emails flagged needs_sync.
func (s *Store) ListDirtyGuestEmails(ctx context.Context, offset, limit int) ([]string, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.GuestSyncState{}).
		Where("needs_sync = ? AND excluded = ?", true, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count dirty guests: %w", err)
	}

	var emails []string
	err := query.Order("email").Offset(offset).Limit(limit).Pluck("email", &emails).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list dirty guests: %w", err)
	}
	return emails, total, nil
}

// ListOrderIDsInRange returns order IDs placed inside [from, to], paged.
func (s *Store) ListOrderIDsInRange(ctx context.Context, from, to time.Time, offset, limit int) ([]int64, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.StoreOrder{}).
		Where("ordered_at >= ? AND ordered_at <= ?", from, to)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count orders in range: %w", err)
	}

	var ids []int64
	err := query.Order("id").Offset(offset).Limit(limit).Pluck("id", &ids).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list orders in range: %w", err)
	}
	return ids, total, nil
}
