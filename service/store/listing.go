/*
 * @module service/store/listing
 * @description Paged ID listings over the full entity tables for stepped batch runs
 * @architecture layered architecture - data access layer
 * @documentReference dev_docs/sync_engine.md
 * @stateFlow batch driver asks for one page of IDs, then syncs them one by one
 * @rules listings are ordered by primary key so offset resume is stable across steps
 * @dependencies gorm.io/gorm, service/models, service/meta
 * @refs service/batch
 */

package store

import (
	"context"
	"fmt"

	"pennylane-sync-service/service/meta"
	"pennylane-sync-service/service/models"

	"gorm.io/gorm"
)

// ListEntityIDs returns one page of local IDs for a kind, ordered by ID, with
// the total count. It backs the stepped batch runs, which walk the whole table
// rather than just the dirty subset.
func (s *Store) ListEntityIDs(ctx context.Context, kind string, offset, limit int) ([]int64, int64, error) {
	var query *gorm.DB
	switch kind {
	case meta.EntityKindCustomer:
		query = s.db.WithContext(ctx).Model(&models.StoreCustomer{})
	case meta.EntityKindProduct:
		query = s.db.WithContext(ctx).Model(&models.StoreProduct{})
	case meta.EntityKindOrder:
		query = s.db.WithContext(ctx).Model(&models.StoreOrder{})
	default:
		return nil, 0, fmt.Errorf("unsupported entity kind %q", kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count %s entities: %w", kind, err)
	}

	var ids []int64
	err := query.Order("id").Offset(offset).Limit(limit).Pluck("id", &ids).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list %s entities: %w", kind, err)
	}
	return ids, total, nil
}

// ListGuestEmails returns one page of distinct guest checkout emails, lower
// cased and ordered, with the total count of distinct emails.
func (s *Store) ListGuestEmails(ctx context.Context, offset, limit int) ([]string, int64, error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.StoreOrder{}).
			Where("customer_id IS NULL AND email <> ''")
	}

	// Count must collapse case variants the same way the listing does, so the
	// distinct-lowered expression goes into the COUNT itself.
	var total int64
	err := base().Select("COUNT(DISTINCT LOWER(email))").Scan(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("count guest emails: %w", err)
	}

	var emails []string
	err = base().
		Distinct().
		Select("LOWER(email) AS email").
		Order("email").
		Offset(offset).Limit(limit).
		Pluck("email", &emails).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list guest emails: %w", err)
	}
	return emails, total, nil
}
