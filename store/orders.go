package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MapOrder records or updates the remote order of a WooCommerce order
func (s *Store) MapOrder(ctx context.Context, localOrderID int64, remoteOrderID, status string) error {
	mapping := OrderMapping{
		LocalOrderID:  localOrderID,
		RemoteOrderID: remoteOrderID,
		Status:        status,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "remote_order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"local_order_id", "status", "updated_at"}),
	}).Create(&mapping).Error
	if err != nil {
		return fmt.Errorf("failed to map order %s: %w", remoteOrderID, err)
	}
	return nil
}

// RemoteOrder returns the mapping of a WooCommerce order
func (s *Store) RemoteOrder(ctx context.Context, localOrderID int64) (*OrderMapping, error) {
	return s.findOrder(ctx, "local_order_id = ?", localOrderID)
}

// LocalOrder returns the mapping of a remote order
func (s *Store) LocalOrder(ctx context.Context, remoteOrderID string) (*OrderMapping, error) {
	return s.findOrder(ctx, "remote_order_id = ?", remoteOrderID)
}

// OrdersByStatus lists mappings in a given status
func (s *Store) OrdersByStatus(ctx context.Context, status string) ([]OrderMapping, error) {
	var mappings []OrderMapping
	err := s.db.WithContext(ctx).Where("status = ?", status).Order("local_order_id").Find(&mappings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return mappings, nil
}

func (s *Store) findOrder(ctx context.Context, query string, arg any) (*OrderMapping, error) {
	var mapping OrderMapping
	err := s.db.WithContext(ctx).Where(query, arg).First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order mapping: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order mapping: %w", err)
	}
	return &mapping, nil
}
