package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// UpsertZone inserts or updates a zone by its unique name. Updates
// refresh the modification timestamp and never touch the creation
// timestamp; the name itself is immutable because it is the lookup key.
// The stored zone is returned with its assigned ID.
func (s *Store) UpsertZone(ctx context.Context, z Zone) (Zone, error) {
	if strings.TrimSpace(z.Name) == "" {
		return Zone{}, &ValidationError{Field: "zone.name", Reason: "must be non-empty"}
	}

	var out Zone
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Zone
		err := tx.Where("name = ?", z.Name).First(&existing).Error
		switch {
		case err == nil:
			existing.Description = z.Description
			existing.RHSensorAddress = z.RHSensorAddress
			existing.NPKSensorAddress = z.NPKSensorAddress
			existing.RelayAddress = z.RelayAddress
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update zone %q: %w", z.Name, err)
			}
			out = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			created := Zone{
				Name:             z.Name,
				Description:      z.Description,
				RHSensorAddress:  z.RHSensorAddress,
				NPKSensorAddress: z.NPKSensorAddress,
				RelayAddress:     z.RelayAddress,
			}
			if err := tx.Create(&created).Error; err != nil {
				return fmt.Errorf("failed to create zone %q: %w", z.Name, err)
			}
			out = created
			return nil
		default:
			return fmt.Errorf("failed to look up zone %q: %w", z.Name, err)
		}
	})
	if err != nil {
		return Zone{}, err
	}
	return out, nil
}

// GetZone returns the zone with the given name.
func (s *Store) GetZone(ctx context.Context, name string) (Zone, error) {
	var z Zone
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&z).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Zone{}, &NotFoundError{Kind: "zone", Key: name}
	}
	if err != nil {
		return Zone{}, fmt.Errorf("failed to load zone %q: %w", name, err)
	}
	return z, nil
}

// ListZones returns all zones ordered by name.
func (s *Store) ListZones(ctx context.Context) ([]Zone, error) {
	var zones []Zone
	if err := s.db.WithContext(ctx).Order("name").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return zones, nil
}

// DeleteZone removes a zone and, through the schema's cascade, every
// measurement recorded for it. Destructive and irreversible; callers are
// expected to log this at high severity.
func (s *Store) DeleteZone(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("name = ?", name).Delete(&Zone{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete zone %q: %w", name, res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Kind: "zone", Key: name}
		}
		return nil
	})
}
