// Package records holds the report-service reads and writes that sit outside
// the assignment workflow: intake, map data, stations and officer profiles.
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"police-dispatch-system/pkg/dispatch"
	"police-dispatch-system/services/report-service/assignment"

	"github.com/apex/log"
	"gorm.io/gorm"
)

type StationSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Store interface {
	CreateReport(ctx context.Context, r *dispatch.Report) error
	ListLocated(ctx context.Context) ([]dispatch.Report, error)
	ListStations(ctx context.Context) ([]StationSummary, error)
	OfficerByUser(ctx context.Context, userID string) (*dispatch.Officer, error)
	Tally(ctx context.Context, since time.Time) ([]Tally, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateReport(ctx context.Context, r *dispatch.Report) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("create report: %w: %w", assignment.ErrStoreUnavailable, err)
	}
	return nil
}

// ListLocated returns reports that carry both coordinates.
func (s *GormStore) ListLocated(ctx context.Context) ([]dispatch.Report, error) {
	var rows []dispatch.Report
	err := s.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list located: %w: %w", assignment.ErrStoreUnavailable, err)
	}

	out := make([]dispatch.Report, 0, len(rows))
	for _, r := range rows {
		if err := r.Validate(); err != nil || !r.Located() {
			log.WithField("report_id", r.ID).Warn("Skipping malformed located report")
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *GormStore) ListStations(ctx context.Context) ([]StationSummary, error) {
	stations := make([]StationSummary, 0)
	err := s.db.WithContext(ctx).
		Model(&dispatch.Station{}).
		Select("id", "name").
		Order("name ASC").
		Scan(&stations).Error
	if err != nil {
		return nil, fmt.Errorf("list stations: %w: %w", assignment.ErrStoreUnavailable, err)
	}
	return stations, nil
}

func (s *GormStore) OfficerByUser(ctx context.Context, userID string) (*dispatch.Officer, error) {
	var o dispatch.Officer
	if err := s.db.WithContext(ctx).Take(&o, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("officer for user %s: %w", userID, assignment.ErrNotFound)
		}
		return nil, fmt.Errorf("officer for user %s: %w: %w", userID, assignment.ErrStoreUnavailable, err)
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", assignment.ErrMalformedRecord, err)
	}
	return &o, nil
}
