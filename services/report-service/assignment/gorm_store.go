package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"police-dispatch-system/pkg/dispatch"

	"github.com/apex/log"
	"gorm.io/gorm"
)

// GormStore keeps reports and officers in Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetReport(ctx context.Context, id string) (*dispatch.Report, error) {
	var r dispatch.Report
	if err := s.db.WithContext(ctx).Take(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return &r, nil
}

func (s *GormStore) GetOfficer(ctx context.Context, id string) (*dispatch.Officer, error) {
	return getOfficer(s.db.WithContext(ctx), id)
}

func getOfficer(db *gorm.DB, id string) (*dispatch.Officer, error) {
	var o dispatch.Officer
	if err := db.Take(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("officer %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return &o, nil
}

// AssignReport runs both conditional updates in one transaction. The WHERE
// clauses carry the preconditions, so a row count of zero means another
// writer got there first and the whole transaction is rolled back.
func (s *GormStore) AssignReport(ctx context.Context, reportID, officerID string, at time.Time) (*dispatch.Officer, error) {
	var officer *dispatch.Officer

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&dispatch.Report{}).
			Where("id = ? AND assigned_officer IS NULL AND current_status = ?", reportID, string(dispatch.StatusActive)).
			Updates(map[string]interface{}{
				"assigned_officer": officerID,
				"current_status":   string(dispatch.StatusInProgress),
				"updated_at":       at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("report %s: %w", reportID, ErrAlreadyAssigned)
		}

		// SET expressions see the pre-update row, hence "+ 1" in both.
		res = tx.Model(&dispatch.Officer{}).
			Where("id = ? AND is_available = ? AND active_cases < max_capacity", officerID, true).
			Updates(map[string]interface{}{
				"active_cases": gorm.Expr("active_cases + 1"),
				"is_available": gorm.Expr("active_cases + 1 < max_capacity"),
				"updated_at":   at,
			})
		if res.Error != nil {
			return res.Error
		}

		o, err := getOfficer(tx, officerID)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			if reason := classifyOfficer(o); reason != nil {
				return fmt.Errorf("officer %s: %w", officerID, reason)
			}
			return fmt.Errorf("officer %s: %w", officerID, ErrOfficerUnavailable)
		}
		officer = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return officer, nil
}

func (s *GormStore) ListUnassigned(ctx context.Context, priority *dispatch.Priority) ([]dispatch.Report, error) {
	q := s.db.WithContext(ctx).
		Where("assigned_officer IS NULL AND current_status = ?", string(dispatch.StatusActive))
	if priority != nil {
		q = q.Where("priority = ?", string(*priority))
	}

	var rows []dispatch.Report
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return validReports(rows), nil
}

func (s *GormStore) ListAssignedTo(ctx context.Context, officerID string, statuses []dispatch.Status) ([]dispatch.Report, error) {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}

	var rows []dispatch.Report
	err := s.db.WithContext(ctx).
		Where("assigned_officer = ? AND current_status IN ?", officerID, names).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return validReports(rows), nil
}

func (s *GormStore) ListAvailableOfficers(ctx context.Context, stationID string) ([]dispatch.Officer, error) {
	var rows []dispatch.Officer
	err := s.db.WithContext(ctx).
		Where("station_id = ? AND is_available = ? AND active_cases < max_capacity", stationID, true).
		Order("active_cases ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	officers := make([]dispatch.Officer, 0, len(rows))
	for _, o := range rows {
		if err := o.Validate(); err != nil {
			log.WithError(err).Warn("Skipping malformed officer record")
			continue
		}
		officers = append(officers, o)
	}
	return officers, nil
}

// validReports drops rows that fail validation instead of passing them on.
func validReports(rows []dispatch.Report) []dispatch.Report {
	out := make([]dispatch.Report, 0, len(rows))
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			log.WithError(err).Warn("Skipping malformed report record")
			continue
		}
		out = append(out, r)
	}
	return out
}
