package service

import (
	"context"

	"github.com/in-nis/classplan/internal/models"
)

// Stats counts stored rows per kind.
func (s *Service) Stats(ctx context.Context) (map[string]int64, error) {
	tx := s.db.WithContext(ctx)
	tables := []struct {
		kind  string
		model any
	}{
		{"classes", &models.Class{}},
		{"memberships", &models.Membership{}},
		{"weeks", &models.Week{}},
		{"timetable_entries", &models.TimetableEntry{}},
		{"invitations", &models.Invitation{}},
	}

	counts := make(map[string]int64, len(tables))
	for _, t := range tables {
		var n int64
		if err := tx.Model(t.model).Count(&n).Error; err != nil {
			return nil, storageErr(err, "count "+t.kind)
		}
		counts[t.kind] = n
	}
	return counts, nil
}

// RefreshStats publishes Stats to the entity gauges.
func (s *Service) RefreshStats(ctx context.Context) error {
	counts, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	s.metrics.SetEntities(counts)
	s.logger.WithField("counts", counts).Debug("Stats refreshed")
	return nil
}
