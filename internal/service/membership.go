package service

import (
	"context"
	"slices"

	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/models"
)

// getMembership returns nil without error when the user is not in the class.
func getMembership(tx *gorm.DB, userID, classID uint) (*models.Membership, error) {
	var m models.Membership
	err := tx.Where("user_id = ? AND class_id = ?", userID, classID).First(&m).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storageErr(err, "load membership")
	}
	return &m, nil
}

// requireRole fails with FORBIDDEN unless the user is a member of the class
// with one of the allowed roles. No roles means any membership will do.
func requireRole(tx *gorm.DB, userID, classID uint, allowed ...models.Role) (*models.Membership, error) {
	m, err := getMembership(tx, userID, classID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.New(apperr.Forbidden, "not a member of class %d", classID)
	}
	if len(allowed) > 0 && !slices.Contains(allowed, m.Role) {
		return nil, apperr.New(apperr.Forbidden, "role %s may not do this", m.Role)
	}
	return m, nil
}

// GetMembership returns the caller's membership in the class, or nil.
func (s *Service) GetMembership(ctx context.Context, user *models.User, classID uint) (*models.Membership, error) {
	return getMembership(s.db.WithContext(ctx), user.ID, classID)
}

// RequireRole is the exported form of the role check.
func (s *Service) RequireRole(ctx context.Context, user *models.User, classID uint, allowed ...models.Role) (*models.Membership, error) {
	return requireRole(s.db.WithContext(ctx), user.ID, classID, allowed...)
}
