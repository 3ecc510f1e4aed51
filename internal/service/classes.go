package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/db"
	"github.com/in-nis/classplan/internal/models"
)

// ClassSummary is a class as seen by one of its members.
type ClassSummary struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	OwnerID     uint        `json:"owner_id"`
	Role        models.Role `json:"role"`
	MemberCount int64       `json:"member_count"`
}

type Member struct {
	UserID   uint        `json:"user_id"`
	Nickname string      `json:"nickname"`
	Role     models.Role `json:"role"`
}

// LeaveResult describes what removeOrLeave did.
type LeaveResult struct {
	Left         bool `json:"left"`
	Removed      bool `json:"removed"`
	ClassDeleted bool `json:"class_deleted"`
	NewOwnerID   uint `json:"new_owner_id,omitempty"`
}

func (s *Service) CreateClass(ctx context.Context, user *models.User, title string) (*models.Class, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	class := &models.Class{OwnerID: user.ID, Title: title}
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(class).Error; err != nil {
			return storageErr(err, "create class")
		}
		owner := models.Membership{UserID: user.ID, ClassID: class.ID, Role: models.RoleOwner}
		if err := tx.Create(&owner).Error; err != nil {
			return storageErr(err, "create owner membership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Default colors are a convenience; the class exists without them.
	if err := seedDefaultColors(s.db.WithContext(ctx), class.ID); err != nil {
		s.logger.WithError(err).WithField("class_id", class.ID).Warn("Failed to seed default teacher colors")
	}

	s.logger.WithFields(logrus.Fields{"class_id": class.ID, "user_id": user.ID}).Info("Class created")
	return class, nil
}

// RenameClass requires owner or admin.
func (s *Service) RenameClass(ctx context.Context, user *models.User, classID uint, title string) (*models.Class, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	var class models.Class
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := requireRole(tx, user.ID, classID, models.RoleOwner, models.RoleAdmin); err != nil {
			return err
		}
		if err := tx.First(&class, classID).Error; err != nil {
			if isNotFound(err) {
				return apperr.New(apperr.NotFound, "class %d", classID)
			}
			return storageErr(err, "load class")
		}
		class.Title = title
		if err := tx.Model(&class).Update("title", title).Error; err != nil {
			return storageErr(err, "rename class")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// DeleteClass is reserved to the class's owner and removes every dependent row.
func (s *Service) DeleteClass(ctx context.Context, user *models.User, classID uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var class models.Class
		if err := tx.First(&class, classID).Error; err != nil {
			if isNotFound(err) {
				return apperr.New(apperr.NotFound, "class %d", classID)
			}
			return storageErr(err, "load class")
		}
		if class.OwnerID != user.ID {
			return apperr.New(apperr.Forbidden, "only the owner may delete the class")
		}
		return storageErr(db.DeleteClass(tx, classID), "delete class")
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"class_id": classID, "user_id": user.ID}).Info("Class deleted")
	return nil
}

func (s *Service) ListClasses(ctx context.Context, user *models.User) ([]ClassSummary, error) {
	var out []ClassSummary
	err := s.db.WithContext(ctx).
		Table("classes").
		Select("classes.id, classes.title, classes.owner_id, m.role, " +
			"(SELECT COUNT(*) FROM memberships mc WHERE mc.class_id = classes.id) AS member_count").
		Joins("JOIN memberships m ON m.class_id = classes.id AND m.user_id = ?", user.ID).
		Order("classes.id").
		Scan(&out).Error
	if err != nil {
		return nil, storageErr(err, "list classes")
	}
	if out == nil {
		out = []ClassSummary{}
	}
	return out, nil
}

func (s *Service) GetClass(ctx context.Context, user *models.User, classID uint) (*ClassSummary, error) {
	tx := s.db.WithContext(ctx)
	m, err := requireRole(tx, user.ID, classID)
	if err != nil {
		return nil, err
	}

	var class models.Class
	if err := tx.First(&class, classID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.New(apperr.NotFound, "class %d", classID)
		}
		return nil, storageErr(err, "load class")
	}

	var count int64
	if err := tx.Model(&models.Membership{}).Where("class_id = ?", classID).Count(&count).Error; err != nil {
		return nil, storageErr(err, "count members")
	}

	return &ClassSummary{
		ID:          class.ID,
		Title:       class.Title,
		OwnerID:     class.OwnerID,
		Role:        m.Role,
		MemberCount: count,
	}, nil
}

// ListMembers returns the owner first, then admins, then members, each group in join order.
func (s *Service) ListMembers(ctx context.Context, user *models.User, classID uint) ([]Member, error) {
	tx := s.db.WithContext(ctx)
	if _, err := requireRole(tx, user.ID, classID); err != nil {
		return nil, err
	}

	var out []Member
	err := tx.Table("memberships m").
		Select("m.user_id, u.nickname, m.role").
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.class_id = ?", classID).
		Order("CASE m.role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 ELSE 2 END, m.id").
		Scan(&out).Error
	if err != nil {
		return nil, storageErr(err, "list members")
	}
	return out, nil
}

// UpdateMemberRole allows exactly two transitions: member→admin by an owner
// or admin, and admin→member by the owner.
func (s *Service) UpdateMemberRole(ctx context.Context, user *models.User, classID, targetUserID uint, newRole models.Role) (*models.Membership, error) {
	if !newRole.Valid() {
		return nil, apperr.New(apperr.InvalidRoleTransition, "unknown role %q", newRole)
	}

	var target *models.Membership
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		caller, err := requireRole(tx, user.ID, classID)
		if err != nil {
			return err
		}
		target, err = getMembership(tx, targetUserID, classID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperr.New(apperr.NotFound, "user %d is not a member", targetUserID)
		}
		if target.Role == models.RoleOwner || newRole == models.RoleOwner {
			return apperr.E(apperr.CannotChangeOwnerRole)
		}

		switch {
		case target.Role == models.RoleMember && newRole == models.RoleAdmin:
			if caller.Role != models.RoleOwner && caller.Role != models.RoleAdmin {
				return apperr.New(apperr.Forbidden, "only owners and admins may promote")
			}
		case target.Role == models.RoleAdmin && newRole == models.RoleMember:
			if caller.Role != models.RoleOwner {
				return apperr.New(apperr.Forbidden, "only the owner may demote admins")
			}
		default:
			return apperr.New(apperr.InvalidRoleTransition, "%s to %s", target.Role, newRole)
		}

		target.Role = newRole
		if err := tx.Model(target).Update("role", newRole).Error; err != nil {
			return storageErr(err, "update role")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"class_id": classID,
		"user_id":  targetUserID,
		"role":     newRole,
	}).Info("Member role changed")
	return target, nil
}

// RemoveOrLeave removes targetUserID from the class. When the target is the
// caller this is a self-leave; otherwise an administrative removal.
func (s *Service) RemoveOrLeave(ctx context.Context, user *models.User, classID, targetUserID uint) (*LeaveResult, error) {
	var result LeaveResult
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if targetUserID == user.ID {
			result, err = s.leave(tx, user.ID, classID)
			return err
		}
		return s.remove(tx, user.ID, classID, targetUserID, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// leave removes the user's membership. An owner hands the class over to the
// oldest admin, else the oldest member; a sole owner takes the class with them.
func (s *Service) leave(tx *gorm.DB, userID, classID uint) (LeaveResult, error) {
	m, err := requireRole(tx, userID, classID)
	if err != nil {
		return LeaveResult{}, err
	}

	if m.Role != models.RoleOwner {
		if err := tx.Delete(m).Error; err != nil {
			return LeaveResult{}, storageErr(err, "delete membership")
		}
		return LeaveResult{Left: true}, nil
	}

	var others []models.Membership
	if err := tx.Where("class_id = ? AND user_id <> ?", classID, userID).Order("id").Find(&others).Error; err != nil {
		return LeaveResult{}, storageErr(err, "list remaining members")
	}

	if len(others) == 0 {
		if err := db.DeleteClass(tx, classID); err != nil {
			return LeaveResult{}, storageErr(err, "delete class")
		}
		s.logger.WithFields(logrus.Fields{"class_id": classID, "user_id": userID}).Info("Last member left, class deleted")
		return LeaveResult{Left: true, ClassDeleted: true}, nil
	}

	successor := others[0]
	for _, o := range others {
		if o.Role == models.RoleAdmin {
			successor = o
			break
		}
	}

	if err := tx.Model(&successor).Update("role", models.RoleOwner).Error; err != nil {
		return LeaveResult{}, storageErr(err, "promote successor")
	}
	if err := tx.Model(&models.Class{}).Where("id = ?", classID).Update("owner_id", successor.UserID).Error; err != nil {
		return LeaveResult{}, storageErr(err, "transfer ownership")
	}
	if err := tx.Delete(m).Error; err != nil {
		return LeaveResult{}, storageErr(err, "delete membership")
	}

	s.logger.WithFields(logrus.Fields{
		"class_id":  classID,
		"old_owner": userID,
		"new_owner": successor.UserID,
	}).Info("Ownership transferred")
	return LeaveResult{Left: true, NewOwnerID: successor.UserID}, nil
}

func (s *Service) remove(tx *gorm.DB, callerID, classID, targetUserID uint, result *LeaveResult) error {
	caller, err := requireRole(tx, callerID, classID)
	if err != nil {
		return err
	}
	target, err := getMembership(tx, targetUserID, classID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.New(apperr.NotFound, "user %d is not a member", targetUserID)
	}
	if target.Role == models.RoleOwner {
		return apperr.E(apperr.CannotRemoveOwner)
	}

	switch caller.Role {
	case models.RoleOwner:
	case models.RoleAdmin:
		if target.Role != models.RoleMember {
			return apperr.New(apperr.Forbidden, "admins may only remove members")
		}
	default:
		return apperr.New(apperr.Forbidden, "members may not remove others")
	}

	if err := tx.Delete(target).Error; err != nil {
		return storageErr(err, "delete membership")
	}
	result.Removed = true

	s.logger.WithFields(logrus.Fields{
		"class_id":   classID,
		"removed_by": callerID,
		"user_id":    targetUserID,
	}).Info("Member removed")
	return nil
}
