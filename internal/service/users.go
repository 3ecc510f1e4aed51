package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/models"
)

const (
	maxNicknameLength = 50
	defaultNickname   = "User"
)

// EnsureUser resolves a token identifier to its user, creating the user on first use.
func (s *Service) EnsureUser(ctx context.Context, token, nicknameHint string) (*models.User, error) {
	if token == "" {
		return nil, apperr.E(apperr.Unauthenticated)
	}

	user, err := s.findUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	nickname := strings.TrimSpace(nicknameHint)
	if nickname == "" {
		nickname = defaultNickname
	}
	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		nickname = string([]rune(nickname)[:maxNicknameLength])
	}

	user = &models.User{Nickname: nickname, TokenIdentifier: token}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		// Another request may have created the same user concurrently.
		if existing, findErr := s.findUser(ctx, token); findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, storageErr(err, "create user")
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID}).Info("User created")
	return user, nil
}

// LookupUser resolves a token identifier without creating anything.
func (s *Service) LookupUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.E(apperr.Unauthenticated)
	}
	user, err := s.findUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.E(apperr.UserNotInitialized)
	}
	return user, nil
}

func (s *Service) findUser(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("token_identifier = ?", token).First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storageErr(err, "load user")
	}
	return &user, nil
}

func (s *Service) UpdateNickname(ctx context.Context, user *models.User, nickname string) (*models.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || utf8.RuneCountInString(nickname) > maxNicknameLength {
		return nil, apperr.New(apperr.InvalidNickname, "nickname must be 1 to %d characters", maxNicknameLength)
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("nickname", nickname).Error; err != nil {
		return nil, storageErr(err, "update nickname")
	}

	updated := *user
	updated.Nickname = nickname
	return &updated, nil
}

// DeleteUserByToken removes a user whose identity was deleted upstream. Each of
// the user's classes is left the same way a self-leave would, so ownership
// transfers or the class goes away with them.
func (s *Service) DeleteUserByToken(ctx context.Context, token string) error {
	var classesLeft int
	var userID uint
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("token_identifier = ?", token).First(&user).Error; err != nil {
			if isNotFound(err) {
				return nil
			}
			return storageErr(err, "load user")
		}
		userID = user.ID

		var memberships []models.Membership
		if err := tx.Where("user_id = ?", user.ID).Order("id").Find(&memberships).Error; err != nil {
			return storageErr(err, "list memberships")
		}
		for _, m := range memberships {
			if _, err := s.leave(tx, user.ID, m.ClassID); err != nil {
				return err
			}
			classesLeft++
		}

		if err := tx.Where("created_by = ?", user.ID).Delete(&models.Invitation{}).Error; err != nil {
			return storageErr(err, "delete invitations")
		}
		if err := tx.Delete(&models.User{}, user.ID).Error; err != nil {
			return storageErr(err, "delete user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if userID != 0 {
		s.logger.WithFields(logrus.Fields{
			"user_id":      userID,
			"classes_left": classesLeft,
		}).Info("User deleted")
	}
	return nil
}
