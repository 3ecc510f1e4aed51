package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/models"
)

const (
	// codeAlphabet has 32 symbols and leaves out I, O, 1 and 0.
	codeAlphabet       = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength         = 6
	codeAttempts       = 5
	defaultInviteValid = 30 * 24 * time.Hour
)

// InvitationView is an invitation as returned to clients.
type InvitationView struct {
	ID           uint    `json:"id"`
	Code         string  `json:"code"`
	ClassID      uint    `json:"class_id"`
	CreatedBy    uint    `json:"created_by"`
	ExpiresAt    *string `json:"expires_at"`
	NeverExpires bool    `json:"never_expires"`
	Valid        bool    `json:"valid"`
}

// InvitationCheck answers the public "what is this code" lookup. Only Found
// and Valid are guaranteed; the rest is filled in when available.
type InvitationCheck struct {
	Found         bool    `json:"found"`
	Valid         bool    `json:"valid"`
	ClassID       uint    `json:"class_id,omitempty"`
	ClassTitle    string  `json:"class_title,omitempty"`
	OwnerNickname string  `json:"owner_nickname,omitempty"`
	MemberCount   int64   `json:"member_count,omitempty"`
	AlreadyMember bool    `json:"already_member"`
	ExpiresAt     *string `json:"expires_at,omitempty"`
}

type AcceptResult struct {
	Joined        bool `json:"joined"`
	AlreadyMember bool `json:"already_member"`
	ClassID       uint `json:"class_id"`
}

func (s *Service) view(inv models.Invitation) InvitationView {
	v := InvitationView{
		ID:           inv.ID,
		Code:         inv.Code,
		ClassID:      inv.ClassID,
		CreatedBy:    inv.CreatedBy,
		NeverExpires: inv.IsNeverExpiring(),
		Valid:        inv.ValidAt(s.now()),
	}
	if !v.NeverExpires {
		formatted := inv.ExpiresAt.UTC().Format(time.RFC3339)
		v.ExpiresAt = &formatted
	}
	return v
}

// resolveExpiration turns the request flags into a stored timestamp.
func (s *Service) resolveExpiration(expires bool, expiration string) (time.Time, error) {
	if !expires {
		return models.NeverExpires, nil
	}
	expiration = strings.TrimSpace(expiration)
	if expiration == "" {
		return s.now().UTC().Add(defaultInviteValid), nil
	}
	if t, err := time.Parse(time.RFC3339, expiration); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", expiration); err == nil {
		// A bare date is valid through the end of that day.
		return t.Add(24*time.Hour - time.Second), nil
	}
	return time.Time{}, apperr.New(apperr.InvalidExpiration, "cannot parse %q", expiration)
}

func generateCode(r io.Reader) (string, error) {
	buf := make([]byte, codeLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	code := make([]byte, codeLength)
	for i, b := range buf {
		// 256 is a multiple of 32, so masking keeps the distribution uniform.
		code[i] = codeAlphabet[b&31]
	}
	return string(code), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateInvitation is open to every member of the class.
func (s *Service) CreateInvitation(ctx context.Context, user *models.User, classID uint, expires bool, expiration string) (*InvitationView, error) {
	expiresAt, err := s.resolveExpiration(expires, expiration)
	if err != nil {
		return nil, err
	}

	var inv models.Invitation
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if _, err := requireRole(tx, user.ID, classID); err != nil {
			return err
		}

		code, err := s.uniqueCode(tx)
		if err != nil {
			return err
		}

		inv = models.Invitation{Code: code, CreatedBy: user.ID, ClassID: classID, ExpiresAt: expiresAt}
		if err := tx.Create(&inv).Error; err != nil {
			return storageErr(err, "create invitation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"class_id": classID, "invitation_id": inv.ID}).Info("Invitation created")
	v := s.view(inv)
	return &v, nil
}

func (s *Service) uniqueCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := generateCode(s.random)
		if err != nil {
			return "", apperr.Wrap(apperr.CodeGenerationFailed, err, "read random source")
		}
		var n int64
		if err := tx.Model(&models.Invitation{}).Where("code = ?", code).Count(&n).Error; err != nil {
			return "", storageErr(err, "check invitation code")
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", apperr.New(apperr.CodeGenerationFailed, "%d attempts collided", codeAttempts)
}

// ListInvitations returns the class's invitations, newest first.
func (s *Service) ListInvitations(ctx context.Context, user *models.User, classID uint) ([]InvitationView, error) {
	tx := s.db.WithContext(ctx)
	if _, err := requireRole(tx, user.ID, classID); err != nil {
		return nil, err
	}

	var invs []models.Invitation
	if err := tx.Where("class_id = ?", classID).Order("id DESC").Find(&invs).Error; err != nil {
		return nil, storageErr(err, "list invitations")
	}

	out := make([]InvitationView, 0, len(invs))
	for _, inv := range invs {
		out = append(out, s.view(inv))
	}
	return out, nil
}

// CheckInvitation is public; user may be nil. Unknown codes are a regular
// answer, not an error, and metadata lookups never fail the call.
func (s *Service) CheckInvitation(ctx context.Context, code string, user *models.User) (*InvitationCheck, error) {
	tx := s.db.WithContext(ctx)

	var inv models.Invitation
	if err := tx.Where("code = ?", normalizeCode(code)).First(&inv).Error; err != nil {
		if isNotFound(err) {
			return &InvitationCheck{}, nil
		}
		return nil, storageErr(err, "load invitation")
	}

	v := s.view(inv)
	check := &InvitationCheck{
		Found:     true,
		Valid:     v.Valid,
		ClassID:   inv.ClassID,
		ExpiresAt: v.ExpiresAt,
	}
	log := s.logger.WithField("invitation_id", inv.ID)

	if user != nil {
		if m, err := getMembership(tx, user.ID, inv.ClassID); err != nil {
			log.WithError(err).Warn("Membership lookup failed")
		} else {
			check.AlreadyMember = m != nil
		}
	}

	var class models.Class
	if err := tx.First(&class, inv.ClassID).Error; err != nil {
		log.WithError(err).Warn("Class lookup failed")
	} else {
		check.ClassTitle = class.Title

		var owner models.User
		if err := tx.First(&owner, class.OwnerID).Error; err != nil {
			log.WithError(err).Warn("Owner lookup failed")
		} else {
			check.OwnerNickname = owner.Nickname
		}
	}

	if err := tx.Model(&models.Membership{}).Where("class_id = ?", inv.ClassID).Count(&check.MemberCount).Error; err != nil {
		log.WithError(err).Warn("Member count failed")
	}

	return check, nil
}

// AcceptInvitation joins the caller as a member. Accepting again is a no-op.
func (s *Service) AcceptInvitation(ctx context.Context, user *models.User, code string) (*AcceptResult, error) {
	var result AcceptResult
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var inv models.Invitation
		if err := tx.Where("code = ?", normalizeCode(code)).First(&inv).Error; err != nil {
			if isNotFound(err) {
				return apperr.New(apperr.NotFound, "invitation %q", normalizeCode(code))
			}
			return storageErr(err, "load invitation")
		}
		if !inv.ValidAt(s.now()) {
			return apperr.E(apperr.Expired)
		}
		result.ClassID = inv.ClassID

		m := models.Membership{UserID: user.ID, ClassID: inv.ClassID, Role: models.RoleMember}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
		if res.Error != nil {
			return storageErr(res.Error, "create membership")
		}
		if res.RowsAffected == 0 {
			result.AlreadyMember = true
			return nil
		}
		result.Joined = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Joined {
		s.metrics.Event("invitation_accepted", 1)
		s.logger.WithFields(logrus.Fields{"class_id": result.ClassID, "user_id": user.ID}).Info("Invitation accepted")
	}
	return &result, nil
}

// DeleteInvitation is allowed for the invitation's creator and for owners and
// admins of its class.
func (s *Service) DeleteInvitation(ctx context.Context, user *models.User, invitationID uint) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		var inv models.Invitation
		if err := tx.First(&inv, invitationID).Error; err != nil {
			if isNotFound(err) {
				return apperr.New(apperr.NotFound, "invitation %d", invitationID)
			}
			return storageErr(err, "load invitation")
		}
		if inv.CreatedBy != user.ID {
			if _, err := requireRole(tx, user.ID, inv.ClassID, models.RoleOwner, models.RoleAdmin); err != nil {
				return err
			}
		}
		if err := tx.Delete(&inv).Error; err != nil {
			return storageErr(err, fmt.Sprintf("delete invitation %d", invitationID))
		}
		return nil
	})
}
