package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/in-nis/classplan/internal/apperr"
)

const (
	SignatureHeader  = "X-Webhook-Signature"
	EventUserDeleted = "user.deleted"
	maxWebhookBody   = 1 << 20
)

// UserDeleter removes everything a user owns by token identifier.
type UserDeleter interface {
	DeleteUserByToken(ctx context.Context, token string) error
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret string, body []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// WebhookHandler handles auth provider events. Unknown event types are
// acknowledged and ignored.
func WebhookHandler(secret string, v *Verifier, users UserDeleter, log *logrus.Logger, onError func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			onError(c, apperr.Wrap(apperr.InvalidInput, err, "read body"))
			return
		}
		if !validSignature(secret, body, c.GetHeader(SignatureHeader)) {
			onError(c, apperr.New(apperr.Unauthenticated, "bad webhook signature"))
			return
		}

		var event webhookEvent
		if err := json.Unmarshal(body, &event); err != nil || event.Type == "" {
			onError(c, apperr.New(apperr.InvalidInput, "malformed event"))
			return
		}

		entry := log.WithField("event", event.Type)
		if event.Type != EventUserDeleted {
			entry.Debug("Ignoring webhook event")
			c.Status(http.StatusNoContent)
			return
		}
		if event.Data.ID == "" {
			onError(c, apperr.New(apperr.InvalidInput, "event has no user id"))
			return
		}

		if err := users.DeleteUserByToken(c.Request.Context(), v.TokenIdentifier(event.Data.ID)); err != nil {
			entry.WithError(err).Error("Failed to delete user")
			onError(c, err)
			return
		}
		entry.WithField("subject", event.Data.ID).Info("User deleted by webhook")
		c.Status(http.StatusNoContent)
	}
}
