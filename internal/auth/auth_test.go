package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/in-nis/classplan/internal/apperr"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func writeErr(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": string(apperr.KindOf(err))})
}

func TestVerify(t *testing.T) {
	v := NewVerifier(testSecret, "classplan")

	token, err := IssueToken(testSecret, "abc", "Anna", time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "classplan|abc", id.TokenIdentifier)
	assert.Equal(t, "Anna", id.Nickname)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier(testSecret, "classplan")

	wrongKey, err := IssueToken("other", "abc", "", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "abc", "", -time.Minute)
	require.NoError(t, err)
	noSubject, err := IssueToken(testSecret, "", "", time.Hour)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "abc"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong key":  wrongKey,
		"expired":    expired,
		"no subject": noSubject,
		"hs512":      hs512,
		"garbage":    "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.True(t, errors.Is(err, apperr.E(apperr.Unauthenticated)))
		})
	}
}

func newEngine(v *Verifier, optional bool) *gin.Engine {
	r := gin.New()
	mw := v.Middleware(writeErr)
	if optional {
		mw = v.OptionalMiddleware()
	}
	r.GET("/who", mw, func(c *gin.Context) {
		id, ok := FromContext(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.TokenIdentifier)
	})
	return r
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(testSecret, "classplan")
	token, err := IssueToken(testSecret, "u1", "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		optional bool
		header   string
		code     int
		body     string
	}{
		{"valid", false, "Bearer " + token, http.StatusOK, "classplan|u1"},
		{"missing", false, "", http.StatusUnauthorized, ""},
		{"wrong scheme", false, "Basic " + token, http.StatusUnauthorized, ""},
		{"optional without token", true, "", http.StatusOK, "anonymous"},
		{"optional with bad token", true, "Bearer nope", http.StatusOK, "anonymous"},
		{"optional with token", true, "Bearer " + token, http.StatusOK, "classplan|u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newEngine(v, tt.optional).ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

type fakeDeleter struct {
	tokens []string
	err    error
}

func (f *fakeDeleter) DeleteUserByToken(_ context.Context, token string) error {
	f.tokens = append(f.tokens, token)
	return f.err
}

func postWebhook(t *testing.T, users UserDeleter, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	log := logrus.New()
	log.SetOutput(new(strings.Builder))

	r := gin.New()
	r.POST("/webhooks/auth", WebhookHandler("hook-secret", NewVerifier(testSecret, "classplan"), users, log, writeErr))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/auth", strings.NewReader(body))
	req.Header.Set(SignatureHeader, signature)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookDeletesUser(t *testing.T) {
	body := `{"type":"user.deleted","data":{"id":"user_42"}}`
	users := &fakeDeleter{}

	rec := postWebhook(t, users, body, Sign("hook-secret", []byte(body)))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"classplan|user_42"}, users.tokens)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	body := `{"type":"user.deleted","data":{"id":"user_42"}}`
	users := &fakeDeleter{}

	rec := postWebhook(t, users, body, Sign("other", []byte(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postWebhook(t, users, body, "zz")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, users.tokens)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	body := `{"type":"user.updated","data":{"id":"user_42"}}`
	users := &fakeDeleter{}

	rec := postWebhook(t, users, body, Sign("hook-secret", []byte(body)))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, users.tokens)
}

func TestWebhookPropagatesFailure(t *testing.T) {
	body := `{"type":"user.deleted","data":{"id":"user_42"}}`
	users := &fakeDeleter{err: apperr.New(apperr.Internal, "boom")}

	rec := postWebhook(t, users, body, Sign("hook-secret", []byte(body)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
