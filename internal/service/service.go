// Package service holds the class, membership, invitation, week, notes and
// teacher-color rules. Every mutation runs inside one database transaction.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/in-nis/classplan/internal/apperr"
	"github.com/in-nis/classplan/internal/metrics"
)

const maxTitleLength = 100

// Service is stateless apart from its collaborators and safe for concurrent use.
type Service struct {
	db      *gorm.DB
	logger  *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	random  io.Reader
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRandom replaces the source used for invitation codes.
func WithRandom(r io.Reader) Option {
	return func(s *Service) { s.random = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(db *gorm.DB, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		db:     db,
		logger: logger,
		now:    time.Now,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// transaction runs fn atomically. Errors returned by fn pass through unchanged.
func (s *Service) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// storageErr wraps a database failure unless it already carries a kind.
func storageErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Wrap(apperr.Internal, err, op)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.New(apperr.InvalidTitle, "title must not be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", apperr.New(apperr.InvalidTitle, "title must be at most %d characters", maxTitleLength)
	}
	return title, nil
}
