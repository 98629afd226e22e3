package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

var ErrQuotaExceeded = errors.New("quota out of limit")

type QuotaStore interface {
	ConsumeQuota(ctx context.Context, userID string) (bool, error)
}

// QuotaService gates protected work on the user's remaining quota. The
// decrement is a single conditional update in the store, so concurrent
// consumes from the same user cannot both succeed on the last unit.
type QuotaService struct {
	store QuotaStore
	log   *logrus.Logger
}

func NewQuotaService(store QuotaStore, log *logrus.Logger) *QuotaService {
	return &QuotaService{store: store, log: log}
}

func (s *QuotaService) Consume(ctx context.Context, userID string) error {
	ok, err := s.store.ConsumeQuota(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Warnf("quota exhausted for user %s", userID)
		return ErrQuotaExceeded
	}
	return nil
}
