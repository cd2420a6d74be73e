package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"admissions_crm_backend/internal/campaignrules/repository"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"
)

type Store interface {
	Get(ctx context.Context) (repository.Ruleset, error)
	Save(ctx context.Context, campaignIDs []string, userID string, at time.Time) (repository.Ruleset, error)
}

type Service struct {
	repo Store
	log  *logger.Logger
	now  func() time.Time
}

func New(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) Get(ctx context.Context) (repository.Ruleset, error) {
	rs, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Ruleset{}, apperr.NotFound("No ruleset found")
	}
	return rs, err
}

// Save trims the ids and drops blanks and duplicates, keeping the first occurrence.
func (s *Service) Save(ctx context.Context, campaignIDs []string, userID string) (repository.Ruleset, error) {
	if campaignIDs == nil {
		return repository.Ruleset{}, apperr.Validation("campaign_id must be an array of strings")
	}
	ids := make([]string, 0, len(campaignIDs))
	seen := make(map[string]bool, len(campaignIDs))
	for _, id := range campaignIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	rs, err := s.repo.Save(ctx, ids, userID, s.now().UTC())
	if err != nil {
		return repository.Ruleset{}, err
	}
	s.log.WithContext(ctx).Info("campaign ruleset saved", slog.Int("campaigns", len(ids)), slog.String("by", userID))
	return rs, nil
}
