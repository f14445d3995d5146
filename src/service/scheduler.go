package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ascension-ai/backend/src/domain"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// reverifyTask is the unit of work placed on the redis queue.
type reverifyTask struct {
	DomainID uuid.UUID `json:"domain_id"`
	OwnerID  uuid.UUID `json:"owner_id"`
}

// ReverifyScheduler is the reconciliation path for verified domains: it
// periodically re-runs the DNS checks so stale funnel mirrors get repaired and
// verified domains whose records were torn down get noticed. A failed re-check
// never flips a record back to unverified on its own, since DNS failures are
// often transient.
type ReverifyScheduler struct {
	redis        *redis.Client
	queueName    string
	statusCache  string
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	pollInterval time.Duration
	domains      domain.DomainRepository
	verification *VerificationService
}

func NewReverifyScheduler(
	ctx context.Context,
	rdb *redis.Client,
	queueName string,
	pollInterval time.Duration,
	domains domain.DomainRepository,
	verification *VerificationService,
) *ReverifyScheduler {
	ctx, cancel := context.WithCancel(ctx)

	return &ReverifyScheduler{
		redis:        rdb,
		queueName:    queueName,
		statusCache:  queueName + ":checked",
		ctx:          ctx,
		cancel:       cancel,
		pollInterval: pollInterval,
		domains:      domains,
		verification: verification,
	}
}

func (s *ReverifyScheduler) logger() *zerolog.Logger {
	l := zerolog.Ctx(s.ctx).With().Str("component", "reverify-scheduler").Logger()
	return &l
}

// Start begins the polling and check-execution goroutines.
func (s *ReverifyScheduler) Start() {
	s.wg.Add(1)
	go s.pollDomains()

	s.wg.Add(1)
	go s.executeChecks()
}

// Stop gracefully shuts down the scheduler.
func (s *ReverifyScheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *ReverifyScheduler) pollDomains() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.enqueueVerifiedDomains()
		}
	}
}

func (s *ReverifyScheduler) enqueueVerifiedDomains() {
	logger := s.logger()

	records, err := s.domains.FindVerified(s.ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list verified domains")
		return
	}

	for _, record := range records {
		if s.recentlyChecked(record.ID) {
			continue
		}

		task := reverifyTask{DomainID: record.ID, OwnerID: record.OwnerID}
		data, err := json.Marshal(task)
		if err != nil {
			logger.Error().Err(err).Msgf("failed to marshal task for %s", record.Domain)
			continue
		}

		if err := s.redis.LPush(s.ctx, s.queueName, data).Err(); err != nil {
			logger.Error().Err(err).Msgf("failed to enqueue re-check for %s", record.Domain)
			continue
		}

		s.markChecked(record.ID)
		logger.Debug().Str("domain", record.Domain).Msg("enqueued domain re-check")
	}
}

func (s *ReverifyScheduler) executeChecks() {
	defer s.wg.Done()

	logger := s.logger()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			result, err := s.redis.BRPop(s.ctx, 5*time.Second, s.queueName).Result()
			if err != nil {
				if err != redis.Nil && s.ctx.Err() == nil {
					logger.Error().Err(err).Msg("failed to dequeue re-check task")
				}
				continue
			}

			var task reverifyTask
			if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
				logger.Error().Err(err).Msg("failed to unmarshal re-check task")
				continue
			}

			s.recheck(task)
		}
	}
}

func (s *ReverifyScheduler) recheck(task reverifyTask) {
	logger := s.logger()

	// Re-read: the record may have been deleted or replaced since enqueue.
	record, err := s.domains.FindByID(s.ctx, task.DomainID, task.OwnerID)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error().Err(err).Msgf("failed to load domain %s", task.DomainID)
		}
		return
	}

	result, err := s.verification.Verify(s.ctx, record)
	if err != nil {
		logger.Error().Err(err).Str("domain", record.Domain).Msg("re-verification errored")
		return
	}

	if !result.Success {
		logger.Warn().
			Str("domain", record.Domain).
			Bool("cname_ok", result.CNAMEOk).
			Bool("txt_ok", result.TXTOk).
			Msg("verified domain failed re-check, DNS records may have been removed")
	}
}

// recentlyChecked reports whether the domain was enqueued within the current
// poll window, so overlapping polls do not double-enqueue.
func (s *ReverifyScheduler) recentlyChecked(id uuid.UUID) bool {
	key := s.statusCache + ":" + id.String()
	exists, err := s.redis.Exists(s.ctx, key).Result()
	return err == nil && exists > 0
}

func (s *ReverifyScheduler) markChecked(id uuid.UUID) {
	key := s.statusCache + ":" + id.String()
	if err := s.redis.Set(s.ctx, key, time.Now().UTC().Format(time.RFC3339), s.pollInterval).Err(); err != nil {
		s.logger().Warn().Err(err).Msg("failed to set re-check status key")
	}
}
