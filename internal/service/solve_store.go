package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const (
	solveLockKey   = "solver:lock"
	solveRecordKey = "solver:best"
	solveJobPrefix = "solver:job:"
	solveJobTTL    = 24 * time.Hour
)

// SolveStore keeps solver coordination state in Redis: the one-run-at-a-time
// lock, the best solution record, and async job statuses.
type SolveStore struct {
	client *redis.Client
}

// NewSolveStore wraps a Redis client.
func NewSolveStore(client *redis.Client) *SolveStore {
	return &SolveStore{client: client}
}

// AcquireLock claims the solve lock. Returns false when another run holds it.
func (s *SolveStore) AcquireLock(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, solveLockKey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire solve lock: %w", err)
	}
	return ok, nil
}

// ReleaseLock frees the solve lock.
func (s *SolveStore) ReleaseLock(ctx context.Context) error {
	if err := s.client.Del(ctx, solveLockKey).Err(); err != nil {
		return fmt.Errorf("release solve lock: %w", err)
	}
	return nil
}

// LoadRecord returns the stored best solve record, or nil when absent.
func (s *SolveStore) LoadRecord(ctx context.Context) (*models.SolveRecord, error) {
	raw, err := s.client.Get(ctx, solveRecordKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load solve record: %w", err)
	}
	var record models.SolveRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode solve record: %w", err)
	}
	return &record, nil
}

// SaveRecord stores the best solve record. No expiry: the record is replaced
// when the configuration fingerprint changes.
func (s *SolveStore) SaveRecord(ctx context.Context, record *models.SolveRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode solve record: %w", err)
	}
	if err := s.client.Set(ctx, solveRecordKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("save solve record: %w", err)
	}
	return nil
}

// SaveJob stores an async solve job status.
func (s *SolveStore) SaveJob(ctx context.Context, status *dto.SolveJobStatus) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode job status: %w", err)
	}
	if err := s.client.Set(ctx, solveJobPrefix+status.JobID, raw, solveJobTTL).Err(); err != nil {
		return fmt.Errorf("save job status: %w", err)
	}
	return nil
}

// LoadJob returns an async solve job status, or nil when unknown.
func (s *SolveStore) LoadJob(ctx context.Context, jobID string) (*dto.SolveJobStatus, error) {
	raw, err := s.client.Get(ctx, solveJobPrefix+jobID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load job status: %w", err)
	}
	var status dto.SolveJobStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode job status: %w", err)
	}
	return &status, nil
}
