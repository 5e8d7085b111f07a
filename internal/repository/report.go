package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gridcapture/internal/entity"
)

var ErrReportNotFound = errors.New("report not found")

const reportKeyPrefix = "report:"

type ReportRepository interface {
	CreateOrUpdate(ctx context.Context, report *entity.Report) error
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	DeleteByID(ctx context.Context, id string) error
}

// dbReport keeps the latest reports for a limited time. It is a hand-off for
// tooling that runs after the master exits, not a game history.
type dbReport struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportRepository - ttl 0 keeps reports until they are deleted.
func NewReportRepository(client *redis.Client, ttl time.Duration) ReportRepository {
	return &dbReport{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbReport) CreateOrUpdate(ctx context.Context, report *entity.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("could not marshal report: %w", err)
	}

	err = that.client.Set(ctx, reportKeyPrefix+report.ID, reportJSON, that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set report: %w", err)
	}

	return nil
}

func (that *dbReport) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	response, err := that.client.Get(ctx, reportKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Report{}, ErrReportNotFound
	}

	if err != nil {
		return &entity.Report{}, fmt.Errorf("failed to get report %s: %w", id, err)
	}

	var report entity.Report
	if err = json.Unmarshal([]byte(response), &report); err != nil {
		return &entity.Report{}, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}

func (that *dbReport) DeleteByID(ctx context.Context, id string) error {
	err := that.client.Del(ctx, reportKeyPrefix+id).Err()
	if err != nil {
		return fmt.Errorf("failed to delete report by ID: %w", err)
	}

	return nil
}
