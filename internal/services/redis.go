package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/lifecycle"
	"github.com/swiftserve/swiftserve-backend/internal/models"
)

const (
	// ServiceRequestChannel carries one message per committed status change.
	ServiceRequestChannel = "service-request:updates"

	approvedGaragesKey = "garages:approved"
	approvedGaragesTTL = 5 * time.Minute
)

type Redis struct {
	client *redis.Client
}

// NewRedis connects to url and pings the server.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// PublishStatusChange implements lifecycle.EventPublisher.
func (r *Redis) PublishStatusChange(ctx context.Context, change lifecycle.StatusChange) error {
	payload, err := json.Marshal(map[string]interface{}{
		"requestId": change.RequestID,
		"status":    change.To,
		"data": map[string]interface{}{
			"from":    change.From,
			"actorId": change.ActorID,
		},
		"timestamp": change.Timestamp.Unix(),
	})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, ServiceRequestChannel, payload).Err()
}

// Hit counts one event against key in a fixed window and returns the count
// so far.
func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// ApprovedGarages returns the cached list shown to drivers picking a
// garage. ok is false on a miss.
func (r *Redis) ApprovedGarages(ctx context.Context) ([]models.Garage, bool) {
	data, err := r.client.Get(ctx, approvedGaragesKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).Warn("approved garage cache read failed")
		}
		return nil, false
	}
	var garages []models.Garage
	if err := json.Unmarshal(data, &garages); err != nil {
		return nil, false
	}
	return garages, true
}

func (r *Redis) SetApprovedGarages(ctx context.Context, garages []models.Garage) {
	data, err := json.Marshal(garages)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, approvedGaragesKey, data, approvedGaragesTTL).Err(); err != nil {
		log.WithError(err).Warn("approved garage cache write failed")
	}
}

func (r *Redis) InvalidateApprovedGarages(ctx context.Context) {
	if err := r.client.Del(ctx, approvedGaragesKey).Err(); err != nil {
		log.WithError(err).Warn("approved garage cache invalidation failed")
	}
}
