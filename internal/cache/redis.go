package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/logger"
	redisstore "github.com/voxroute/switchboard/internal/store/redis"
)

// RedisTier shares routing decisions across processes through Redis. Any
// backend error degrades to an always-miss cache: the registry recomputes
// from the directory, slower but correct.
type RedisTier struct {
	client *redis.Client
	log    logger.Logger
}

// NewRedisTier creates a shared decision cache tier
func NewRedisTier(client *redis.Client, log logger.Logger) *RedisTier {
	return &RedisTier{client: client, log: log}
}

func (t *RedisTier) Get(ctx context.Context, name string) (domain.RoutingDecision, bool) {
	data, err := t.client.Get(ctx, redisstore.DecisionKey(name)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.log.Debug("decision cache backend read failed, treating as miss",
				logger.String("service", name),
				logger.Error(err))
		}
		return domain.RoutingDecision{}, false
	}

	var d domain.RoutingDecision
	if err := json.Unmarshal(data, &d); err != nil {
		t.log.Debug("corrupt cached decision, treating as miss",
			logger.String("service", name),
			logger.Error(err))
		return domain.RoutingDecision{}, false
	}
	return d, true
}

func (t *RedisTier) Put(ctx context.Context, name string, d domain.RoutingDecision, ttl time.Duration) {
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := t.client.Set(ctx, redisstore.DecisionKey(name), data, ttl).Err(); err != nil {
		t.log.Debug("decision cache backend write failed",
			logger.String("service", name),
			logger.Error(err))
	}
}

func (t *RedisTier) Delete(ctx context.Context, name string) {
	if err := t.client.Del(ctx, redisstore.DecisionKey(name)).Err(); err != nil {
		t.log.Debug("decision cache backend delete failed",
			logger.String("service", name),
			logger.Error(err))
	}
}

func (t *RedisTier) DeleteAll(ctx context.Context) {
	iter := t.client.Scan(ctx, 0, redisstore.KeyPrefixDecision+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := t.client.Del(ctx, iter.Val()).Err(); err != nil {
			t.log.Debug("decision cache backend flush failed",
				logger.Error(err))
			return
		}
	}
	if err := iter.Err(); err != nil {
		t.log.Debug("decision cache backend scan failed",
			logger.Error(err))
	}
}
