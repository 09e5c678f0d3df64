package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLockManager serializes sync invocations per dataset across
// processes. The lock value is the owning instance ID so a holder can
// only release its own lock.
type RedisLockManager struct {
	client     *redis.Client
	ctx        context.Context
	keyPrefix  string
	lockTTL    time.Duration
	instanceID string
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func NewRedisLockManager(client *redis.Client, keyPrefix string, lockTTL time.Duration, instanceID string) *RedisLockManager {
	return &RedisLockManager{
		client:     client,
		ctx:        context.Background(),
		keyPrefix:  keyPrefix,
		lockTTL:    lockTTL,
		instanceID: instanceID,
	}
}

func (l *RedisLockManager) lockKey(datasetID string) string {
	return fmt.Sprintf("%slock:dataset:%s", l.keyPrefix, datasetID)
}

// TryAcquire attempts to take the dataset lock (non-blocking).
func (l *RedisLockManager) TryAcquire(datasetID string) (bool, error) {
	acquired, err := l.client.SetNX(l.ctx, l.lockKey(datasetID), l.instanceID, l.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return acquired, nil
}

// Release releases the dataset lock. A Lua script guards against
// deleting a lock another instance has since acquired.
func (l *RedisLockManager) Release(datasetID string) error {
	script := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`

	result, err := l.client.Eval(l.ctx, script, []string{l.lockKey(datasetID)}, l.instanceID).Result()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if result == int64(0) {
		return fmt.Errorf("lock not owned by this instance")
	}
	return nil
}
