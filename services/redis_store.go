package services

import (
	"context"
	"errors"

	"github.com/periodcalm/period-calm-website-sub000/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisRecordKeyPrefix = "periodcalm:cycle-records:"

// RedisCycleStore keeps each owner's document under a single key.
type RedisCycleStore struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRedisCycleStore(rdb *redis.Client, log *zap.Logger) *RedisCycleStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCycleStore{rdb: rdb, log: log}
}

func (s *RedisCycleStore) Load(ctx context.Context, owner string) (models.RecordMap, error) {
	data, err := s.rdb.Get(ctx, redisRecordKeyPrefix+owner).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.RecordMap{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeOrEmpty(s.log, owner, data), nil
}

func (s *RedisCycleStore) Save(ctx context.Context, owner string, records models.RecordMap) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisRecordKeyPrefix+owner, data, 0).Err()
}
