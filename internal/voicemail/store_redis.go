package voicemail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	recordKeyPrefix = "voicemail:"
	indexKey        = "voicemails:index"
)

// RedisStore keeps one JSON value per record (voicemail:<id>) and a sorted
// index (voicemails:index) scored by creation time for reverse-chronological
// pagination. Record and index writes go through one transaction pipeline so
// neither can land without the other.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func recordKey(id string) string { return recordKeyPrefix + id }

func (s *RedisStore) Create(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("voicemail: record id is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("voicemail: marshal record: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, recordKey(rec.ID), payload, 0)
	pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(rec.CreatedAt.Unix()), Member: rec.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("voicemail: create %s: %w", rec.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	payload, err := s.rdb.Get(ctx, recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("voicemail: get %s: %w", id, err)
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrMalformedRecord, id)
	}
	return rec, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, mutate func(*Record) error) (Record, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := mutate(&rec); err != nil {
		return Record{}, err
	}
	rec.ID = id

	payload, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("voicemail: marshal record: %w", err)
	}
	if err := s.rdb.Set(ctx, recordKey(id), payload, 0).Err(); err != nil {
		return Record{}, fmt.Errorf("voicemail: update %s: %w", id, err)
	}
	return rec, nil
}

func (s *RedisStore) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	limit := clampLimit(opts.Limit)
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	total, err := s.rdb.ZCard(ctx, indexKey).Result()
	if err != nil {
		return ListResult{}, fmt.Errorf("voicemail: index size: %w", err)
	}

	ids, err := s.rdb.ZRevRange(ctx, indexKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return ListResult{}, fmt.Errorf("voicemail: index scan: %w", err)
	}

	out := ListResult{Records: make([]Record, 0, len(ids)), Total: total, Offset: offset, Limit: limit}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return ListResult{}, fmt.Errorf("voicemail: fetch page: %w", err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Deleted between index scan and fetch, or never written.
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			// Malformed payloads are skipped, but their index entries still
			// count toward Total above.
			continue
		}
		if opts.UnlistenedOnly && rec.Listened {
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.rdb.TxPipeline()
	delCmd := pipe.Del(ctx, recordKey(id))
	zremCmd := pipe.ZRem(ctx, indexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("voicemail: delete %s: %w", id, err)
	}
	if delCmd.Val() == 0 && zremCmd.Val() == 0 {
		return ErrNotFound
	}
	return nil
}
