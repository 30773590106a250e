package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/zeu5/dual-ac/util"
)

// Store saves and loads snapshots by key
type Store interface {
	Save(context.Context, string, *Snapshot) error
	Load(context.Context, string) (*Snapshot, error)
}

// FileStore keeps one JSON file per key under Dir
type FileStore struct {
	Dir    string
	logger *logrus.Logger
}

var _ Store = &FileStore{}

func NewFileStore(dir string, logger *logrus.Logger) *FileStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &FileStore{Dir: dir, logger: logger}
}

func (f *FileStore) file(key string) string {
	return path.Join(f.Dir, key+".json")
}

func (f *FileStore) Save(_ context.Context, key string, snap *Snapshot) error {
	bs, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding checkpoint %s: %w", key, err)
	}
	if err := util.WriteToFile(f.file(key), string(bs)); err != nil {
		return fmt.Errorf("writing checkpoint %s: %w", key, err)
	}
	f.logger.WithFields(logrus.Fields{"key": key, "file": f.file(key)}).Debug("saved checkpoint")
	return nil
}

func (f *FileStore) Load(_ context.Context, key string) (*Snapshot, error) {
	bs, err := os.ReadFile(f.file(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	} else if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", key, err)
	}
	snap := &Snapshot{}
	if err := json.Unmarshal(bs, snap); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", key, err)
	}
	return snap, nil
}

// RedisStore keeps one JSON blob per key, prefixed with Prefix
type RedisStore struct {
	Prefix string
	client *redis.Client
	logger *logrus.Logger
}

var _ Store = &RedisStore{}

func NewRedisStore(addr, prefix string, logger *logrus.Logger) *RedisStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisStore{
		Prefix: prefix,
		client: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
		logger: logger,
	}
}

func (r *RedisStore) key(key string) string {
	return r.Prefix + key
}

func (r *RedisStore) Save(ctx context.Context, key string, snap *Snapshot) error {
	bs, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding checkpoint %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), bs, 0).Err(); err != nil {
		return fmt.Errorf("storing checkpoint %s: %w", key, err)
	}
	r.logger.WithFields(logrus.Fields{"key": r.key(key), "bytes": len(bs)}).Debug("saved checkpoint")
	return nil
}

func (r *RedisStore) Load(ctx context.Context, key string) (*Snapshot, error) {
	bs, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	} else if err != nil {
		return nil, fmt.Errorf("fetching checkpoint %s: %w", key, err)
	}
	snap := &Snapshot{}
	if err := json.Unmarshal(bs, snap); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", key, err)
	}
	return snap, nil
}

// Close releases the redis connection pool
func (r *RedisStore) Close() error {
	return r.client.Close()
}
