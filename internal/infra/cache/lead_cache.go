package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

const DefaultPrefix = "leads:"

// LeadListCache guarda resultados de listagem por filtro. Invalidate não apaga
// chaves: incrementa um contador de versão que faz parte de toda chave, e as
// entradas antigas expiram pelo TTL.
type LeadListCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewLeadListCache(client *redis.Client, prefix string, ttl time.Duration) *LeadListCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &LeadListCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *LeadListCache) versionKey() string {
	return c.prefix + "list:version"
}

func (c *LeadListCache) key(version string, filter entity.LeadFilter) (string, error) {
	b, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return c.prefix + "list:" + version + ":" + hex.EncodeToString(sum[:12]), nil
}

func (c *LeadListCache) version(ctx context.Context) (string, error) {
	v, err := c.client.Get(ctx, c.versionKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

func (c *LeadListCache) Get(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, bool, error) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, false, err
	}
	key, err := c.key(version, filter)
	if err != nil {
		return nil, false, err
	}

	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var leads []entity.Lead
	if err := json.Unmarshal(b, &leads); err != nil {
		// entrada corrompida: tratar como miss
		_ = c.client.Del(ctx, key).Err()
		return nil, false, nil
	}
	return leads, true, nil
}

func (c *LeadListCache) Set(ctx context.Context, filter entity.LeadFilter, leads []entity.Lead) error {
	version, err := c.version(ctx)
	if err != nil {
		return err
	}
	key, err := c.key(version, filter)
	if err != nil {
		return err
	}
	b, err := json.Marshal(leads)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, c.ttl).Err()
}

func (c *LeadListCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.versionKey()).Err()
}
