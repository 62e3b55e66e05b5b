package sysconfig

import (
	"context"
	"strconv"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("setting not found")
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

type (
	Repository interface {
		QueryAllSettings(ctx context.Context) ([]Setting, error)
		GetSettingByKey(ctx context.Context, key string) (Setting, error)
		UpsertSetting(ctx context.Context, s Setting) (Setting, error)
		DeleteSettingsByKey(ctx context.Context, keys ...string) error
	}

	Service interface {
		QueryAll(ctx context.Context) ([]Setting, error)
		Get(ctx context.Context, key string) (Setting, error)
		// GetInt coerces a setting's value; the fallback is returned when the
		// key is missing or not an integer.
		GetInt(ctx context.Context, key string, fallback int) int
		GetBool(ctx context.Context, key string, fallback bool) bool
		Upsert(ctx context.Context, updatedBy string, us UpsertSetting) (Setting, error)
		Delete(ctx context.Context, keys ...string) error
	}

	service struct {
		repo  Repository
		store *cache.Cache
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{
		repo:  repo,
		store: cache.New(cacheTTL, cacheCleanup),
	}
}

func (svc *service) QueryAll(ctx context.Context) ([]Setting, error) {
	return svc.repo.QueryAllSettings(ctx)
}

func (svc *service) Get(ctx context.Context, key string) (Setting, error) {
	if val, found := svc.store.Get(key); found {
		return val.(Setting), nil
	}
	setting, err := svc.repo.GetSettingByKey(ctx, key)
	if err != nil {
		return Setting{}, err
	}
	svc.store.SetDefault(key, setting)
	return setting, nil
}

func (svc *service) GetInt(ctx context.Context, key string, fallback int) int {
	setting, err := svc.Get(ctx, key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(setting.Value)
	if err != nil {
		return fallback
	}
	return n
}

func (svc *service) GetBool(ctx context.Context, key string, fallback bool) bool {
	setting, err := svc.Get(ctx, key)
	if err != nil {
		return fallback
	}
	b, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return fallback
	}
	return b
}

func (svc *service) Upsert(ctx context.Context, updatedBy string, us UpsertSetting) (Setting, error) {
	setting, err := svc.repo.UpsertSetting(ctx, Setting{
		Key:       us.Key,
		Value:     us.Value,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Setting{}, err
	}
	svc.store.Delete(setting.Key)
	return setting, nil
}

func (svc *service) Delete(ctx context.Context, keys ...string) error {
	if err := svc.repo.DeleteSettingsByKey(ctx, keys...); err != nil {
		return err
	}
	for _, key := range keys {
		svc.store.Delete(key)
	}
	return nil
}
