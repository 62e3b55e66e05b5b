package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/matibabu/core/sysconfig"
)

type sysconfigRepository struct {
	db *DB
}

var _ sysconfig.Repository = (*sysconfigRepository)(nil) // interface compliance check

func NewSysconfigRepository(db *DB) *sysconfigRepository {
	return &sysconfigRepository{db: db}
}

func (repo *sysconfigRepository) QueryAllSettings(ctx context.Context) ([]sysconfig.Setting, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	settings := make([]sysconfig.Setting, 0, len(repo.db.settings))
	for _, s := range repo.db.settings {
		settings = append(settings, *s)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

func (repo *sysconfigRepository) GetSettingByKey(ctx context.Context, key string) (sysconfig.Setting, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.settings[key]; ok {
		return *s, nil
	}
	return sysconfig.Setting{}, sysconfig.ErrNotFound
}

func (repo *sysconfigRepository) UpsertSetting(ctx context.Context, s sysconfig.Setting) (sysconfig.Setting, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.settings[s.Key] = &s
	return s, nil
}

func (repo *sysconfigRepository) DeleteSettingsByKey(ctx context.Context, keys ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, key := range keys {
		delete(repo.db.settings, key)
	}
	return nil
}
