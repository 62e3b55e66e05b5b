package sysconfig_test

import (
	"context"
	"testing"

	"github.com/trezcool/matibabu/core/sysconfig"
	"github.com/trezcool/matibabu/storage/database/inmem"
)

func Test_service_Get_caches(t *testing.T) {
	db := inmemdb.NewDB()
	repo := inmemdb.NewSysconfigRepository(db)
	svc := sysconfig.NewService(repo)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "admin", sysconfig.UpsertSetting{Key: "max_open_trades", Value: "5"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if _, err := svc.Get(ctx, "max_open_trades"); err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	// delete behind the cache's back; the cached copy keeps serving
	if err := repo.DeleteSettingsByKey(ctx, "max_open_trades"); err != nil {
		t.Fatalf("DeleteSettingsByKey() failed: %v", err)
	}
	setting, err := svc.Get(ctx, "max_open_trades")
	if err != nil {
		t.Fatalf("Get() after repo delete failed: %v", err)
	}
	if setting.Value != "5" {
		t.Errorf("Get() value = %q, want %q", setting.Value, "5")
	}

	// a service delete invalidates the cache
	if err = svc.Delete(ctx, "max_open_trades"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err = svc.Get(ctx, "max_open_trades"); err != sysconfig.ErrNotFound {
		t.Errorf("Get() error = %v, want %v", err, sysconfig.ErrNotFound)
	}
}

func Test_service_typedGetters(t *testing.T) {
	db := inmemdb.NewDB()
	svc := sysconfig.NewService(inmemdb.NewSysconfigRepository(db))
	ctx := context.Background()

	seed := map[string]string{
		"shift_signup_cap": "12",
		"maintenance_mode": "true",
		"motd":             "welcome back",
	}
	for key, val := range seed {
		if _, err := svc.Upsert(ctx, "admin", sysconfig.UpsertSetting{Key: key, Value: val}); err != nil {
			t.Fatalf("Upsert(%s) failed: %v", key, err)
		}
	}

	t.Run("GetInt", func(t *testing.T) {
		tests := []struct {
			name     string
			key      string
			fallback int
			want     int
		}{
			{"parses the value", "shift_signup_cap", 3, 12},
			{"missing key falls back", "nope", 3, 3},
			{"non-numeric value falls back", "motd", 3, 3},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := svc.GetInt(ctx, tt.key, tt.fallback); got != tt.want {
					t.Errorf("GetInt(%s) = %d, want %d", tt.key, got, tt.want)
				}
			})
		}
	})

	t.Run("GetBool", func(t *testing.T) {
		tests := []struct {
			name     string
			key      string
			fallback bool
			want     bool
		}{
			{"parses the value", "maintenance_mode", false, true},
			{"missing key falls back", "nope", false, false},
			{"non-boolean value falls back", "motd", true, true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := svc.GetBool(ctx, tt.key, tt.fallback); got != tt.want {
					t.Errorf("GetBool(%s) = %v, want %v", tt.key, got, tt.want)
				}
			})
		}
	})
}
