package middleware

import (
	"testing"
	"time"
)

func seedPermCache(roles map[string][]string) {
	for role, codes := range roles {
		permCache.Store(role, permCacheEntry{
			codes:     codes,
			expiresAt: time.Now().Add(permCacheTTL),
		})
	}
}

func cachedRoles() []string {
	var roles []string
	permCache.Range(func(key, _ interface{}) bool {
		roles = append(roles, key.(string))
		return true
	})
	return roles
}

func TestClearPermissionCacheSingleRole(t *testing.T) {
	ClearPermissionCache("")
	seedPermCache(map[string][]string{
		"veterinarian": {"pets.read", "records.write"},
		"staff":        {"invoices.write"},
	})

	ClearPermissionCache("veterinarian")

	if _, ok := permCache.Load("veterinarian"); ok {
		t.Error("veterinarian entry should be evicted")
	}
	if _, ok := permCache.Load("staff"); !ok {
		t.Error("staff entry should survive a single-role eviction")
	}
}

func TestClearPermissionCacheAllRoles(t *testing.T) {
	ClearPermissionCache("")
	seedPermCache(map[string][]string{
		"admin":        {"roles.manage"},
		"veterinarian": {"pets.read"},
		"staff":        {"invoices.write"},
	})

	ClearPermissionCache("")

	if roles := cachedRoles(); len(roles) != 0 {
		t.Errorf("cache not empty after full flush, still holds %v", roles)
	}
}
