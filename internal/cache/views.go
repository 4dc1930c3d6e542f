package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Views caches rendered read models by path. Each path has a version
// counter; invalidating a path bumps it so every cached variant of that
// path goes stale at once.
//
// Get reports the version it observed, hit or miss. Set stores only while
// that version is still current, so a result loaded before an
// invalidation is never written under the newer version.
type Views interface {
	Get(ctx context.Context, path, variant string) (data []byte, version uint64, ok bool)
	Set(ctx context.Context, path, variant string, version uint64, data []byte)
	Invalidate(ctx context.Context, paths ...string)
}

func ProductsPath() string                  { return "/products" }
func ProductPath(id int64) string           { return fmt.Sprintf("/products/%d", id) }
func CartPath(userID int64) string          { return fmt.Sprintf("/cart/%d", userID) }
func CheckoutPath(userID int64) string      { return fmt.Sprintf("/checkout/%d", userID) }
func AccountOrdersPath(userID int64) string { return fmt.Sprintf("/account/orders/%d", userID) }
func DashboardPath() string                 { return "/admin/dashboard" }

// Load returns the cached value for (path, variant) or calls load and
// caches its result. Cache failures fall through to load.
func Load[T any](ctx context.Context, v Views, path, variant string, load func(context.Context) (T, error)) (T, error) {
	var version uint64
	if v != nil {
		raw, ver, ok := v.Get(ctx, path, variant)
		if ok {
			var out T
			if err := json.Unmarshal(raw, &out); err == nil {
				return out, nil
			}
		}
		version = ver
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if v != nil {
		if raw, err := json.Marshal(out); err == nil {
			v.Set(ctx, path, variant, version, raw)
		}
	}
	return out, nil
}
