package security

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-salon/internal/common"
)

// ParseRate accepts the limiter's "<limit>-<unit>" format with an optional
// period multiplier, e.g. "100-M" or "100-15M".
func ParseRate(formatted string) (limiter.Rate, error) {
	limit, period, ok := strings.Cut(strings.TrimSpace(formatted), "-")
	if !ok || period == "" {
		return limiter.Rate{}, fmt.Errorf("rate %q: want <limit>-<period>", formatted)
	}
	unit := period[len(period)-1:]
	factor := int64(1)
	if n := period[:len(period)-1]; n != "" {
		v, err := strconv.ParseInt(n, 10, 64)
		if err != nil || v <= 0 {
			return limiter.Rate{}, fmt.Errorf("rate %q: bad period multiplier", formatted)
		}
		factor = v
	}
	rate, err := limiter.NewRateFromFormatted(limit + "-" + unit)
	if err != nil {
		return limiter.Rate{}, fmt.Errorf("rate %q: %w", formatted, err)
	}
	rate.Period *= time.Duration(factor)
	rate.Formatted = formatted
	return rate, nil
}

// APILimit builds the per-IP limiter applied to every /api route.
func APILimit(client *redis.Client, formatted, prefix string) (func(http.Handler) http.Handler, error) {
	rate, err := ParseRate(formatted)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "rl:api"
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("limiter store: %w", err)
	}
	mw := stdlib.NewMiddleware(limiter.New(store, rate),
		stdlib.WithKeyGetter(common.ClientIP),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
		}),
	)
	return mw.Handler, nil
}
