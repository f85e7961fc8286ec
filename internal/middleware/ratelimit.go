package middleware

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const limiterPrefix = "formqueue_limiter"

func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: limiterPrefix})
}

// NewRedisStore shares rate limit counters between instances through redis.
func NewRedisStore(redisURL string) (limiter.Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	store, err := sredis.NewStoreWithOptions(redis.NewClient(opts), limiter.StoreOptions{Prefix: limiterPrefix})
	if err != nil {
		return nil, errors.Wrap(err, "create redis limiter store")
	}
	return store, nil
}

// RateLimit applies rate (formatted like "120-M") per client IP.
func RateLimit(rate string, store limiter.Store, log logrus.FieldLogger) (func(http.Handler) http.Handler, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, errors.Wrapf(err, "parse rate %q", rate)
	}
	mw := stdlibmw.NewMiddleware(limiter.New(store, r),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.WithError(err).Error("rate limiter store failed")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}),
	)
	return mw.Handler, nil
}
