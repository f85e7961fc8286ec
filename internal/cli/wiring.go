package cli

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Cocadite/api-pe-na-porta/internal/auth"
	"github.com/Cocadite/api-pe-na-porta/internal/config"
	"github.com/Cocadite/api-pe-na-porta/internal/db"
	"github.com/Cocadite/api-pe-na-porta/internal/store"
)

// openStore builds the configured backend. The returned close func releases
// any connections it holds.
func openStore(cfg *config.Config, log logrus.FieldLogger) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store: submissions are lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	case "oxidb":
		pool, err := db.NewPool(cfg.OxiDB.Addr(), cfg.OxiDB.PoolSize, log)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect to OxiDB")
		}
		log.WithFields(logrus.Fields{
			"addr":       cfg.OxiDB.Addr(),
			"pool_size":  cfg.OxiDB.PoolSize,
			"collection": cfg.OxiDB.Collection,
		}).Info("connected to OxiDB")
		st := store.NewOxiDBStore(pool, cfg.OxiDB.Collection)
		if err := st.EnsureIndexes(); err != nil {
			log.WithError(err).Warn("Warning: could not create OxiDB index")
		}
		return st, pool.Close, nil
	default:
		log.WithField("path", cfg.DBFile).Info("using file store")
		return store.NewFileStore(cfg.DBFile), func() {}, nil
	}
}

// authenticator accepts any of the configured credentials.
func authenticator(cfg *config.Config) auth.Authenticator {
	var as []auth.Authenticator
	if cfg.APIKey != "" {
		as = append(as, auth.NewStaticToken(cfg.APIKey))
	}
	if cfg.APIKeyHash != "" {
		as = append(as, auth.NewHashedToken(cfg.APIKeyHash))
	}
	if cfg.JWTSecret != "" {
		as = append(as, auth.NewJWTToken(cfg.JWTSecret))
	}
	return auth.AnyOf(as...)
}
