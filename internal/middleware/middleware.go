package middleware

import (
	"github.com/tokengate/tokengate/internal/config"
	"github.com/tokengate/tokengate/internal/database"
	"github.com/tokengate/tokengate/internal/logger"
)

// Middleware holds all HTTP middleware
type Middleware struct {
	rdb *database.Redis
	log *logger.Logger
	cfg *config.Config
}

// New creates a new Middleware instance. rdb may be nil when the file or
// postgres slot backend runs without Redis; rate limiting is skipped then.
func New(rdb *database.Redis, log *logger.Logger, cfg *config.Config) *Middleware {
	return &Middleware{
		rdb: rdb,
		log: log,
		cfg: cfg,
	}
}
