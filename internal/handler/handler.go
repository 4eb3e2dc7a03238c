package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tokengate/tokengate/internal/auth"
	"github.com/tokengate/tokengate/internal/config"
	"github.com/tokengate/tokengate/internal/database"
	"github.com/tokengate/tokengate/internal/logger"
	"github.com/tokengate/tokengate/internal/service"
)

// Handler holds all HTTP handlers
type Handler struct {
	log       *logger.Logger
	cfg       *config.Config
	tokenSvc  *service.TokenService
	backupSvc *service.BackupService
	sessions  *auth.AdminSessions
	rdb       *database.Redis
	db        *database.Postgres
}

// New creates a new Handler instance. rdb and db may be nil depending on the
// configured slot backend.
func New(log *logger.Logger, cfg *config.Config, tokenSvc *service.TokenService, backupSvc *service.BackupService, sessions *auth.AdminSessions, rdb *database.Redis, db *database.Postgres) *Handler {
	return &Handler{
		log:       log,
		cfg:       cfg,
		tokenSvc:  tokenSvc,
		backupSvc: backupSvc,
		sessions:  sessions,
		rdb:       rdb,
		db:        db,
	}
}

// JSON helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func readJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
