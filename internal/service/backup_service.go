package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tokengate/tokengate/internal/codec"
	"github.com/tokengate/tokengate/internal/config"
	"github.com/tokengate/tokengate/internal/logger"
	"github.com/tokengate/tokengate/internal/model"
	"github.com/tokengate/tokengate/internal/store"
)

// Backup service errors
var (
	// ErrBackupUnreadable means the blob could not be decoded at all.
	ErrBackupUnreadable = errors.New("backup file could not be read")
	// ErrBackupFormat means the decoded envelope is structurally invalid.
	ErrBackupFormat = errors.New("backup file has an invalid format")
	// ErrWrongApplication means the envelope was produced by another application.
	ErrWrongApplication = errors.New("backup file belongs to a different application")
)

// BackupEnvelope is the self-describing backup file content, prior to
// obfuscation by the codec. Field names are the on-disk format.
type BackupEnvelope struct {
	Metadata  BackupMetadata `json:"metadata"`
	Tokens    []*model.Token `json:"tokens"`
	Timestamp int64          `json:"timestamp"`
	Checksum  string         `json:"checksum"`
}

// BackupMetadata describes the provenance of a backup file.
type BackupMetadata struct {
	Version     string `json:"version"`
	Created     string `json:"created"`
	Application string `json:"application"`
	TokenCount  int    `json:"tokenCount"`
}

// ImportResult reports the outcome of a successful import.
type ImportResult struct {
	Imported int    `json:"imported"`
	Total    int    `json:"total"`
	Message  string `json:"message"`
}

// BackupService produces and consumes portable snapshots of the token
// collection. The blob is opaque to casual viewing but not cryptographically
// protected; anyone holding the distributed client can decode it.
type BackupService struct {
	tokens *TokenService
	store  *store.Store
	codec  *codec.Codec
	cfg    config.BackupConfig
	log    *logger.Logger
	now    func() time.Time
}

// NewBackupService creates a new BackupService
func NewBackupService(tokens *TokenService, st *store.Store, c *codec.Codec, cfg config.BackupConfig, log *logger.Logger) *BackupService {
	return &BackupService{
		tokens: tokens,
		store:  st,
		codec:  c,
		cfg:    cfg,
		log:    log.WithComponent("backup_service"),
		now:    time.Now,
	}
}

// Export returns the current token set (already reaped via List) wrapped in
// a checksummed envelope and encoded as an opaque text blob.
func (s *BackupService) Export(ctx context.Context) (string, error) {
	tokens := s.tokens.List(ctx)
	now := s.now()

	sum, err := checksum(tokens)
	if err != nil {
		return "", fmt.Errorf("failed to checksum token set: %w", err)
	}

	envelope := BackupEnvelope{
		Metadata: BackupMetadata{
			Version:     s.cfg.Version,
			Created:     now.UTC().Format(time.RFC3339),
			Application: s.cfg.Application,
			TokenCount:  len(tokens),
		},
		Tokens:    tokens,
		Timestamp: now.UnixMilli(),
		Checksum:  sum,
	}

	blob, err := s.codec.Encode(envelope)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info().Int("count", len(tokens)).Msg("backup exported")
	return blob, nil
}

// Import decodes and validates a backup blob, then merges its tokens into
// the store. Imported tokens win over existing ones with the same value
// (last-writer-wins by import, not by timestamp). A checksum mismatch is
// advisory: it is logged and the import proceeds. All hard failures abort
// before the store is touched.
func (s *BackupService) Import(ctx context.Context, blob string) (*ImportResult, error) {
	var envelope BackupEnvelope
	if err := s.codec.Decode(blob, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackupUnreadable, err)
	}

	if envelope.Metadata.Version == "" || envelope.Tokens == nil {
		return nil, ErrBackupFormat
	}
	if envelope.Metadata.Application != s.cfg.Application {
		return nil, fmt.Errorf("%w: got %q", ErrWrongApplication, envelope.Metadata.Application)
	}
	for _, t := range envelope.Tokens {
		if t == nil || t.Value == "" {
			return nil, ErrBackupFormat
		}
	}

	sum, err := checksum(envelope.Tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum imported tokens: %w", err)
	}
	if sum != envelope.Checksum {
		s.log.Warn().
			Str("expected", envelope.Checksum).
			Str("computed", sum).
			Msg("backup checksum mismatch, importing anyway")
	}

	total := 0
	s.store.Update(ctx, func(set *model.TokenSet) bool {
		for _, t := range envelope.Tokens {
			set.Put(t.Clone())
		}
		total = set.Len()
		return true
	})

	s.log.Info().Int("imported", len(envelope.Tokens)).Int("total", total).Msg("backup imported")
	return &ImportResult{
		Imported: len(envelope.Tokens),
		Total:    total,
		Message:  fmt.Sprintf("Imported %d tokens", len(envelope.Tokens)),
	}, nil
}

// checksum is the integrity hint over the serialized token array: the sum of
// its bytes modulo 65536, in lower-case hex. It is not a cryptographic
// guarantee. The algorithm is part of the backup format; changing it requires
// a format version bump.
func checksum(tokens []*model.Token) (string, error) {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return "", err
	}
	var sum int
	for _, b := range raw {
		sum = (sum + int(b)) % 65536
	}
	return fmt.Sprintf("%x", sum), nil
}
