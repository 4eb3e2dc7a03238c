package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokengate/tokengate/internal/config"
)

func adminConfig(t *testing.T, password string) config.AdminConfig {
	t.Helper()
	hash, err := HashPassword(password, &Argon2Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	require.NoError(t, err)
	return config.AdminConfig{
		PasswordHash: hash,
		JWTSecret:    "test-secret",
		SessionTTL:   time.Hour,
	}
}

func TestAdminLoginAndValidate(t *testing.T) {
	sessions, err := NewAdminSessions(adminConfig(t, "correct horse"))
	require.NoError(t, err)

	token, err := sessions.Login("correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, sessions.Validate(token))
}

func TestAdminLoginWrongPassword(t *testing.T) {
	sessions, err := NewAdminSessions(adminConfig(t, "correct horse"))
	require.NoError(t, err)

	_, err = sessions.Login("battery staple")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestAdminDisabledWithoutPasswordHash(t *testing.T) {
	sessions, err := NewAdminSessions(config.AdminConfig{})
	require.NoError(t, err)

	_, err = sessions.Login("anything")
	assert.ErrorIs(t, err, ErrAdminDisabled)
	assert.ErrorIs(t, sessions.Validate("sometoken"), ErrAdminDisabled)
}

func TestAdminRequiresJWTSecret(t *testing.T) {
	cfg := adminConfig(t, "pw")
	cfg.JWTSecret = ""
	_, err := NewAdminSessions(cfg)
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestValidateRejectsGarbageAndForeignTokens(t *testing.T) {
	sessions, err := NewAdminSessions(adminConfig(t, "pw"))
	require.NoError(t, err)

	assert.ErrorIs(t, sessions.Validate("not-a-jwt"), ErrInvalidSession)

	otherCfg := adminConfig(t, "pw")
	otherCfg.JWTSecret = "different-secret"
	other, err := NewAdminSessions(otherCfg)
	require.NoError(t, err)
	token, err := other.Login("pw")
	require.NoError(t, err)

	assert.ErrorIs(t, sessions.Validate(token), ErrInvalidSession)
}
