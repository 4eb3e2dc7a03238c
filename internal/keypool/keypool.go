// Package keypool rotates among several third-party API credentials using a
// priority-ordered linear scan. A credential stays in rotation until it is
// reported with a terminal failure; transient failures leave it in place.
package keypool

import (
	"errors"
	"sort"
	"sync"

	"github.com/tokengate/tokengate/internal/logger"
)

// FailureClass classifies a reported credential failure.
type FailureClass int

const (
	// FailureTransient covers timeouts and 5xx responses; the credential
	// stays in rotation.
	FailureTransient FailureClass = iota
	// FailureInvalid means the provider no longer recognizes the credential.
	FailureInvalid
	// FailureExhausted means the credential's quota is spent.
	FailureExhausted
	// FailureRejected means the provider blocked the credential.
	FailureRejected
)

// Terminal reports whether the class permanently removes a credential from
// rotation.
func (c FailureClass) Terminal() bool {
	return c == FailureInvalid || c == FailureExhausted || c == FailureRejected
}

func (c FailureClass) String() string {
	switch c {
	case FailureInvalid:
		return "invalid"
	case FailureExhausted:
		return "exhausted"
	case FailureRejected:
		return "rejected"
	default:
		return "transient"
	}
}

// ErrNoneAvailable is returned when every credential has failed terminally.
var ErrNoneAvailable = errors.New("keypool: no usable credentials")

// Credential is one third-party API key with its scan priority.
// Lower Priority is tried first.
type Credential struct {
	Name     string
	Key      string
	Priority int
}

// Pool holds the credentials and their rotation state.
type Pool struct {
	mu    sync.Mutex
	creds []Credential
	dead  map[string]FailureClass
	log   *logger.Logger
}

// New creates a Pool from the given credentials, ordered by priority.
func New(creds []Credential, log *logger.Logger) *Pool {
	sorted := make([]Credential, len(creds))
	copy(sorted, creds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &Pool{
		creds: sorted,
		dead:  make(map[string]FailureClass),
		log:   log.WithComponent("keypool"),
	}
}

// Acquire returns the highest-priority credential still in rotation.
func (p *Pool) Acquire() (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.creds {
		if _, gone := p.dead[c.Name]; !gone {
			return c, nil
		}
	}
	return Credential{}, ErrNoneAvailable
}

// Report records the outcome of using a credential. Terminal classes remove
// it from rotation; transient failures are logged only.
func (p *Pool) Report(name string, class FailureClass) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !class.Terminal() {
		p.log.Debug().Str("credential", name).Msg("transient credential failure")
		return
	}
	if _, gone := p.dead[name]; gone {
		return
	}
	p.dead[name] = class
	p.log.Warn().
		Str("credential", name).
		Str("class", class.String()).
		Msg("credential removed from rotation")
}

// Remaining returns how many credentials are still in rotation.
func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds) - len(p.dead)
}

// Reset returns every credential to rotation, e.g. after quotas renew.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dead = make(map[string]FailureClass)
}
