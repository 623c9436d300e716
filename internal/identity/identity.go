// Package identity discovers the human author of manually written content.
//
// Discovery is an ordered list of strategies; the first one that yields a
// non-empty identity wins. The order comes from configuration.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"ttlform/internal/config"
)

// Strategy is one way of finding the current identity.
type Strategy interface {
	Name() string
	Resolve() (string, bool)
}

// Holder is an identity the host pushes in directly (login, --identity flag).
type Holder struct {
	mu sync.RWMutex
	id string
}

// NewHolder returns a holder preloaded with id.
func NewHolder(id string) *Holder {
	return &Holder{id: strings.TrimSpace(id)}
}

func (h *Holder) Name() string { return "static" }

// Set replaces the held identity. An empty id logs out.
func (h *Holder) Set(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.id = strings.TrimSpace(id)
}

func (h *Holder) Resolve() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.id, h.id != ""
}

// Env reads the identity from an environment variable.
type Env struct {
	Var string
}

func (e Env) Name() string { return "env" }

func (e Env) Resolve() (string, bool) {
	if e.Var == "" {
		return "", false
	}
	id := strings.TrimSpace(os.Getenv(e.Var))
	return id, id != ""
}

// Persisted keeps the identity in a small file between runs.
type Persisted struct {
	Path string
}

func (p Persisted) Name() string { return "persisted" }

func (p Persisted) Resolve() (string, bool) {
	id, err := p.Load()
	if err != nil {
		return "", false
	}
	return id, id != ""
}

// Load reads the persisted identity. A missing file yields "".
func (p Persisted) Load() (string, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read identity: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes id, creating the directory if needed.
func (p Persisted) Save(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("identity must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(p.Path), 0755); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}
	if err := os.WriteFile(p.Path, []byte(id+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write identity: %w", err)
	}
	return nil
}

// Clear removes the persisted identity. Clearing twice is not an error.
func (p Persisted) Clear() error {
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove identity: %w", err)
	}
	return nil
}

// Token extracts the identity from a claim of the bearer token the transport
// already carries. The signature is not checked here; the backend verifies it.
type Token struct {
	Env    string
	File   string
	Claims []string
}

func (t Token) Name() string { return "token" }

func (t Token) Resolve() (string, bool) {
	raw := t.raw()
	if raw == "" {
		return "", false
	}
	id, err := ClaimFromToken(raw, t.Claims)
	if err != nil {
		return "", false
	}
	return id, true
}

func (t Token) raw() string {
	if t.Env != "" {
		if v := strings.TrimSpace(os.Getenv(t.Env)); v != "" {
			return v
		}
	}
	if t.File != "" {
		if data, err := os.ReadFile(t.File); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}

// DefaultClaims are tried in order when none are configured.
var DefaultClaims = []string{"webid", "identity", "sub"}

// ClaimFromToken returns the first non-empty string claim of an unverified JWT.
func ClaimFromToken(raw string, claims []string) (string, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "Bearer ")
	if len(claims) == 0 {
		claims = DefaultClaims
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, mc); err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	for _, name := range claims {
		if v, ok := mc[name].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", fmt.Errorf("token has none of the claims %v", claims)
}

// Chain tries strategies in order. It implements editor.IdentityResolver.
type Chain struct {
	strategies []Strategy
	log        *zap.Logger
}

// NewChain builds a chain. A nil logger is allowed.
func NewChain(log *zap.Logger, strategies ...Strategy) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{strategies: strategies, log: log}
}

// Resolve returns the first identity any strategy yields.
func (c *Chain) Resolve() (string, bool) {
	for _, s := range c.strategies {
		if id, ok := s.Resolve(); ok {
			c.log.Debug("identity resolved", zap.String("source", s.Name()), zap.String("identity", id))
			return id, true
		}
	}
	c.log.Debug("no identity available")
	return "", false
}

// Sources returns the strategy names in order.
func (c *Chain) Sources() []string {
	names := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	return names
}

// FromConfig builds the configured chain. holder backs the "static" source and is
// created from cfg.Static when nil.
func FromConfig(cfg config.IdentityConfig, holder *Holder, log *zap.Logger) (*Chain, error) {
	if holder == nil {
		holder = NewHolder(cfg.Static)
	}

	var strategies []Strategy
	for _, src := range cfg.Sources {
		switch src {
		case "static":
			strategies = append(strategies, holder)
		case "env":
			strategies = append(strategies, Env{Var: cfg.EnvVar})
		case "persisted":
			strategies = append(strategies, Persisted{Path: cfg.PersistedPath})
		case "token":
			strategies = append(strategies, Token{Env: cfg.TokenEnv, File: cfg.TokenFile, Claims: cfg.Claims})
		default:
			return nil, fmt.Errorf("unknown identity source %q", src)
		}
	}
	return NewChain(log, strategies...), nil
}
