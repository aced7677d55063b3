package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/DianaTao/solace/models"
	"github.com/DianaTao/solace/repositories"
	"go.uber.org/zap"
)

// ProfileStore looks up application profiles by identity-provider subject.
// It returns repositories.ErrNotFound when no profile exists.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// MissingProfilePolicy decides what happens when a verified identity has no profile row.
type MissingProfilePolicy string

const (
	// MissingProfileReject fails the request as Unauthenticated.
	MissingProfileReject MissingProfilePolicy = "reject"
	// MissingProfileSynthesize builds a default social_worker profile in memory.
	MissingProfileSynthesize MissingProfilePolicy = "synthesize"
)

// ParseMissingProfilePolicy parses a policy name, defaulting to MissingProfileReject.
func ParseMissingProfilePolicy(s string) MissingProfilePolicy {
	if MissingProfilePolicy(s) == MissingProfileSynthesize {
		return MissingProfileSynthesize
	}
	return MissingProfileReject
}

// Recorder receives one observation per authentication attempt.
type Recorder interface {
	ObserveAuth(mode, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAuth(string, string, time.Duration) {}

// GatewayConfig holds optional collaborators for the Gateway
type GatewayConfig struct {
	// LocalMissingProfile applies to local verification. Remote verification
	// always synthesizes a default profile.
	LocalMissingProfile MissingProfilePolicy
	// HTTPClient is shared by remote verification calls.
	HTTPClient *http.Client
	Recorder   Recorder
}

// Gateway resolves bearer tokens to principals.
type Gateway struct {
	settings   SettingsSource
	profiles   ProfileStore
	logger     *zap.Logger
	httpClient *http.Client
	recorder   Recorder
	localMiss  MissingProfilePolicy
}

// NewGateway creates a Gateway. The settings source is consulted on every
// call; nothing about the verification mode is fixed at construction.
func NewGateway(settings SettingsSource, profiles ProfileStore, logger *zap.Logger, cfg GatewayConfig) *Gateway {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.LocalMissingProfile == "" {
		cfg.LocalMissingProfile = MissingProfileReject
	}
	return &Gateway{
		settings:   settings,
		profiles:   profiles,
		logger:     logger,
		httpClient: cfg.HTTPClient,
		recorder:   cfg.Recorder,
		localMiss:  cfg.LocalMissingProfile,
	}
}

// strategy is the verification path chosen for a single call.
type strategy struct {
	mode           Mode
	verifier       Verifier
	missingProfile MissingProfilePolicy
}

func (g *Gateway) selectStrategy(s Settings) strategy {
	if s.Mode() == ModeLocal {
		return strategy{
			mode:           ModeLocal,
			verifier:       NewLocalVerifier(s.SigningSecret),
			missingProfile: g.localMiss,
		}
	}
	return strategy{
		mode:           ModeRemote,
		verifier:       NewRemoteVerifier(s.ProviderURL, s.AnonKey, s.ProviderTimeout, g.httpClient),
		missingProfile: MissingProfileSynthesize,
	}
}

// Mode reports the verification mode the next call would use.
func (g *Gateway) Mode() Mode {
	return g.settings.AuthSettings().Mode()
}

// Authenticate verifies token and returns the caller's principal.
// Every returned error is an *Error.
func (g *Gateway) Authenticate(ctx context.Context, token string) (principal *Principal, err error) {
	start := time.Now()
	settings := g.settings.AuthSettings()
	mode := settings.Mode()

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("panic during authentication", zap.Any("panic", r))
			principal = nil
			err = newError(KindUnauthenticated, reasonGeneric, fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			err = AsError(err)
		}
		g.recorder.ObserveAuth(string(mode), outcome(err), time.Since(start))
	}()

	if token == "" {
		return nil, newError(KindUnauthenticated, reasonMissingCredential, nil)
	}

	if settings.AnonKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(settings.AnonKey)) == 1 {
		return nil, newError(KindUnauthenticated, reasonAnonymousKey, nil)
	}

	strat := g.selectStrategy(settings)

	identity, err := strat.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := g.lookupProfile(ctx, identity, strat.missingProfile)
	if err != nil {
		return nil, err
	}

	principal = newPrincipal(identity, profile, RoleUser)

	g.logger.Debug("principal resolved",
		zap.String("mode", string(strat.mode)),
		zap.String("sub", principal.ID),
		zap.String("role", string(principal.Role)))

	return principal, nil
}

func (g *Gateway) lookupProfile(ctx context.Context, id Identity, policy MissingProfilePolicy) (*models.Profile, error) {
	profile, err := g.profiles.GetByID(ctx, id.Subject)
	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, repositories.ErrNotFound):
		if policy == MissingProfileSynthesize {
			return DefaultProfile(id), nil
		}
		return nil, newError(KindUnauthenticated, reasonUserNotFound, nil)
	default:
		return nil, newError(KindUpstreamUnavailable, ErrUpstreamUnavailable.Reason,
			fmt.Errorf("profile lookup: %w", err))
	}
}

// Authorize checks the principal against a required role.
func Authorize(p *Principal, required Role) error {
	if p == nil {
		return newError(KindUnauthenticated, ErrUnauthenticated.Reason, nil)
	}
	if !p.HasRole(required) {
		return newError(KindForbidden,
			fmt.Sprintf("insufficient permissions. required role: %s", required), nil)
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(KindOf(err))
}
