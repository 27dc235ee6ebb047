package workspace

import (
	"context"
	"log/slog"
	"strings"
)

const (
	StrategyEngine = "engine"
	StrategyLayout = "layout"
	StrategyStub   = "stub"
)

// Engine is a full-featured editing engine linked into the host.
type Engine interface {
	NewSession(ctx context.Context, draftID string) (Session, error)
}

// Provider is one optional step of the resolution chain.
type Provider struct {
	Name  string
	Build func(ctx context.Context, draftID string) (Session, bool)
}

type Attempt struct {
	Strategy string
	OK       bool
}

// Outcome records which steps were tried, in order. It stays on the host.
type Outcome struct {
	Attempts []Attempt
}

func (o Outcome) Chosen() string {
	for _, a := range o.Attempts {
		if a.OK {
			return a.Strategy
		}
	}
	return ""
}

// Chain tries its providers in order and falls back to a Stub, which always
// exists, so Resolve never comes back empty.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	kept := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Build != nil {
			kept = append(kept, p)
		}
	}
	return &Chain{providers: kept, logger: logger}
}

func (c *Chain) Resolve(ctx context.Context, draftID string) (Session, Outcome) {
	var outcome Outcome
	for _, p := range c.providers {
		sess, ok := p.Build(ctx, draftID)
		ok = ok && sess != nil
		outcome.Attempts = append(outcome.Attempts, Attempt{Strategy: p.Name, OK: ok})
		if ok {
			return sess, outcome
		}
	}
	outcome.Attempts = append(outcome.Attempts, Attempt{Strategy: StrategyStub, OK: true})
	return NewStub(draftID), outcome
}

// EngineProvider asks the engine for a session; a nil engine is skipped.
func EngineProvider(engine Engine, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return Provider{
		Name: StrategyEngine,
		Build: func(ctx context.Context, draftID string) (Session, bool) {
			if engine == nil {
				return nil, false
			}
			sess, err := engine.NewSession(ctx, draftID)
			if err != nil {
				logger.Warn("engine session unavailable", "draft_id", draftID, "error", err)
				return nil, false
			}
			return sess, sess != nil
		},
	}
}

// LayoutProvider instantiates the catalog's entry layout. The draft id is
// handed over only when the session implements DraftIDAcceptor.
func LayoutProvider(catalog *LayoutCatalog, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return Provider{
		Name: StrategyLayout,
		Build: func(_ context.Context, draftID string) (Session, bool) {
			if catalog == nil {
				return nil, false
			}
			sess, err := catalog.Instantiate(catalog.Entry())
			if err != nil {
				logger.Debug("layout session unavailable", "layout", catalog.Entry(), "error", err)
				return nil, false
			}
			if strings.TrimSpace(draftID) != "" {
				if acceptor, ok := sess.(DraftIDAcceptor); ok {
					acceptor.SetDraftID(draftID)
				} else {
					logger.Debug("layout session does not accept draft id", "layout", catalog.Entry(), "kind", sess.Kind())
				}
			}
			return sess, true
		},
	}
}
