// Package leads provides the lead lifecycle bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"
	"time"

	"homni_backend/internal/events"
	apphttp "homni_backend/internal/http"
	"homni_backend/internal/leads/access"
	"homni_backend/internal/leads/distribution"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/handler"
	"homni_backend/internal/leads/management"
	"homni_backend/internal/leads/ports"
	"homni_backend/internal/leads/repository"
	"homni_backend/internal/leads/transitions"
	"homni_backend/platform/config"
	"homni_backend/platform/httpkit"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"
	"homni_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const inlineDistributionTimeout = 30 * time.Second

// ModuleConfig is the configuration the leads module reads.
type ModuleConfig interface {
	config.DistributionConfig
}

// Deps are the collaborators the leads module needs from other contexts.
type Deps struct {
	Pool      *pgxpool.Pool
	Bus       events.Bus
	Validator *validator.Validator
	Config    ModuleConfig
	Metrics   *metrics.Metrics
	Log       *logger.Logger
	Budget    ports.BudgetGate
	Companies ports.CompanyResolver
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	management *management.Service
	engine     *distribution.Engine
	statuses   repository.StatusRewriter
	normalizer *domain.Normalizer
	bus        events.Bus
	log        *logger.Logger
	queue      ports.DistributionQueue
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(d Deps) *Module {
	normalizer := domain.NewNormalizer(func(raw string) {
		d.Log.Warn("unknown lead status value", "status", raw)
		if d.Metrics != nil {
			d.Metrics.UnknownStatusInput.Inc()
		}
	})
	repo := repository.New(d.Pool, normalizer)

	resolver := access.NewResolver(repo, d.Log)
	purchases := access.NewService(resolver, repo, d.Budget, d.Config, d.Bus, d.Metrics, d.Log)
	engine := distribution.NewEngine(repo, d.Budget, d.Config, d.Bus, d.Metrics, d.Log)
	mgmtSvc := management.New(repo, resolver, d.Bus, d.Metrics, d.Log)
	transitionSvc := transitions.New(repo, d.Bus, d.Metrics, d.Log)

	h := handler.New(handler.Deps{
		Management:  mgmtSvc,
		Transitions: transitionSvc,
		Purchases:   purchases,
		Resolver:    resolver,
		Engine:      engine,
		Companies:   d.Companies,
		Validator:   d.Validator,
	})

	m := &Module{
		handler:    h,
		management: mgmtSvc,
		engine:     engine,
		statuses:   repo,
		normalizer: normalizer,
		bus:        d.Bus,
		log:        d.Log,
	}
	m.subscribe()
	return m
}

// CanonicalizeStatuses rewrites legacy status values still stored in the
// database. Run at startup, after migrations.
func (m *Module) CanonicalizeStatuses(ctx context.Context) (int64, error) {
	return management.CanonicalizeStatuses(ctx, m.statuses, m.normalizer, m.log)
}

// SetDistributionQueue routes new leads through the background worker instead
// of distributing them in-process.
func (m *Module) SetDistributionQueue(q ports.DistributionQueue) {
	m.queue = q
}

func (m *Module) subscribe() {
	m.bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadCreated)
		if !ok {
			return nil
		}

		if m.queue != nil {
			err := m.queue.EnqueueDistributeLead(ctx, e.LeadID)
			if err == nil {
				return nil
			}
			m.log.Warn("enqueue distribution failed, distributing inline", "leadId", e.LeadID, "error", err)
		}

		dctx, cancel := context.WithTimeout(context.Background(), inlineDistributionTimeout)
		defer cancel()
		if _, err := m.engine.DistributeByID(dctx, e.LeadID); err != nil {
			m.log.Error("lead distribution failed", "leadId", e.LeadID, "error", err)
			return err
		}
		return nil
	}))

	link := func(ctx context.Context, event events.Event) error {
		switch e := event.(type) {
		case events.UserSignedUp:
			_, err := m.management.LinkAnonymousLeads(ctx, e.UserID, e.Email)
			return err
		case events.UserSignedIn:
			_, err := m.management.LinkAnonymousLeads(ctx, e.UserID, e.Email)
			return err
		}
		return nil
	}
	m.bus.Subscribe(events.UserSignedUp{}.EventName(), events.HandlerFunc(link))
	m.bus.Subscribe(events.UserSignedIn{}.EventName(), events.HandlerFunc(link))
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// ManagementService returns the lead management service for external use.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// Distributor returns the distribution engine for the scheduler worker.
func (m *Module) Distributor() Distributor {
	return m.engine
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/public")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	public.POST("/leads", httpkit.OptionalAuth(ctx.Config), m.handler.PublicCreate)

	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/leads"))
}

// Compile-time checks
var (
	_ apphttp.Module = (*Module)(nil)
	_ Linker         = (*management.Service)(nil)
)
