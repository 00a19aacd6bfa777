package salesforce

import (
	"context"
	"fmt"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/models"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/tracing"
)

// OrgStore looks up connected org records by id.
type OrgStore interface {
	Get(ctx context.Context, orgID string) (*models.Org, error)
}

// ClientProvider hands out per-org clients and reports org health. The
// validation engine depends on this interface only, so tests can substitute
// in-memory org fakes.
type ClientProvider interface {
	ClientFor(ctx context.Context, orgID string) (Client, error)
	AreAllOrgsHealthy(ctx context.Context, orgIDs []string) bool
}

// Decorator wraps a freshly built client, for example with a describe cache.
type Decorator func(orgID string, client Client) Client

// Manager is the org-keyed client accessor backed by the org repository.
// Clients are built once per org and reused.
type Manager struct {
	logger   ectologger.Logger
	orgs     OrgStore
	decorate Decorator

	mu      sync.RWMutex
	clients map[string]Client
}

// NewManager creates a manager over the given org store.
func NewManager(logger ectologger.Logger, orgs OrgStore) *Manager {
	return &Manager{
		logger:  logger,
		orgs:    orgs,
		clients: make(map[string]Client),
	}
}

// WithDecorator wraps every client the manager builds from now on.
func (m *Manager) WithDecorator(d Decorator) *Manager {
	m.decorate = d
	return m
}

// ClientFor returns the client for an org, constructing it on first use.
func (m *Manager) ClientFor(ctx context.Context, orgID string) (Client, error) {
	m.mu.RLock()
	client, ok := m.clients[orgID]
	m.mu.RUnlock()
	if ok {
		return client, nil
	}

	org, err := m.orgs.Get(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("org %s is not connected: %w", orgID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if client, ok := m.clients[orgID]; ok {
		return client, nil
	}
	client = NewRestClient(*org, m.logger)
	if m.decorate != nil {
		client = m.decorate(orgID, client)
	}
	m.clients[orgID] = client
	return client, nil
}

// AreAllOrgsHealthy reports whether every listed org is reachable with a
// valid session.
func (m *Manager) AreAllOrgsHealthy(ctx context.Context, orgIDs []string) bool {
	ctx, span := tracing.StartSpan(ctx, "salesforce.Manager.AreAllOrgsHealthy")
	defer span.End()

	for _, orgID := range orgIDs {
		client, err := m.ClientFor(ctx, orgID)
		if err != nil {
			m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID}).Warn("Org client unavailable")
			return false
		}
		if err := client.Ping(ctx); err != nil {
			m.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"org_id": orgID}).Warn("Org health check failed")
			return false
		}
	}
	return true
}

// Evict drops a cached client, forcing reconstruction on next use. Called
// after an org's tokens are updated.
func (m *Manager) Evict(orgID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, orgID)
}
