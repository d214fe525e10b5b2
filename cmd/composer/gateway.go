package main

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scv_loans/pkg/cache"
	"scv_loans/pkg/loan"
	"scv_loans/pkg/models"
	"scv_loans/pkg/ordered"
)

// API is the part of the SCV API the composer talks to. *scv.Client
// implements it.
type API interface {
	Clientes(ctx context.Context) ([]models.Cliente, error)
	Filmes(ctx context.Context) ([]models.Filme, error)
	FitasByFilme(ctx context.Context, filmeID uint) ([]models.Fita, error)
	Emprestimos(ctx context.Context) ([]models.Emprestimo, error)
	Emprestimo(ctx context.Context, id uint) (models.Emprestimo, error)
	SaveEmprestimo(ctx context.Context, id uint, p loan.Payload) (models.Emprestimo, error)
	DeleteEmprestimo(ctx context.Context, id uint) error
}

type gateway struct {
	api      API
	catalog  *cache.Catalog
	logger   *zap.Logger
	sessions *sessionRegistry
	loans    *loanBook
}

func newGateway(api API, catalog *cache.Catalog, logger *zap.Logger) *gateway {
	return &gateway{
		api:      api,
		catalog:  catalog,
		logger:   logger,
		sessions: newSessionRegistry(),
		loans:    newLoanBook(),
	}
}

// session owns one draft. Handlers hold mu for every draft access.
type session struct {
	mu    sync.Mutex
	draft *loan.Draft
}

type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session)}
}

func (r *sessionRegistry) create(d *loan.Draft) (string, *session) {
	id := uuid.New().String()
	s := &session{draft: d}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
	return id, s
}

func (r *sessionRegistry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *sessionRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// loanBook is the composer's copy of the loan list. Saved loans are put in
// place (new ones first) and deleted ones removed, without refetching.
type loanBook struct {
	mu     sync.Mutex
	loaded bool
	list   *ordered.List[uint, models.Emprestimo]
}

func newLoanBook() *loanBook {
	return &loanBook{list: ordered.New[uint, models.Emprestimo]()}
}

func (b *loanBook) replace(loans []models.Emprestimo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list.Clear()
	for _, l := range loans {
		b.list.Append(l.ID, l)
	}
	b.loaded = true
}

func (b *loanBook) snapshot() ([]models.Emprestimo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.list.Values(), b.loaded
}

func (b *loanBook) get(id uint) (models.Emprestimo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.list.Get(id)
}

func (b *loanBook) put(l models.Emprestimo) {
	if l.ID == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list.Put(l.ID, l)
}

func (b *loanBook) remove(id uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list.Remove(id)
}

const (
	catalogCustomers = "clientes"
	catalogMovies    = "filmes"
)

// movies loads the movie catalog. Failures are logged and yield an empty list.
func (g *gateway) movies(ctx context.Context) []models.Filme {
	filmes, err := cache.Fetch(ctx, g.catalog, catalogMovies, g.api.Filmes)
	if err != nil {
		g.logger.Warn("failed to load movies", zap.Error(err))
		return []models.Filme{}
	}
	return filmes
}

// customers loads the customer list. Failures are logged and yield an empty list.
func (g *gateway) customers(ctx context.Context) []models.Cliente {
	clientes, err := cache.Fetch(ctx, g.catalog, catalogCustomers, g.api.Clientes)
	if err != nil {
		g.logger.Warn("failed to load customers", zap.Error(err))
		return []models.Cliente{}
	}
	return clientes
}
