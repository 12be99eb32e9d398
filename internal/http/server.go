package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"gastos/internal/cache"
	"gastos/internal/core"
	"gastos/internal/middleware/cors"
	"gastos/internal/middleware/ratelimit"
	"gastos/internal/middleware/trace"
	"gastos/internal/services"
	"gastos/internal/storage"
)

// Server is the JSON API over the expense repository. Derived month and
// statement views are cached with a short TTL and purged on every write.
type Server struct {
	http.Server

	repo     *storage.SQLiteRepository
	expenses *services.ExpenseService
	goals    *services.GoalService

	limiter      *ratelimit.Limiter
	cacheManager *cache.Manager

	statementCache *cache.LRUCache[statementView]
	summaryCache   *cache.LRUCache[summaryView]
	monthCache     *cache.LRUCache[[]expenseView]

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, repo *storage.SQLiteRepository, expenses *services.ExpenseService, goals *services.GoalService, corsOrigins []string) *Server {
	s := &Server{
		repo:           repo,
		expenses:       expenses,
		goals:          goals,
		limiter:        ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		cacheManager:   cache.NewManager(),
		statementCache: cache.NewLRUCache[statementView](100, 5*time.Minute),
		summaryCache:   cache.NewLRUCache[summaryView](100, 5*time.Minute),
		monthCache:     cache.NewLRUCache[[]expenseView](200, 5*time.Minute),
	}
	s.cacheManager.Register(s.statementCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.monthCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(trace.Middleware)
	r.Use(cors.Middleware(corsOrigins))
	r.Use(s.rateLimit)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/categorias", func(r chi.Router) {
		r.Get("/", s.handleListCategories)
		r.Post("/", s.handleCreateCategory)
		r.Delete("/{id}", s.handleDeleteCategory)
	})

	r.Route("/cartoes", func(r chi.Router) {
		r.Get("/", s.handleListCards)
		r.Post("/", s.handleCreateCard)
		r.Delete("/{id}", s.handleDeactivateCard)
		r.Post("/{id}/reactivate", s.handleReactivateCard)
	})

	r.Route("/gastos", func(r chi.Router) {
		r.Get("/", s.handleListMonthExpenses)
		r.Post("/", s.handleCreateExpense)
		r.Get("/parcelados", s.handleListActiveInstallments)
		r.Put("/{id}", s.handleUpdateExpense)
		r.Delete("/{id}", s.handleDeleteExpense)
	})

	r.Route("/faturas", func(r chi.Router) {
		r.Get("/{cartaoId}", s.handleStatement)
		r.Get("/{cartaoId}/proxima", s.handleUpcomingStatement)
	})

	r.Get("/resumo", s.handleSummary)

	r.Route("/metas", func(r chi.Router) {
		r.Get("/", s.handleListGoals)
		r.Post("/", s.handleCreateGoal)
		r.Delete("/{id}", s.handleDeleteGoal)
		r.Post("/{id}/contribuicoes", s.handleAddContribution)
	})
	r.Delete("/contribuicoes/{id}", s.handleDeleteContribution)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// rateLimit throttles mutating requests per client IP.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.limiter.Allow(trace.ClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "muitas requisições, tente novamente em instantes")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops background routines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateDerived flushes every cached derived view. Expense writes can
// move money across arbitrary months and statements, so a blanket purge is
// the only safe invalidation.
func (s *Server) invalidateDerived() {
	s.statementCache.Purge()
	s.summaryCache.Purge()
	s.monthCache.Purge()
}

func monthKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func statementKey(cardID int64, year, month int, responsible string) string {
	return strconv.FormatInt(cardID, 10) + ":" + monthKey(year, month) + ":" + responsible
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "gastos", "status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "banco indisponível")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// monthExpenses loads the raw expense rows feeding a calendar month's
// derived views: plain expenses dated in the month plus every installment
// purchase that may still have an installment due.
func (s *Server) monthExpenses(ctx context.Context, year, month int) ([]core.Expense, error) {
	start := core.MonthStart(year, month)
	end := core.MonthEnd(year, month)
	return s.repo.ListForPeriod(ctx, start, end, nil)
}
