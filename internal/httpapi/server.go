// Package httpapi implements the C10 API surface (spec.md §6): request
// validation, routing and the warehouse-membership gate over stdlib
// net/http. Grounded on johnjansen-torua/cmd/coordinator/main.go, the only
// repo in the retrieved corpus with a hand-rolled JSON-over-HTTP server;
// unlike that server, routing here uses Go 1.22+ method+wildcard patterns
// (e.g. "POST /warehouses/{w}/boxes") instead of prefix dispatch, since the
// path space here is deeper.
package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/raimangsxr/my-warehouse/internal/activity"
	"github.com/raimangsxr/my-warehouse/internal/authsvc"
	"github.com/raimangsxr/my-warehouse/internal/authtoken"
	"github.com/raimangsxr/my-warehouse/internal/boxes"
	"github.com/raimangsxr/my-warehouse/internal/items"
	"github.com/raimangsxr/my-warehouse/internal/membership"
	"github.com/raimangsxr/my-warehouse/internal/settings"
	"github.com/raimangsxr/my-warehouse/internal/syncengine"
	"github.com/raimangsxr/my-warehouse/internal/transfer"
)

// Clock is overridable in tests; production wiring uses realClock.
type Clock func() time.Time

func realClock() time.Time { return time.Now().UTC() }

// Server holds every dependency a handler needs: the raw *sql.DB (handlers
// open their own per-request transaction, per spec.md §5), the domain
// managers, and ambient services.
type Server struct {
	db         *sql.DB
	logger     *slog.Logger
	now        Clock
	issuer     *authtoken.Issuer
	auth       *authsvc.Manager
	membership *membership.Manager
	boxes      *boxes.Manager
	items      *items.Manager
	sync       *syncengine.Engine
	transfer   *transfer.Engine
	activity   *activity.Sink
	settings   *settings.Manager
}

// Deps bundles the constructed managers a Server is built from.
type Deps struct {
	DB         *sql.DB
	Logger     *slog.Logger
	Issuer     *authtoken.Issuer
	Auth       *authsvc.Manager
	Membership *membership.Manager
	Boxes      *boxes.Manager
	Items      *items.Manager
	Sync       *syncengine.Engine
	Transfer   *transfer.Engine
	Activity   *activity.Sink
	Settings   *settings.Manager
}

// NewServer builds a Server from Deps.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := d.Activity
	if sink == nil {
		sink = activity.New(logger)
	}
	return &Server{
		db:         d.DB,
		logger:     logger,
		now:        realClock,
		issuer:     d.Issuer,
		auth:       d.Auth,
		membership: d.Membership,
		boxes:      d.Boxes,
		items:      d.Items,
		sync:       d.Sync,
		transfer:   d.Transfer,
		activity:   sink,
		settings:   d.Settings,
	}
}

// Router builds the full request-routing ServeMux under apiPrefix
// (config.Config.APIV1Prefix), wrapped with logging and recovery
// middleware (spec.md §2 ambient stack: one log line per request).
func (s *Server) Router(apiPrefix string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /auth/password-reset/request", s.handlePasswordResetRequest)
	mux.HandleFunc("POST /auth/password-reset/confirm", s.handlePasswordResetConfirm)

	mux.HandleFunc("POST /sync/push", s.withAuth(s.handlePush))
	mux.HandleFunc("GET /sync/pull", s.withAuth(s.handlePull))
	mux.HandleFunc("POST /sync/resolve", s.withAuth(s.handleResolve))

	mux.HandleFunc("POST /warehouses", s.withAuth(s.handleCreateWarehouse))
	mux.HandleFunc("POST /warehouses/{w}/invites", s.withAuth(s.withMembership(s.handleCreateInvite)))
	mux.HandleFunc("POST /invites/accept", s.withAuth(s.handleAcceptInvite))

	mux.HandleFunc("GET /warehouses/{w}/boxes/tree", s.withAuth(s.withMembership(s.handleBoxTree)))
	mux.HandleFunc("POST /warehouses/{w}/boxes", s.withAuth(s.withMembership(s.handleBoxCreate)))
	mux.HandleFunc("GET /warehouses/{w}/boxes/{b}", s.withAuth(s.withMembership(s.handleBoxGet)))
	mux.HandleFunc("PATCH /warehouses/{w}/boxes/{b}", s.withAuth(s.withMembership(s.handleBoxUpdate)))
	mux.HandleFunc("DELETE /warehouses/{w}/boxes/{b}", s.withAuth(s.withMembership(s.handleBoxDelete)))
	mux.HandleFunc("POST /warehouses/{w}/boxes/{b}/move", s.withAuth(s.withMembership(s.handleBoxMove)))
	mux.HandleFunc("POST /warehouses/{w}/boxes/{b}/restore", s.withAuth(s.withMembership(s.handleBoxRestore)))
	mux.HandleFunc("GET /warehouses/{w}/boxes/{b}/items", s.withAuth(s.withMembership(s.handleBoxSubtreeItems)))
	mux.HandleFunc("GET /boxes/by-qr/{token}", s.withAuth(s.handleBoxByQR))

	mux.HandleFunc("GET /warehouses/{w}/items", s.withAuth(s.withMembership(s.handleItemSearch)))
	mux.HandleFunc("POST /warehouses/{w}/items", s.withAuth(s.withMembership(s.handleItemCreate)))
	mux.HandleFunc("GET /warehouses/{w}/items/{i}", s.withAuth(s.withMembership(s.handleItemGet)))
	mux.HandleFunc("PATCH /warehouses/{w}/items/{i}", s.withAuth(s.withMembership(s.handleItemUpdate)))
	mux.HandleFunc("DELETE /warehouses/{w}/items/{i}", s.withAuth(s.withMembership(s.handleItemDelete)))
	mux.HandleFunc("POST /warehouses/{w}/items/{i}/restore", s.withAuth(s.withMembership(s.handleItemRestore)))
	mux.HandleFunc("POST /warehouses/{w}/items/{i}/favorite", s.withAuth(s.withMembership(s.handleItemFavorite)))
	mux.HandleFunc("POST /warehouses/{w}/items/{i}/stock/adjust", s.withAuth(s.withMembership(s.handleStockAdjust)))
	mux.HandleFunc("POST /warehouses/{w}/items/batch", s.withAuth(s.withMembership(s.handleItemBatch)))
	mux.HandleFunc("GET /warehouses/{w}/tags", s.withAuth(s.withMembership(s.handleTags)))

	mux.HandleFunc("GET /warehouses/{w}/export", s.withAuth(s.withMembership(s.handleExport)))
	mux.HandleFunc("POST /warehouses/{w}/import", s.withAuth(s.withMembership(s.handleImport)))

	mux.HandleFunc("GET /warehouses/{w}/activity", s.withAuth(s.withMembership(s.handleActivityList)))

	mux.HandleFunc("GET /warehouses/{w}/settings/smtp", s.withAuth(s.withMembership(s.handleGetSMTPSettings)))
	mux.HandleFunc("PUT /warehouses/{w}/settings/smtp", s.withAuth(s.withMembership(s.handlePutSMTPSettings)))
	mux.HandleFunc("GET /warehouses/{w}/settings/llm", s.withAuth(s.withMembership(s.handleGetLLMSettings)))
	mux.HandleFunc("PUT /warehouses/{w}/settings/llm", s.withAuth(s.withMembership(s.handlePutLLMSettings)))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var handler http.Handler = mux
	if apiPrefix != "" {
		handler = http.StripPrefix(apiPrefix, handler)
	}
	return s.withLogging(handler)
}

// withLogging logs one line per request: method, path, status, duration,
// warehouse (if present in the path), actor (if authenticated).
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"warehouse_id", r.PathValue("w"),
			"actor_id", userIDFromContext(r.Context()),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

func userIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyUserID).(string)
	return v
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}
