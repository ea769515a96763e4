package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"jawara/internal/auth"
	"jawara/internal/classifier"
	"jawara/internal/metrics"
	"jawara/internal/storage"
	"jawara/internal/verification"
	"jawara/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type WargaStore interface {
	AllWarga(ctx context.Context) ([]*types.Warga, error)
	WargaByNIK(ctx context.Context, nik string) (*types.Warga, error)
	CreateWarga(ctx context.Context, warga *types.Warga) error
	UpdateWarga(ctx context.Context, nik string, warga *types.Warga) error
	DeleteWarga(ctx context.Context, nik string) error
}

type KeluargaStore interface {
	AllKeluarga(ctx context.Context) ([]*types.Keluarga, error)
	Keluarga(ctx context.Context, id string) (*types.Keluarga, error)
	CreateKeluarga(ctx context.Context, keluarga *types.Keluarga) error
	UpdateKeluarga(ctx context.Context, id string, keluarga *types.Keluarga) error
	DeleteKeluarga(ctx context.Context, id string) error
}

type RumahStore interface {
	AllRumah(ctx context.Context) ([]*types.Rumah, error)
	Rumah(ctx context.Context, id string) (*types.Rumah, error)
	CreateRumah(ctx context.Context, rumah *types.Rumah) error
	UpdateRumah(ctx context.Context, id string, rumah *types.Rumah) error
	DeleteRumah(ctx context.Context, id string) error
}

type MarketplaceStore interface {
	AllItems(ctx context.Context) ([]*types.MarketPlaceItem, error)
	Item(ctx context.Context, id string) (*types.MarketPlaceItem, error)
	CreateItem(ctx context.Context, item *types.MarketPlaceItem) error
	UpdateItem(ctx context.Context, id string, item *types.MarketPlaceItem) error
	DeleteItem(ctx context.Context, id string) error
}

type ImageClassifier interface {
	Classify(ctx context.Context, filename, contentType string, image []byte) (*classifier.Result, error)
}

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Auth         *auth.Service
	Verification *verification.Service
	Warga        WargaStore
	Keluarga     KeluargaStore
	Rumah        RumahStore
	Marketplace  MarketplaceStore
	Images       storage.Bucket
	Classifier   ImageClassifier
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	DB           Pinger
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	auth         *auth.Service
	verification *verification.Service
	warga        WargaStore
	keluarga     KeluargaStore
	rumah        RumahStore
	marketplace  MarketplaceStore
	images       storage.Bucket
	classifier   ImageClassifier
	metrics      *metrics.Metrics
	gatherer     prometheus.Gatherer
	db           Pinger

	now func() time.Time

	server *http.Server
}

func New(config *types.Config, logger *logrus.Logger, deps Dependencies) *Service {
	mux := flow.New()

	s := &Service{
		logger: logger,
		config: config,

		auth:         deps.Auth,
		verification: deps.Verification,
		warga:        deps.Warga,
		keluarga:     deps.Keluarga,
		rumah:        deps.Rumah,
		marketplace:  deps.Marketplace,
		images:       deps.Images,
		classifier:   deps.Classifier,
		metrics:      deps.Metrics,
		gatherer:     deps.Gatherer,
		db:           deps.DB,

		now: time.Now,

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)
	// flow skips route middleware on unmatched paths, so the redirect wraps
	// the whole mux.
	s.server.Handler = s.StripTrailingSlash(mux)

	return s
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, types.NotFoundError("Route not found", nil))
	})

	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/", s.handleRoot, http.MethodGet)
	r.HandleFunc("/api/health", s.handleHealth, http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}), http.MethodGet)
	}

	r.HandleFunc("/api/auth/register", s.handleRegister, http.MethodPost)
	r.HandleFunc("/api/auth/login", s.handleLogin, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/api/auth/profile", s.handleProfile, http.MethodGet)

		// Warga
		r.HandleFunc("/api/warga/self-register", s.handleSelfRegister, http.MethodPost)
		r.HandleFunc("/api/warga", s.handleListWarga, http.MethodGet)
		r.HandleFunc("/api/warga/:nik", s.handleGetWarga, http.MethodGet)
		r.HandleFunc("/api/warga/:nik", s.handleUpdateWarga, http.MethodPut)

		// Verification, static paths ahead of :id
		r.HandleFunc("/api/verification/submit", s.handleSubmitVerification, http.MethodPost)
		r.HandleFunc("/api/verification/my-requests", s.handleMyVerifications, http.MethodGet)

		r.HandleFunc("/api/keluarga", s.handleListKeluarga, http.MethodGet)
		r.HandleFunc("/api/keluarga/:id", s.handleGetKeluarga, http.MethodGet)
		r.HandleFunc("/api/rumah", s.handleListRumah, http.MethodGet)
		r.HandleFunc("/api/rumah/:id", s.handleGetRumah, http.MethodGet)

		r.HandleFunc("/api/marketplace", s.handleListItems, http.MethodGet)
		r.HandleFunc("/api/marketplace", s.handleCreateItem, http.MethodPost)
		r.HandleFunc("/api/marketplace/:id", s.handleGetItem, http.MethodGet)
		r.HandleFunc("/api/marketplace/:id", s.handleUpdateItem, http.MethodPut)
		r.HandleFunc("/api/marketplace/:id", s.handleDeleteItem, http.MethodDelete)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireRole(types.AdminRoles...))

			r.HandleFunc("/api/warga", s.handleCreateWarga, http.MethodPost)
			r.HandleFunc("/api/warga/:nik", s.handleDeleteWarga, http.MethodDelete)

			r.HandleFunc("/api/verification/all", s.handleAllVerifications, http.MethodGet)
			r.HandleFunc("/api/verification/pending", s.handlePendingVerifications, http.MethodGet)
			r.HandleFunc("/api/verification/approve/:id", s.handleApproveVerification, http.MethodPut)
			r.HandleFunc("/api/verification/reject/:id", s.handleRejectVerification, http.MethodPut)

			r.HandleFunc("/api/keluarga", s.handleCreateKeluarga, http.MethodPost)
			r.HandleFunc("/api/keluarga/:id", s.handleUpdateKeluarga, http.MethodPut)
			r.HandleFunc("/api/keluarga/:id", s.handleDeleteKeluarga, http.MethodDelete)

			r.HandleFunc("/api/rumah", s.handleCreateRumah, http.MethodPost)
			r.HandleFunc("/api/rumah/:id", s.handleUpdateRumah, http.MethodPut)
			r.HandleFunc("/api/rumah/:id", s.handleDeleteRumah, http.MethodDelete)
		})

		r.HandleFunc("/api/verification/:id", s.handleGetVerification, http.MethodGet)
	})
}
