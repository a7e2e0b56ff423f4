package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"pet-adoption/internal/adapters/crypto/bcrypt"
	mem "pet-adoption/internal/adapters/storage/memory"
	pg "pet-adoption/internal/adapters/storage/postgres"
	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/middleware"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"
	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/ports/crypto"
	"pet-adoption/internal/ports/notify"
	"pet-adoption/internal/ports/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Options struct {
	Log logger.Logger

	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	TokenIssuer  auth.TokenIssuer  // puede ser nil (modo dev: login sin token)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	PetCache pets.Cache            // opcional
	Notifier notify.Notifier       // opcional
	Hasher   crypto.PasswordHasher // default bcrypt cost 10

	CORSOrigins   []string // default "*"
	AuthRateLimit float64  // req/s por IP en /api/auth; 0 = sin límite
	AuthRateBurst int
	ResetTTL      time.Duration
}

// App expone los services para cmd/api (seed, worker) y los tests.
type App struct {
	Handler      http.Handler
	Users        *users.Service
	Pets         *pets.Service
	Applications *applications.Service
	RateLimiter  *middleware.RateLimiter
}

func NewRouter(opts Options) http.Handler {
	return Build(opts).Handler
}

func Build(opts Options) *App {
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = bcrypt.New(bcrypt.DefaultCost)
	}

	var (
		userRepo users.Repository
		petRepo  pets.Repository
		appRepo  applications.Repository
		tx       store.TxManager
	)
	if opts.DB != nil {
		userRepo = pg.NewUsersRepo(opts.DB)
		petRepo = pg.NewPetsRepo(opts.DB)
		appRepo = pg.NewApplicationsRepo(opts.DB)
		tx = pg.NewTxManager(opts.DB)
	} else {
		userRepo = mem.NewUserRepo()
		petRepo = mem.NewPetRepo()
		appRepo = mem.NewApplicationRepo()
		tx = mem.NewTxManager()
	}

	// Services por módulo
	usersSvc := users.NewService(users.Deps{
		Repo:     userRepo,
		Hasher:   hasher,
		Tokens:   opts.TokenIssuer,
		Notifier: opts.Notifier,
		ResetTTL: opts.ResetTTL,
		Log:      log,
	})

	// pets y applications se referencian: el purger se conecta después.
	purger := &lazyPurger{}
	petsSvc := pets.NewService(pets.Deps{
		Repo:   petRepo,
		Tx:     tx,
		Cache:  opts.PetCache,
		Purger: purger,
		Log:    log,
	})
	appsSvc := applications.NewService(applications.Deps{
		Repo:     appRepo,
		Pets:     petsSvc,
		Users:    usersSvc,
		Tx:       tx,
		Notifier: opts.Notifier,
		Log:      log,
	})
	purger.target = appsSvc

	limiter := middleware.NewRateLimiter(opts.AuthRateLimit, opts.AuthRateBurst, log)

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Sin chimw.RealIP: el rate limit usa el peer del socket.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(log))
	r.Use(middleware.AccessLog(log))
	r.Use(metrics.InstrumentHTTP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !allowsAny(origins),
		MaxAge:           300,
	}))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Rutas por módulo
	r.Route("/api", func(api chi.Router) {
		users.RegisterRoutes(api, usersSvc, limiter.Handler)
		pets.RegisterRoutes(api, petsSvc)
		applications.RegisterRoutes(api, appsSvc)
	})

	return &App{
		Handler:      r,
		Users:        usersSvc,
		Pets:         petsSvc,
		Applications: appsSvc,
		RateLimiter:  limiter,
	}
}

type lazyPurger struct {
	target pets.ApplicationPurger
}

func (p *lazyPurger) DeleteByPet(ctx context.Context, petID string) (int, error) {
	return p.target.DeleteByPet(ctx, petID)
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
