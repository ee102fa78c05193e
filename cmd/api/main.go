package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/config"
	"github.com/sorrisoclinic/dental-crm/internal/entity"
	"github.com/sorrisoclinic/dental-crm/internal/infra/cache"
	"github.com/sorrisoclinic/dental-crm/internal/infra/database"
	"github.com/sorrisoclinic/dental-crm/internal/infra/http/handlers"
	"github.com/sorrisoclinic/dental-crm/internal/infra/http/middleware"
	"github.com/sorrisoclinic/dental-crm/internal/infra/mail"
	"github.com/sorrisoclinic/dental-crm/internal/infra/queue"
	"github.com/sorrisoclinic/dental-crm/internal/logger"
	"github.com/sorrisoclinic/dental-crm/internal/usecase"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "dental-crm-api")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := database.DefaultPool
	pool.Driver = cfg.Database.Driver
	db, err := database.NewDBConnection(ctx, cfg.Database.URL, pool)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.ApplyMigrations(ctx, db); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
	}

	// 1. Repositórios
	leadRepo := database.NewLeadRepository(db)
	noteRepo := database.NewLeadNoteRepository(db)
	historyRepo := database.NewLeadHistoryRepository(db)
	ownerRepo := database.NewOwnerRepository(db)

	// 2. Cache e fila (ambos opcionais)
	var leadCache usecase.LeadListCache = usecase.NoopCache
	rdb := connectRedis(ctx, cfg.Redis.URL, log)
	if rdb != nil {
		defer rdb.Close()
		leadCache = cache.NewLeadListCache(rdb, cache.DefaultPrefix, cfg.Redis.LeadListTTL)
	}

	var events usecase.EventPublisher = usecase.NoopPublisher
	var broker handlers.BrokerStatus
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatal("rabbitmq connection failed", zap.Error(err))
		}
		defer rabbitMQ.Close()
		broker = rabbitMQ
		events = queue.NewProducer(rabbitMQ.Ch)

		mailSender := mail.NewEmailSender(
			cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password,
			cfg.Mail.From, cfg.Mail.ClinicInbox, cfg.Mail.AdminURL,
		)
		worker := queue.NewWorker(rabbitMQ.Ch, mailSender, log.Named("lead-worker"))
		go func() {
			if err := worker.Start(ctx, queue.QueueName); err != nil {
				log.Error("lead worker exited", zap.Error(err))
			}
		}()
	} else {
		log.Warn("RABBITMQ_URL not set, lead emails disabled")
	}

	// 3. UseCases
	labels := entity.DefaultLabels()
	pipeline := usecase.NewPipeline(log, middleware.StageFailureCounter{})
	recorder := usecase.NewHistoryRecorder(historyRepo)

	captureUC := usecase.NewCaptureLeadUseCase(leadRepo, leadCache, events, pipeline)
	adminHandler := &handlers.AdminLeadHandler{
		ListUC:     usecase.NewListLeadsUseCase(leadRepo, leadCache, log),
		StaleUC:    usecase.NewStaleLeadsUseCase(leadRepo, cfg.Leads.StaleAfter),
		DigestUC:   usecase.NewNotificationDigestUseCase(leadRepo, cfg.Leads.DigestPreviewLimit),
		ExportUC:   usecase.NewExportLeadsUseCase(leadRepo),
		TimelineUC: usecase.NewLeadTimelineUseCase(leadRepo, noteRepo, historyRepo, cfg.Leads.StaleAfter),
		StatusUC:   usecase.NewUpdateLeadStatusUseCase(leadRepo, recorder, leadCache, pipeline, labels),
		AssignUC:   usecase.NewAssignLeadUseCase(leadRepo, ownerRepo, recorder, leadCache, events, pipeline),
		NoteUC:     usecase.NewAddNoteUseCase(noteRepo, recorder, leadCache, pipeline),
		DeleteUC:   usecase.NewDeleteLeadUseCase(leadRepo, leadCache, pipeline),
		BulkUC:     usecase.NewBulkOperationsUseCase(leadRepo, recorder, leadCache, pipeline, labels),
		Owners:     ownerRepo,
		Logger:     log,
	}

	// 4. Handlers
	limiter := handlers.NewRateLimiter(cfg.Leads.CaptureRatePerMinute)
	go limiter.Cleanup(ctx, time.Minute, 10*time.Minute)

	leadHandler := handlers.NewLeadHandler(captureUC, limiter, log)
	healthHandler := handlers.NewHealthHandler(db, rdb, broker)
	healthHandler.Version = version

	// 5. Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(middleware.Metrics)

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/leads", leadHandler.CaptureLead)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Identity([]byte(cfg.JWT.Secret)))
		adminHandler.Routes(r)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("dental-crm api listening", zap.String("addr", srv.Addr), zap.String("driver", pool.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// connectRedis returns nil when the cache is disabled or unreachable; the
// API keeps serving straight from Postgres in that case.
func connectRedis(ctx context.Context, url string, log *zap.Logger) *redis.Client {
	if url == "" {
		log.Warn("REDIS_URL not set, lead list cache disabled")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Error("invalid REDIS_URL, lead list cache disabled", zap.Error(err))
		return nil
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable at startup", zap.Error(err))
	}
	return rdb
}
