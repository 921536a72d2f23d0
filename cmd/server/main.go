package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/analysis"
	"github.com/rakeshreddymandala/humaneq-hr/internal/config"
	"github.com/rakeshreddymandala/humaneq-hr/internal/database"
	"github.com/rakeshreddymandala/humaneq-hr/internal/handler"
	"github.com/rakeshreddymandala/humaneq-hr/internal/jobs"
	"github.com/rakeshreddymandala/humaneq-hr/internal/llm"
	"github.com/rakeshreddymandala/humaneq-hr/internal/metrics"
	"github.com/rakeshreddymandala/humaneq-hr/internal/middleware"
	"github.com/rakeshreddymandala/humaneq-hr/internal/queue"
	"github.com/rakeshreddymandala/humaneq-hr/internal/repository"
	"github.com/rakeshreddymandala/humaneq-hr/internal/router"
	"github.com/rakeshreddymandala/humaneq-hr/internal/service"
	"github.com/rakeshreddymandala/humaneq-hr/internal/storage"
	"github.com/rakeshreddymandala/humaneq-hr/internal/voiceagent"
)

func newLogger() *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if os.Getenv("APP_ENV") == "prod" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return log
}

func main() {
	_ = godotenv.Load()

	log := newLogger()
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := database.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("mongo connection failed", zap.Error(err))
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("ensure indexes failed", zap.Error(err))
	}

	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable, rate limiting and caching disabled", zap.Error(err))
		rdb = nil
	} else {
		defer func() { _ = rdb.Close() }()
	}

	// Object storage is optional; without a bucket recordings stay local.
	var remote storage.ObjectStore = storage.Disabled{}
	if cfg.Storage.Bucket != "" {
		s3, err := storage.NewS3(ctx, cfg.Storage)
		if err != nil {
			log.Warn("s3 unavailable, storing media locally only", zap.Error(err))
		} else {
			remote = s3
		}
	}
	local, err := storage.NewLocal(cfg.Storage.UploadsDir)
	if err != nil {
		log.Fatal("uploads dir unavailable", zap.Error(err))
	}

	llmClient, err := llm.New(ctx, cfg.LLM, nil)
	if err != nil {
		log.Fatal("llm client", zap.Error(err))
	}
	voice := voiceagent.New(cfg.VoiceAgent, nil, log)

	var events service.EventPublisher = queue.Discard{}
	if cfg.Broker.Enabled {
		pub := queue.NewPublisher(cfg.Broker.URL, cfg.Broker.Queue, log)
		defer func() { _ = pub.Close() }()
		events = pub

		consumer := queue.NewConsumer(cfg.Broker.URL, cfg.Broker.Queue, cfg.Broker.LogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event consumer stopped", zap.Error(err))
			}
		}()
	}

	// repositories
	users := repository.NewUserRepo(db)
	students := repository.NewStudentRepo(db)
	general := repository.NewGeneralUserRepo(db)
	templates := repository.NewTemplateRepo(db)
	adminTemplates := repository.NewAdminTemplateRepo(db)
	interviews := repository.NewInterviewRepo(db)
	tokens := repository.NewTokenRepo(db)
	resolver := repository.NewInterviewResolver(interviews)
	catalog := service.TemplateCatalog{Company: templates, Admin: adminTemplates}

	// services
	media := &service.MediaService{
		Interviews: interviews,
		Resolver:   resolver,
		Local:      local,
		Remote:     remote,
		Log:        log,
	}
	accountant := repository.NewAccountant(db)
	interviewSvc := &service.InterviewService{
		Interviews: interviews,
		Resolver:   resolver,
		Templates:  catalog,
		Companies:  users,
		Accountant: accountant,
		Events:     events,
		Voice:      voice,
		Analyzer:   analysis.New(llmClient),
		Media:      media,
		BaseURL:    cfg.BaseURL,
		Log:        log,
	}
	sessions := &service.SessionService{
		Interviews:   interviews,
		Templates:    catalog,
		Admin:        adminTemplates,
		Students:     students,
		GeneralUsers: general,
		Quota:        accountant,
		BaseURL:      cfg.BaseURL,
	}
	studentSvc := &service.StudentService{Students: students, Interviews: interviews, Admin: adminTemplates}
	reports := &service.ReportService{Reports: repository.NewReportRepo(db), Companies: users}

	if n, err := jobs.SeedAdminTemplates(ctx, adminTemplates, cfg.Jobs.SeedFile, log); err != nil {
		log.Error("template seeding failed", zap.Error(err))
	} else if n > 0 {
		log.Info("seeded admin templates", zap.Int("count", n))
	}
	scheduler := jobs.NewScheduler(cfg.Jobs, interviewSvc, students, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal("scheduler", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.RequestLogger(log))
	e.Use(metrics.Middleware())

	guards := router.Guards{
		Secret:    cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
	}
	ivHandler := handler.NewInterviewHandler(interviewSvc, log)
	sessHandler := handler.NewSessionHandler(sessions, log)

	router.RegisterRoutes(e, readiness(client, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, students, general, tokens, log), guards)
	router.RegisterCompany(e, ivHandler, handler.NewTemplateHandler(templates, llmClient, log), guards)
	router.RegisterStudent(e, handler.NewStudentHandler(studentSvc, log), sessHandler, guards)
	router.RegisterGeneral(e, sessHandler, guards)
	router.RegisterAdmin(e, handler.NewAdminHandler(users, reports, adminTemplates, log), guards)
	router.RegisterCandidate(e, ivHandler, handler.NewMediaHandler(media, log), guards)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)
}

func readiness(client *mongo.Client, rdb *redis.Client) map[string]handler.Pinger {
	deps := map[string]handler.Pinger{
		"mongo": handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }),
	}
	if rdb != nil {
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	return deps
}
