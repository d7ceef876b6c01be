package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facility-booking/cache"
	"facility-booking/config"
	"facility-booking/controllers"
	"facility-booking/controllers/server"
	"facility-booking/database"
	"facility-booking/logger"
	"facility-booking/middleware"
	"facility-booking/mq"
	"facility-booking/obs"
	"facility-booking/repository"
	"facility-booking/repository/memory"
	"facility-booking/routes"
	billingService "facility-booking/services/billing"
	"facility-booking/services/document"
	"facility-booking/services/lifecycle"
	"facility-booking/services/mailer"
	"facility-booking/services/notify"
	"facility-booking/services/permit"
	"facility-booking/services/registry"
	"facility-booking/services/slip_reader"
	"facility-booking/storage"
	"facility-booking/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration: " + err.Error())
	}
	logger.Init(cfg.Log.Level, cfg.Log.Dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.App.Name, cfg.App.Env, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracing: " + err.Error())
	}

	health := map[string]server.Pinger{}
	var closers []io.Closer

	repo, err := openRepository(cfg, health)
	if err != nil {
		logger.Fatal("Failed to open repository: " + err.Error())
	}

	facilityCache := openCache(ctx, cfg, health, &closers)
	files := storage.NewFileStorage(cfg.Storage.Dir)
	mail := mailer.New(cfg.SMTP)
	loc := cfg.Location()

	var dispatcher notify.Dispatcher = notify.MailDispatcher{Mailer: mail}
	var consumer *worker.NotificationConsumer
	if cfg.Rabbit.URL != "" {
		pub, err := mq.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ: " + err.Error())
		}
		cons, err := mq.NewConsumer(cfg.Rabbit.URL, cfg.Rabbit.Exchange, cfg.Rabbit.Queue, worker.NotificationKeys)
		if err != nil {
			logger.Fatal("Failed to start RabbitMQ consumer: " + err.Error())
		}
		closers = append(closers, pub, cons)
		dispatcher = notify.BrokerDispatcher{Publisher: pub}
		consumer = worker.NewNotificationConsumer(cons, mail)
		logger.Success("Notifications are dispatched through RabbitMQ")
	}
	emitter := notify.NewEmitter(dispatcher)

	renderer, err := document.NewHTMLRenderer(loc)
	if err != nil {
		logger.Fatal("Failed to load permit template: " + err.Error())
	}
	issuer := permit.NewIssuer(repo, renderer, files, emitter, permit.WithLocation(loc))

	var slips slip_reader.Reader
	if cfg.Gemini.APIKey != "" {
		reader, err := slip_reader.NewGeminiReader(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Warning("Payment slip reading disabled: " + err.Error())
		} else {
			slips = reader
		}
	}

	asyncLogger := logger.NewAsyncLogger(repo)
	go asyncLogger.ProcessLog()
	go issuer.Run(ctx)
	if consumer != nil {
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("Notification consumer stopped", err)
			}
		}()
	}

	app := fiber.New(fiber.Config{
		ReadBufferSize:  32768, // 32KB read buffer
		WriteBufferSize: 32768, // 32KB write buffer
		ReadTimeout:     cfg.App.ReadTimeout,
		WriteTimeout:    cfg.App.WriteTimeout,
		BodyLimit:       cfg.App.BodyLimitMB * 1024 * 1024,
		ErrorHandler:    controllers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: cfg.FrontendURL != "*",
	}))
	app.Use(middleware.RequestLogger(asyncLogger))

	routes.SetupRoutes(app, routes.Dependencies{
		Auth:      middleware.NewAuthenticator(cfg.JWT.Secret, cfg.PublicKeyURL, repo),
		Lifecycle: lifecycle.NewService(repo, emitter, issuer),
		Permits:   issuer,
		Registry:  registry.NewRegistry(repo, emitter, facilityCache, loc),
		Billing:   billingService.NewService(repo, emitter, files, slips),
		Inbox:     notify.NewInbox(repo),
		Users:     repo,
		Audit:     repo,
		Health:    health,
	})

	go func() {
		logger.Success("Server is running on " + cfg.Address())
		if err := app.Listen(cfg.Address()); err != nil {
			logger.Error("Server stopped", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	if err := app.ShutdownWithTimeout(cfg.App.ShutdownTimeout); err != nil {
		logger.Error("Server shutdown failed", err)
	}
	emitter.Wait()
	asyncLogger.Close()
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warning("close: " + err.Error())
		}
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracer(flushCtx); err != nil {
		logger.Warning("tracer shutdown: " + err.Error())
	}
	logger.Success("Shutdown complete")
}

func openRepository(cfg *config.Config, health map[string]server.Pinger) (repository.Repository, error) {
	if cfg.DB.Driver == "memory" {
		logger.Warning("DB_DRIVER=memory: data is lost on restart")
		return memory.New(), nil
	}

	db, err := database.InitDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	health["database"] = sqlDB.PingContext
	return repository.NewGormRepository(db), nil
}

// openCache runs without a cache when Redis is unset or unreachable.
func openCache(ctx context.Context, cfg *config.Config, health map[string]server.Pinger, closers *[]io.Closer) cache.FacilityCache {
	if cfg.Redis.Addr == "" {
		return cache.Nop{}
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.WithFields(logrus.Fields{"addr": cfg.Redis.Addr}).WithError(err).Warn("⚠️ facility cache disabled")
		return cache.Nop{}
	}
	*closers = append(*closers, client)
	health["redis"] = func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.New("redis unreachable")
		}
		return nil
	}
	return cache.NewRedisFacilityCache(client, cfg.Redis.CacheTTL)
}
