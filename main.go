package main

import (
	"CodeCollab/config"
	pgconfig "CodeCollab/config/postgres"
	_ "CodeCollab/config/swagger"
	"CodeCollab/middleware"
	"CodeCollab/routes"
	"CodeCollab/services/broadcast"
	"CodeCollab/services/collab"
	"CodeCollab/services/execution"
	"CodeCollab/services/forum"
	"CodeCollab/services/messages"
	"CodeCollab/services/redis"
	"CodeCollab/services/rooms"
	"CodeCollab/services/socket_io"
	"CodeCollab/services/storage"
	"CodeCollab/services/users"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// @title CodeCollab API
// @version 1.0
// @description Gin-Gonic server for collaborative rooms, chat and code execution
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	godotenv.Load()
	log.Println("Setting up server...")

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("Error loading settings: %v", err)
	}
	if settings.Prod {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.InitAuth(settings.JWTSecret, settings.TokenDuration)

	var (
		roomStore    rooms.Store    = rooms.NewMemoryStore()
		messageStore messages.Store = messages.NewMemoryStore()
		userStore    users.Store    = users.NewMemoryStore()
		forumStore   forum.Store    = forum.NewMemoryStore()
	)
	if pgconfig.Configured() {
		gormDB, err := pgconfig.ConnectGORM()
		if err != nil {
			log.Fatalf("Error connecting to PostgreSQL: %v", err)
		}
		log.Println("GORM Connected")

		// Only migrate in development or during deployment
		if os.Getenv("MIGRATE_POSTGRES") == "true" {
			log.Println("Migrating PostgreSQL database...")
			if err := pgconfig.MigrateDatabase(gormDB); err != nil {
				log.Printf("Warning: Database migration failed: %v", err)
			}
		}

		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
		}
		defer sqlDB.Close()

		roomStore = rooms.NewGormStore(gormDB)
		messageStore = messages.NewGormStore(gormDB)
		userStore = users.NewGormStore(gormDB)
		forumStore = forum.NewGormStore(gormDB)
	} else {
		log.Println("POSTGRES_HOST not set, keeping everything in memory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := broadcast.NewRouter(settings.BroadcastBuffer)
	registry := rooms.NewRegistry(roomStore, nil)

	redisClient, err := config.Connect_redis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	if redisClient != nil {
		defer redis.CloseRedis(redisClient)
		registry = rooms.NewRegistry(roomStore, redisClient)
		origin := uuid.NewString()
		router.WithRelay(redis.NewRelay(redisClient, origin))
		router.StartRelay(ctx)
		log.Printf("Relaying broadcasts as instance %s", origin)
	}

	coordinator := rooms.NewCoordinator(registry, settings.MinPasswordLength)
	manager := execution.NewManager(execution.Config{
		Language:       settings.ExecLanguage,
		CompilerPath:   settings.CompilerPath,
		CompileTimeout: settings.CompileTimeout,
		RunTimeout:     settings.RunTimeout,
	})
	files, err := storage.NewFileStore(settings.UploadDir, settings.MaxUploadSize)
	if err != nil {
		log.Fatalf("Error preparing uploads: %v", err)
	}
	svc := collab.NewService(coordinator, router, manager, messageStore)

	r := gin.Default()
	middleware.SetUpMiddleware(r, settings.SessionKey, settings.Prod)

	routes.SetupRoutes(r, routes.Deps{
		Rooms:    coordinator,
		Exec:     manager,
		Remote:   execution.NewRemoteRunner(settings.RemoteExecURL, settings.CompileTimeout),
		Messages: messageStore,
		Users:    users.NewService(userStore),
		Forum:    forum.NewService(forumStore),
		Files:    files,
	})

	sio := new(socket_io.MySocketServer)
	sio.Start(r, svc, settings.SocketDebug)

	srv := &http.Server{Addr: ":" + settings.Port, Handler: r}
	go func() {
		var err error
		if certFile, keyFile := os.Getenv("CERT_FILE"), os.Getenv("KEY_FILE"); certFile != "" && keyFile != "" {
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
	}()
	log.Printf("Server started on port %s", settings.Port)

	<-ctx.Done()
	log.Println("Shutting down...")

	// Connections go first so their disconnect handlers still find the router
	sio.Close()
	manager.Shutdown()
	router.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
}
