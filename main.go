package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pictobattle/broker"
	"pictobattle/config"
	"pictobattle/game"
	"pictobattle/logger"
	"pictobattle/migrations"
	"pictobattle/storage"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func newBus(envs config.Envs, redisBus func() broker.Bus, processID string) broker.Bus {
	switch envs.BUS {
	case config.BusKafka:
		return broker.NewKafkaBus(envs.KAFKA_BROKERS, envs.KAFKA_TOPIC, processID)
	case config.BusLocal:
		return broker.NewLocal()
	default:
		return redisBus()
	}
}

func main() {
	envs, err := config.Load()
	if err != nil {
		logger.Init(false)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init(envs.DEBUG)
	if !envs.DEBUG {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := storage.NewRedisClient(ctx, envs.REDIS_URL)
	if err != nil {
		log.Fatal().Err(err).Str("url", envs.REDIS_URL).Msg("redis unavailable")
	}
	defer redisClient.Close()
	store := storage.NewRedisStore(redisClient, envs.STORE_TIMEOUT)

	processID := uuid.NewString()
	bus := newBus(envs, func() broker.Bus { return broker.NewRedisBus(redisClient, broker.DefaultChannel) }, processID)
	defer bus.Close()

	opts := game.Options{
		Store:     store,
		Locker:    store,
		Bus:       bus,
		ProcessID: processID,
	}

	if envs.POSTGRES_URL != "" {
		if err := migrations.Migrate(envs.POSTGRES_URL); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		archive, err := storage.NewPostgresArchive(ctx, envs.POSTGRES_URL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres unavailable")
		}
		defer archive.Close()
		opts.Archive = archive
	}

	coordinator := game.NewCoordinator(opts)
	if err := coordinator.Start(ctx); err != nil {
		log.Fatal().Err(err).Str("bus", string(envs.BUS)).Msg("bus subscription failed")
	}
	defer coordinator.Stop()

	r := CreateServer(envs.ALLOWED_ORIGINS)
	gameHandler := game.NewGameHandler(coordinator, envs.ALLOWED_ORIGINS)
	r.GET("/ws", gameHandler.WebsocketHandler)
	r.GET("/rooms", gameHandler.ListRoomsHandler)
	r.GET("/high-scores", gameHandler.HighScoresHandler)
	r.GET("/rooms/:id/results", gameHandler.GameResultsHandler)

	server := &http.Server{Addr: ":" + envs.PORT, Handler: r}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()
	log.Info().Str("port", envs.PORT).Str("bus", string(envs.BUS)).Str("process", processID).Msg("server started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	<-sigCh
	log.Info().Msg("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
