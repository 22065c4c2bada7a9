package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	gocache "github.com/patrickmn/go-cache"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/doingodswork/moodflix/pkg/catalog"
	"github.com/doingodswork/moodflix/pkg/feedback"
	"github.com/doingodswork/moodflix/pkg/metadata"
	"github.com/doingodswork/moodflix/pkg/profile"
	"github.com/doingodswork/moodflix/pkg/recommend"
	"github.com/doingodswork/moodflix/pkg/tmdb"
)

const version = "0.1.0"

func main() {
	// Bootstrap logger for the config parsing. It's replaced as soon as the log config is known.
	logger, err := newLogger("debug", "console")
	if err != nil {
		panic(err)
	}

	logger.Info("Parsing config...")
	config := parseConfig(logger)
	configJSON, err := json.Marshal(config)
	if err != nil {
		logger.Fatal("Couldn't marshal config to JSON", zap.Error(err))
	}
	config.validate(logger)
	logger, err = newLogger(config.LogLevel, config.LogEncoding)
	if err != nil {
		logger.Fatal("Couldn't create logger", zap.Error(err))
	}
	logger.Info("Parsed config", zap.String("config", string(configJSON)), zap.String("version", version))

	registerTypes()

	// Load the movie catalog

	movieCatalog, err := catalog.Load(afero.NewOsFs(), config.MoviesPath)
	if err != nil {
		logger.Fatal("Couldn't load movie catalog", zap.Error(err), zap.String("moviesPath", config.MoviesPath))
	}
	logger.Info("Loaded movie catalog", zap.Int("movies", movieCatalog.Len()))

	// Create the metadata cache

	goCaches := map[string]*gocache.Cache{}
	var metadataCache metadata.Cache
	var rdb *redis.Client
	if config.RedisAddr == "" {
		cache := gocache.New(gocache.NoExpiration, 0)
		goCaches["metadata"] = cache
		metadataCache = &metaCache{cache: cache}
	} else {
		var username, password string
		if config.RedisCreds != "" {
			if creds := strings.SplitN(config.RedisCreds, ":", 2); len(creds) == 2 {
				username, password = creds[0], creds[1]
			} else {
				password = creds[0]
			}
		}
		rdb = redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Username: username,
			Password: password,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Couldn't ping Redis", zap.Error(err), zap.String("redisAddr", config.RedisAddr))
		}
		cancel()
		metadataCache = &redisMetaCache{rdb: rdb, logger: logger}
	}

	// Create clients, stores and the engine

	tmdbClient := tmdb.NewClient(tmdb.NewClientOpts(config.BaseURLtmdb, config.ImageURLtmdb, config.FetchTimeout), config.TMDBkey, logger)
	fetcherOpts := metadata.DefaultFetcherOpts
	fetcherOpts.RetryDelay = config.FetchRetryDelay
	metadataFetcher := metadata.NewFetcher(fetcherOpts, tmdbClient, metadataCache, logger)
	feedbackStore := feedback.NewStore()
	profileStore := profile.NewStore()
	engine := recommend.NewEngine(movieCatalog, metadataFetcher, feedbackStore, profileStore, logger)

	// Set up the server

	logger.Info("Setting up server")
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           5 * time.Second,
	})
	app.Use(fiberrecover.New(),
		createCorsMiddleware(),
		createLoggingMiddleware(logger))
	app.Get("/health", healthHandler)
	app.Post("/recommend", createRecommendHandler(engine, logger))
	app.Post("/feedback", createFeedbackHandler(feedbackStore, logger))
	app.Post("/favorite", createFavoriteHandler(feedbackStore, logger))
	app.Get("/favorites", createFavoritesHandler(engine))
	app.Post("/profile", createProfileHandler(profileStore, logger))
	if config.WebPath != "" {
		app.Static("/", config.WebPath)
	}

	addr := config.BindAddr + ":" + strconv.Itoa(config.Port)
	logger.Info("Starting server", zap.String("address", addr))
	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Couldn't start server", zap.Error(err))
		}
	}()

	// Print cache stats in regular intervals
	go func() {
		for {
			time.Sleep(time.Hour)
			logCacheStats(goCaches, logger)
		}
	}()

	// Graceful shutdown

	c := make(chan os.Signal, 1)
	// Accept SIGINT (Ctrl+C) and SIGTERM (`docker stop`)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	logger.Info("Received signal, shutting down...", zap.Stringer("signal", sig))
	err = app.Shutdown()
	if rdb != nil {
		err = multierr.Append(err, rdb.Close())
	}
	if err != nil {
		logger.Fatal("Error shutting down server", zap.Error(err))
	}
	logger.Info("Server shut down")
}
