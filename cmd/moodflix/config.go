package main

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type config struct {
	BindAddr        string        `json:"bindAddr"`
	Port            int           `json:"port"`
	MoviesPath      string        `json:"moviesPath"`
	WebPath         string        `json:"webPath"`
	TMDBkey         string        `json:"tmdbKey"`
	BaseURLtmdb     string        `json:"baseURLtmdb"`
	ImageURLtmdb    string        `json:"imageURLtmdb"`
	FetchTimeout    time.Duration `json:"fetchTimeout"`
	FetchRetryDelay time.Duration `json:"fetchRetryDelay"`
	RedisAddr       string        `json:"redisAddr"`
	RedisCreds      string        `json:"redisCreds"`
	LogLevel        string        `json:"logLevel"`
	LogEncoding     string        `json:"logEncoding"`
	EnvPrefix       string        `json:"envPrefix"`
}

func parseConfig(logger *zap.Logger) config {
	result := config{}

	// Flags
	var (
		bindAddr        = flag.String("bindAddr", "localhost", `Local interface address to bind to. "localhost" only allows access from the local host. "0.0.0.0" binds to all network interfaces.`)
		port            = flag.Int("port", 8080, "Port to listen on")
		moviesPath      = flag.String("moviesPath", "data/movies.csv", "Path to the MovieLens-style movie dataset CSV file")
		webPath         = flag.String("webPath", "", "Path to the directory with the web frontend files. Keep empty to not serve any static files.")
		tmdbKey         = flag.String("tmdbKey", "", "TMDB API key. Required.")
		baseURLtmdb     = flag.String("baseURLtmdb", "https://api.themoviedb.org/3", "Base URL for the TMDB API")
		imageURLtmdb    = flag.String("imageURLtmdb", "https://image.tmdb.org/t/p/w500", "Base URL for TMDB poster images")
		fetchTimeout    = flag.Duration("fetchTimeout", 15*time.Second, "Timeout for a single TMDB request. The format must be acceptable by Go's 'time.ParseDuration()', for example \"15s\".")
		fetchRetryDelay = flag.Duration("fetchRetryDelay", 3*time.Second, "Fixed delay between TMDB request attempts after network-level failures")
		redisAddr       = flag.String("redisAddr", "", `Redis host and port, for example "localhost:6379". It's used for the metadata cache. Keep empty to use in-memory go-cache.`)
		redisCreds      = flag.String("redisCreds", "", `Credentials for Redis. Password for Redis version 5 and older, username and password for Redis version 6 and newer. Use the colon character (":") for separating username and password. This implies you can't use a colon in the password when using Redis version 5 or older.`)
		logLevel        = flag.String("logLevel", "debug", `Log level to show only logs with the given and more severe levels. Can be "debug", "info", "warn", "error".`)
		logEncoding     = flag.String("logEncoding", "console", `Log encoding. Can be "console" or "json", where "json" makes more sense when using centralized logging solutions like ELK, Graylog or Loki.`)
		envPrefix       = flag.String("envPrefix", "", "Prefix for environment variables")
	)

	flag.Parse()

	if *envPrefix != "" && !strings.HasSuffix(*envPrefix, "_") {
		*envPrefix += "_"
	}
	result.EnvPrefix = *envPrefix

	// Only overwrite the values by their env var counterparts that have not been set (and that *are* set via env var).
	var err error
	if !isArgSet("bindAddr") {
		if val, ok := os.LookupEnv(*envPrefix + "BIND_ADDR"); ok {
			*bindAddr = val
		}
	}
	result.BindAddr = *bindAddr

	if !isArgSet("port") {
		if val, ok := os.LookupEnv(*envPrefix + "PORT"); ok {
			if *port, err = strconv.Atoi(val); err != nil {
				logger.Fatal("Couldn't convert environment variable from string to int", zap.Error(err), zap.String("envVar", "PORT"))
			}
		}
	}
	result.Port = *port

	if !isArgSet("moviesPath") {
		if val, ok := os.LookupEnv(*envPrefix + "MOVIES_PATH"); ok {
			*moviesPath = val
		}
	}
	result.MoviesPath = *moviesPath

	if !isArgSet("webPath") {
		if val, ok := os.LookupEnv(*envPrefix + "WEB_PATH"); ok {
			*webPath = val
		}
	}
	result.WebPath = *webPath

	if !isArgSet("tmdbKey") {
		if val, ok := os.LookupEnv(*envPrefix + "TMDB_API_KEY"); ok {
			*tmdbKey = val
		}
	}
	result.TMDBkey = *tmdbKey

	if !isArgSet("baseURLtmdb") {
		if val, ok := os.LookupEnv(*envPrefix + "BASE_URL_TMDB"); ok {
			*baseURLtmdb = val
		}
	}
	result.BaseURLtmdb = *baseURLtmdb

	if !isArgSet("imageURLtmdb") {
		if val, ok := os.LookupEnv(*envPrefix + "IMAGE_URL_TMDB"); ok {
			*imageURLtmdb = val
		}
	}
	result.ImageURLtmdb = *imageURLtmdb

	if !isArgSet("fetchTimeout") {
		if val, ok := os.LookupEnv(*envPrefix + "FETCH_TIMEOUT"); ok {
			if *fetchTimeout, err = time.ParseDuration(val); err != nil {
				logger.Fatal("Couldn't convert environment variable from string to time.Duration", zap.Error(err), zap.String("envVar", "FETCH_TIMEOUT"))
			}
		}
	}
	result.FetchTimeout = *fetchTimeout

	if !isArgSet("fetchRetryDelay") {
		if val, ok := os.LookupEnv(*envPrefix + "FETCH_RETRY_DELAY"); ok {
			if *fetchRetryDelay, err = time.ParseDuration(val); err != nil {
				logger.Fatal("Couldn't convert environment variable from string to time.Duration", zap.Error(err), zap.String("envVar", "FETCH_RETRY_DELAY"))
			}
		}
	}
	result.FetchRetryDelay = *fetchRetryDelay

	if !isArgSet("redisAddr") {
		if val, ok := os.LookupEnv(*envPrefix + "REDIS_ADDR"); ok {
			*redisAddr = val
		}
	}
	result.RedisAddr = *redisAddr

	if !isArgSet("redisCreds") {
		if val, ok := os.LookupEnv(*envPrefix + "REDIS_CREDS"); ok {
			*redisCreds = val
		}
	}
	result.RedisCreds = *redisCreds

	if !isArgSet("logLevel") {
		if val, ok := os.LookupEnv(*envPrefix + "LOG_LEVEL"); ok {
			*logLevel = val
		}
	}
	result.LogLevel = *logLevel

	if !isArgSet("logEncoding") {
		if val, ok := os.LookupEnv(*envPrefix + "LOG_ENCODING"); ok {
			*logEncoding = val
		}
	}
	result.LogEncoding = *logEncoding

	return result
}

func (c *config) validate(logger *zap.Logger) {
	if c.TMDBkey == "" {
		logger.Fatal("A TMDB API key is required. Set it via the -tmdbKey flag or the TMDB_API_KEY environment variable.")
	}

	c.MoviesPath = filepath.Clean(c.MoviesPath)
	if c.WebPath != "" {
		c.WebPath = filepath.Clean(c.WebPath)
	}

	if c.LogEncoding != "console" && c.LogEncoding != "json" {
		logger.Fatal(`logEncoding must be one of "console" or "json"`, zap.String("logEncoding", c.LogEncoding))
	}
}

// isArgSet returns true if the argument you're looking for is actually set as command line argument.
// Pass without "-" prefix.
func isArgSet(arg string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == arg {
			found = true
		}
	})
	return found
}
