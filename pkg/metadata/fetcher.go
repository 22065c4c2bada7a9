package metadata

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/doingodswork/moodflix/pkg/tmdb"
)

// NoOverview is the overview of a metadata object for which the upstream
// lookup succeeded, but returned no matches (or a match without overview text).
const NoOverview = "No overview available"

// connectionFailed is the overview of a metadata object for which all
// upstream lookup attempts failed on the network level.
const connectionFailed = "Connection failed after multiple attempts"

// Metadata is the enrichment data for a single movie title.
// It's created once per distinct title and never changes afterwards.
type Metadata struct {
	Poster      string   `json:"poster"`
	Rating      *float64 `json:"rating"`
	ReleaseYear string   `json:"release_year"`
	Overview    string   `json:"overview"`
	Trailer     string   `json:"trailer"`
}

// Searcher is the interface the fetcher requires from the external catalog client.
type Searcher interface {
	SearchMovie(ctx context.Context, title string) (tmdb.SearchResult, bool, error)
	MovieTrailer(ctx context.Context, id int64) (string, error)
}

type FetcherOptions struct {
	// MaxAttempts is the total number of upstream search attempts for network-level failures.
	MaxAttempts int
	// RetryDelay is the fixed delay between those attempts.
	RetryDelay time.Duration
}

func NewFetcherOpts(maxAttempts int, retryDelay time.Duration) FetcherOptions {
	return FetcherOptions{
		MaxAttempts: maxAttempts,
		RetryDelay:  retryDelay,
	}
}

var DefaultFetcherOpts = FetcherOptions{
	MaxAttempts: 5,
	RetryDelay:  3 * time.Second,
}

// Fetcher memoizes enrichment data per movie title.
type Fetcher struct {
	client      Searcher
	cache       Cache
	maxAttempts int
	retryDelay  time.Duration
	// sleep is replaced in tests so retries don't wait on the wall clock
	sleep  func(time.Duration)
	logger *zap.Logger
}

func NewFetcher(opts FetcherOptions, client Searcher, cache Cache, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:      client,
		cache:       cache,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		sleep:       time.Sleep,
		logger:      logger,
	}
}

// GetMetadata returns the enrichment data for the given movie title.
// It never fails: on unrecoverable upstream failure the returned metadata has
// all enrichment fields empty and an overview describing the failure.
// Results are cached for the process lifetime, so repeated calls for the same
// title cause no further upstream requests. That includes failure results -
// a title that's known to error or to have no match isn't looked up again.
//
// The cache is not locked during the upstream requests, so two concurrent
// first accesses for the same title can both fetch. They compute the same
// value, and the last write wins, so the cache still holds at most one entry
// per title.
func (f *Fetcher) GetMetadata(ctx context.Context, title string) Metadata {
	key := normalizeTitle(title)
	zapFieldTitle := zap.String("title", key)

	if meta, found, err := f.cache.Get(key); err != nil {
		f.logger.Error("Couldn't get metadata cache item", zap.Error(err), zapFieldTitle)
	} else if found {
		f.logger.Debug("Hit metadata cache", zapFieldTitle)
		return meta
	}

	meta := f.fetch(ctx, key)
	if err := f.cache.Set(key, meta); err != nil {
		f.logger.Error("Couldn't cache metadata", zap.Error(err), zapFieldTitle)
	}
	return meta
}

func (f *Fetcher) fetch(ctx context.Context, title string) Metadata {
	zapFieldTitle := zap.String("title", title)

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			f.sleep(f.retryDelay)
		}

		result, found, err := f.client.SearchMovie(ctx, title)
		if err != nil {
			var statusErr tmdb.StatusError
			if errors.As(err, &statusErr) {
				// A valid but non-OK response is terminal - retrying won't change it
				f.logger.Warn("TMDB API error", zap.Int("status", statusErr.Code), zapFieldTitle)
				return Metadata{Overview: "API error: Status " + strconv.Itoa(statusErr.Code)}
			}
			f.logger.Warn("TMDB search attempt failed", zap.Int("attempt", attempt), zap.Error(err), zapFieldTitle)
			if ctx.Err() != nil {
				// The caller's deadline expired, further attempts can't succeed
				break
			}
			continue
		}
		if !found {
			// An empty result list is terminal as well
			return Metadata{Overview: NoOverview}
		}

		meta := Metadata{
			Poster:      result.PosterURL,
			Rating:      result.Rating,
			ReleaseYear: releaseYear(result.ReleaseDate),
			Overview:    result.Overview,
		}
		if meta.Overview == "" {
			meta.Overview = NoOverview
		}
		trailer, err := f.client.MovieTrailer(ctx, result.ID)
		if err != nil {
			// A missing trailer doesn't degrade the rest of the metadata
			f.logger.Warn("Couldn't fetch trailer", zap.Error(err), zapFieldTitle)
		} else {
			meta.Trailer = trailer
		}
		return meta
	}

	f.logger.Warn("All TMDB search attempts failed", zap.Int("attempts", f.maxAttempts), zapFieldTitle)
	return Metadata{Overview: connectionFailed}
}

// normalizeTitle strips a parenthetical year suffix,
// turning for example "Heat (1995)" into "Heat".
func normalizeTitle(title string) string {
	if i := strings.Index(title, " ("); i != -1 {
		return title[:i]
	}
	return title
}

// releaseYear returns the leading year segment of an ISO release date,
// for example "1995" for "1995-10-30".
func releaseYear(releaseDate string) string {
	if releaseDate == "" {
		return ""
	}
	return strings.SplitN(releaseDate, "-", 2)[0]
}
