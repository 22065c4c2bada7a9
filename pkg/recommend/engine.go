package recommend

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/doingodswork/moodflix/pkg/catalog"
	"github.com/doingodswork/moodflix/pkg/feedback"
	"github.com/doingodswork/moodflix/pkg/metadata"
	"github.com/doingodswork/moodflix/pkg/profile"
)

// ErrGenreRequired is returned when a recommendation request carries no genre.
// Its message is delivered verbatim to API clients.
var ErrGenreRequired = errors.New("Genre is required")

// DefaultLimit is the number of recommendations returned when the caller doesn't set a limit.
const DefaultLimit = 3

// NoMatchesTitle is the title of the placeholder result for an empty candidate set.
const NoMatchesTitle = "No matches found"

// MoodGenres narrows genre-filtered candidates to those sharing a genre with
// the requested mood. Unknown moods skip the narrowing.
var MoodGenres = map[string][]string{
	"happy":   {"Comedy", "Animation", "Family"},
	"sad":     {"Drama", "Romance"},
	"excited": {"Action", "Adventure", "Sci-Fi"},
	"calm":    {"Drama", "Documentary"},
}

// genreBoost is the feedback score multiplier for movies sharing a genre with
// the user's preferred set.
const genreBoost = 1.5

// Recommendation is a single ranked result. It's composed per request and not stored.
type Recommendation struct {
	Title  string   `json:"title"`
	Genres []string `json:"genres"`
	metadata.Metadata
	FeedbackScore float64 `json:"feedback_score"`
	IsFavorite    bool    `json:"is_favorite"`
}

// MetadataGetter is the interface the engine requires from the metadata cache.
type MetadataGetter interface {
	GetMetadata(ctx context.Context, title string) metadata.Metadata
}

// Engine composes the catalog, metadata cache, feedback store and profile
// store into ranked recommendation lists.
type Engine struct {
	catalog  *catalog.Catalog
	metadata MetadataGetter
	feedback *feedback.Store
	profiles *profile.Store
	logger   *zap.Logger
}

func NewEngine(catalog *catalog.Catalog, metadata MetadataGetter, feedback *feedback.Store, profiles *profile.Store, logger *zap.Logger) *Engine {
	return &Engine{
		catalog:  catalog,
		metadata: metadata,
		feedback: feedback,
		profiles: profiles,
		logger:   logger,
	}
}

// Recommend returns up to limit ranked recommendations for a genre, mood and user.
// A limit < 1 means DefaultLimit.
//
// Candidates are truncated to the limit in catalog order *before* enrichment
// and scoring. That bounds the external-call volume per request, at the cost
// of not necessarily surfacing the globally best-scoring movie among all
// genre/mood matches. Known limitation, kept on purpose.
//
// An empty candidate set yields a single displayable placeholder result, not an error.
// As a side effect, the requested genre and mood are recorded in the user's profile.
func (e *Engine) Recommend(ctx context.Context, genre, mood, userID string, limit int) ([]Recommendation, error) {
	if genre == "" {
		return nil, ErrGenreRequired
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	candidates := e.catalog.FilterByGenre(genre)
	if moodGenres, recognized := MoodGenres[mood]; recognized {
		moodSet := toSet(moodGenres)
		n := 0
		for _, movie := range candidates {
			if intersects(movie.Genres, moodSet) {
				candidates[n] = movie
				n++
			}
		}
		candidates = candidates[:n]
	}

	if len(candidates) == 0 {
		e.logger.Debug("No matching movies", zap.String("genre", genre), zap.String("mood", mood))
		return []Recommendation{{
			Title:    NoMatchesTitle,
			Genres:   []string{},
			Metadata: metadata.Metadata{Overview: metadata.NoOverview},
		}}, nil
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	userGenres := toSet(e.profiles.Get(userID).PreferredGenres)
	recommendations := make([]Recommendation, 0, len(candidates))
	for _, movie := range candidates {
		boost := 1.0
		if intersects(movie.Genres, userGenres) {
			boost = genreBoost
		}
		recommendations = append(recommendations, Recommendation{
			Title:         movie.Title,
			Genres:        movie.Genres,
			Metadata:      e.metadata.GetMetadata(ctx, movie.Title),
			FeedbackScore: e.feedback.Average(movie.Title) * boost,
			IsFavorite:    e.feedback.IsFavorite(movie.Title),
		})
	}

	// Stable, so ties keep their catalog-filter order
	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].FeedbackScore > recommendations[j].FeedbackScore
	})

	e.profiles.RecordImplicit(userID, genre, mood)

	return recommendations, nil
}

// Favorites returns the user-independent favorite set, joined with the catalog
// and enriched with metadata.
func (e *Engine) Favorites(ctx context.Context) []Recommendation {
	favorites := e.feedback.Favorites()
	result := make([]Recommendation, 0, len(favorites))
	for _, title := range favorites {
		movie, found := e.catalog.Get(title)
		if !found {
			// Favorites aren't validated against the catalog when added
			e.logger.Warn("Favorite title not in catalog", zap.String("title", title))
			continue
		}
		result = append(result, Recommendation{
			Title:         movie.Title,
			Genres:        movie.Genres,
			Metadata:      e.metadata.GetMetadata(ctx, movie.Title),
			FeedbackScore: e.feedback.Average(movie.Title),
			IsFavorite:    true,
		})
	}
	return result
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func intersects(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, found := set[v]; found {
			return true
		}
	}
	return false
}
