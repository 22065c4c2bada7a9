package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/doingodswork/moodflix/pkg/catalog"
	"github.com/doingodswork/moodflix/pkg/feedback"
	"github.com/doingodswork/moodflix/pkg/metadata"
	"github.com/doingodswork/moodflix/pkg/profile"
)

// staticMetadata returns a fixed overview per title and counts lookups.
type staticMetadata struct {
	calls map[string]int
}

func newStaticMetadata() *staticMetadata {
	return &staticMetadata{calls: map[string]int{}}
}

func (m *staticMetadata) GetMetadata(ctx context.Context, title string) metadata.Metadata {
	m.calls[title]++
	return metadata.Metadata{Overview: "Overview of " + title}
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Movie{
		{Title: "Toy Story", Genres: []string{"Animation", "Comedy"}},
		{Title: "Heat", Genres: []string{"Action", "Crime"}},
		{Title: "Grumpier Old Men", Genres: []string{"Comedy", "Romance"}},
		{Title: "Sabrina", Genres: []string{"Comedy", "Romance"}},
		{Title: "The American President", Genres: []string{"Comedy", "Drama", "Romance"}},
	})
}

func newTestEngine(meta MetadataGetter) (*Engine, *feedback.Store, *profile.Store) {
	fb := feedback.NewStore()
	profiles := profile.NewStore()
	return NewEngine(testCatalog(), meta, fb, profiles, zap.NewNop()), fb, profiles
}

func TestRecommend(t *testing.T) {
	meta := newStaticMetadata()
	fb := feedback.NewStore()
	profiles := profile.NewStore()
	twoMovies := catalog.New([]catalog.Movie{
		{Title: "Toy Story", Genres: []string{"Animation", "Comedy"}},
		{Title: "Heat", Genres: []string{"Action", "Crime"}},
	})
	e := NewEngine(twoMovies, meta, fb, profiles, zap.NewNop())

	recs, err := e.Recommend(context.Background(), "Comedy", "happy", "", 0)
	require.NoError(t, err)
	// Only "Toy Story" shares a genre with the happy mood set
	require.Len(t, recs, 1)
	require.Equal(t, "Toy Story", recs[0].Title)
	require.Equal(t, "Overview of Toy Story", recs[0].Overview)
	require.Equal(t, 0.0, recs[0].FeedbackScore)
	require.False(t, recs[0].IsFavorite)

	// The requested genre and mood become part of the default profile
	p := profiles.Get(profile.DefaultUserID)
	require.Equal(t, "happy", p.LastMood)
	require.Equal(t, []string{"Comedy"}, p.PreferredGenres)
}

func TestRecommendRequiresGenre(t *testing.T) {
	e, _, _ := newTestEngine(newStaticMetadata())

	_, err := e.Recommend(context.Background(), "", "happy", "", 0)
	require.Equal(t, ErrGenreRequired, err)
}

func TestRecommendNoMatches(t *testing.T) {
	meta := newStaticMetadata()
	e, _, _ := newTestEngine(meta)

	recs, err := e.Recommend(context.Background(), "Horror", "excited", "", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, NoMatchesTitle, recs[0].Title)
	require.Empty(t, recs[0].Genres)
	require.Empty(t, recs[0].Poster)
	require.Equal(t, metadata.NoOverview, recs[0].Overview)
	// The placeholder is never enriched
	require.Empty(t, meta.calls)
}

func TestRecommendUnrecognizedMood(t *testing.T) {
	e, _, _ := newTestEngine(newStaticMetadata())

	// An unrecognized mood skips the mood narrowing
	recs, err := e.Recommend(context.Background(), "Crime", "grumpy", "", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "Heat", recs[0].Title)
}

func TestRecommendTruncatesBeforeScoring(t *testing.T) {
	meta := newStaticMetadata()
	e, fb, _ := newTestEngine(meta)

	// "The American President" scores highest, but is the 4th Comedy in
	// catalog order, so the limit of 3 cuts it before scoring.
	require.NoError(t, fb.Record("The American President", 5))

	recs, err := e.Recommend(context.Background(), "Comedy", "", "", 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, rec := range recs {
		require.NotEqual(t, "The American President", rec.Title)
	}
	// Enrichment is bounded by the limit
	require.Len(t, meta.calls, 3)
}

func TestRecommendRanking(t *testing.T) {
	e, fb, _ := newTestEngine(newStaticMetadata())

	require.NoError(t, fb.Record("Sabrina", 5))
	require.NoError(t, fb.Record("Toy Story", 3))

	recs, err := e.Recommend(context.Background(), "Comedy", "", "", 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "Sabrina", recs[0].Title)
	require.Equal(t, "Toy Story", recs[1].Title)
	require.Equal(t, "Grumpier Old Men", recs[2].Title)

	// Identical store state means identical output
	recs2, err := e.Recommend(context.Background(), "Comedy", "", "", 3)
	require.NoError(t, err)
	require.Equal(t, recs, recs2)
}

func TestRecommendGenreBoost(t *testing.T) {
	e, fb, profiles := newTestEngine(newStaticMetadata())

	// Equal average feedback for two candidates
	require.NoError(t, fb.Record("Toy Story", 4))
	require.NoError(t, fb.Record("Grumpier Old Men", 4))
	// The user prefers Romance, which only "Grumpier Old Men" has
	profiles.Update("alice", "", []string{"Romance"})

	recs, err := e.Recommend(context.Background(), "Comedy", "", "alice", 3)
	require.NoError(t, err)
	require.Equal(t, "Grumpier Old Men", recs[0].Title)
	require.Equal(t, 6.0, recs[0].FeedbackScore)
	require.Equal(t, "Toy Story", recs[1].Title)
	require.Equal(t, 4.0, recs[1].FeedbackScore)
}

func TestRecommendStableSortOnTies(t *testing.T) {
	e, _, _ := newTestEngine(newStaticMetadata())

	// All scores are 0, so the catalog-filter order must be preserved
	recs, err := e.Recommend(context.Background(), "Comedy", "", "", 3)
	require.NoError(t, err)
	require.Equal(t, "Toy Story", recs[0].Title)
	require.Equal(t, "Grumpier Old Men", recs[1].Title)
	require.Equal(t, "Sabrina", recs[2].Title)
}

func TestFavorites(t *testing.T) {
	meta := newStaticMetadata()
	e, fb, _ := newTestEngine(meta)

	require.NoError(t, fb.ToggleFavorite("Heat", feedback.ActionAdd))
	require.NoError(t, fb.ToggleFavorite("Not In Catalog", feedback.ActionAdd))

	favorites := e.Favorites(context.Background())
	// Titles missing from the catalog are skipped
	require.Len(t, favorites, 1)
	require.Equal(t, "Heat", favorites[0].Title)
	require.Equal(t, []string{"Action", "Crime"}, favorites[0].Genres)
	require.Equal(t, "Overview of Heat", favorites[0].Overview)
	require.True(t, favorites[0].IsFavorite)
}
