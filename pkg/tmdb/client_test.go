package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const searchResponse = `{
	"page": 1,
	"results": [
		{
			"id": 862,
			"title": "Toy Story",
			"poster_path": "/uXDfjJbdP4ijW5hWSBrPrlKpxab.jpg",
			"vote_average": 7.97,
			"release_date": "1995-10-30",
			"overview": "Led by Woody, Andy's toys live happily in his room."
		},
		{
			"id": 863,
			"title": "Toy Story 2",
			"poster_path": "/2MFIhZAW0CVlEQrFyqwa4U6zqJP.jpg",
			"vote_average": 7.59,
			"release_date": "1999-10-30",
			"overview": "Andy heads off to Cowboy Camp."
		}
	],
	"total_results": 2
}`

const videosResponse = `{
	"id": 862,
	"results": [
		{"key": "abc", "site": "YouTube", "type": "Featurette"},
		{"key": "def", "site": "Vimeo", "type": "Trailer"},
		{"key": "v-ghi", "site": "YouTube", "type": "Trailer"}
	]
}`

func TestSearchMovie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/movie", r.URL.Path)
		require.Equal(t, "Toy Story", r.URL.Query().Get("query"))
		require.Equal(t, "some-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(searchResponse))
	}))
	defer srv.Close()

	client := NewClient(NewClientOpts(srv.URL, "https://image.tmdb.org/t/p/w500", time.Second), "some-key", zap.NewNop())
	result, found, err := client.SearchMovie(context.Background(), "Toy Story")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(862), result.ID)
	require.Equal(t, "https://image.tmdb.org/t/p/w500/uXDfjJbdP4ijW5hWSBrPrlKpxab.jpg", result.PosterURL)
	require.NotNil(t, result.Rating)
	require.Equal(t, 7.97, *result.Rating)
	require.Equal(t, "1995-10-30", result.ReleaseDate)
	require.Equal(t, "Led by Woody, Andy's toys live happily in his room.", result.Overview)
}

func TestSearchMovieNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":1,"results":[],"total_results":0}`))
	}))
	defer srv.Close()

	client := NewClient(NewClientOpts(srv.URL, DefaultClientOpts.ImageBaseURL, time.Second), "some-key", zap.NewNop())
	_, found, err := client.SearchMovie(context.Background(), "Ghost Movie")
	require.NoError(t, err)
	require.False(t, found)
}

func TestSearchMovieBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(NewClientOpts(srv.URL, DefaultClientOpts.ImageBaseURL, time.Second), "some-key", zap.NewNop())
	_, _, err := client.SearchMovie(context.Background(), "Ghost Movie")
	require.Error(t, err)
	var statusErr StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestMovieTrailer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/movie/862/videos", r.URL.Path)
		w.Write([]byte(videosResponse))
	}))
	defer srv.Close()

	client := NewClient(NewClientOpts(srv.URL, DefaultClientOpts.ImageBaseURL, time.Second), "some-key", zap.NewNop())
	trailer, err := client.MovieTrailer(context.Background(), 862)
	require.NoError(t, err)
	// The first YouTube-hosted trailer wins, other sites and video types are skipped
	require.Equal(t, "https://www.youtube.com/watch?v=v-ghi", trailer)
}

func TestMovieTrailerNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":862,"results":[]}`))
	}))
	defer srv.Close()

	client := NewClient(NewClientOpts(srv.URL, DefaultClientOpts.ImageBaseURL, time.Second), "some-key", zap.NewNop())
	trailer, err := client.MovieTrailer(context.Background(), 862)
	require.NoError(t, err)
	require.Empty(t, trailer)
}
