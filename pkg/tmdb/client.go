package tmdb

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type ClientOptions struct {
	BaseURL      string
	ImageBaseURL string
	Timeout      time.Duration
}

func NewClientOpts(baseURL, imageBaseURL string, timeout time.Duration) ClientOptions {
	return ClientOptions{
		BaseURL:      baseURL,
		ImageBaseURL: imageBaseURL,
		Timeout:      timeout,
	}
}

var DefaultClientOpts = ClientOptions{
	BaseURL:      "https://api.themoviedb.org/3",
	ImageBaseURL: "https://image.tmdb.org/t/p/w500",
	Timeout:      15 * time.Second,
}

// StatusError is returned when TMDB responds, but with a non-OK HTTP status.
// Callers use it to tell terminal API errors apart from transient network failures.
type StatusError struct {
	Code int
}

func (e StatusError) Error() string {
	return "Bad GET response: " + strconv.Itoa(e.Code)
}

// SearchResult is the first match for a movie search, reduced to the fields we consume.
type SearchResult struct {
	ID          int64
	PosterURL   string
	Rating      *float64
	ReleaseDate string
	Overview    string
}

type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	httpClient   *http.Client
	logger       *zap.Logger
}

func NewClient(opts ClientOptions, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:      opts.BaseURL,
		imageBaseURL: opts.ImageBaseURL,
		apiKey:       apiKey,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger,
	}
}

// SearchMovie looks up a movie by title and returns the first match.
// The second return value is false if TMDB returned a valid but empty result list.
// A non-OK response leads to a StatusError, any other error is a network-level failure.
func (c *Client) SearchMovie(ctx context.Context, title string) (SearchResult, bool, error) {
	reqURL := c.baseURL + "/search/movie?api_key=" + c.apiKey + "&query=" + url.QueryEscape(title)
	resBody, err := c.get(ctx, reqURL)
	if err != nil {
		return SearchResult{}, false, err
	}

	results := gjson.GetBytes(resBody, "results").Array()
	if len(results) == 0 {
		c.logger.Debug("No TMDB search results", zap.String("title", title))
		return SearchResult{}, false, nil
	}

	match := results[0]
	result := SearchResult{
		ID:          match.Get("id").Int(),
		ReleaseDate: match.Get("release_date").String(),
		Overview:    match.Get("overview").String(),
	}
	if posterPath := match.Get("poster_path").String(); posterPath != "" {
		result.PosterURL = c.imageBaseURL + posterPath
	}
	if rating := match.Get("vote_average"); rating.Exists() {
		ratingVal := rating.Float()
		result.Rating = &ratingVal
	}

	return result, true, nil
}

// MovieTrailer returns the YouTube watch URL of the first video of type "Trailer"
// hosted on YouTube for the given TMDB movie ID, or an empty string if there is none.
func (c *Client) MovieTrailer(ctx context.Context, id int64) (string, error) {
	reqURL := c.baseURL + "/movie/" + strconv.FormatInt(id, 10) + "/videos?api_key=" + c.apiKey
	resBody, err := c.get(ctx, reqURL)
	if err != nil {
		return "", err
	}

	for _, video := range gjson.GetBytes(resBody, "results").Array() {
		if video.Get("type").String() == "Trailer" && video.Get("site").String() == "YouTube" {
			return "https://www.youtube.com/watch?v=" + video.Get("key").String(), nil
		}
	}
	return "", nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("Couldn't create request: %v", err)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Couldn't GET %v: %w", reqURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, StatusError{Code: res.StatusCode}
	}
	resBody, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("Couldn't read response body: %v", err)
	}
	return resBody, nil
}
