package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/liamwears/kinocatalog/internal/metrics"
	"github.com/liamwears/kinocatalog/internal/models"
)

// ErrUpstream wraps every failure talking to TMDB
var ErrUpstream = errors.New("tmdb request failed")

const (
	tmdbCachePrefix = "kinocatalog:tmdb:"
	maxBodySize     = 2 << 20
)

// TMDBService handles interactions with The Movie Database API
type TMDBService struct {
	client       *http.Client
	apiKey       string
	readToken    string
	baseURL      string
	imageBaseURL string
	language     string
	limiter      *rate.Limiter
	cache        *redis.Client
	cacheTTL     time.Duration
}

// TMDBConfig holds TMDB service configuration
type TMDBConfig struct {
	// APIKey is a v3 key sent as the api_key query parameter.
	APIKey string
	// ReadToken is a v4 read access token sent as a bearer token. It wins
	// over APIKey when both are set.
	ReadToken    string
	BaseURL      string
	ImageBaseURL string
	Language     string
	// RateLimit is the outbound request budget per second; 0 disables it.
	RateLimit float64
	Cache     *redis.Client
	CacheTTL  time.Duration
	Client    *http.Client
}

// NewTMDBService creates a new TMDB service
func NewTMDBService(cfg TMDBConfig) *TMDBService {
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)+1)
	}

	language := cfg.Language
	if language == "" {
		language = "en-US"
	}

	return &TMDBService{
		client:       client,
		apiKey:       cfg.APIKey,
		readToken:    cfg.ReadToken,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: cfg.ImageBaseURL,
		language:     language,
		limiter:      limiter,
		cache:        cfg.Cache,
		cacheTTL:     cfg.CacheTTL,
	}
}

type videosResponse struct {
	ID      int            `json:"id"`
	Results []models.Video `json:"results"`
}

// doRequest performs a GET against TMDB, consulting the Redis cache first
// when one is configured.
func (s *TMDBService) doRequest(ctx context.Context, name, endpoint string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("language", s.language)
	params.Set("include_adult", "false")

	cacheKey := tmdbCachePrefix + endpoint + "?" + params.Encode()
	if body, ok := s.cached(ctx, cacheKey); ok {
		return body, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrUpstream, err)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if s.readToken == "" {
		query.Set("api_key", s.apiKey)
	}

	reqURL := fmt.Sprintf("%s%s?%s", s.baseURL, endpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrUpstream, err)
	}

	if s.readToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.readToken))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("%w: failed to execute request: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrUpstream, err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(name, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrUpstream, resp.StatusCode, truncate(string(body), 256))
	}

	s.store(ctx, cacheKey, body)
	return body, nil
}

func (s *TMDBService) cached(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	body, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.Inc()
	return body, true
}

func (s *TMDBService) store(ctx context.Context, key string, body []byte) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	_ = s.cache.Set(ctx, key, body, s.cacheTTL).Err()
}

func (s *TMDBService) getPage(ctx context.Context, name, endpoint string, params url.Values) (*models.MoviePage, error) {
	body, err := s.doRequest(ctx, name, endpoint, params)
	if err != nil {
		return nil, err
	}

	var page models.MoviePage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal %s results: %w", ErrUpstream, name, err)
	}
	if page.Results == nil {
		page.Results = []models.Movie{}
	}

	return &page, nil
}

// Popular gets the popular movies feed
func (s *TMDBService) Popular(ctx context.Context, page int) (*models.MoviePage, error) {
	return s.getPage(ctx, "popular", "/movie/popular", url.Values{
		"page": {pageParam(page)},
	})
}

// Search searches movies by title
func (s *TMDBService) Search(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	return s.getPage(ctx, "search", "/search/movie", url.Values{
		"query": {query},
		"page":  {pageParam(page)},
	})
}

// Discover lists movies matching the non-empty filter fields, most popular first
func (s *TMDBService) Discover(ctx context.Context, filters models.FilterSet, page int) (*models.MoviePage, error) {
	params := url.Values{
		"page":    {pageParam(page)},
		"sort_by": {"popularity.desc"},
	}
	if filters.Genre != "" {
		params.Set("with_genres", filters.Genre)
	}
	if filters.Year != "" {
		params.Set("primary_release_year", filters.Year)
	}
	if filters.Rating != "" {
		params.Set("vote_average.gte", filters.Rating)
	}

	return s.getPage(ctx, "discover", "/discover/movie", params)
}

// Details retrieves a movie by ID
func (s *TMDBService) Details(ctx context.Context, movieID int) (*models.MovieDetail, error) {
	body, err := s.doRequest(ctx, "details", fmt.Sprintf("/movie/%d", movieID), nil)
	if err != nil {
		return nil, err
	}

	var movie models.MovieDetail
	if err := json.Unmarshal(body, &movie); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal movie: %w", ErrUpstream, err)
	}

	return &movie, nil
}

// Videos retrieves trailers and teasers of a movie
func (s *TMDBService) Videos(ctx context.Context, movieID int) ([]models.Video, error) {
	body, err := s.doRequest(ctx, "videos", fmt.Sprintf("/movie/%d/videos", movieID), nil)
	if err != nil {
		return nil, err
	}

	var response videosResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal videos: %w", ErrUpstream, err)
	}

	return response.Results, nil
}

// Similar retrieves the first page of movies similar to movieID
func (s *TMDBService) Similar(ctx context.Context, movieID int) (*models.MoviePage, error) {
	return s.getPage(ctx, "similar", fmt.Sprintf("/movie/%d/similar", movieID), url.Values{
		"page": {"1"},
	})
}

// ImageURL returns the full URL for an image path
func (s *TMDBService) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	return s.imageBaseURL + path
}

func pageParam(page int) string {
	if page < 1 {
		page = 1
	}
	return strconv.Itoa(page)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
