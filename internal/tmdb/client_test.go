package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestClient_GetMovie(t *testing.T) {
	// Mock TMDB API
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/550", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		assert.Contains(t, r.URL.Query().Get("append_to_response"), "release_dates")

		resp := Movie{
			ID:          550,
			Title:       "Fight Club",
			Overview:    "An insomniac office worker...",
			ReleaseDate: "1999-10-15",
			PosterPath:  "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
			VoteAverage: 8.4,
			Runtime:     139,
			Genres:      []Genre{{ID: 18, Name: "Drama"}},
			ExternalIDs: ExternalIDs{IMDBID: "tt0137523"},
			ReleaseDates: ReleaseDatesWrapper{Results: []CountryReleases{
				{Country: "US", Releases: []Release{{Certification: ""}, {Certification: "R"}}},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	movie, err := client.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, int64(550), movie.ID)
	assert.Equal(t, "Fight Club", movie.Title)
	assert.Equal(t, 1999, movie.Year())
	assert.Equal(t, 139, movie.Runtime)
	assert.Equal(t, "R", movie.Certification("US"))
	assert.Equal(t, "tt0137523", movie.ExternalIDs.IMDBID)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", movie.PosterURL("w500"))
}

func TestClient_GetMovie_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	movie, err := client.GetMovie(context.Background(), 99999999)
	assert.Nil(t, movie)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))

	_, err := client.SearchMovie(context.Background(), "Heat", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	_, err := client.GetTV(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_GetMovie_Cached(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		resp := Movie{ID: 550, Title: "Fight Club"}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL), WithCacheTTL(time.Hour))

	// First call hits API
	_, err := client.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, 1, callCount)

	// Second call uses cache
	_, err = client.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, 1, callCount, "should use cache, not call API again")
}

func TestClient_SearchMovie(t *testing.T) {
	tests := []struct {
		name     string
		year     string
		wantYear string
	}{
		{"with year", "1995", "1995"},
		{"without year", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/3/search/movie", r.URL.Path)
				assert.Equal(t, "Heat", r.URL.Query().Get("query"))
				assert.Equal(t, tt.wantYear, r.URL.Query().Get("year"))
				_, _ = w.Write([]byte(`{"page":1,"results":[{"id":949,"title":"Heat","release_date":"1995-12-15"}],"total_results":1}`))
			}))
			defer server.Close()

			client := NewClient("test-key", WithBaseURL(server.URL))
			results, err := client.SearchMovie(context.Background(), "Heat", tt.year)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, int64(949), results[0].ID)
			assert.Equal(t, "1995", results[0].Year())
		})
	}
}

func TestClient_SearchTV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/search/tv", r.URL.Path)
		assert.Equal(t, "2008", r.URL.Query().Get("first_air_date_year"))
		_, _ = w.Write([]byte(`{"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL), WithLanguage("de-DE"))
	results, err := client.SearchTV(context.Background(), "Breaking Bad", "2008")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Breaking Bad", results[0].Name)
	assert.Equal(t, "2008", results[0].Year())
}

func TestClient_GetTVAndEpisode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/tv/1396":
			_, _ = w.Write([]byte(`{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20",
				"content_ratings":{"results":[{"iso_3166_1":"US","rating":"TV-MA"}]},
				"external_ids":{"imdb_id":"tt0903747","tvdb_id":81189}}`))
		case "/3/tv/1396/season/1/episode/2":
			_, _ = w.Write([]byte(`{"id":62086,"name":"Cat's in the Bag...","season_number":1,"episode_number":2,"air_date":"2008-01-27"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	show, err := client.GetTV(context.Background(), 1396)
	require.NoError(t, err)
	assert.Equal(t, 2008, show.Year())
	assert.Equal(t, "TV-MA", show.Certification("US"))
	assert.Equal(t, int64(81189), show.ExternalIDs.TVDBID)

	ep, err := client.GetEpisode(context.Background(), 1396, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Cat's in the Bag...", ep.Name)

	_, err = client.GetEpisode(context.Background(), 1396, 9, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_RateLimiterCancelled(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	// One token, refilled once a minute.
	client := NewClient("test-key", WithBaseURL(server.URL), WithRateLimiter(rate.NewLimiter(rate.Every(time.Minute), 1)))

	_, err := client.SearchMovie(context.Background(), "Heat", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.SearchMovie(ctx, "Heat", "")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_RateLimiterSkippedOnCacheHit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Movie{ID: 949, Title: "Heat"})
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL), WithRateLimiter(rate.NewLimiter(rate.Every(time.Minute), 1)))

	_, err := client.GetMovie(context.Background(), 949)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	movie, err := client.GetMovie(ctx, 949)
	require.NoError(t, err)
	assert.Equal(t, "Heat", movie.Title)
}
