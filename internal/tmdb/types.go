// Package tmdb provides a client for The Movie Database API.
package tmdb

import "strconv"

const imageBaseURL = "https://image.tmdb.org/t/p/"

// MovieResult is one hit from /3/search/movie.
type MovieResult struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	Popularity    float64 `json:"popularity"`
}

// Year extracts the year from ReleaseDate.
func (r MovieResult) Year() string { return yearOf(r.ReleaseDate) }

// TVResult is one hit from /3/search/tv.
type TVResult struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	OriginalName string  `json:"original_name"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
}

// Year extracts the year from FirstAirDate.
func (r TVResult) Year() string { return yearOf(r.FirstAirDate) }

type searchResponse[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalResults int `json:"total_results"`
}

// Movie represents TMDB movie metadata with appended credits, ids, release dates and images.
type Movie struct {
	ID                  int64               `json:"id"`
	IMDBID              string              `json:"imdb_id,omitempty"` // e.g., "tt0133093"
	Title               string              `json:"title"`
	OriginalTitle       string              `json:"original_title"`
	Tagline             string              `json:"tagline"`
	Overview            string              `json:"overview"`
	ReleaseDate         string              `json:"release_date"` // "2024-03-01"
	PosterPath          string              `json:"poster_path"`  // "/abc123.jpg"
	BackdropPath        string              `json:"backdrop_path"`
	VoteAverage         float64             `json:"vote_average"`
	VoteCount           int                 `json:"vote_count"`
	Runtime             int                 `json:"runtime"` // minutes
	Genres              []Genre             `json:"genres"`
	ProductionCompanies []Company           `json:"production_companies"`
	Credits             Credits             `json:"credits"`
	ExternalIDs         ExternalIDs         `json:"external_ids"`
	ReleaseDates        ReleaseDatesWrapper `json:"release_dates"`
	Images              Images              `json:"images"`
}

// Genre represents a movie or show genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Company is a production company or network.
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Credits holds cast and crew.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// CastMember is one credited actor.
type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	Order       int    `json:"order"`
	ProfilePath string `json:"profile_path"`
}

// CrewMember is one credited crew member.
type CrewMember struct {
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// ExternalIDs links a record to other catalogs.
type ExternalIDs struct {
	IMDBID string `json:"imdb_id"`
	TVDBID int64  `json:"tvdb_id"`
}

// ReleaseDatesWrapper is the appended release_dates block.
type ReleaseDatesWrapper struct {
	Results []CountryReleases `json:"results"`
}

// CountryReleases lists release dates for one country.
type CountryReleases struct {
	Country  string    `json:"iso_3166_1"`
	Releases []Release `json:"release_dates"`
}

// Release is one dated release with its certification.
type Release struct {
	Certification string `json:"certification"`
	ReleaseDate   string `json:"release_date"`
	Type          int    `json:"type"`
}

// Images lists artwork attached to a record.
type Images struct {
	Posters   []Image `json:"posters"`
	Backdrops []Image `json:"backdrops"`
}

// Image is one artwork file.
type Image struct {
	FilePath    string  `json:"file_path"`
	VoteAverage float64 `json:"vote_average"`
}

// Year extracts the year from ReleaseDate.
func (m *Movie) Year() int {
	year, _ := strconv.Atoi(yearOf(m.ReleaseDate))
	return year
}

// PosterURL returns the full poster image URL.
// Size can be: w92, w154, w185, w342, w500, w780, original
func (m *Movie) PosterURL(size string) string {
	return imageURL(size, m.PosterPath)
}

// BackdropURL returns the full backdrop image URL.
func (m *Movie) BackdropURL(size string) string {
	return imageURL(size, m.BackdropPath)
}

// Certification returns the first non-empty certification for country.
func (m *Movie) Certification(country string) string {
	for _, c := range m.ReleaseDates.Results {
		if c.Country != country {
			continue
		}
		for _, r := range c.Releases {
			if r.Certification != "" {
				return r.Certification
			}
		}
	}
	return ""
}

// TV represents TMDB show metadata with appended credits, ids, ratings and images.
type TV struct {
	ID             int64                 `json:"id"`
	Name           string                `json:"name"`
	OriginalName   string                `json:"original_name"`
	Tagline        string                `json:"tagline"`
	Overview       string                `json:"overview"`
	FirstAirDate   string                `json:"first_air_date"`
	PosterPath     string                `json:"poster_path"`
	BackdropPath   string                `json:"backdrop_path"`
	VoteAverage    float64               `json:"vote_average"`
	VoteCount      int                   `json:"vote_count"`
	EpisodeRunTime []int                 `json:"episode_run_time"`
	Genres         []Genre               `json:"genres"`
	Networks       []Company             `json:"networks"`
	CreatedBy      []CrewMember          `json:"created_by"`
	Credits        Credits               `json:"credits"`
	ExternalIDs    ExternalIDs           `json:"external_ids"`
	ContentRatings ContentRatingsWrapper `json:"content_ratings"`
	Images         Images                `json:"images"`
}

// ContentRatingsWrapper is the appended content_ratings block.
type ContentRatingsWrapper struct {
	Results []ContentRating `json:"results"`
}

// ContentRating is a show rating for one country.
type ContentRating struct {
	Country string `json:"iso_3166_1"`
	Rating  string `json:"rating"`
}

// Year extracts the year from FirstAirDate.
func (s *TV) Year() int {
	year, _ := strconv.Atoi(yearOf(s.FirstAirDate))
	return year
}

// PosterURL returns the full poster image URL.
func (s *TV) PosterURL(size string) string {
	return imageURL(size, s.PosterPath)
}

// BackdropURL returns the full backdrop image URL.
func (s *TV) BackdropURL(size string) string {
	return imageURL(size, s.BackdropPath)
}

// Certification returns the content rating for country.
func (s *TV) Certification(country string) string {
	for _, r := range s.ContentRatings.Results {
		if r.Country == country {
			return r.Rating
		}
	}
	return ""
}

// Episode represents TMDB episode metadata.
type Episode struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Overview      string       `json:"overview"`
	AirDate       string       `json:"air_date"`
	SeasonNumber  int          `json:"season_number"`
	EpisodeNumber int          `json:"episode_number"`
	Runtime       int          `json:"runtime"`
	StillPath     string       `json:"still_path"`
	VoteAverage   float64      `json:"vote_average"`
	VoteCount     int          `json:"vote_count"`
	Crew          []CrewMember `json:"crew"`
	GuestStars    []CastMember `json:"guest_stars"`
	ExternalIDs   ExternalIDs  `json:"external_ids"`
}

// StillURL returns the full still image URL.
func (e *Episode) StillURL(size string) string {
	return imageURL(size, e.StillPath)
}

func imageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return imageBaseURL + size + path
}

func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return ""
	}
	return date[:4]
}
