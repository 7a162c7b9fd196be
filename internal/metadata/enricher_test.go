package metadata_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/iptvstrm/internal/catalog"
	"github.com/vmunix/iptvstrm/internal/metadata"
	"github.com/vmunix/iptvstrm/internal/metadata/mocks"
	"github.com/vmunix/iptvstrm/internal/tmdb"
	"github.com/vmunix/iptvstrm/pkg/title"
)

// testLogger returns a discard logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func newEnricher(c metadata.Catalog) *metadata.Enricher {
	return metadata.NewEnricher(c, metadata.WithLogger(testLogger()), metadata.WithConcurrency(4))
}

func TestEnricher_MovieByProviderID(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	cat.EXPECT().GetMovie(gomock.Any(), int64(949)).Return(&tmdb.Movie{
		ID:          949,
		Title:       "Heat",
		ReleaseDate: "1995-12-15",
		Genres:      []tmdb.Genre{{Name: "Crime"}},
		Credits: tmdb.Credits{
			Cast: []tmdb.CastMember{{Name: "Val Kilmer", Order: 2}, {Name: "Al Pacino", Order: 0}},
			Crew: []tmdb.CrewMember{{Name: "Michael Mann", Job: "Director"}, {Name: "Michael Mann", Job: "Screenplay"}},
		},
	}, nil)

	entry := catalog.Entry{CleanTitle: "Heat", Kind: title.KindMovie}
	md, ok := newEnricher(cat).Enrich(context.Background(), entry, "949").Get()

	require.True(t, ok)
	assert.Equal(t, "949", md.ID)
	assert.Equal(t, "Heat", md.Title)
	assert.Equal(t, "1995", md.Year)
	assert.Equal(t, []string{"Crime"}, md.Genres)
	assert.Equal(t, []string{"Michael Mann"}, md.Directors)
	require.Len(t, md.Cast, 2)
	assert.Equal(t, "Al Pacino", md.Cast[0].Name)
}

func TestEnricher_MovieSearchWithYearThenExact(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	cat.EXPECT().SearchMovie(gomock.Any(), "The Matrix", "1999").Return([]tmdb.MovieResult{
		{ID: 1, Title: "The Matrix Revisited", ReleaseDate: "2001-01-01"},
		{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30"},
	}, nil)
	cat.EXPECT().GetMovie(gomock.Any(), int64(603)).Return(&tmdb.Movie{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30"}, nil)

	entry := catalog.Entry{CleanTitle: "The Matrix", Year: "1999", Kind: title.KindMovie}
	md, ok := newEnricher(cat).Enrich(context.Background(), entry, "").Get()

	require.True(t, ok)
	assert.Equal(t, "603", md.ID)
}

func TestEnricher_RetriesWithoutYear(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	gomock.InOrder(
		cat.EXPECT().SearchMovie(gomock.Any(), "Heat", "1996").Return(nil, nil),
		cat.EXPECT().SearchMovie(gomock.Any(), "Heat", "").Return([]tmdb.MovieResult{{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15"}}, nil),
	)
	cat.EXPECT().GetMovie(gomock.Any(), int64(949)).Return(&tmdb.Movie{ID: 949, Title: "Heat"}, nil)

	entry := catalog.Entry{CleanTitle: "Heat", Year: "1996", Kind: title.KindMovie}
	md, ok := newEnricher(cat).Enrich(context.Background(), entry, "").Get()

	require.True(t, ok)
	assert.Equal(t, "949", md.ID)
}

func TestEnricher_BareYearTitleSearchesWithoutYear(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	cat.EXPECT().SearchMovie(gomock.Any(), "1917", "").Return([]tmdb.MovieResult{{ID: 530915, Title: "1917"}}, nil)
	cat.EXPECT().GetMovie(gomock.Any(), int64(530915)).Return(&tmdb.Movie{ID: 530915, Title: "1917", ReleaseDate: "2019-12-25"}, nil)

	entry := catalog.Entry{CleanTitle: "1917", Year: "2019", Kind: title.KindMovie}
	md, ok := newEnricher(cat).Enrich(context.Background(), entry, "").Get()

	require.True(t, ok)
	assert.Equal(t, "2019", md.Year)
}

func TestEnricher_FuzzyMatch(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		candidates []tmdb.MovieResult
		wantID     int64
		wantFound  bool
	}{
		{
			name:       "accepted above threshold",
			query:      "Amelie",
			candidates: []tmdb.MovieResult{{ID: 194, Title: "Amélie"}},
			wantID:     194,
			wantFound:  true,
		},
		{
			name:       "rejected below threshold",
			query:      "Completely Different",
			candidates: []tmdb.MovieResult{{ID: 1, Title: "Breaking Bad"}},
			wantFound:  false,
		},
		{
			name:       "no results",
			query:      "Nothing Here",
			candidates: nil,
			wantFound:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cat := mocks.NewMockCatalog(ctrl)
			cat.EXPECT().SearchMovie(gomock.Any(), tt.query, "").Return(tt.candidates, nil)
			if tt.wantFound {
				cat.EXPECT().GetMovie(gomock.Any(), tt.wantID).Return(&tmdb.Movie{ID: tt.wantID, Title: tt.candidates[0].Title}, nil)
			}

			entry := catalog.Entry{CleanTitle: tt.query, Kind: title.KindMovie}
			got := newEnricher(cat).Enrich(context.Background(), entry, "")

			assert.Equal(t, tt.wantFound, got.IsPresent())
		})
	}
}

func TestEnricher_ShowWithEpisode(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	cat.EXPECT().SearchTV(gomock.Any(), "Breaking Bad", "").Return([]tmdb.TVResult{{ID: 1396, Name: "Breaking Bad", FirstAirDate: "2008-01-20"}}, nil)
	cat.EXPECT().GetTV(gomock.Any(), int64(1396)).Return(&tmdb.TV{
		ID:             1396,
		Name:           "Breaking Bad",
		FirstAirDate:   "2008-01-20",
		ContentRatings: tmdb.ContentRatingsWrapper{Results: []tmdb.ContentRating{{Country: "US", Rating: "TV-MA"}}},
	}, nil)
	cat.EXPECT().GetEpisode(gomock.Any(), int64(1396), 1, 2).Return(&tmdb.Episode{
		ID: 62086, Name: "Cat's in the Bag...", SeasonNumber: 1, EpisodeNumber: 2,
	}, nil)

	entry := catalog.Entry{CleanTitle: "Breaking Bad", Kind: title.KindTV, Season: intPtr(1), Episode: intPtr(2)}
	md, ok := newEnricher(cat).Enrich(context.Background(), entry, "").Get()

	require.True(t, ok)
	assert.Equal(t, "Breaking Bad", md.Title)
	assert.Equal(t, "2008", md.Year)
	assert.Equal(t, "TV-MA", md.Certification)
	require.NotNil(t, md.Episode)
	assert.Equal(t, "Cat's in the Bag...", md.Episode.Title)
}

func TestEnricher_EpisodeFailureKeepsShow(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	cat.EXPECT().GetTV(gomock.Any(), int64(7)).Return(&tmdb.TV{ID: 7, Name: "Show"}, nil)
	cat.EXPECT().GetEpisode(gomock.Any(), int64(7), 3, 4).Return(nil, tmdb.ErrNotFound)

	entry := catalog.Entry{CleanTitle: "Show", Kind: title.KindTV, Season: intPtr(3), Episode: intPtr(4)}
	md, ok := newEnricher(cat).Enrich(context.Background(), entry, "7").Get()

	require.True(t, ok)
	assert.Nil(t, md.Episode)
}

func TestEnricher_StaleProviderIDFallsBackToSearch(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	cat.EXPECT().GetMovie(gomock.Any(), int64(1)).Return(nil, tmdb.ErrNotFound)
	cat.EXPECT().SearchMovie(gomock.Any(), "Heat", "").Return([]tmdb.MovieResult{{ID: 949, Title: "Heat"}}, nil)
	cat.EXPECT().GetMovie(gomock.Any(), int64(949)).Return(&tmdb.Movie{ID: 949, Title: "Heat"}, nil)

	entry := catalog.Entry{CleanTitle: "Heat", Kind: title.KindMovie}
	md, ok := newEnricher(cat).Enrich(context.Background(), entry, "1").Get()

	require.True(t, ok)
	assert.Equal(t, "949", md.ID)
}

func TestEnricher_FailuresYieldNone(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	cat.EXPECT().SearchMovie(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("502 Bad Gateway"))
	cat.EXPECT().GetTV(gomock.Any(), int64(5)).Return(nil, errors.New("context deadline exceeded"))

	e := newEnricher(cat)
	ctx := context.Background()

	assert.True(t, e.Enrich(ctx, catalog.Entry{CleanTitle: "Heat", Kind: title.KindMovie}, "").IsAbsent())
	assert.True(t, e.Enrich(ctx, catalog.Entry{CleanTitle: "Show", Kind: title.KindTV}, "5").IsAbsent())
}

func TestEnricher_SportIsNeverEnriched(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)

	entry := catalog.Entry{CleanTitle: "Arsenal vs Chelsea", Kind: title.KindSport}
	assert.True(t, newEnricher(cat).Enrich(context.Background(), entry, "").IsAbsent())
}

func TestEnricher_CancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	cat.EXPECT().SearchMovie(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, context.Canceled).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entry := catalog.Entry{CleanTitle: "Heat", Kind: title.KindMovie}
	assert.True(t, newEnricher(cat).Enrich(ctx, entry, "").IsAbsent())
}
