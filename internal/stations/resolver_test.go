package stations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowlineapp/snowline/internal/models"
	"github.com/snowlineapp/snowline/internal/upstream"
)

type stubFinder struct {
	filtered   []models.Station
	unfiltered []models.Station
	err        error
	calls      [][]string
}

func (s *stubFinder) NearestSources(_ context.Context, _ models.Coordinate, _ int, elements []string) ([]models.Station, error) {
	s.calls = append(s.calls, elements)
	if s.err != nil {
		return nil, s.err
	}
	if len(elements) > 0 {
		return s.filtered, nil
	}
	return s.unfiltered, nil
}

var coord = models.Coordinate{Lat: 61.1, Lon: 8.5}

func TestNearestStations_FilteredResultPreferred(t *testing.T) {
	finder := &stubFinder{filtered: []models.Station{{ID: "SN1"}, {ID: "SN2"}}}
	r := NewResolver(finder)

	got, err := r.NearestStations(context.Background(), coord, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SN1", got[0].ID)
	require.Len(t, finder.calls, 1)
	assert.Equal(t, upstream.SnowElements, finder.calls[0])
}

func TestNearestStations_FallbackWithoutElementFilter(t *testing.T) {
	finder := &stubFinder{unfiltered: []models.Station{{ID: "SN9"}}}
	r := NewResolver(finder)

	got, err := r.NearestStations(context.Background(), coord, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SN9", got[0].ID)

	require.Len(t, finder.calls, 2, "empty filtered result must trigger one unfiltered retry")
	assert.Empty(t, finder.calls[1])
}

func TestNearestStations_BothEmptyIsNotAnError(t *testing.T) {
	finder := &stubFinder{}
	r := NewResolver(finder)

	got, err := r.NearestStations(context.Background(), coord, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNearestStations_NotConfiguredPropagates(t *testing.T) {
	finder := &stubFinder{err: upstream.ErrNotConfigured}
	r := NewResolver(finder)

	_, err := r.NearestStations(context.Background(), coord, 10)
	require.ErrorIs(t, err, upstream.ErrNotConfigured)
	assert.Len(t, finder.calls, 1, "no fallback when the gateway is not configured")
}

func TestSelectedStation(t *testing.T) {
	assert.Nil(t, SelectedStation(nil))
	assert.Nil(t, SelectedStation([]models.Station{}))

	list := []models.Station{{ID: "near"}, {ID: "far"}}
	sel := SelectedStation(list)
	require.NotNil(t, sel)
	assert.Equal(t, "near", sel.ID)
}
