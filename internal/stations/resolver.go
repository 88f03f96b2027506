package stations

import (
	"context"

	"github.com/snowlineapp/snowline/internal/models"
	"github.com/snowlineapp/snowline/internal/upstream"
)

// SourceFinder is the slice of the historical gateway the resolver needs.
type SourceFinder interface {
	NearestSources(ctx context.Context, coord models.Coordinate, maxCount int, elements []string) ([]models.Station, error)
}

// Resolver finds the observation stations nearest a coordinate.
type Resolver struct {
	finder SourceFinder
}

func NewResolver(finder SourceFinder) *Resolver {
	return &Resolver{finder: finder}
}

// NearestStations returns up to maxResults stations ordered by distance. The
// first query is filtered to stations exposing precipitation accumulation
// and snow thickness; if it comes back empty the query is retried once with
// no element filter, since stations lacking those elements are still better
// than nothing. Two empty answers yield an empty slice, not an error.
// upstream.ErrNotConfigured passes through untouched so callers can tell a
// configuration gap from a genuinely empty result.
func (r *Resolver) NearestStations(ctx context.Context, coord models.Coordinate, maxResults int) ([]models.Station, error) {
	found, err := r.finder.NearestSources(ctx, coord, maxResults, upstream.SnowElements)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return found, nil
	}

	found, err = r.finder.NearestSources(ctx, coord, maxResults, nil)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// SelectedStation returns the station historical lookups should use: the
// first (nearest) entry, or nil when the list is empty.
func SelectedStation(list []models.Station) *models.Station {
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}
