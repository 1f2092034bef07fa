package geo

import "sort"

const (
	DefaultRadiusKm = 20.0
	DefaultLimit    = 10
)

// Candidate is anything carrying a raw "lat,lng" position
type Candidate struct {
	ID  string
	GPS string
}

// Hit is a candidate that fell inside the search radius
type Hit struct {
	ID         string     `json:"id"`
	Coordinate Coordinate `json:"coordinate"`
	DistanceKm float64    `json:"distance_km"`
}

// MatchOptions bounds a proximity search. Zero values fall back to the defaults.
type MatchOptions struct {
	RadiusKm float64
	Limit    int
}

func (o MatchOptions) normalized() MatchOptions {
	if o.RadiusKm <= 0 {
		o.RadiusKm = DefaultRadiusKm
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// Match returns the candidates within opts.RadiusKm of ref, nearest first.
// Candidates with unparsable GPS strings are skipped. Equal distances keep
// their input order.
func Match(ref Coordinate, candidates []Candidate, opts MatchOptions) []Hit {
	opts = opts.normalized()
	matches := make([]Hit, 0, len(candidates))

	for _, c := range candidates {
		coord, err := ParseCoordinate(c.GPS)
		if err != nil {
			continue
		}
		d := Haversine(ref, coord)
		if d <= opts.RadiusKm {
			matches = append(matches, Hit{ID: c.ID, Coordinate: coord, DistanceKm: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches
}
