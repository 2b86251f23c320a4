package heatmap

import (
	"math"
	"testing"

	"github.com/golang/geo/s2"
)

// around returns points offset slightly from the center of the level cell
// containing (lat, lng), so they are guaranteed to share that cell.
func around(level int, lat, lng float64, weights ...int) []Point {
	c := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lng)).Parent(level).LatLng()
	offsets := []float64{0, 0.001, -0.001, 0.002}
	pts := make([]Point, len(weights))
	for i, w := range weights {
		d := offsets[i%len(offsets)]
		pts[i] = Point{Lat: c.Lat.Degrees() + d, Lng: c.Lng.Degrees() + d, Weight: w}
	}
	return pts
}

func TestClampLevel(t *testing.T) {
	for in, want := range map[int]int{-4: 2, 0: 2, 2: 2, 13: 13, 18: 18, 30: 18} {
		if got := ClampLevel(in); got != want {
			t.Errorf("ClampLevel(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAggregate(t *testing.T) {
	testCases := []struct {
		name   string
		level  int
		points []Point

		wantCells  int
		wantWeight int
		wantCount  int
	}{
		{
			name:       "Nearby reports share a cell at a coarse level",
			level:      8,
			points:     around(8, -6.2000, 106.8166, 3, 1, 2),
			wantCells:  1,
			wantWeight: 6,
			wantCount:  3,
		}, {
			name:  "Distant cities stay apart",
			level: 8,
			points: []Point{
				{Lat: -6.2000, Lng: 106.8166, Weight: 3},
				{Lat: 52.5200, Lng: 13.4050, Weight: 1},
			},
			wantCells:  2,
			wantWeight: 3,
			wantCount:  1,
		}, {
			name:      "No points",
			level:     DefaultLevel,
			wantCells: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cells := Aggregate(tc.level, tc.points)
			if len(cells) != tc.wantCells {
				t.Fatalf("got %d cells, want %d: %+v", len(cells), tc.wantCells, cells)
			}
			if cells == nil {
				t.Fatal("want an empty slice, not nil")
			}
			if tc.wantCells == 0 {
				return
			}
			if cells[0].Weight != tc.wantWeight || cells[0].Count != tc.wantCount {
				t.Errorf("heaviest cell = %+v, want weight %d count %d", cells[0], tc.wantWeight, tc.wantCount)
			}
			if cells[0].Token == "" {
				t.Error("cell token not set")
			}
		})
	}
}

func TestCentroidStaysNearPoints(t *testing.T) {
	pts := around(6, 10.01, 20.01, 1, 1, 1)
	cells := Aggregate(6, pts)
	if len(cells) != 1 {
		t.Fatalf("want one cell, got %d", len(cells))
	}
	wantLat := (pts[0].Lat + pts[1].Lat + pts[2].Lat) / 3
	wantLng := (pts[0].Lng + pts[1].Lng + pts[2].Lng) / 3
	if math.Abs(cells[0].Lat-wantLat) > 1e-4 || math.Abs(cells[0].Lng-wantLng) > 1e-4 {
		t.Errorf("centroid = (%v, %v), want about (%v, %v)", cells[0].Lat, cells[0].Lng, wantLat, wantLng)
	}
}

func TestAggregatorClampsLevel(t *testing.T) {
	if NewAggregator(99).Level() != MaxLevel || NewAggregator(1).Level() != MinLevel {
		t.Error("aggregator level not clamped")
	}
}
