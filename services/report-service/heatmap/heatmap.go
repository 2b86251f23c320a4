// Package heatmap buckets located reports into S2 cells.
package heatmap

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

const (
	MinLevel     = 2
	MaxLevel     = 18
	DefaultLevel = 13
)

type Point struct {
	Lat    float64
	Lng    float64
	Weight int
}

// Cell is one heatmap bucket. Lat/Lng is the centroid of the points in it,
// not the cell center.
type Cell struct {
	Token  string  `json:"cell"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Count  int     `json:"count"`
	Weight int     `json:"weight"`
}

type bucket struct {
	sum    r3.Vector
	count  int
	weight int
}

type Aggregator struct {
	level   int
	buckets map[s2.CellID]*bucket
}

// ClampLevel maps any requested level into [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	switch {
	case level < MinLevel:
		return MinLevel
	case level > MaxLevel:
		return MaxLevel
	}
	return level
}

func NewAggregator(level int) *Aggregator {
	return &Aggregator{
		level:   ClampLevel(level),
		buckets: make(map[s2.CellID]*bucket),
	}
}

func (a *Aggregator) Level() int { return a.level }

func (a *Aggregator) Add(p Point) {
	ll := s2.LatLngFromDegrees(p.Lat, p.Lng)
	cell := s2.CellIDFromLatLng(ll).Parent(a.level)

	b, ok := a.buckets[cell]
	if !ok {
		b = &bucket{}
		a.buckets[cell] = b
	}
	b.sum = b.sum.Add(s2.PointFromLatLng(ll).Vector)
	b.count++
	b.weight += p.Weight
}

// Cells returns the buckets ordered by weight, heaviest first, with the
// cell token as tie-breaker.
func (a *Aggregator) Cells() []Cell {
	out := make([]Cell, 0, len(a.buckets))
	for id, b := range a.buckets {
		center := s2.LatLngFromPoint(s2.Point{Vector: b.sum.Normalize()})
		out = append(out, Cell{
			Token:  id.ToToken(),
			Lat:    center.Lat.Degrees(),
			Lng:    center.Lng.Degrees(),
			Count:  b.count,
			Weight: b.weight,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Token < out[j].Token
	})
	return out
}

func Aggregate(level int, points []Point) []Cell {
	a := NewAggregator(level)
	for _, p := range points {
		a.Add(p)
	}
	return a.Cells()
}
