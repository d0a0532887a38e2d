/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package geomconv

import (
	"errors"
	"math"
	"reflect"
	"testing"

	ctgeom "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"
)

func TestConvertBack(t *testing.T) {
	open := []ctgeom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	tests := []struct {
		name string
		g    ctgeom.Geom
		flat []float64
	}{
		{name: "point", g: ctgeom.Point{X: 1, Y: 2}, flat: []float64{1, 2}},
		{name: "point pointer", g: &ctgeom.Point{X: 1, Y: 2}, flat: []float64{1, 2}},
		{name: "closes ring", g: ctgeom.Polygon{open}, flat: []float64{0, 0, 1, 0, 1, 1, 0, 0}},
		{name: "multipolygon", g: ctgeom.MultiPolygon{{open}, {open}},
			flat: []float64{0, 0, 1, 0, 1, 1, 0, 0, 0, 0, 1, 0, 1, 1, 0, 0}},
		{name: "linestring", g: ctgeom.LineString(open), flat: []float64{0, 0, 1, 0, 1, 1}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			o, err := ConvertBack(test.g)
			if err != nil {
				t.Fatal(err)
			}
			if o.T().Layout() != geom.XY {
				t.Errorf("layout %v", o.T().Layout())
			}
			if have := o.T().FlatCoords(); !reflect.DeepEqual(have, test.flat) {
				t.Errorf("%v != %v", have, test.flat)
			}
		})
	}
	if len(open) != 3 {
		t.Errorf("caller ring modified: %v", open)
	}
}

func TestConvertBackEnds(t *testing.T) {
	square := []ctgeom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 0}}
	o, err := ConvertBack(ctgeom.MultiPolygon{{square, square}, {square}})
	if err != nil {
		t.Fatal(err)
	}
	mp := o.T().(*geom.MultiPolygon)
	want := [][]int{{8, 16}, {24}}
	if !reflect.DeepEqual(mp.Endss(), want) {
		t.Errorf("%v != %v", mp.Endss(), want)
	}
}

func TestConvertBackErrors(t *testing.T) {
	var nilPoint *ctgeom.Point
	tests := []struct {
		name    string
		g       ctgeom.Geom
		kind    Kind
		variant string
		path    []int
	}{
		{name: "bounds", g: &ctgeom.Bounds{}, kind: UnsupportedVariant, variant: "Bounds"},
		{name: "nil", g: nil, kind: UnsupportedVariant, variant: "nil"},
		{name: "nil point", g: nilPoint, kind: UnsupportedVariant, variant: "Point"},
		{name: "nan", g: ctgeom.Point{X: math.NaN(), Y: 0}, kind: InvalidCoordinate, variant: "Point"},
		{name: "short line", g: ctgeom.LineString{{X: 0, Y: 0}}, kind: DegenerateGeometry, variant: "LineString"},
		{name: "flat ring", g: ctgeom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}},
			kind: DegenerateGeometry, variant: "Polygon"},
		{name: "collection member", g: ctgeom.GeometryCollection{
			ctgeom.Point{X: 0, Y: 0},
			ctgeom.MultiPoint{{X: 0, Y: 0}, {X: math.Inf(-1), Y: 0}},
		}, kind: InvalidCoordinate, variant: "Point", path: []int{1, 1}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			o, err := ConvertBack(test.g)
			if o != nil {
				t.Errorf("partial result %v", o.T())
			}
			if !errors.Is(err, test.kind) {
				t.Fatalf("want %v, have %v", test.kind, err)
			}
			e := kindOf(t, err)
			if e.Variant != test.variant {
				t.Errorf("variant %q, want %q", e.Variant, test.variant)
			}
			if !reflect.DeepEqual(e.Path, test.path) {
				t.Errorf("path %v, want %v", e.Path, test.path)
			}
		})
	}
}

func TestFinishSequence(t *testing.T) {
	tests := []struct {
		name string
		pts  []ctgeom.Point
		r    role
		n    int
		err  bool
	}{
		{name: "closed ring", pts: []ctgeom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}, r: roleExterior, n: 4},
		{name: "open ring", pts: []ctgeom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, r: roleInterior, n: 4},
		{name: "repeated ring", pts: []ctgeom.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 0}}, r: roleExterior, err: true},
		{name: "single line", pts: []ctgeom.Point{{X: 0, Y: 0}}, r: roleLineString, err: true},
		{name: "line", pts: []ctgeom.Point{{X: 0, Y: 0}, {X: 0, Y: 0}}, r: roleLineString, n: 2},
		{name: "no points", pts: nil, r: rolePoints, n: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have, err := finishSequence(test.pts, test.r)
			if (err != nil) != test.err {
				t.Fatalf("error %v", err)
			}
			if err == nil && len(have) != test.n {
				t.Errorf("have %d points, want %d", len(have), test.n)
			}
		})
	}
}

func TestBuildSequenceAllocation(t *testing.T) {
	flat := []float64{0, 0, 9, 1, 0, 9, 1, 1, 9}
	pts, err := buildSequence(flat, 0, len(flat), 3, roleExterior)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 4 || cap(pts) != 4 {
		t.Errorf("len %d cap %d, want 4 and 4", len(pts), cap(pts))
	}
	if !pts[0].Equals(pts[3]) {
		t.Errorf("ring not closed: %v", pts)
	}
}
