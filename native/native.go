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

// Package native holds the two ownership forms of the native geometry model
// used as conversion input. Geometries are go-geom values, which keep their
// coordinates in one flat buffer plus ring-offset metadata.
//
// An Owned geometry exclusively owns its coordinate storage until Release is
// called. A Borrowed geometry is a read-only view over a buffer owned by
// someone else; the caller must keep that buffer alive and unmodified for
// as long as the view is in use. Conversion routines accept either form
// through the Geometry interface and never retain a reference past return.
package native

import (
	"fmt"
	"reflect"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// Geometry is a read-only view of a native geometry.
type Geometry interface {
	// T returns the underlying geometry. It returns nil once the
	// storage has been released.
	T() geom.T
}

// Owned is a native geometry that exclusively owns its coordinate storage.
type Owned struct {
	g geom.T
}

// Own returns a geometry owning a deep copy of g's coordinates.
func Own(g geom.T) (*Owned, error) {
	c, err := deepCopy(g)
	if err != nil {
		return nil, err
	}
	return &Owned{g: c}, nil
}

// Adopt takes ownership of g's storage without copying it. The caller must
// not use or modify g afterwards.
func Adopt(g geom.T) *Owned { return &Owned{g: g} }

// NewOwnedFromWKT parses a Well-Known Text geometry.
func NewOwnedFromWKT(s string) (*Owned, error) {
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("native: parsing WKT: %v", err)
	}
	return &Owned{g: g}, nil
}

// NewOwnedFromWKB parses a Well-Known Binary geometry.
func NewOwnedFromWKB(b []byte) (*Owned, error) {
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("native: parsing WKB: %v", err)
	}
	return &Owned{g: g}, nil
}

// NewOwnedFromGeoJSON parses a GeoJSON geometry object.
func NewOwnedFromGeoJSON(b []byte) (*Owned, error) {
	var g geom.T
	if err := geojson.Unmarshal(b, &g); err != nil {
		return nil, fmt.Errorf("native: parsing GeoJSON: %v", err)
	}
	return &Owned{g: g}, nil
}

// T returns the owned geometry, or nil after Release.
func (o *Owned) T() geom.T {
	if o == nil {
		return nil
	}
	return o.g
}

// Release ends the lifetime of the owned storage.
func (o *Owned) Release() {
	if o == nil {
		return
	}
	o.g = nil
}

// Borrow returns a read-only view sharing o's storage. The view is only
// valid until o is released.
func (o *Owned) Borrow() Borrowed { return Borrowed{g: o.g} }

// Borrowed is a read-only view of a geometry whose coordinate buffer belongs
// to someone else.
type Borrowed struct {
	g geom.T
}

// T returns the viewed geometry.
func (b Borrowed) T() geom.T { return b.g }

// Borrow returns a view of g without copying its coordinates.
func Borrow(g geom.T) Borrowed { return Borrowed{g: g} }

// BorrowPoint returns a point view over buf.
func BorrowPoint(layout geom.Layout, buf []float64) Borrowed {
	return Borrowed{g: geom.NewPointFlat(layout, buf)}
}

// BorrowLineString returns a line string view over buf.
func BorrowLineString(layout geom.Layout, buf []float64) Borrowed {
	return Borrowed{g: geom.NewLineStringFlat(layout, buf)}
}

// BorrowMultiPoint returns a multi-point view over buf.
func BorrowMultiPoint(layout geom.Layout, buf []float64) Borrowed {
	return Borrowed{g: geom.NewMultiPointFlat(layout, buf)}
}

// BorrowPolygon returns a polygon view over buf, where ends holds the
// offset into buf just past each ring.
func BorrowPolygon(layout geom.Layout, buf []float64, ends []int) Borrowed {
	return Borrowed{g: geom.NewPolygonFlat(layout, buf, ends)}
}

// BorrowMultiLineString returns a multi-line-string view over buf.
func BorrowMultiLineString(layout geom.Layout, buf []float64, ends []int) Borrowed {
	return Borrowed{g: geom.NewMultiLineStringFlat(layout, buf, ends)}
}

// BorrowMultiPolygon returns a multi-polygon view over buf, where endss
// holds the ring ends of each polygon.
func BorrowMultiPolygon(layout geom.Layout, buf []float64, endss [][]int) Borrowed {
	return Borrowed{g: geom.NewMultiPolygonFlat(layout, buf, endss)}
}

func deepCopy(g geom.T) (geom.T, error) {
	if g != nil {
		if v := reflect.ValueOf(g); v.Kind() == reflect.Ptr && v.IsNil() {
			return nil, fmt.Errorf("native: cannot copy a nil %T", g)
		}
	}
	switch g := g.(type) {
	case *geom.Point:
		return g.Clone(), nil
	case *geom.LineString:
		return g.Clone(), nil
	case *geom.Polygon:
		return g.Clone(), nil
	case *geom.MultiPoint:
		return g.Clone(), nil
	case *geom.MultiLineString:
		return g.Clone(), nil
	case *geom.MultiPolygon:
		return g.Clone(), nil
	case *geom.GeometryCollection:
		gc := geom.NewGeometryCollection()
		for i, child := range g.Geoms() {
			c, err := deepCopy(child)
			if err != nil {
				return nil, fmt.Errorf("native: geometry collection member %d: %v", i, err)
			}
			if err := gc.Push(c); err != nil {
				return nil, fmt.Errorf("native: geometry collection member %d: %v", i, err)
			}
		}
		return gc.SetSRID(g.SRID()), nil
	case nil:
		return nil, fmt.Errorf("native: cannot copy a nil geometry")
	default:
		return nil, fmt.Errorf("native: cannot copy geometry of type %T", g)
	}
}
