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
	"fmt"

	ctgeom "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"
)

// untranslate converts a target geometry into an XY native geometry with
// freshly allocated storage.
func (c Converter) untranslate(g ctgeom.Geom) (geom.T, error) {
	switch g := g.(type) {
	case ctgeom.Point:
		flat, err := appendSequence(make([]float64, 0, 2), []ctgeom.Point{g}, rolePoints)
		if err != nil {
			return nil, inVariant(err, "Point")
		}
		return geom.NewPointFlat(geom.XY, flat), nil
	case *ctgeom.Point:
		if g == nil {
			return nil, newError(UnsupportedVariant, "Point", "nil point")
		}
		return c.untranslate(*g)
	case ctgeom.MultiPoint:
		flat := make([]float64, 0, 2*len(g))
		for i, p := range g {
			var err error
			if flat, err = appendSequence(flat, []ctgeom.Point{p}, rolePoints); err != nil {
				return nil, atIndex(inVariant(err, "Point"), i)
			}
		}
		return geom.NewMultiPointFlat(geom.XY, flat), nil
	case ctgeom.LineString:
		flat, err := appendSequence(make([]float64, 0, 2*len(g)), g, roleLineString)
		if err != nil {
			return nil, inVariant(err, "LineString")
		}
		return geom.NewLineStringFlat(geom.XY, flat), nil
	case ctgeom.MultiLineString:
		var flat []float64
		ends := make([]int, 0, len(g))
		for i, ls := range g {
			var err error
			if flat, err = appendSequence(flat, ls, roleLineString); err != nil {
				return nil, atIndex(inVariant(err, "LineString"), i)
			}
			ends = append(ends, len(flat))
		}
		return geom.NewMultiLineStringFlat(geom.XY, flat, ends), nil
	case ctgeom.Polygon:
		flat, ends, err := appendPolygon(nil, g)
		if err != nil {
			return nil, inVariant(err, "Polygon")
		}
		return geom.NewPolygonFlat(geom.XY, flat, ends), nil
	case ctgeom.MultiPolygon:
		var flat []float64
		endss := make([][]int, 0, len(g))
		for i, p := range g {
			var (
				ends []int
				err  error
			)
			if flat, ends, err = appendPolygon(flat, p); err != nil {
				return nil, atIndex(inVariant(err, "Polygon"), i)
			}
			endss = append(endss, ends)
		}
		return geom.NewMultiPolygonFlat(geom.XY, flat, endss), nil
	case ctgeom.GeometryCollection:
		gc := geom.NewGeometryCollection()
		for i, child := range g {
			t, err := c.untranslate(child)
			if err != nil {
				return nil, atIndex(err, i)
			}
			if err := gc.Push(t); err != nil {
				return nil, atIndex(&Error{Kind: UnsupportedVariant, Variant: variantName(t), Err: err}, i)
			}
		}
		return gc, nil
	case nil:
		return nil, newError(UnsupportedVariant, "nil", "no geometry to convert")
	default:
		return nil, newError(UnsupportedVariant, variantName(g), "no native mapping for this variant")
	}
}

// appendPolygon appends the rings of p to flat and returns the ring ends.
func appendPolygon(flat []float64, p ctgeom.Polygon) ([]float64, []int, error) {
	ends := make([]int, 0, len(p))
	for i, ring := range p {
		r := roleInterior
		if i == 0 {
			r = roleExterior
		}
		var err error
		if flat, err = appendSequence(flat, ring, r); err != nil {
			if e, ok := err.(*Error); ok {
				e.Msg = fmt.Sprintf("ring %d: %s", i, e.Msg)
			}
			return flat, nil, err
		}
		ends = append(ends, len(flat))
	}
	return flat, ends, nil
}
