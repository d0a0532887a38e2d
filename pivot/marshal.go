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

package pivot

import (
	"fmt"
	"strconv"

	ctgeom "github.com/ctessum/geom"
)

// Marshal writes a target geometry as WKT. Ordinates are written with the
// fewest digits that parse back to the same float64.
func Marshal(g ctgeom.Geom) (string, error) {
	b, err := appendGeom(nil, g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func appendGeom(b []byte, g ctgeom.Geom) ([]byte, error) {
	switch g := g.(type) {
	case ctgeom.Point:
		b = append(b, "POINT ("...)
		b = appendPoint(b, g)
		return append(b, ')'), nil
	case *ctgeom.Point:
		if g == nil {
			return b, fmt.Errorf("pivot: cannot marshal a nil point")
		}
		return appendGeom(b, *g)
	case ctgeom.MultiPoint:
		b = append(b, "MULTIPOINT "...)
		if len(g) == 0 {
			return append(b, "EMPTY"...), nil
		}
		b = append(b, '(')
		for i, p := range g {
			if i > 0 {
				b = append(b, ", "...)
			}
			b = append(b, '(')
			b = appendPoint(b, p)
			b = append(b, ')')
		}
		return append(b, ')'), nil
	case ctgeom.LineString:
		b = append(b, "LINESTRING "...)
		return appendPoints(b, g), nil
	case ctgeom.MultiLineString:
		b = append(b, "MULTILINESTRING "...)
		if len(g) == 0 {
			return append(b, "EMPTY"...), nil
		}
		b = append(b, '(')
		for i, ls := range g {
			if i > 0 {
				b = append(b, ", "...)
			}
			b = appendPoints(b, ls)
		}
		return append(b, ')'), nil
	case ctgeom.Polygon:
		b = append(b, "POLYGON "...)
		return appendRings(b, g), nil
	case ctgeom.MultiPolygon:
		b = append(b, "MULTIPOLYGON "...)
		if len(g) == 0 {
			return append(b, "EMPTY"...), nil
		}
		b = append(b, '(')
		for i, p := range g {
			if i > 0 {
				b = append(b, ", "...)
			}
			b = appendRings(b, p)
		}
		return append(b, ')'), nil
	case ctgeom.GeometryCollection:
		b = append(b, "GEOMETRYCOLLECTION "...)
		if len(g) == 0 {
			return append(b, "EMPTY"...), nil
		}
		b = append(b, '(')
		for i, child := range g {
			if i > 0 {
				b = append(b, ", "...)
			}
			var err error
			if b, err = appendGeom(b, child); err != nil {
				return b, err
			}
		}
		return append(b, ')'), nil
	default:
		return b, fmt.Errorf("pivot: cannot marshal geometry of type %T", g)
	}
}

func appendPoint(b []byte, p ctgeom.Point) []byte {
	b = strconv.AppendFloat(b, p.X, 'g', -1, 64)
	b = append(b, ' ')
	return strconv.AppendFloat(b, p.Y, 'g', -1, 64)
}

func appendPoints(b []byte, pts []ctgeom.Point) []byte {
	if len(pts) == 0 {
		return append(b, "EMPTY"...)
	}
	b = append(b, '(')
	for i, p := range pts {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = appendPoint(b, p)
	}
	return append(b, ')')
}

func appendRings(b []byte, p ctgeom.Polygon) []byte {
	if len(p) == 0 {
		return append(b, "EMPTY"...)
	}
	b = append(b, '(')
	for i, r := range p {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = appendPoints(b, r)
	}
	return append(b, ')')
}
