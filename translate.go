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
	"strings"

	ctgeom "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"
)

// Widening selects which single-instance native variants are converted into
// one-element collections. Widening only happens in the native-to-target
// direction; ConvertBack never narrows.
type Widening uint8

const (
	// WidenPolygon converts a Polygon into a MultiPolygon holding it.
	WidenPolygon Widening = 1 << iota
	// WidenPoint converts a Point into a MultiPoint holding it.
	WidenPoint
	// WidenLineString converts a LineString into a MultiLineString holding it.
	WidenLineString
)

// DefaultWidening widens polygons only.
const DefaultWidening = WidenPolygon

func (w Widening) String() string {
	var s []string
	if w&WidenPolygon != 0 {
		s = append(s, "polygon")
	}
	if w&WidenPoint != 0 {
		s = append(s, "point")
	}
	if w&WidenLineString != 0 {
		s = append(s, "linestring")
	}
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ",")
}

// ParseWidening parses a comma separated list of "polygon", "point" and
// "linestring", or "none".
func ParseWidening(s string) (Widening, error) {
	var w Widening
	for _, f := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "polygon":
			w |= WidenPolygon
		case "point":
			w |= WidenPoint
		case "linestring":
			w |= WidenLineString
		case "none", "":
		default:
			return 0, fmt.Errorf("geomconv: invalid widening %q; valid options are polygon, point, linestring, and none", f)
		}
	}
	return w, nil
}

// variantName returns the name used for g in error messages.
func variantName(g interface{}) string {
	if g == nil {
		return "nil"
	}
	s := fmt.Sprintf("%T", g)
	return s[strings.LastIndex(s, ".")+1:]
}

func layoutName(l geom.Layout) string {
	switch l {
	case geom.NoLayout:
		return "NoLayout"
	case geom.XY:
		return "XY"
	case geom.XYZ:
		return "XYZ"
	case geom.XYM:
		return "XYM"
	case geom.XYZM:
		return "XYZM"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// checkLayout applies the ZPolicy to a native layout.
func (c Converter) checkLayout(g geom.T, variant string) error {
	switch l := g.Layout(); l {
	case geom.XY:
		return nil
	case geom.XYZ, geom.XYM, geom.XYZM:
		if c.opts.ZPolicy == RejectZ {
			return newError(UnsupportedVariant, variant,
				"layout %s has ordinates beyond X and Y", layoutName(l))
		}
		return nil
	default:
		if len(g.FlatCoords()) == 0 {
			return nil
		}
		return newError(DegenerateGeometry, variant,
			"layout %s cannot hold X and Y ordinates", layoutName(l))
	}
}

// inVariant fills in the variant of an error raised below the translator.
func inVariant(err error, variant string) error {
	if e, ok := err.(*Error); ok && e.Variant == "" {
		e.Variant = variant
	}
	return err
}

// translate converts one native geometry into its target equivalent.
func (c Converter) translate(g geom.T) (ctgeom.Geom, error) {
	if g != nil && isNil(g) {
		return nil, newError(UnsupportedVariant, variantName(g), "nil geometry")
	}
	switch g := g.(type) {
	case *geom.Point:
		return c.point(g)
	case *geom.LineString:
		if err := c.checkLayout(g, "LineString"); err != nil {
			return nil, err
		}
		flat := g.FlatCoords()
		ls, err := buildSequence(flat, 0, len(flat), g.Stride(), roleLineString)
		if err != nil {
			return nil, inVariant(err, "LineString")
		}
		return c.widen(ctgeom.LineString(ls)), nil
	case *geom.Polygon:
		if err := c.checkLayout(g, "Polygon"); err != nil {
			return nil, err
		}
		flat := g.FlatCoords()
		p, next, err := polygon(flat, 0, g.Ends(), g.Stride())
		if err == nil {
			err = checkCovered(flat, next)
		}
		if err != nil {
			return nil, inVariant(err, "Polygon")
		}
		return c.widen(p), nil
	case *geom.MultiPoint:
		return c.multiPoint(g)
	case *geom.MultiLineString:
		return c.multiLineString(g)
	case *geom.MultiPolygon:
		return c.multiPolygon(g)
	case *geom.GeometryCollection:
		children := g.Geoms()
		gc := make(ctgeom.GeometryCollection, len(children))
		for i, child := range children {
			t, err := c.translate(child)
			if err != nil {
				return nil, atIndex(err, i)
			}
			gc[i] = t
		}
		return gc, nil
	case nil:
		return nil, newError(UnsupportedVariant, "nil", "no geometry to convert; it may have been released")
	default:
		return nil, newError(UnsupportedVariant, variantName(g), "no target mapping for this variant")
	}
}

// isNil reports whether g is a nil pointer of one of the go-geom types.
// go-geom collections accept such members without complaint.
func isNil(g geom.T) bool {
	switch g := g.(type) {
	case nil:
		return true
	case *geom.Point:
		return g == nil
	case *geom.LineString:
		return g == nil
	case *geom.LinearRing:
		return g == nil
	case *geom.Polygon:
		return g == nil
	case *geom.MultiPoint:
		return g == nil
	case *geom.MultiLineString:
		return g == nil
	case *geom.MultiPolygon:
		return g == nil
	case *geom.GeometryCollection:
		return g == nil
	}
	return false
}

func (c Converter) point(g *geom.Point) (ctgeom.Geom, error) {
	if err := c.checkLayout(g, "Point"); err != nil {
		return nil, err
	}
	flat := g.FlatCoords()
	if len(flat) == 0 {
		return nil, newError(DegenerateGeometry, "Point", "empty point has no target representation")
	}
	if g.Stride() < 2 || len(flat) != g.Stride() {
		return nil, newError(DegenerateGeometry, "Point",
			"buffer of %d ordinates does not match stride %d", len(flat), g.Stride())
	}
	p, err := adaptCoord(flat)
	if err != nil {
		return nil, inVariant(err, "Point")
	}
	return c.widen(p), nil
}

func (c Converter) multiPoint(g *geom.MultiPoint) (ctgeom.Geom, error) {
	if err := c.checkLayout(g, "MultiPoint"); err != nil {
		return nil, err
	}
	flat, stride := g.FlatCoords(), g.Stride()
	ends := g.Ends()
	if len(ends) == 0 && len(flat) > 0 {
		if stride < 2 || len(flat)%stride != 0 {
			return nil, newError(DegenerateGeometry, "MultiPoint",
				"buffer of %d ordinates is not a multiple of stride %d", len(flat), stride)
		}
		mp := make(ctgeom.MultiPoint, len(flat)/stride)
		for i := range mp {
			p, err := adaptCoord(flat[i*stride : (i+1)*stride])
			if err != nil {
				return nil, atIndex(inVariant(err, "Point"), i)
			}
			mp[i] = p
		}
		return mp, nil
	}
	mp := make(ctgeom.MultiPoint, len(ends))
	start := 0
	for i, end := range ends {
		if end < start || end > len(flat) {
			return nil, atIndex(newError(DegenerateGeometry, "Point",
				"offset %d outside buffer of %d ordinates", end, len(flat)), i)
		}
		switch {
		case end == start:
			return nil, atIndex(newError(DegenerateGeometry, "Point",
				"empty point has no target representation"), i)
		case end-start != stride:
			return nil, atIndex(newError(DegenerateGeometry, "Point",
				"point spans %d ordinates but stride is %d", end-start, stride), i)
		}
		p, err := adaptCoord(flat[start:end])
		if err != nil {
			return nil, atIndex(inVariant(err, "Point"), i)
		}
		mp[i] = p
		start = end
	}
	if err := checkCovered(flat, start); err != nil {
		return nil, inVariant(err, "MultiPoint")
	}
	return mp, nil
}

func (c Converter) multiLineString(g *geom.MultiLineString) (ctgeom.Geom, error) {
	if err := c.checkLayout(g, "MultiLineString"); err != nil {
		return nil, err
	}
	flat, stride := g.FlatCoords(), g.Stride()
	ends := g.Ends()
	ml := make(ctgeom.MultiLineString, len(ends))
	start := 0
	for i, end := range ends {
		ls, err := buildSequence(flat, start, end, stride, roleLineString)
		if err != nil {
			return nil, atIndex(inVariant(err, "LineString"), i)
		}
		ml[i] = ls
		start = end
	}
	if err := checkCovered(flat, start); err != nil {
		return nil, inVariant(err, "MultiLineString")
	}
	return ml, nil
}

func (c Converter) multiPolygon(g *geom.MultiPolygon) (ctgeom.Geom, error) {
	if err := c.checkLayout(g, "MultiPolygon"); err != nil {
		return nil, err
	}
	flat, stride := g.FlatCoords(), g.Stride()
	endss := g.Endss()
	mp := make(ctgeom.MultiPolygon, len(endss))
	start := 0
	for i, ends := range endss {
		p, next, err := polygon(flat, start, ends, stride)
		if err != nil {
			return nil, atIndex(inVariant(err, "Polygon"), i)
		}
		mp[i] = p
		start = next
	}
	if err := checkCovered(flat, start); err != nil {
		return nil, inVariant(err, "MultiPolygon")
	}
	return mp, nil
}

// polygon builds the rings of one polygon starting at flat[start]. It
// returns the offset just past the last ring.
func polygon(flat []float64, start int, ends []int, stride int) (ctgeom.Polygon, int, error) {
	p := make(ctgeom.Polygon, 0, len(ends))
	for i, end := range ends {
		r := roleInterior
		if i == 0 {
			r = roleExterior
		}
		ring, err := buildSequence(flat, start, end, stride, r)
		if err != nil {
			if e, ok := err.(*Error); ok {
				e.Msg = fmt.Sprintf("ring %d: %s", i, e.Msg)
			}
			return nil, start, err
		}
		p = append(p, ring)
		start = end
	}
	return p, start, nil
}

// checkCovered makes sure the ring-offset metadata accounts for the whole
// buffer.
func checkCovered(flat []float64, end int) error {
	if end != len(flat) {
		return &Error{
			Kind: DegenerateGeometry,
			Msg:  fmt.Sprintf("offsets end at %d but the buffer holds %d ordinates", end, len(flat)),
		}
	}
	return nil
}

// widen applies the Widening policy to g. Collections are widened member
// by member.
func (c Converter) widen(g ctgeom.Geom) ctgeom.Geom {
	w := c.opts.Widening
	switch t := g.(type) {
	case ctgeom.Polygon:
		if w&WidenPolygon != 0 {
			if len(t) == 0 {
				return ctgeom.MultiPolygon{}
			}
			return ctgeom.MultiPolygon{t}
		}
	case ctgeom.Point:
		if w&WidenPoint != 0 {
			return ctgeom.MultiPoint{t}
		}
	case ctgeom.LineString:
		if w&WidenLineString != 0 {
			return ctgeom.MultiLineString{t}
		}
	case ctgeom.GeometryCollection:
		gc := make(ctgeom.GeometryCollection, len(t))
		for i, child := range t {
			gc[i] = c.widen(child)
		}
		return gc
	}
	return g
}
