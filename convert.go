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

// Package geomconv converts geometries between the go-geom model
// (github.com/twpayne/go-geom), which stores coordinates in flat buffers,
// and the ctessum/geom model (github.com/ctessum/geom) used by the rest of
// InMAP.
//
// The conversion walks the native coordinate buffer directly, so no text is
// produced and no precision is lost. The Well-Known Text round trip in
// package pivot is still available through ConvertViaText, but it is never
// used unless the caller asks for it.
//
// Conversions are pure: a Converter holds only its Options, and it is safe
// to use one Converter from many goroutines at once.
package geomconv

import (
	ctgeom "github.com/ctessum/geom"
	"github.com/spatialmodel/geomconv/native"
	"github.com/spatialmodel/geomconv/pivot"
	"github.com/twpayne/go-geom"
)

// Version gives the version number.
const Version = "1.0.0"

// Options control the parts of a conversion that have more than one
// reasonable answer.
type Options struct {
	// Widening selects which single geometries become one-element
	// collections.
	Widening Widening

	// ZPolicy says what to do with Z and M ordinates, which the target
	// model cannot hold.
	ZPolicy ZPolicy
}

// DefaultOptions widens polygons and drops Z and M ordinates.
func DefaultOptions() Options {
	return Options{Widening: DefaultWidening, ZPolicy: DropZ}
}

// Converter converts geometries according to its Options.
type Converter struct {
	opts Options
}

// New returns a Converter using opts.
func New(opts Options) Converter { return Converter{opts: opts} }

// Options returns the options c was created with.
func (c Converter) Options() Options { return c.opts }

// Convert converts an owned or borrowed native geometry into the target
// model. It either returns a complete geometry or an *Error; partial
// results are never returned.
func (c Converter) Convert(g native.Geometry) (ctgeom.Geom, error) {
	if g == nil {
		return nil, newError(UnsupportedVariant, "nil", "no geometry to convert")
	}
	return c.translate(g.T())
}

// ConvertT converts a go-geom value the caller holds directly. It behaves
// like Convert of native.Borrow(g).
func (c Converter) ConvertT(g geom.T) (ctgeom.Geom, error) {
	return c.translate(g)
}

// ConvertBack converts a target geometry into an owned XY native geometry.
// Collections produced by widening stay collections.
func (c Converter) ConvertBack(g ctgeom.Geom) (*native.Owned, error) {
	t, err := c.untranslate(g)
	if err != nil {
		return nil, err
	}
	return native.Adopt(t), nil
}

// ConvertViaText converts g by writing it as Well-Known Text and parsing
// the text into the target model. Callers can use it as a fallback when
// Convert fails with UnsupportedVariant or DegenerateGeometry; Convert
// never falls back on its own. The Widening and ZPolicy options apply
// here too.
func (c Converter) ConvertViaText(g native.Geometry) (ctgeom.Geom, error) {
	if g == nil || g.T() == nil {
		return nil, &Error{Kind: EncodingError, Variant: "nil", Msg: "no geometry to convert"}
	}
	t := g.T()
	if err := c.checkLayouts(t); err != nil {
		return nil, err
	}
	if err := checkOrdinates(t); err != nil {
		return nil, err
	}
	s, err := pivot.Encode(t)
	if err != nil {
		return nil, &Error{Kind: EncodingError, Variant: variantName(t), Err: err}
	}
	out, err := pivot.Decode(s)
	if err != nil {
		return nil, &Error{Kind: DecodingError, Variant: variantName(t), Err: err}
	}
	return c.widen(out), nil
}

// checkLayouts applies the ZPolicy to g and, for collections, to every
// member.
func (c Converter) checkLayouts(g geom.T) error {
	if isNil(g) {
		return newError(UnsupportedVariant, variantName(g), "nil geometry")
	}
	gc, ok := g.(*geom.GeometryCollection)
	if !ok {
		return c.checkLayout(g, variantName(g))
	}
	for i, child := range gc.Geoms() {
		if err := c.checkLayouts(child); err != nil {
			return atIndex(err, i)
		}
	}
	return nil
}

// checkOrdinates reports the first non-finite coordinate in g, descending
// into collections. Text cannot carry NaN or infinity, so this runs before
// the geometry is written out. g must have passed checkLayouts.
func checkOrdinates(g geom.T) error {
	if gc, ok := g.(*geom.GeometryCollection); ok {
		for i, child := range gc.Geoms() {
			if err := checkOrdinates(child); err != nil {
				return atIndex(err, i)
			}
		}
		return nil
	}
	flat, stride := g.FlatCoords(), g.Stride()
	if stride < 2 {
		return nil
	}
	for o := 0; o+stride <= len(flat); o += stride {
		if _, err := adaptCoord(flat[o : o+stride]); err != nil {
			if i, variant := memberAt(g, o); i >= 0 {
				return atIndex(inVariant(err, variant), i)
			}
			return inVariant(err, variantName(g))
		}
	}
	return nil
}

// memberAt returns the index and variant of the member of a multi-geometry
// holding the ordinate at offset o, or -1 if g has no members.
func memberAt(g geom.T, o int) (int, string) {
	switch g := g.(type) {
	case *geom.MultiPoint:
		if len(g.Ends()) == 0 {
			return o / g.Stride(), "Point"
		}
		return endAfter(g.Ends(), o), "Point"
	case *geom.MultiLineString:
		return endAfter(g.Ends(), o), "LineString"
	case *geom.MultiPolygon:
		for i, ends := range g.Endss() {
			if len(ends) > 0 && ends[len(ends)-1] > o {
				return i, "Polygon"
			}
		}
	}
	return -1, ""
}

func endAfter(ends []int, o int) int {
	for i, end := range ends {
		if end > o {
			return i
		}
	}
	return -1
}

// Convert converts g using DefaultOptions.
func Convert(g native.Geometry) (ctgeom.Geom, error) {
	return New(DefaultOptions()).Convert(g)
}

// ConvertBack converts g using DefaultOptions.
func ConvertBack(g ctgeom.Geom) (*native.Owned, error) {
	return New(DefaultOptions()).ConvertBack(g)
}

// ConvertViaText converts g through Well-Known Text using DefaultOptions.
func ConvertViaText(g native.Geometry) (ctgeom.Geom, error) {
	return New(DefaultOptions()).ConvertViaText(g)
}
