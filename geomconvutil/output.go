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

package geomconvutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ctgeom "github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/geomconv/pivot"
)

// writeOutput writes results to path as a shapefile if it ends in .shp
// and as WKT lines otherwise. An empty path writes WKT to stdout. If prj
// is a WKT spatial reference it is written next to the shapefile.
func writeOutput(path, prj string, results []Result, stdout io.Writer) error {
	if path == "" {
		return writeWKT(stdout, results)
	}
	if strings.ToLower(filepath.Ext(path)) == ".shp" {
		if err := writeShapefile(path, results); err != nil {
			return err
		}
		// Only WKT spatial references belong in a prj file.
		if u := strings.ToUpper(strings.TrimSpace(prj)); !strings.HasPrefix(u, "PROJCS") && !strings.HasPrefix(u, "GEOGCS") {
			return nil
		}
		f, err := os.Create(strings.TrimSuffix(path, filepath.Ext(path)) + ".prj")
		if err != nil {
			return fmt.Errorf("geomconv: creating output prj file: %v", err)
		}
		if _, err := fmt.Fprint(f, prj); err != nil {
			f.Close()
			return fmt.Errorf("geomconv: writing output prj file: %v", err)
		}
		return f.Close()
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("geomconv: creating OutputFile: %v", err)
	}
	if err := writeWKT(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeWKT(w io.Writer, results []Result) error {
	b := bufio.NewWriter(w)
	for _, r := range results {
		s, err := pivot.Marshal(r.Geom)
		if err != nil {
			return fmt.Errorf("geomconv: input line %d: %v", r.Line, err)
		}
		b.WriteString(s)
		b.WriteByte('\n')
	}
	return b.Flush()
}

// writeShapefile writes results as one shapefile. Every geometry must
// belong to the same shape class; single geometries are stored in the
// form the shapefile encoder accepts for that class.
func writeShapefile(path string, results []Result) error {
	t, err := shapeType(results)
	if err != nil {
		return err
	}
	e, err := shp.NewEncoderFromFields(path, t,
		goshp.NumberField("Line", 10), goshp.StringField("Variant", 20))
	if err != nil {
		return fmt.Errorf("geomconv: creating output shapefile: %v", err)
	}
	defer e.Close()
	for _, r := range results {
		if err := e.EncodeFields(forShapefile(r.Geom, t), r.Line, variant(r.Geom)); err != nil {
			return fmt.Errorf("geomconv: writing output shapefile: input line %d: %v", r.Line, err)
		}
	}
	return nil
}

// shapeType picks the shape type that can hold every result.
func shapeType(results []Result) (goshp.ShapeType, error) {
	if len(results) == 0 {
		return goshp.NULL, fmt.Errorf("geomconv: there are no geometries to write to the shapefile")
	}
	var t goshp.ShapeType
	for _, r := range results {
		var rt goshp.ShapeType
		switch r.Geom.(type) {
		case ctgeom.Point:
			rt = goshp.POINT
		case ctgeom.MultiPoint:
			rt = goshp.MULTIPOINT
		case ctgeom.LineString, ctgeom.MultiLineString:
			rt = goshp.POLYLINE
		case ctgeom.Polygon, ctgeom.MultiPolygon:
			rt = goshp.POLYGON
		default:
			return goshp.NULL, fmt.Errorf("geomconv: input line %d: %s cannot be written to a shapefile", r.Line, variant(r.Geom))
		}
		switch {
		case t == goshp.NULL, t == rt:
			t = rt
		case t == goshp.POINT && rt == goshp.MULTIPOINT, t == goshp.MULTIPOINT && rt == goshp.POINT:
			t = goshp.MULTIPOINT
		default:
			return goshp.NULL, fmt.Errorf("geomconv: input line %d: %s cannot be written to the same shapefile as the geometries before it", r.Line, variant(r.Geom))
		}
	}
	return t, nil
}

// forShapefile converts g into the geometry type the encoder writes as t.
func forShapefile(g ctgeom.Geom, t goshp.ShapeType) ctgeom.Geom {
	switch g := g.(type) {
	case ctgeom.Point:
		if t == goshp.MULTIPOINT {
			return ctgeom.MultiPoint{g}
		}
	case ctgeom.LineString:
		return ctgeom.MultiLineString{g}
	case ctgeom.MultiPolygon:
		var p ctgeom.Polygon
		for _, poly := range g {
			p = append(p, poly...)
		}
		return p
	}
	return g
}

func variant(g ctgeom.Geom) string {
	s := fmt.Sprintf("%T", g)
	return s[strings.LastIndex(s, ".")+1:]
}
