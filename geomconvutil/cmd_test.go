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
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	ctgeom "github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/geomconv"
	"github.com/spatialmodel/geomconv/native"
	"github.com/twpayne/go-geom"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

func writeTemp(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func resetConfig() {
	for _, option := range options {
		if option.name != "config" {
			Cfg.Set(option.name, option.defaultVal)
		}
	}
}

func TestConvertWKT(t *testing.T) {
	defer resetConfig()
	dir, err := ioutil.TempDir("", "geomconv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	in := writeTemp(t, dir, "in.wkt", `# test geometries
POINT (1 2)

POLYGON ((0 0, 0 1, 1 1, 1 0, 0 0))
MULTIPOINT ((1 2), (3 4))
LINESTRING Z (0 0 5, 1 1 5)
`)
	out := filepath.Join(dir, "out.wkt")
	Cfg.Set("InputFile", in)
	Cfg.Set("OutputFile", out)
	Root.SetArgs([]string{"convert"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := `POINT (1 2)
MULTIPOLYGON (((0 0, 0 1, 1 1, 1 0, 0 0)))
MULTIPOINT ((1 2), (3 4))
LINESTRING (0 0, 1 1)
`
	if string(b) != want {
		t.Errorf("have\n%s\nwant\n%s", b, want)
	}
}

func TestConvertOptions(t *testing.T) {
	defer resetConfig()
	dir, err := ioutil.TempDir("", "geomconv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	in := writeTemp(t, dir, "in.json", `{"type":"Point","coordinates":[1,2]}
{"type":"LineString","coordinates":[[0,0],[1,1]]}
`)
	out := filepath.Join(dir, "out.wkt")
	Cfg.Set("InputFile", in)
	Cfg.Set("InputFormat", "geojson")
	Cfg.Set("OutputFile", out)
	Cfg.Set("Widening", "point,linestring")
	Cfg.Set("Fallback", "pivot")
	Cfg.Set("Workers", 1)
	Root.SetArgs([]string{"convert"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "MULTIPOINT ((1 2))\nMULTILINESTRING ((0 0, 1 1))\n"
	if string(b) != want {
		t.Errorf("have\n%s\nwant\n%s", b, want)
	}
}

func TestConvertShapefile(t *testing.T) {
	defer resetConfig()
	dir, err := ioutil.TempDir("", "geomconv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	in := writeTemp(t, dir, "in.wkt", `POLYGON ((0 0, 0 1, 1 1, 1 0, 0 0))
MULTIPOLYGON (((5 5, 5 6, 6 6, 6 5, 5 5)), ((8 8, 8 9, 9 9, 9 8, 8 8)))
`)
	out := filepath.Join(dir, "out.shp")
	Cfg.Set("InputFile", in)
	Cfg.Set("OutputFile", out)
	Root.SetArgs([]string{"convert"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	d, err := shp.NewDecoder(out)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	var lines []string
	var rings []int
	for {
		g, fields, more := d.DecodeRowFields("Line", "Variant")
		if !more {
			break
		}
		lines = append(lines, strings.Trim(fields["Line"], "\x00 ")+" "+strings.Trim(fields["Variant"], "\x00 "))
		p, ok := g.(ctgeom.Polygon)
		if !ok {
			t.Fatalf("have %T, want ctgeom.Polygon", g)
		}
		rings = append(rings, len(p))
	}
	if err := d.Error(); err != nil {
		t.Fatal(err)
	}
	if want := []string{"1 MultiPolygon", "2 MultiPolygon"}; !reflect.DeepEqual(lines, want) {
		t.Errorf("fields %v, want %v", lines, want)
	}
	if want := []int{1, 2}; !reflect.DeepEqual(rings, want) {
		t.Errorf("rings %v, want %v", rings, want)
	}
}

func TestShapeType(t *testing.T) {
	pt := ctgeom.Point{X: 1, Y: 2}
	if _, err := shapeType([]Result{{Line: 1, Geom: pt}, {Line: 2, Geom: ctgeom.LineString{pt, pt}}}); err == nil {
		t.Error("want error for mixed shape classes")
	}
	if _, err := shapeType([]Result{{Line: 1, Geom: ctgeom.GeometryCollection{pt}}}); err == nil {
		t.Error("want error for a geometry collection")
	}
	if _, err := shapeType(nil); err == nil {
		t.Error("want error for no geometries")
	}
	typ, err := shapeType([]Result{{Line: 1, Geom: pt}, {Line: 2, Geom: ctgeom.MultiPoint{pt}}})
	if err != nil {
		t.Fatal(err)
	}
	if have, want := forShapefile(pt, typ), (ctgeom.MultiPoint{pt}); !reflect.DeepEqual(have, want) {
		t.Errorf("%v != %v", have, want)
	}
}

func TestPipelineFallback(t *testing.T) {
	degenerate := Record{Line: 3, Geom: native.BorrowPolygon(geom.XY, []float64{0, 0, 1, 1, 0, 0}, []int{6})}
	good := Record{Line: 1, Geom: native.BorrowPoint(geom.XY, []float64{1, 2})}
	recs := []Record{good, degenerate}

	newPipeline := func(f Fallback, skip bool) *Pipeline {
		return &Pipeline{
			Converter:   geomconv.New(geomconv.DefaultOptions()),
			Fallback:    f,
			Workers:     2,
			SkipInvalid: skip,
			Log:         testLogger(),
		}
	}

	t.Run("none", func(t *testing.T) {
		_, err := newPipeline(NoFallback, false).Run(context.Background(), recs)
		if err == nil || !strings.Contains(err.Error(), "line 3") {
			t.Errorf("want error for line 3, have %v", err)
		}
	})
	t.Run("skip", func(t *testing.T) {
		out, err := newPipeline(NoFallback, true).Run(context.Background(), recs)
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 1 || out[0].Line != 1 {
			t.Errorf("have %v", out)
		}
	})
	t.Run("auto", func(t *testing.T) {
		out, err := newPipeline(AutoFallback, false).Run(context.Background(), recs)
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != 2 || out[0].Line != 1 || out[1].Line != 3 {
			t.Fatalf("have %v", out)
		}
		if _, ok := out[1].Geom.(ctgeom.MultiPolygon); !ok {
			t.Errorf("have %T, want ctgeom.MultiPolygon", out[1].Geom)
		}
	})
}

func TestPipelineOrder(t *testing.T) {
	var recs []Record
	for i := 0; i < 100; i++ {
		recs = append(recs, Record{Line: i, Geom: native.BorrowPoint(geom.XY, []float64{float64(i), 0})})
	}
	p := &Pipeline{Converter: geomconv.New(geomconv.DefaultOptions()), Workers: 8, Log: testLogger()}
	out, err := p.Run(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range out {
		if r.Line != i || r.Geom.(ctgeom.Point).X != float64(i) {
			t.Fatalf("result %d is %v", i, r)
		}
	}
}

func TestPipelineTransform(t *testing.T) {
	const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"
	tr, err := transformFromConfig(wgs84, wgs84)
	if err != nil {
		t.Fatal(err)
	}
	if tr == nil {
		t.Fatal("missing transform")
	}
	p := &Pipeline{Converter: geomconv.New(geomconv.DefaultOptions()), Transform: tr, Workers: 1, Log: testLogger()}
	out, err := p.Run(context.Background(), []Record{{Line: 1, Geom: native.BorrowPoint(geom.XY, []float64{-97, 40})}})
	if err != nil {
		t.Fatal(err)
	}
	if !out[0].Geom.Similar(ctgeom.Point{X: -97, Y: 40}, 1.e-9) {
		t.Errorf("have %v", out[0].Geom)
	}
	if tr, err := transformFromConfig("", wgs84); err != nil || tr != nil {
		t.Errorf("want no transform, have %v, %v", tr, err)
	}
}

func TestCheck(t *testing.T) {
	recs, err := readRecords(strings.NewReader("POINT (1 2)\nMULTIPOLYGON (((0 0, 0 1, 1 1, 0 0)))\n"), mustDecoder(t, "wkt"))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := check(context.Background(), geomconv.New(geomconv.DefaultOptions()), recs, 1.e-9, 2, &b, testLogger()); err != nil {
		t.Fatalf("%v: %s", err, b.String())
	}
	if b.Len() != 0 {
		t.Errorf("unexpected report: %s", b.String())
	}

	recs = append(recs, Record{Line: 9, Geom: native.BorrowPolygon(geom.XY, []float64{0, 0, 1, 1, 0, 0}, []int{6})})
	b.Reset()
	err = check(context.Background(), geomconv.New(geomconv.DefaultOptions()), recs, 1.e-9, 2, &b, testLogger())
	if err == nil {
		t.Fatal("want disagreement error")
	}
	if !strings.HasPrefix(b.String(), "line 9: direct conversion failed") {
		t.Errorf("report %q", b.String())
	}
}

func TestDisagreementMemberCount(t *testing.T) {
	sq := ctgeom.Polygon{{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}}
	p, q := ctgeom.Point{X: 1, Y: 2}, ctgeom.Point{X: 3, Y: 4}
	tests := []struct {
		name        string
		fewer, more ctgeom.Geom
	}{
		{name: "multipolygon", fewer: ctgeom.MultiPolygon{sq}, more: ctgeom.MultiPolygon{sq, sq}},
		{name: "multilinestring",
			fewer: ctgeom.MultiLineString{{p, q}},
			more:  ctgeom.MultiLineString{{p, q}, {q, p}}},
		{name: "collection", fewer: ctgeom.GeometryCollection{p}, more: ctgeom.GeometryCollection{p, q}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if r := disagreement(test.fewer, test.more, nil, nil, 1.e-9); r == "" {
				t.Error("fewer members in direct result went unreported")
			}
			if r := disagreement(test.more, test.fewer, nil, nil, 1.e-9); r == "" {
				t.Error("fewer members in WKT result went unreported")
			}
			if r := disagreement(test.more, test.more, nil, nil, 1.e-9); r != "" {
				t.Errorf("identical results reported: %s", r)
			}
		})
	}
}

func TestWriteOutputPrj(t *testing.T) {
	dir, err := ioutil.TempDir("", "geomconv")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	results := []Result{{Line: 1, Geom: ctgeom.Point{X: 1, Y: 2}}}

	const wktSR = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`
	if err := writeOutput(filepath.Join(dir, "wkt.shp"), wktSR, results, nil); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(filepath.Join(dir, "wkt.prj"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != wktSR {
		t.Errorf("prj %q, want %q", b, wktSR)
	}

	if err := writeOutput(filepath.Join(dir, "proj4.shp"), "+proj=longlat +datum=WGS84", results, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "proj4.prj")); !os.IsNotExist(err) {
		t.Errorf("prj written for a PROJ4 reference: %v", err)
	}
}

func mustDecoder(t *testing.T, format string) func(string) (native.Geometry, error) {
	t.Helper()
	d, err := decoder(format)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestReadRecords(t *testing.T) {
	recs, err := readRecords(strings.NewReader("0101000000000000000000F03F0000000000000040\n"), mustDecoder(t, "wkbhex"))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("have %d records", len(recs))
	}
	if have := recs[0].Geom.T().FlatCoords(); !reflect.DeepEqual(have, []float64{1, 2}) {
		t.Errorf("have %v", have)
	}
	if _, err := readRecords(strings.NewReader("POINT (1 2)\nPOINT (\n"), mustDecoder(t, "wkt")); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("want error on line 2, have %v", err)
	}
	if _, err := decoder("kml"); err == nil {
		t.Error("want error for unknown format")
	}
}

func TestParseFallback(t *testing.T) {
	for s, want := range map[string]Fallback{"none": NoFallback, "": NoFallback, "Pivot": AlwaysPivot, "auto": AutoFallback} {
		have, err := parseFallback(s)
		if err != nil || have != want {
			t.Errorf("%q: %v, %v", s, have, err)
		}
	}
	if _, err := parseFallback("sometimes"); err == nil {
		t.Error("want error")
	}
}

func TestConfigCommand(t *testing.T) {
	defer resetConfig()
	Cfg.Set("Workers", 7)
	var b bytes.Buffer
	if err := writeConfig(&b, Cfg); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Workers = 7", `Widening = "polygon"`, `ZPolicy = "drop"`} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("configuration missing %q:\n%s", want, b.String())
		}
	}
}

func TestVersion(t *testing.T) {
	var b bytes.Buffer
	versionCmd.SetOutput(&b)
	defer versionCmd.SetOutput(nil)
	versionCmd.Run(versionCmd, nil)
	if want := "geomconv v" + geomconv.Version + "\n"; b.String() != want {
		t.Errorf("%q != %q", b.String(), want)
	}
}
