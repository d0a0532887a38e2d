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
	"strings"

	"github.com/spatialmodel/geomconv/native"
	"github.com/twpayne/go-geom/encoding/wkbhex"
)

// Record is one input geometry and the line it was read from.
type Record struct {
	Line int
	Geom native.Geometry
}

// maxLineSize is the longest input line that can be read.
const maxLineSize = 64 << 20

// readInput reads records from the file at path, or from stdin if path is
// empty. Blank lines and lines starting with '#' are skipped.
func readInput(path, format string, stdin io.Reader) ([]Record, error) {
	decode, err := decoder(format)
	if err != nil {
		return nil, err
	}
	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("geomconv: opening InputFile: %v", err)
		}
		defer f.Close()
		r = f
	}
	return readRecords(r, decode)
}

func readRecords(r io.Reader, decode func(string) (native.Geometry, error)) ([]Record, error) {
	var recs []Record
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		g, err := decode(text)
		if err != nil {
			return nil, fmt.Errorf("geomconv: input line %d: %v", line, err)
		}
		recs = append(recs, Record{Line: line, Geom: g})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("geomconv: reading input: %v", err)
	}
	return recs, nil
}

// decoder returns the function that decodes one line in the given format.
func decoder(format string) (func(string) (native.Geometry, error), error) {
	switch strings.ToLower(format) {
	case "wkt":
		return func(s string) (native.Geometry, error) {
			return native.NewOwnedFromWKT(s)
		}, nil
	case "wkbhex":
		return func(s string) (native.Geometry, error) {
			g, err := wkbhex.Decode(s)
			if err != nil {
				return nil, err
			}
			return native.Adopt(g), nil
		}, nil
	case "geojson":
		return func(s string) (native.Geometry, error) {
			return native.NewOwnedFromGeoJSON([]byte(s))
		}, nil
	default:
		return nil, fmt.Errorf("geomconv: invalid InputFormat %q; valid options are wkt, wkbhex, and geojson", format)
	}
}
