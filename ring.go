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
)

// role tells the sequence builder which invariants apply.
type role int

const (
	rolePoints role = iota
	roleLineString
	roleExterior
	roleInterior
)

func (r role) String() string {
	switch r {
	case roleLineString:
		return "line string"
	case roleExterior:
		return "exterior ring"
	case roleInterior:
		return "interior ring"
	default:
		return "point sequence"
	}
}

func (r role) isRing() bool { return r == roleExterior || r == roleInterior }

// buildSequence converts the coordinates in flat[start:end] into a point
// sequence. Rings that are not closed get a copy of their first point
// appended; flat itself is never written to.
func buildSequence(flat []float64, start, end, stride int, r role) ([]ctgeom.Point, error) {
	if stride < 2 || start < 0 || start > end || end > len(flat) || (end-start)%stride != 0 {
		return nil, &Error{
			Kind: DegenerateGeometry,
			Msg: fmt.Sprintf("%s offsets [%d:%d] with stride %d do not fit a buffer of %d ordinates",
				r, start, end, stride, len(flat)),
		}
	}
	n := (end - start) / stride
	size := n
	if r.isRing() {
		size++
	}
	pts := make([]ctgeom.Point, n, size)
	for i := 0; i < n; i++ {
		o := start + i*stride
		p, err := adaptCoord(flat[o : o+stride])
		if err != nil {
			e := err.(*Error)
			e.Msg = fmt.Sprintf("%s coordinate %d: %s", r, i, e.Msg)
			return nil, e
		}
		pts[i] = p
	}
	return finishSequence(pts, r)
}

// finishSequence closes rings and checks the minimum point counts.
func finishSequence(pts []ctgeom.Point, r role) ([]ctgeom.Point, error) {
	switch {
	case r.isRing():
		if len(pts) > 0 && !pts[0].Equals(pts[len(pts)-1]) {
			pts = append(pts, pts[0])
		}
		if len(pts) == 0 || !distinctAtLeast3(pts[:len(pts)-1]) {
			return nil, &Error{
				Kind: DegenerateGeometry,
				Msg:  fmt.Sprintf("%s has fewer than 3 distinct coordinates", r),
			}
		}
	case r == roleLineString:
		if len(pts) < 2 {
			return nil, &Error{
				Kind: DegenerateGeometry,
				Msg:  fmt.Sprintf("%s has %d coordinates; at least 2 are required", r, len(pts)),
			}
		}
	}
	return pts, nil
}

// distinctAtLeast3 reports whether pts holds at least three distinct points.
func distinctAtLeast3(pts []ctgeom.Point) bool {
	var seen [3]ctgeom.Point
	n := 0
next:
	for _, p := range pts {
		for _, s := range seen[:n] {
			if p.Equals(s) {
				continue next
			}
		}
		seen[n] = p
		n++
		if n == len(seen) {
			return true
		}
	}
	return false
}

// appendSequence is the reverse of buildSequence: it appends pts to an XY
// flat buffer, closing rings that are open, and returns the extended
// buffer.
func appendSequence(flat []float64, pts []ctgeom.Point, r role) ([]float64, error) {
	for i, p := range pts {
		if err := checkFinite(p); err != nil {
			e := err.(*Error)
			e.Msg = fmt.Sprintf("%s coordinate %d: %s", r, i, e.Msg)
			return flat, e
		}
	}
	checked := pts
	if r.isRing() && len(pts) > 0 && !pts[0].Equals(pts[len(pts)-1]) {
		checked = make([]ctgeom.Point, len(pts), len(pts)+1)
		copy(checked, pts)
	}
	checked, err := finishSequence(checked, r)
	if err != nil {
		return flat, err
	}
	for _, p := range checked {
		flat = append(flat, p.X, p.Y)
	}
	return flat, nil
}
