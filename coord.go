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
	"math"
	"strings"

	ctgeom "github.com/ctessum/geom"
)

// ZPolicy says what to do with ordinates beyond X and Y. The target model
// is strictly two dimensional, so Z and M can only be dropped or refused.
type ZPolicy int

const (
	// DropZ validates and then discards Z and M ordinates.
	DropZ ZPolicy = iota
	// RejectZ fails with UnsupportedVariant when the native layout holds
	// Z or M ordinates.
	RejectZ
)

func (p ZPolicy) String() string {
	switch p {
	case DropZ:
		return "drop"
	case RejectZ:
		return "reject"
	default:
		return "unknown"
	}
}

// adaptCoord converts one stride-wide native coordinate. Every ordinate is
// checked, including the ones that are dropped.
func adaptCoord(c []float64) (ctgeom.Point, error) {
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ctgeom.Point{}, &Error{
				Kind:  InvalidCoordinate,
				Coord: append([]float64(nil), c...),
				Msg:   "non-finite ordinate",
			}
		}
	}
	return ctgeom.Point{X: c[0], Y: c[1]}, nil
}

// checkFinite is the reverse-direction counterpart of adaptCoord's
// validation.
func checkFinite(p ctgeom.Point) error {
	if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		return &Error{
			Kind:  InvalidCoordinate,
			Coord: []float64{p.X, p.Y},
			Msg:   "non-finite ordinate",
		}
	}
	return nil
}

// ParseZPolicy parses "drop" or "reject".
func ParseZPolicy(s string) (ZPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop", "":
		return DropZ, nil
	case "reject":
		return RejectZ, nil
	default:
		return 0, fmt.Errorf("geomconv: invalid z policy %q; valid options are drop and reject", s)
	}
}
