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

// Package pivot converts native geometries to target geometries through
// Well-Known Text. It is the slow path: the native geometry is written as
// text by go-geom's own encoder and the text is parsed into ctessum/geom
// values. It exists as an explicit fallback and as a test oracle for the
// direct translator, and it does not depend on it.
package pivot

import (
	"fmt"
	"reflect"

	ctgeom "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// EncodeError is returned when a native geometry cannot be written as WKT.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("pivot: encoding WKT: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError is returned when WKT cannot be parsed into a target geometry.
type DecodeError struct {
	// Offset is the byte offset in the input where parsing failed.
	Offset int
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	s := fmt.Sprintf("pivot: decoding WKT at offset %d: %s", e.Offset, e.Msg)
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode writes g as WKT with enough digits to round-trip every float64.
func Encode(g geom.T) (string, error) {
	if g == nil {
		return "", &EncodeError{Err: fmt.Errorf("nil geometry")}
	}
	if v := reflect.ValueOf(g); v.Kind() == reflect.Ptr && v.IsNil() {
		return "", &EncodeError{Err: fmt.Errorf("nil %T", g)}
	}
	s, err := wkt.Marshal(g)
	if err != nil {
		return "", &EncodeError{Err: err}
	}
	return s, nil
}

// Pivot converts g by encoding it as WKT and decoding the result.
func Pivot(g geom.T) (ctgeom.Geom, error) {
	s, err := Encode(g)
	if err != nil {
		return nil, err
	}
	return Decode(s)
}
