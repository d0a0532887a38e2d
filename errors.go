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
)

// Kind is the category of a conversion failure. The set of kinds is closed.
// Kind values are themselves errors so that callers can match them with
// errors.Is:
//
//	if errors.Is(err, geomconv.DegenerateGeometry) { ... }
type Kind int

// These are the kinds of conversion failures.
const (
	// InvalidCoordinate means an ordinate was NaN or infinite.
	InvalidCoordinate Kind = iota + 1
	// DegenerateGeometry means a ring or line string had too few points,
	// or the native ring-offset metadata did not describe the buffer.
	DegenerateGeometry
	// UnsupportedVariant means the geometry type has no designated mapping.
	UnsupportedVariant
	// EncodingError means the native geometry could not be written as text.
	EncodingError
	// DecodingError means the pivot text could not be parsed into the target.
	DecodingError
)

func (k Kind) String() string {
	switch k {
	case InvalidCoordinate:
		return "invalid coordinate"
	case DegenerateGeometry:
		return "degenerate geometry"
	case UnsupportedVariant:
		return "unsupported variant"
	case EncodingError:
		return "encoding error"
	case DecodingError:
		return "decoding error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) Error() string { return "geomconv: " + k.String() }

// Error is the error returned by every conversion in this package.
type Error struct {
	Kind Kind

	// Path holds the index of the failing child at each collection level,
	// outermost first. It is empty when the top-level geometry failed.
	Path []int

	// Variant is the name of the geometry type being converted when
	// the failure occurred.
	Variant string

	// Coord holds the offending ordinates for InvalidCoordinate errors.
	Coord []float64

	// Msg describes the failure.
	Msg string

	// Err is the underlying error, if any, for example a parser message.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("geomconv: ")
	b.WriteString(e.Kind.String())
	if e.Variant != "" {
		fmt.Fprintf(&b, " in %s", e.Variant)
	}
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		for i, idx := range e.Path {
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprintf(&b, "[%d]", idx)
		}
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Coord != nil {
		fmt.Fprintf(&b, " %v", e.Coord)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is e's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func newError(k Kind, variant, format string, a ...interface{}) *Error {
	return &Error{Kind: k, Variant: variant, Msg: fmt.Sprintf(format, a...)}
}

// atIndex records that err happened in child i of a collection. If err is
// already an *Error raised deeper in the tree, i is prepended to its Path.
func atIndex(err error, i int) error {
	e, ok := err.(*Error)
	if !ok {
		return &Error{Kind: UnsupportedVariant, Path: []int{i}, Err: err}
	}
	e.Path = append([]int{i}, e.Path...)
	return e
}
