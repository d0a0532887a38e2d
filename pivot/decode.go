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
	"math"
	"strconv"
	"strings"

	ctgeom "github.com/ctessum/geom"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokNumber
	tokOpen
	tokClose
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokWord:
		return "word"
	case tokNumber:
		return "number"
	case tokOpen:
		return "'('"
	case tokClose:
		return "')'"
	case tokComma:
		return "','"
	default:
		return "end of input"
	}
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// lexer splits WKT into tokens. Words are upper-cased.
type lexer struct {
	s   string
	pos int
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isNumberStart(c byte) bool { return c >= '0' && c <= '9' || c == '-' || c == '+' || c == '.' }

func (l *lexer) next() (token, error) {
	for l.pos < len(l.s) && isSpace(l.s[l.pos]) {
		l.pos++
	}
	if l.pos == len(l.s) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}
	start := l.pos
	switch c := l.s[l.pos]; {
	case c == '(':
		l.pos++
		return token{kind: tokOpen, pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokClose, pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, pos: start}, nil
	case isLetter(c):
		for l.pos < len(l.s) && isLetter(l.s[l.pos]) {
			l.pos++
		}
		return token{kind: tokWord, text: strings.ToUpper(l.s[start:l.pos]), pos: start}, nil
	case isNumberStart(c):
		for l.pos < len(l.s) && (isNumberStart(l.s[l.pos]) || isLetter(l.s[l.pos])) {
			l.pos++
		}
		text := l.s[start:l.pos]
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, &DecodeError{Offset: start, Msg: fmt.Sprintf("invalid number %q", text), Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return token{}, &DecodeError{Offset: start, Msg: fmt.Sprintf("non-finite number %q", text)}
		}
		return token{kind: tokNumber, text: text, num: v, pos: start}, nil
	default:
		return token{}, &DecodeError{Offset: start, Msg: fmt.Sprintf("unexpected character %q", c)}
	}
}

// parser is a recursive descent WKT parser with one token of lookahead.
type parser struct {
	lex lexer
	tok token
	// dim is the number of ordinates per coordinate in the current
	// geometry, or 0 until the first coordinate fixes it.
	dim int
}

// Decode parses WKT into a target geometry. Ordinates beyond X and Y are
// dropped. Rings that are not closed are closed.
func Decode(s string) (ctgeom.Geom, error) {
	p := &parser{lex: lexer{s: s}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	g, err := p.geometry()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("trailing %s after geometry", p.tok.kind)
	}
	return g, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) errorf(format string, a ...interface{}) error {
	return &DecodeError{Offset: p.tok.pos, Msg: fmt.Sprintf(format, a...)}
}

func (p *parser) expect(k tokenKind) error {
	if p.tok.kind != k {
		return p.errorf("expected %s, found %s", k, p.tok.kind)
	}
	return p.advance()
}

// empty consumes an EMPTY keyword if there is one.
func (p *parser) empty() (bool, error) {
	if p.tok.kind == tokWord && p.tok.text == "EMPTY" {
		return true, p.advance()
	}
	return false, nil
}

// listStart consumes either EMPTY or the opening parenthesis of a list.
func (p *parser) listStart() (isEmpty bool, err error) {
	if isEmpty, err = p.empty(); isEmpty || err != nil {
		return isEmpty, err
	}
	return false, p.expect(tokOpen)
}

// listNext consumes a separator and reports whether another element
// follows.
func (p *parser) listNext() (bool, error) {
	switch p.tok.kind {
	case tokComma:
		return true, p.advance()
	case tokClose:
		return false, p.advance()
	default:
		return false, p.errorf("expected ',' or ')', found %s", p.tok.kind)
	}
}

func (p *parser) geometry() (ctgeom.Geom, error) {
	if p.tok.kind != tokWord {
		return nil, p.errorf("expected geometry type, found %s", p.tok.kind)
	}
	typ, typPos := p.tok.text, p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.dimension(); err != nil {
		return nil, err
	}
	switch typ {
	case "POINT":
		return p.point()
	case "LINESTRING":
		isEmpty, err := p.listStart()
		if err != nil || isEmpty {
			return ctgeom.LineString{}, err
		}
		pts, err := p.coords()
		return ctgeom.LineString(pts), err
	case "POLYGON":
		return p.polygon()
	case "MULTIPOINT":
		return p.multiPoint()
	case "MULTILINESTRING":
		return p.multiLineString()
	case "MULTIPOLYGON":
		return p.multiPolygon()
	case "GEOMETRYCOLLECTION":
		return p.collection()
	default:
		return nil, &DecodeError{Offset: typPos, Msg: fmt.Sprintf("unsupported geometry type %s", typ)}
	}
}

// dimension consumes an optional Z, M or ZM tag.
func (p *parser) dimension() error {
	p.dim = 0
	if p.tok.kind != tokWord {
		return nil
	}
	switch p.tok.text {
	case "Z", "M":
		p.dim = 3
	case "ZM":
		p.dim = 4
	default:
		return nil
	}
	return p.advance()
}

func (p *parser) point() (ctgeom.Geom, error) {
	if isEmpty, err := p.empty(); err != nil {
		return nil, err
	} else if isEmpty {
		return nil, p.errorf("POINT EMPTY has no target representation")
	}
	if err := p.expect(tokOpen); err != nil {
		return nil, err
	}
	pt, err := p.coord()
	if err != nil {
		return nil, err
	}
	return pt, p.expect(tokClose)
}

func (p *parser) coord() (ctgeom.Point, error) {
	pos := p.tok.pos
	var v [4]float64
	n := 0
	for p.tok.kind == tokNumber {
		if n == len(v) {
			return ctgeom.Point{}, p.errorf("too many ordinates")
		}
		v[n] = p.tok.num
		n++
		if err := p.advance(); err != nil {
			return ctgeom.Point{}, err
		}
	}
	if n < 2 {
		return ctgeom.Point{}, &DecodeError{Offset: pos, Msg: fmt.Sprintf("coordinate has %d ordinates; at least 2 are required", n)}
	}
	if p.dim == 0 {
		p.dim = n
	} else if n != p.dim {
		return ctgeom.Point{}, &DecodeError{Offset: pos, Msg: fmt.Sprintf("coordinate has %d ordinates; expected %d", n, p.dim)}
	}
	return ctgeom.Point{X: v[0], Y: v[1]}, nil
}

// coords parses coordinates up to and including the closing parenthesis.
func (p *parser) coords() ([]ctgeom.Point, error) {
	var pts []ctgeom.Point
	for {
		pt, err := p.coord()
		if err != nil {
			return nil, err
		}
		pts = append(pts, pt)
		more, err := p.listNext()
		if err != nil {
			return nil, err
		}
		if !more {
			return pts, nil
		}
	}
}

func (p *parser) ring() ([]ctgeom.Point, error) {
	if err := p.expect(tokOpen); err != nil {
		return nil, err
	}
	pts, err := p.coords()
	if err != nil {
		return nil, err
	}
	if len(pts) > 0 && !pts[0].Equals(pts[len(pts)-1]) {
		pts = append(pts, pts[0])
	}
	return pts, nil
}

func (p *parser) polygon() (ctgeom.Polygon, error) {
	isEmpty, err := p.listStart()
	if err != nil || isEmpty {
		return ctgeom.Polygon{}, err
	}
	var poly ctgeom.Polygon
	for {
		r, err := p.ring()
		if err != nil {
			return nil, err
		}
		poly = append(poly, r)
		more, err := p.listNext()
		if err != nil {
			return nil, err
		}
		if !more {
			return poly, nil
		}
	}
}

func (p *parser) multiPoint() (ctgeom.Geom, error) {
	isEmpty, err := p.listStart()
	if err != nil || isEmpty {
		return ctgeom.MultiPoint{}, err
	}
	var mp ctgeom.MultiPoint
	for {
		var pt ctgeom.Point
		switch p.tok.kind {
		case tokOpen:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if pt, err = p.coord(); err != nil {
				return nil, err
			}
			if err := p.expect(tokClose); err != nil {
				return nil, err
			}
		case tokWord:
			return nil, p.errorf("empty point in MULTIPOINT has no target representation")
		default:
			if pt, err = p.coord(); err != nil {
				return nil, err
			}
		}
		mp = append(mp, pt)
		more, err := p.listNext()
		if err != nil {
			return nil, err
		}
		if !more {
			return mp, nil
		}
	}
}

func (p *parser) multiLineString() (ctgeom.Geom, error) {
	isEmpty, err := p.listStart()
	if err != nil || isEmpty {
		return ctgeom.MultiLineString{}, err
	}
	var ml ctgeom.MultiLineString
	for {
		isEmpty, err := p.listStart()
		if err != nil {
			return nil, err
		}
		ls := ctgeom.LineString{}
		if !isEmpty {
			pts, err := p.coords()
			if err != nil {
				return nil, err
			}
			ls = pts
		}
		ml = append(ml, ls)
		more, err := p.listNext()
		if err != nil {
			return nil, err
		}
		if !more {
			return ml, nil
		}
	}
}

func (p *parser) multiPolygon() (ctgeom.Geom, error) {
	isEmpty, err := p.listStart()
	if err != nil || isEmpty {
		return ctgeom.MultiPolygon{}, err
	}
	var mp ctgeom.MultiPolygon
	for {
		poly, err := p.polygon()
		if err != nil {
			return nil, err
		}
		mp = append(mp, poly)
		more, err := p.listNext()
		if err != nil {
			return nil, err
		}
		if !more {
			return mp, nil
		}
	}
}

func (p *parser) collection() (ctgeom.Geom, error) {
	isEmpty, err := p.listStart()
	if err != nil || isEmpty {
		return ctgeom.GeometryCollection{}, err
	}
	var gc ctgeom.GeometryCollection
	for {
		g, err := p.geometry()
		if err != nil {
			return nil, err
		}
		gc = append(gc, g)
		more, err := p.listNext()
		if err != nil {
			return nil, err
		}
		if !more {
			return gc, nil
		}
	}
}
