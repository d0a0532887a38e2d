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
	"context"
	"errors"
	"fmt"

	ctgeom "github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/geomconv"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"
)

// Result is a converted geometry and the input line it came from.
type Result struct {
	Line int
	Geom ctgeom.Geom
}

// Pipeline converts records concurrently.
type Pipeline struct {
	Converter geomconv.Converter
	Fallback  Fallback

	// Transform, if not nil, reprojects every converted geometry.
	Transform proj.Transformer

	// Workers is the number of records converted at once.
	Workers int

	// SkipInvalid leaves records that fail out of the results
	// instead of stopping the run.
	SkipInvalid bool

	Log logrus.FieldLogger
}

// Run converts recs and returns the results in input order.
func (p *Pipeline) Run(ctx context.Context, recs []Record) ([]Result, error) {
	results := make([]Result, len(recs))
	ok := make([]bool, len(recs))
	g, ctx := errgroup.WithContext(ctx)
	if p.Workers > 0 {
		g.SetLimit(p.Workers)
	}
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := p.convert(rec)
			if err != nil {
				fields := logrus.Fields{"line": rec.Line}
				var e *geomconv.Error
				if errors.As(err, &e) {
					fields["kind"] = e.Kind.String()
					fields["variant"] = e.Variant
				}
				if p.SkipInvalid {
					p.Log.WithFields(fields).Warnf("skipping record: %v", err)
					return nil
				}
				p.Log.WithFields(fields).Error(err)
				return fmt.Errorf("geomconv: input line %d: %v", rec.Line, err)
			}
			results[i] = Result{Line: rec.Line, Geom: out}
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := results[:0]
	for i, r := range results {
		if ok[i] {
			out = append(out, r)
		}
	}
	p.Log.WithFields(logrus.Fields{
		"records":   len(recs),
		"converted": len(out),
	}).Info("conversion finished")
	return out, nil
}

// convert converts one record on the configured path and reprojects it.
func (p *Pipeline) convert(rec Record) (ctgeom.Geom, error) {
	c := p.Converter
	var (
		g   ctgeom.Geom
		err error
	)
	switch p.Fallback {
	case AlwaysPivot:
		g, err = c.ConvertViaText(rec.Geom)
	case AutoFallback:
		g, err = c.Convert(rec.Geom)
		if errors.Is(err, geomconv.UnsupportedVariant) || errors.Is(err, geomconv.DegenerateGeometry) {
			p.Log.WithFields(logrus.Fields{"line": rec.Line}).Debugf("retrying through WKT: %v", err)
			g, err = c.ConvertViaText(rec.Geom)
		}
	default:
		g, err = c.Convert(rec.Geom)
	}
	if err != nil {
		return nil, err
	}
	if p.Transform != nil {
		if g, err = g.Transform(p.Transform); err != nil {
			return nil, fmt.Errorf("geomconv: reprojecting: %v", err)
		}
	}
	return g, nil
}

// transformFromConfig returns the transform between the input and output
// spatial references, or nil if either is empty.
func transformFromConfig(inputSR, outputSR string) (proj.Transformer, error) {
	if inputSR == "" || outputSR == "" {
		return nil, nil
	}
	src, err := proj.Parse(inputSR)
	if err != nil {
		return nil, fmt.Errorf("geomconv: parsing InputSR: %v", err)
	}
	dst, err := proj.Parse(outputSR)
	if err != nil {
		return nil, fmt.Errorf("geomconv: parsing OutputSR: %v", err)
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("geomconv: creating reprojection: %v", err)
	}
	return t, nil
}

func workersFromConfig(cfg *viper.Viper) (int, error) {
	n, err := cast.ToIntE(cfg.Get("Workers"))
	if err != nil {
		return 0, fmt.Errorf("geomconv: invalid Workers: %v", err)
	}
	if n < 1 {
		return 0, fmt.Errorf("geomconv: Workers must be at least 1 but is %d", n)
	}
	return n, nil
}

func toleranceFromConfig(cfg *viper.Viper) (float64, error) {
	tol, err := cast.ToFloat64E(cfg.Get("Tolerance"))
	if err != nil {
		return 0, fmt.Errorf("geomconv: invalid Tolerance: %v", err)
	}
	if tol < 0 {
		return 0, fmt.Errorf("geomconv: Tolerance must not be negative but is %g", tol)
	}
	return tol, nil
}
