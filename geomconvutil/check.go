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
	"fmt"
	"io"

	ctgeom "github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/geomconv"
	"golang.org/x/sync/errgroup"
)

// check converts every record directly and through WKT and writes a line
// to w for each record where the results disagree. It returns an error if
// any record disagrees.
func check(ctx context.Context, c geomconv.Converter, recs []Record, tolerance float64, workers int, w io.Writer, log logrus.FieldLogger) error {
	reports := make([]string, len(recs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = compare(c, rec, tolerance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	var n int
	for i, r := range reports {
		if r == "" {
			continue
		}
		n++
		fmt.Fprintf(w, "line %d: %s\n", recs[i].Line, r)
	}
	log.WithFields(logrus.Fields{
		"records":   len(recs),
		"disagreed": n,
	}).Info("check finished")
	if n > 0 {
		return fmt.Errorf("geomconv: %d of %d records disagree", n, len(recs))
	}
	return nil
}

// compare returns a description of how the two conversions of rec
// disagree, or "" if they agree. Records that fail both ways agree.
func compare(c geomconv.Converter, rec Record, tolerance float64) string {
	direct, derr := c.Convert(rec.Geom)
	text, terr := c.ConvertViaText(rec.Geom)
	return disagreement(direct, text, derr, terr, tolerance)
}

// disagreement describes how the direct and WKT results differ. Similar
// only walks the members of its receiver, so both directions are checked.
func disagreement(direct, text ctgeom.Geom, derr, terr error, tolerance float64) string {
	switch {
	case derr != nil && terr != nil:
		return ""
	case derr != nil:
		return fmt.Sprintf("direct conversion failed: %v", derr)
	case terr != nil:
		return fmt.Sprintf("WKT conversion failed: %v", terr)
	case !direct.Similar(text, tolerance) || !text.Similar(direct, tolerance):
		return fmt.Sprintf("direct %s and WKT %s results differ", variant(direct), variant(text))
	}
	return ""
}
