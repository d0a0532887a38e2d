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
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
)

// writeConfig writes the effective value of every option except config
// to w as TOML.
func writeConfig(w io.Writer, cfg *viper.Viper) error {
	m := make(map[string]interface{})
	for _, option := range options {
		if option.name == "config" {
			continue
		}
		if v := cfg.Get(option.name); v != nil {
			m[option.name] = v
		}
	}
	if err := toml.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("geomconv: writing configuration: %v", err)
	}
	return nil
}
