// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"

	"github.com/SnellerInc/smile/compr"

	"sigs.k8s.io/yaml"
)

// config is the optional configuration file.
// Flags given on the command line take
// precedence over the values here.
type config struct {
	SharedKeys    *bool  `json:"shared_keys,omitempty"`
	SharedValues  *bool  `json:"shared_values,omitempty"`
	RawBinary     *bool  `json:"raw_binary,omitempty"`
	MaxDepth      int    `json:"max_depth,omitempty"`
	Pretty        *bool  `json:"pretty,omitempty"`
	Indent        string `json:"indent,omitempty"`
	EscapeUnicode *bool  `json:"escape_unicode,omitempty"`
	Compression   string `json:"compression,omitempty"`
}

const defaultIndent = "    "

func loadConfig(path string) (*config, error) {
	if path == "" {
		path = os.Getenv("SMILE_CONFIG")
	}
	c := &config{}
	if path == "" {
		return c, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.UnmarshalStrict(buf, c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if c.MaxDepth < 0 {
		return nil, fmt.Errorf("config %s: max_depth must not be negative", path)
	}
	if c.Compression != "" && compr.Compression(c.Compression) == nil {
		return nil, fmt.Errorf("config %s: unknown compression %q", path, c.Compression)
	}
	if dashv {
		logf("loaded config from %s", path)
	}
	return c, nil
}

// flagBool returns the value of a boolean flag,
// falling back to conf when the flag was not
// given explicitly
func (e *env) flagBool(name string, val bool, conf *bool) bool {
	if e.fs.Changed(name) || conf == nil {
		return val
	}
	return *conf
}

// flagString is flagBool for string flags;
// an empty conf value means unset
func (e *env) flagString(name string, val, conf string) string {
	if e.fs.Changed(name) || conf == "" {
		return val
	}
	return conf
}

func (e *env) maxDepth(val int) int {
	if e.fs.Changed("max-depth") || e.conf.MaxDepth == 0 {
		return val
	}
	return e.conf.MaxDepth
}
