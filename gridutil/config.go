/*
Copyright © 2026 the gridcast authors.
This file is part of gridcast.

gridcast is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gridcast is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gridcast.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return make(map[string]string), nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("gridutil: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("gridutil: invalid type for variable %s: %#v", varName, i)
	}
}

// getFloatMap returns a map[string]float64 from a viper configuration,
// where the values may be numbers or strings holding numbers.
func getFloatMap(varName string, cfg *viper.Viper) (map[string]float64, error) {
	var m map[string]interface{}
	switch v := cfg.Get(varName).(type) {
	case map[string]interface{}:
		m = v
	default:
		s, err := GetStringMapString(varName, cfg)
		if err != nil {
			return nil, err
		}
		m = make(map[string]interface{}, len(s))
		for k, vv := range s {
			m[k] = vv
		}
	}
	o := make(map[string]float64, len(m))
	for k, v := range m {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("gridutil: parsing %s.%s: %v", varName, k, err)
		}
		o[k] = f
	}
	return o, nil
}

// removeEmpty removes empty strings from s, for example those left by
// an empty list flag.
func removeEmpty(s []string) []string {
	var o []string
	for _, v := range s {
		if v = strings.TrimSpace(v); v != "" {
			o = append(o, v)
		}
	}
	return o
}

// checkOutputFile makes sure that the output file is specified and its
// directory or storage bucket exists.
func checkOutputFile(ctx context.Context, f string) error {
	if f == "" {
		return fmt.Errorf(`gridutil: you need to specify an output file (for example: --Output="output.nc")`)
	}
	if IsBlob(f) {
		u, err := url.Parse(f)
		if err != nil {
			return err
		}
		if _, err = OpenBucket(ctx, u.Scheme+"://"+u.Host); err != nil {
			return fmt.Errorf("gridutil: error when checking Output location: %v", err)
		}
		return nil
	}
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return fmt.Errorf("gridutil: the Output directory doesn't exist: %v", err)
	}
	return nil
}
