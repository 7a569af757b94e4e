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
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lnashier/viper"
)

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/file.nc":  true,
		"s3://bucket/file.nc":  true,
		"file://bucket/a.nc":   true,
		"/home/user/file.nc":   false,
		"http://example.com/a": false,
	} {
		if have := IsBlob(path); have != want {
			t.Errorf("%s: have %v, want %v", path, have, want)
		}
	}
}

func TestOpenBucketInvalid(t *testing.T) {
	if _, err := OpenBucket(context.Background(), "ftp://bucket"); err == nil {
		t.Error("expected error for invalid provider")
	}
}

func TestMaybeDownloadLocal(t *testing.T) {
	ctx := context.Background()
	for _, p := range []string{"/dev/null", "/blah/test/"} {
		k, err := maybeDownload(ctx, p)
		if err != nil {
			t.Fatal(err)
		}
		if k != p {
			t.Errorf("have %s, want %s", k, p)
		}
	}
}

func TestMaybeDownloadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/elevation.nc" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "elevation data")
	}))
	defer srv.Close()
	ctx := context.Background()

	k, err := maybeDownload(ctx, srv.URL+"/data/elevation.nc")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(filepath.Dir(k))
	if !strings.HasSuffix(k, "elevation.nc") {
		t.Errorf("expected tempDir/elevation.nc, got %s", k)
	}
	b, err := ioutil.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "elevation data" {
		t.Errorf("downloaded %q", b)
	}

	if _, err := maybeDownload(ctx, srv.URL+"/missing.nc"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBlobRoundTrip(t *testing.T) {
	const bucket = "tmp_bucket"
	if err := os.MkdirAll(bucket, 0755); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucket)
	ctx := context.Background()
	dst := "file://" + bucket + "/output.txt"

	if err := checkOutputFile(ctx, dst); err != nil {
		t.Fatal(err)
	}
	u := new(uploader)
	local := u.maybeUpload(dst)
	if local == dst || u.err != nil {
		t.Fatalf("local path %s, error %v", local, u.err)
	}
	if err := ioutil.WriteFile(local, []byte("shaded"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := u.uploadOutput(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(u.dir); !os.IsNotExist(err) {
		t.Errorf("temporary directory was not removed: %v", err)
	}

	k, err := maybeDownload(ctx, dst)
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(filepath.Dir(k))
	b, err := ioutil.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "shaded" {
		t.Errorf("round trip gave %q", b)
	}
}

func TestUploaderLocal(t *testing.T) {
	u := new(uploader)
	if p := u.maybeUpload("out.nc"); p != "out.nc" {
		t.Errorf("local path changed to %s", p)
	}
	if err := u.uploadOutput(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestCheckOutputFile(t *testing.T) {
	ctx := context.Background()
	if err := checkOutputFile(ctx, ""); err == nil {
		t.Error("expected error for empty output")
	}
	if err := checkOutputFile(ctx, "/does/not/exist/out.nc"); err == nil {
		t.Error("expected error for missing directory")
	}
	if err := checkOutputFile(ctx, filepath.Join(os.TempDir(), "out.nc")); err != nil {
		t.Error(err)
	}
}

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()
	cfg.Set("json", `{"a":"x + 1"}`)
	cfg.Set("map", map[string]interface{}{"b": "y"})
	cfg.Set("blank", " ")
	cfg.Set("bad", 5)

	for name, want := range map[string]map[string]string{
		"json":  {"a": "x + 1"},
		"map":   {"b": "y"},
		"blank": {},
		"unset": {},
	} {
		have, err := GetStringMapString(name, cfg)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if !reflect.DeepEqual(have, want) {
			t.Errorf("%s: have %v, want %v", name, have, want)
		}
	}
	if _, err := GetStringMapString("bad", cfg); err == nil {
		t.Error("expected error for invalid type")
	}
}

func TestGetFloatMap(t *testing.T) {
	cfg := viper.New()
	cfg.Set("json", `{"k":"2.5"}`)
	cfg.Set("map", map[string]interface{}{"k": 3})
	cfg.Set("bad", `{"k":"fast"}`)

	for name, want := range map[string]float64{"json": 2.5, "map": 3} {
		have, err := getFloatMap(name, cfg)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !reflect.DeepEqual(have, map[string]float64{"k": want}) {
			t.Errorf("%s: have %v", name, have)
		}
	}
	if _, err := getFloatMap("bad", cfg); err == nil {
		t.Error("expected error for non-numeric value")
	}
}

func TestRemoveEmpty(t *testing.T) {
	have := removeEmpty([]string{"", "area", " ", "hillshade"})
	if !reflect.DeepEqual(have, []string{"area", "hillshade"}) {
		t.Errorf("have %v", have)
	}
}
