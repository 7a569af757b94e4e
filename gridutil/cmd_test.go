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
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spatialmodel/gridcast"
)

// writeTestDataset writes a dataset with an elevation surface and a
// batched rate variable to a new file in dir.
func writeTestDataset(t *testing.T, dir string) string {
	elev, err := gridcast.NewArray("topography__elevation", []string{"y", "x"},
		[][]float64{{0, 1, 2}, {100, 200, 300}}, []float64{0, 1, 2, 1, 2, 3, 2, 3, 5})
	if err != nil {
		t.Fatal(err)
	}
	elev.Units = "m"
	rate, err := gridcast.NewArray("rate", []string{"batch", "x"},
		[][]float64{{10, 20}, {100, 200, 300}}, []float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	ds, err := gridcast.NewDataset(elev, rate)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "input.nc")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.Write(f); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func readTestDataset(t *testing.T, path string) *gridcast.Dataset {
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ds, err := gridcast.ReadDataset(f)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "gridutil")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	Root.SetOutput(buf)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "gridcast v" + gridcast.Version + "\n"; buf.String() != want {
		t.Errorf("have %q, want %q", buf.String(), want)
	}
}

func TestHillshadeCmd(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "shaded.nc")
	Cfg.Set("Input", writeTestDataset(t, dir))
	Cfg.Set("Output", out)
	Root.SetArgs([]string{"hillshade", "--Hillshade.Azimuth=180"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	ds := readTestDataset(t, out)
	if have, want := ds.Names(), []string{"hillshade", "rate", "topography__elevation"}; !reflect.DeepEqual(have, want) {
		t.Fatalf("variables %v; want %v", have, want)
	}
	h := ds.Vars["hillshade"]
	if !reflect.DeepEqual(h.Dims, []string{"y", "x"}) {
		t.Errorf("hillshade dimensions %v", h.Dims)
	}
	for i, v := range h.Elements {
		if v < 0 || v > 1 {
			t.Errorf("hillshade[%d] = %g is outside [0, 1]", i, v)
		}
	}
	if u := ds.Vars["topography__elevation"].Units; u != "m" {
		t.Errorf("elevation units %q", u)
	}
}

func TestHillshadeCmdMissingInput(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	Cfg.Set("Input", filepath.Join(dir, "missing.nc"))
	Cfg.Set("Output", filepath.Join(dir, "shaded.nc"))
	Root.SetArgs([]string{"hillshade"})
	if err := Root.Execute(); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestMeshCmd(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "surface.vtk")
	Cfg.Set("Input", writeTestDataset(t, dir))
	Cfg.Set("Output", out)
	Cfg.Set("Mesh.Warp", false)
	defer Cfg.Set("Mesh.Warp", true)
	Root.SetArgs([]string{"mesh"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"DIMENSIONS 3 3 1", "POINTS 9 double", "300 2 0\n", "SCALARS topography__elevation double 1"} {
		if !strings.Contains(string(b), want) {
			t.Errorf("output does not contain %q:\n%s", want, b)
		}
	}
}

func TestBatchCmd(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "batched.nc")
	Cfg.Set("Input", writeTestDataset(t, dir))
	Cfg.Set("Output", out)
	Cfg.Set("Batch.ModelFile", "")
	Cfg.Set("Batch.Outputs", map[string]string{"scaled": "rate * k"})
	Cfg.Set("Batch.Params", map[string]interface{}{"k": 2})
	Root.SetArgs([]string{"batch", "--Workers=2"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	s := readTestDataset(t, out).Vars["scaled"]
	if s == nil {
		t.Fatal("missing output variable")
	}
	if !reflect.DeepEqual(s.Dims, []string{"batch", "x"}) {
		t.Errorf("dimensions %v", s.Dims)
	}
	if want := []float64{2, 4, 6, 8, 10, 12}; !reflect.DeepEqual(s.Elements, want) {
		t.Errorf("values %v; want %v", s.Elements, want)
	}
}

func TestBatchCmdModelFile(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	model := filepath.Join(dir, "model.toml")
	const m = `
[Outputs]
scaled = "rate * k + offset"

[Params]
k = 1.0
offset = 0.5

[Units]
scaled = "kg/s"
`
	if err := ioutil.WriteFile(model, []byte(m), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "batched.nc")
	Cfg.Set("Input", writeTestDataset(t, dir))
	Cfg.Set("Output", out)
	Cfg.Set("Batch.ModelFile", model)
	Cfg.Set("Batch.Outputs", map[string]string{})
	Cfg.Set("Batch.Params", `{"k":"3"}`)
	defer Cfg.Set("Batch.ModelFile", "")
	Root.SetArgs([]string{"batch"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	s := readTestDataset(t, out).Vars["scaled"]
	if s == nil {
		t.Fatal("missing output variable")
	}
	if want := []float64{3.5, 6.5, 9.5, 12.5, 15.5, 18.5}; !reflect.DeepEqual(s.Elements, want) {
		t.Errorf("values %v; want %v", s.Elements, want)
	}
	if s.Units != "kg/s" {
		t.Errorf("units %q", s.Units)
	}
}

func TestBatchCmdNoOutputs(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	Cfg.Set("Input", writeTestDataset(t, dir))
	Cfg.Set("Output", filepath.Join(dir, "batched.nc"))
	Cfg.Set("Batch.ModelFile", "")
	Cfg.Set("Batch.Outputs", map[string]string{})
	Root.SetArgs([]string{"batch"})
	if err := Root.Execute(); err == nil {
		t.Error("expected error for a model without outputs")
	}
}

func TestNotebooksCmd(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	root := filepath.Join(dir, "notebooks")
	for _, f := range []string{"b.ipynb", "a/first.ipynb", "readme.md"} {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := ioutil.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	log := filepath.Join(dir, "executed.txt")
	papermill := filepath.Join(dir, "papermill")
	if err := ioutil.WriteFile(papermill, []byte("#!/bin/sh\necho \"$1\" >> "+log+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	Cfg.Set("Notebooks.Root", root)
	Cfg.Set("Notebooks.Papermill", papermill)
	Root.SetArgs([]string{"notebooks"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	have := strings.Split(strings.TrimSpace(string(b)), "\n")
	want := []string{filepath.Join(root, "a", "first.ipynb"), filepath.Join(root, "b.ipynb")}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("executed %v; want %v", have, want)
	}
}
