package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/ironsheep/graphene-metrics/internal/config"
)

func runCommand(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// writeMicrograph writes a TIFF with one bright flake over a 20 px footer.
func writeMicrograph(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 120, 100))
	for y := 40; y < 46; y++ {
		for x := 30; x < 90; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

// writeOverrideConfig writes a configuration with a fixed 0.1 um/px scale
// and artifacts under dir/output.
func writeOverrideConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := config.Default(Version)
	cfg.TextRecognition.OverrideScale = true
	cfg.TextRecognition.ScaleBarHeight = 20
	cfg.TextRecognition.OverrideScaleMicrometers = 10
	cfg.TextRecognition.OverrideScalePixels = 100
	cfg.GrapheneAngles.Enabled = true
	cfg.Output.Directory = filepath.Join(dir, "output")

	path := filepath.Join(dir, "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Version(t *testing.T) {
	for _, arg := range []string{"version", "--version", "-v"} {
		code, out, _ := runCommand(t, arg)
		if code != 0 || !strings.HasPrefix(out, "graphene-metrics "+Version) {
			t.Errorf("%s: got code %d and %q", arg, code, out)
		}
	}
}

func TestRun_Usage(t *testing.T) {
	if code, out, _ := runCommand(t, "--help"); code != 0 || !strings.Contains(out, "Commands:") {
		t.Errorf("--help: got code %d and %q", code, out)
	}
	if code, _, _ := runCommand(t); code != 2 {
		t.Errorf("no arguments: got code %d, want 2", code)
	}
	if code, _, errOut := runCommand(t, "frobnicate"); code != 2 || !strings.Contains(errOut, "unknown command") {
		t.Errorf("unknown command: got code %d and %q", code, errOut)
	}
}

func TestRun_ExportConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exported.yaml")

	code, out, _ := runCommand(t, "export-config", path)
	if code != 0 || !strings.Contains(out, path) {
		t.Fatalf("got code %d and %q", code, out)
	}
	cfg, err := config.Load(path, Version)
	if err != nil {
		t.Fatalf("exported configuration does not load: %v", err)
	}
	if *cfg != *config.Default(Version) {
		t.Error("exported configuration differs from the defaults")
	}
}

func TestRun_Analyse(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeOverrideConfig(t, dir)
	imgPath := filepath.Join(dir, "sample.tif")
	writeMicrograph(t, imgPath)

	code, out, errOut := runCommand(t, "analyse", "-config", cfgPath, imgPath)
	if code != 0 {
		t.Fatalf("got code %d: %s", code, errOut)
	}
	for _, want := range []string{"Scale: 0.1000 um/px", "Area within range of graphene edge", "Graphene flakes: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "output", "sample_angles.csv")); err != nil {
		t.Errorf("artifacts not written: %v", err)
	}
}

func TestRun_AnalyseJSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeOverrideConfig(t, dir)
	imgPath := filepath.Join(dir, "sample.tif")
	writeMicrograph(t, imgPath)

	code, out, errOut := runCommand(t, "analyse", "-config", cfgPath, "-json", imgPath)
	if code != 0 {
		t.Fatalf("got code %d: %s", code, errOut)
	}
	var results []struct {
		Path  string `json:"path"`
		Scale struct {
			MicrometersPerPixel float64 `json:"micrometers_per_pixel"`
		} `json:"scale"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(results) != 1 || results[0].Path != imgPath || results[0].Scale.MicrometersPerPixel != 0.1 {
		t.Errorf("got %+v", results)
	}
}

func TestRun_AnalyseErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeOverrideConfig(t, dir)

	if code, _, _ := runCommand(t, "analyse", "-config", cfgPath); code != 1 {
		t.Errorf("no images: got code %d, want 1", code)
	}
	if code, _, _ := runCommand(t, "analyse", "-config", cfgPath, filepath.Join(dir, "missing.tif")); code != 1 {
		t.Errorf("missing image: got code %d, want 1", code)
	}
	if code, _, _ := runCommand(t, "analyse", "-bogus"); code != 1 {
		t.Errorf("unknown flag: got code %d, want 1", code)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("unknownKey: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := runCommand(t, "analyse", "-config", bad, "x.tif"); code != 1 {
		t.Errorf("invalid configuration: got code %d, want 1", code)
	}
}

func TestRun_Batch(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeOverrideConfig(t, dir)
	images := filepath.Join(dir, "images")
	if err := os.Mkdir(images, 0o755); err != nil {
		t.Fatal(err)
	}
	writeMicrograph(t, filepath.Join(images, "a.tif"))
	writeMicrograph(t, filepath.Join(images, "b.tif"))
	if err := os.WriteFile(filepath.Join(images, "c.tif"), []byte("broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if code, _, _ := runCommand(t, "batch", "-config", cfgPath, images); code != 1 {
		t.Errorf("fail-fast batch: got code %d, want 1", code)
	}

	code, out, errOut := runCommand(t, "batch", "-config", cfgPath, "-discard-errors", images)
	if code != 0 {
		t.Fatalf("got code %d: %s", code, errOut)
	}
	for _, want := range []string{"Targets", " - 2: ", "discarded", "Mean graphene edge exclusion area", "standard deviation: 0.00000"} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}

func TestRun_Serve(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeOverrideConfig(t, dir)

	var stdout, stderr bytes.Buffer
	in := strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"ping"}` + "\n")
	code := run(context.Background(), []string{"serve", "-config", cfgPath}, in, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("got code %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"id":7`) {
		t.Errorf("ping not answered: %q", stdout.String())
	}
}
