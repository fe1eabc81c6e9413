package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/graphene-metrics/internal/config"
)

type fakeReader struct{ text string }

func (f fakeReader) ReadLine(image.Image) (string, error) {
	return f.text, nil
}

// createTestImageFile writes img as PNG and returns its path
func createTestImageFile(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "micrograph.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// flakeImage is a 120x100 black image with one bright 60x6 flake and a
// 20 px footer.
func flakeImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 120, 100))
	for y := 40; y < 46; y++ {
		for x := 30; x < 90; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

// footerImage is an 800x300 micrograph whose footer holds two calibration
// lines 460 px apart.
func footerImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 800, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 800; x++ {
			switch {
			case y < 240:
				img.SetGray(x, y, color.Gray{Y: 100})
			case y >= 280 && y <= 281 && ((x >= 200 && x <= 260) || (x >= 600 && x <= 660)):
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// overrideArgs scales flakeImage at 0.1 um/px.
func overrideArgs(path string, extra map[string]interface{}) map[string]interface{} {
	args := map[string]interface{}{
		"path":              path,
		"scale_micrometers": 10,
		"scale_pixels":      100,
		"footer_height":     20,
	}
	for k, v := range extra {
		args[k] = v
	}
	return args
}

// callTool runs a tools/call request and decodes the text content into v.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, v interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}

	resp := s.handleRequest(context.Background(), req)
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil || v == nil {
		return resp
	}

	content := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
	text := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("invalid tool result %q: %v", text, err)
	}
	return resp
}

func requireSuccess(t *testing.T, resp *MCPResponse) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
}

type encodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
}

func TestHandleToolsCall_ImageInfo(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, flakeImage())

	var info struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Format    string `json:"format"`
		Grayscale bool   `json:"grayscale"`
	}
	requireSuccess(t, callTool(t, s, "graphene_image_info", map[string]interface{}{"path": path}, &info))

	if info.Width != 120 || info.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 120x100", info.Width, info.Height)
	}
	if info.Format != "png" || !info.Grayscale {
		t.Errorf("got format %q grayscale %v", info.Format, info.Grayscale)
	}
}

func TestHandleToolsCall_Scale(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, footerImage())

	var result struct {
		MicrometersPerPixel float64       `json:"micrometers_per_pixel"`
		PixelLength         int           `json:"pixel_length"`
		Text                string        `json:"text"`
		Label               *encodedImage `json:"label_image"`
	}
	args := map[string]interface{}{"path": path, "include_label": true}
	requireSuccess(t, callTool(t, s, "graphene_scale", args, &result))

	if result.PixelLength != 460 {
		t.Errorf("pixel length: got %d, want 460", result.PixelLength)
	}
	if want := 20.0 / 460; math.Abs(result.MicrometersPerPixel-want) > 1e-12 {
		t.Errorf("scale: got %v, want %v", result.MicrometersPerPixel, want)
	}
	if result.Text != "20um" {
		t.Errorf("text: got %q", result.Text)
	}
	if result.Label == nil || result.Label.ImageBase64 == "" {
		t.Error("label image should be included")
	}
}

func TestHandleToolsCall_ScaleOverride(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, flakeImage())

	var result struct {
		MicrometersPerPixel float64       `json:"micrometers_per_pixel"`
		FooterHeight        int           `json:"footer_height"`
		Label               *encodedImage `json:"label_image"`
	}
	requireSuccess(t, callTool(t, s, "graphene_scale", overrideArgs(path, map[string]interface{}{"include_label": true}), &result))

	if result.MicrometersPerPixel != 0.1 || result.FooterHeight != 20 {
		t.Errorf("got %+v, want 0.1 um/px and a 20 px footer", result)
	}
	if result.Label != nil {
		t.Error("no label is read when the scale is given")
	}
}

func TestHandleToolsCall_Exclusion(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, flakeImage())

	var result struct {
		Percent   float64 `json:"exclusion_percent"`
		Exclusion struct {
			Ratio        float64 `json:"ratio"`
			RadiusPixels float64 `json:"radius_pixels"`
			Profile      *struct {
				Ratio float64 `json:"ratio"`
			} `json:"profile"`
		} `json:"exclusion"`
		Overlay *encodedImage `json:"overlay"`
	}
	args := overrideArgs(path, map[string]interface{}{
		"exclusion_radius": 0.5,
		"radius_adjusted":  true,
		"include_overlay":  true,
	})
	requireSuccess(t, callTool(t, s, "graphene_exclusion", args, &result))

	if result.Percent <= 0 || result.Percent >= 100 {
		t.Errorf("percent: got %v, want between 0 and 100", result.Percent)
	}
	if math.Abs(result.Percent-100*result.Exclusion.Ratio) > 1e-9 {
		t.Errorf("percent %v does not match ratio %v", result.Percent, result.Exclusion.Ratio)
	}
	if math.Abs(result.Exclusion.RadiusPixels-5) > 1e-9 {
		t.Errorf("radius: got %v px, want 5", result.Exclusion.RadiusPixels)
	}
	if result.Exclusion.Profile == nil {
		t.Error("radius adjusted exclusion should return the profile")
	}
	if result.Overlay == nil || result.Overlay.Width != 120 || result.Overlay.Height != 80 {
		t.Errorf("overlay: got %+v, want the 120x80 micrograph", result.Overlay)
	}
}

func TestHandleToolsCall_ExclusionRadiusTooSmall(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, flakeImage())

	resp := callTool(t, s, "graphene_exclusion", overrideArgs(path, map[string]interface{}{"exclusion_radius": 0.05}), nil)
	if resp.Error == nil {
		t.Fatal("a radius under one pixel should fail")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_Flakes(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, flakeImage())

	var result struct {
		Count      int `json:"count"`
		Candidates int `json:"candidates"`
		Flakes     []struct {
			Length float64 `json:"length"`
		} `json:"flakes"`
		AngleHistogram []struct {
			Count int `json:"count"`
		} `json:"angle_histogram"`
		Overlay *encodedImage `json:"overlay"`
	}
	requireSuccess(t, callTool(t, s, "graphene_flakes", overrideArgs(path, map[string]interface{}{"include_overlay": true}), &result))

	if result.Count != 1 || len(result.Flakes) != 1 {
		t.Fatalf("got %d flakes, want 1", result.Count)
	}
	if l := result.Flakes[0].Length; l < 5 || l > 7 {
		t.Errorf("length: got %v um, want about 6", l)
	}
	total := 0
	for _, b := range result.AngleHistogram {
		total += b.Count
	}
	if len(result.AngleHistogram) != 25 || total != 1 {
		t.Errorf("angle histogram: %d bins holding %d flakes", len(result.AngleHistogram), total)
	}
	if result.Overlay == nil {
		t.Error("overlay should be included")
	}

	// A size threshold above the flake length rejects it.
	requireSuccess(t, callTool(t, s, "graphene_flakes", overrideArgs(path, map[string]interface{}{"min_size": 50}), &result))
	if result.Count != 0 {
		t.Errorf("got %d flakes with min_size 50, want 0", result.Count)
	}
}

func TestHandleToolsCall_Contrast(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, flakeImage())

	for _, output := range []string{"overlay", "magnitude", "mask"} {
		t.Run(output, func(t *testing.T) {
			var result struct {
				EdgePixels   int           `json:"edge_pixels"`
				EdgeFraction float64       `json:"edge_fraction"`
				Image        *encodedImage `json:"image"`
			}
			args := map[string]interface{}{"path": path, "output": output}
			requireSuccess(t, callTool(t, s, "graphene_contrast", args, &result))

			if result.EdgePixels == 0 || result.EdgeFraction <= 0 || result.EdgeFraction >= 1 {
				t.Errorf("got %d edge pixels (%v)", result.EdgePixels, result.EdgeFraction)
			}
			if result.Image == nil || result.Image.Width != 120 || result.Image.Height != 100 {
				t.Errorf("image: got %+v, want the whole 120x100 image", result.Image)
			}
		})
	}

	if resp := callTool(t, s, "graphene_contrast", map[string]interface{}{"path": path, "output": "bogus"}, nil); resp.Error == nil {
		t.Error("unknown outputs should fail")
	}
	if resp := callTool(t, s, "graphene_contrast", map[string]interface{}{"path": path, "threshold": -1}, nil); resp.Error == nil {
		t.Error("negative thresholds should fail")
	}
}

func TestHandleToolsCall_Crop(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, flakeImage())

	tests := []struct {
		name       string
		args       map[string]interface{}
		wantWidth  int
		wantHeight int
	}{
		{"coordinates", map[string]interface{}{"x1": 10, "y1": 10, "x2": 50, "y2": 30}, 40, 20},
		{"zoomed", map[string]interface{}{"x1": 10, "y1": 10, "x2": 50, "y2": 30, "zoom": 2}, 80, 40},
		{"named region", map[string]interface{}{"region": "center"}, 60, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["path"] = path
			var result encodedImage
			requireSuccess(t, callTool(t, s, "graphene_crop", tt.args, &result))
			if result.Width != tt.wantWidth || result.Height != tt.wantHeight {
				t.Errorf("got %dx%d, want %dx%d", result.Width, result.Height, tt.wantWidth, tt.wantHeight)
			}
		})
	}

	if resp := callTool(t, s, "graphene_crop", map[string]interface{}{"path": path, "x2": 500, "y2": 10}, nil); resp.Error == nil {
		t.Error("regions outside the image should fail")
	}
}

func TestHandleToolsCall_Measure(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, flakeImage())

	var result struct {
		DistancePixels      float64 `json:"distance_pixels"`
		DistanceMicrometers float64 `json:"distance_micrometers"`
	}
	args := overrideArgs(path, map[string]interface{}{"x1": 0, "y1": 0, "x2": 30, "y2": 40})
	requireSuccess(t, callTool(t, s, "graphene_measure", args, &result))

	if result.DistancePixels != 50 || result.DistanceMicrometers != 5 {
		t.Errorf("got %v px and %v um, want 50 px and 5 um", result.DistancePixels, result.DistanceMicrometers)
	}
}

func TestHandleToolsCall_DefaultConfig(t *testing.T) {
	s := newTestServer(t)

	var result struct {
		Version string `json:"version"`
		YAML    string `json:"yaml"`
	}
	requireSuccess(t, callTool(t, s, "graphene_default_config", nil, &result))

	if result.Version != "1.2.3" {
		t.Errorf("version: got %q", result.Version)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(result.YAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path, "other")
	if err != nil {
		t.Fatalf("exported configuration does not load: %v", err)
	}
	if *cfg != *config.Default("1.2.3") {
		t.Error("exported configuration differs from the defaults")
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer(t)
	missing := filepath.Join(t.TempDir(), "missing.tif")

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
	}{
		{"unknown tool", "image_load", map[string]interface{}{"path": missing}},
		{"missing file", "graphene_image_info", map[string]interface{}{"path": missing}},
		{"missing file with scale", "graphene_exclusion", overrideArgs(missing, nil)},
		{"wrong argument type", "graphene_flakes", map[string]interface{}{"path": 42}},
		{"threshold out of range", "graphene_flakes", overrideArgs(missing, map[string]interface{}{"threshold": 300})},
		{"half a scale", "graphene_scale", map[string]interface{}{"path": missing, "scale_micrometers": 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args, nil)
			if resp.Error == nil {
				t.Fatal("expected an error response")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})

	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want an invalid params error", resp.Error)
	}
}

func TestHandleToolsCall_ScaleWithoutReader(t *testing.T) {
	s := New(config.Default("1.2.3"), nil, "1.2.3", zerolog.New(io.Discard))
	path := createTestImageFile(t, footerImage())

	resp := callTool(t, s, "graphene_scale", map[string]interface{}{"path": path}, nil)
	if resp.Error == nil {
		t.Fatal("recognizing the scale without a reader should fail")
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "text reader") {
		t.Errorf("error data: got %q", data)
	}

	// A given scale needs no reader.
	requireSuccess(t, callTool(t, s, "graphene_scale", overrideArgs(path, nil), nil))
}
