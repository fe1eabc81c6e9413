package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ironsheep/graphene-metrics/internal/analysis"
	"github.com/ironsheep/graphene-metrics/internal/config"
	"github.com/ironsheep/graphene-metrics/internal/detection"
	"github.com/ironsheep/graphene-metrics/internal/imaging"
	"github.com/ironsheep/graphene-metrics/internal/report"
	"github.com/ironsheep/graphene-metrics/internal/scale"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "graphene_scale").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Handlers that analyse an image build a private copy of the server
// configuration, apply the tool arguments to it and run only the stage they
// report on. Nothing is written to disk.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "graphene_image_info":
		return s.handleImageInfo(args)
	case "graphene_scale":
		return s.handleScale(ctx, args)
	case "graphene_exclusion":
		return s.handleExclusion(ctx, args)
	case "graphene_flakes":
		return s.handleFlakes(ctx, args)
	case "graphene_contrast":
		return s.handleContrast(args)
	case "graphene_crop":
		return s.handleCrop(args)
	case "graphene_measure":
		return s.handleMeasure(ctx, args)
	case "graphene_default_config":
		return s.handleDefaultConfig()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// scaleArgs are shared by every tool that needs the micrograph scale. Giving
// either length switches the scale to override mode.
type scaleArgs struct {
	Path             string  `json:"path"`
	ScaleMicrometers float64 `json:"scale_micrometers"`
	ScalePixels      int     `json:"scale_pixels"`
	FooterHeight     *int    `json:"footer_height"`
}

func (a scaleArgs) overridden() bool {
	return a.ScaleMicrometers != 0 || a.ScalePixels != 0
}

// analyzer returns an Analyzer over a copy of the server configuration with
// every analysis disabled, the scale arguments applied, and then adjust.
func (s *Server) analyzer(sa scaleArgs, adjust func(*config.Config)) (*analysis.Analyzer, error) {
	cfg := *s.cfg
	cfg.Output.Directory = ""
	cfg.Output.Debug = false
	cfg.BacteriaExclusion.Enabled = false
	cfg.GrapheneAngles.Enabled = false

	if sa.overridden() {
		tr := &cfg.TextRecognition
		tr.OverrideScale = true
		tr.OverrideScaleMicrometers = sa.ScaleMicrometers
		tr.OverrideScalePixels = sa.ScalePixels
		if sa.FooterHeight != nil {
			tr.ScaleBarHeight = *sa.FooterHeight
		}
	}
	if adjust != nil {
		adjust(&cfg)
	}
	return analysis.New(&cfg, s.reader, s.log)
}

// analyze loads the image named by sa and runs the analyses enabled by
// adjust on it.
func (s *Server) analyze(ctx context.Context, sa scaleArgs, adjust func(*config.Config)) (*analysis.Analyzer, *analysis.Result, error) {
	a, err := s.analyzer(sa, adjust)
	if err != nil {
		return nil, nil, err
	}
	img, err := s.cache.LoadGray(sa.Path)
	if err != nil {
		return nil, nil, err
	}
	stem := strings.TrimSuffix(filepath.Base(sa.Path), filepath.Ext(sa.Path))
	result, err := a.Analyze(ctx, stem, img)
	if err != nil {
		return nil, nil, err
	}
	return a, result, nil
}

// === Image Information ===

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Scale ===

type scaleToolArgs struct {
	scaleArgs
	IncludeLabel bool `json:"include_label"`
}

type scaleResponse struct {
	*scale.Result
	Label *imaging.EncodedImage `json:"label_image,omitempty"`
}

func (s *Server) handleScale(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scaleToolArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, result, err := s.analyze(ctx, a.scaleArgs, func(cfg *config.Config) {
		cfg.Output.Debug = a.IncludeLabel
	})
	if err != nil {
		return nil, err
	}

	resp := scaleResponse{Result: result.Scale}
	if label := result.Scale.Label; a.IncludeLabel && label != nil && !label.Bounds().Empty() {
		if resp.Label, err = imaging.EncodePNGBase64(label); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// === Bacteria Exclusion ===

type exclusionArgs struct {
	scaleArgs
	ContrastThreshold *float64 `json:"contrast_threshold"`
	MinimumEdgeArea   *int     `json:"minimum_edge_area"`
	ExclusionRadius   *float64 `json:"exclusion_radius"`
	RadiusAdjusted    *bool    `json:"radius_adjusted"`
	IncludeOverlay    bool     `json:"include_overlay"`
}

type exclusionResponse struct {
	Scale     *scale.Result              `json:"scale"`
	Percent   float64                    `json:"exclusion_percent"`
	Exclusion *detection.ExclusionResult `json:"exclusion"`
	Overlay   *imaging.EncodedImage      `json:"overlay,omitempty"`
}

func (s *Server) handleExclusion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a exclusionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	analyzer, result, err := s.analyze(ctx, a.scaleArgs, func(cfg *config.Config) {
		be := &cfg.BacteriaExclusion
		be.Enabled = true
		if a.ContrastThreshold != nil {
			be.ContrastThreshold = *a.ContrastThreshold
		}
		if a.MinimumEdgeArea != nil {
			be.MinimumEdgeArea = *a.MinimumEdgeArea
		}
		if a.ExclusionRadius != nil {
			be.ExclusionRadius = *a.ExclusionRadius
		}
		if a.RadiusAdjusted != nil {
			be.RadiusAdjusted = *a.RadiusAdjusted
		}
	})
	if err != nil {
		return nil, err
	}

	pct, _ := result.ExclusionPercent()
	resp := exclusionResponse{
		Scale:     result.Scale,
		Percent:   pct,
		Exclusion: result.Exclusion,
	}
	if a.IncludeOverlay {
		resp.Overlay, err = imaging.EncodePNGBase64(analyzer.ExclusionOverlay(result.Image, result.Exclusion))
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// === Graphene Angles ===

type flakesArgs struct {
	scaleArgs
	Blur           *float64 `json:"blur"`
	Threshold      *uint8   `json:"threshold"`
	MinSize        *float64 `json:"min_size"`
	MinRatio       *float64 `json:"min_ratio"`
	IncludeOverlay bool     `json:"include_overlay"`
}

type flakesResponse struct {
	Scale           *scale.Result         `json:"scale"`
	Count           int                   `json:"count"`
	Candidates      int                   `json:"candidates"`
	Flakes          []detection.Flake     `json:"flakes"`
	AngleHistogram  []report.Bin          `json:"angle_histogram"`
	LengthHistogram []report.Bin          `json:"length_histogram"`
	Overlay         *imaging.EncodedImage `json:"overlay,omitempty"`
}

func (s *Server) handleFlakes(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a flakesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, result, err := s.analyze(ctx, a.scaleArgs, func(cfg *config.Config) {
		ga := &cfg.GrapheneAngles
		ga.Enabled = true
		if a.Blur != nil {
			ga.Blur = *a.Blur
		}
		if a.Threshold != nil {
			ga.Threshold = *a.Threshold
		}
		if a.MinSize != nil {
			ga.MinGrapheneSize = *a.MinSize
		}
		if a.MinRatio != nil {
			ga.MinGrapheneRatio = *a.MinRatio
		}
	})
	if err != nil {
		return nil, err
	}

	fl := result.Flakes
	resp := flakesResponse{
		Scale:           result.Scale,
		Count:           len(fl.Flakes),
		Candidates:      fl.Candidates,
		Flakes:          fl.Flakes,
		AngleHistogram:  result.AngleHistogram,
		LengthHistogram: result.LengthHistogram,
	}
	if a.IncludeOverlay {
		if resp.Overlay, err = imaging.EncodePNGBase64(analysis.FlakeOverlay(result.Image, fl.Flakes)); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// === Directional Contrast ===

type contrastArgs struct {
	Path            string   `json:"path"`
	Threshold       *float64 `json:"threshold"`
	MinimumEdgeArea *int     `json:"minimum_edge_area"`
	Output          string   `json:"output"`
}

type contrastResponse struct {
	Threshold       float64               `json:"threshold"`
	MinimumEdgeArea int                   `json:"minimum_edge_area"`
	EdgePixels      int                   `json:"edge_pixels"`
	EdgeFraction    float64               `json:"edge_fraction"`
	Image           *imaging.EncodedImage `json:"image"`
}

// handleContrast runs the edge detector of the exclusion analysis on the
// whole image, footer included, so thresholds can be tuned without a scale.
func (s *Server) handleContrast(args json.RawMessage) (interface{}, error) {
	a := contrastArgs{Output: "overlay"}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	threshold := s.cfg.BacteriaExclusion.ContrastThreshold
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	minArea := s.cfg.BacteriaExclusion.MinimumEdgeArea
	if a.MinimumEdgeArea != nil {
		minArea = *a.MinimumEdgeArea
	}
	if threshold < 0 || minArea < 0 {
		return nil, fmt.Errorf("threshold and minimum_edge_area must not be negative")
	}

	img, err := s.cache.LoadGray(a.Path)
	if err != nil {
		return nil, err
	}
	magnitude, mask := detection.DirectionalContrast(img, threshold)
	edges := detection.FilterByArea(mask, minArea)

	var out image.Image
	switch a.Output {
	case "overlay":
		edgeColor, err := imaging.ParseColor(s.cfg.Output.EdgeColor)
		if err != nil {
			return nil, err
		}
		out = imaging.OverlayMask(img, edges, edgeColor)
	case "magnitude":
		out = magnitude
	case "mask":
		out = edges
	default:
		return nil, fmt.Errorf("unknown output: %s", a.Output)
	}

	count := 0
	for _, v := range edges.Pix {
		if v != 0 {
			count++
		}
	}
	resp := contrastResponse{
		Threshold:       threshold,
		MinimumEdgeArea: minArea,
		EdgePixels:      count,
	}
	if n := len(edges.Pix); n > 0 {
		resp.EdgeFraction = float64(count) / float64(n)
	}
	if resp.Image, err = imaging.EncodePNGBase64(out); err != nil {
		return nil, err
	}
	return resp, nil
}

// === Inspection ===

type cropArgs struct {
	Path   string  `json:"path"`
	Region string  `json:"region"`
	X1     int     `json:"x1"`
	Y1     int     `json:"y1"`
	X2     int     `json:"x2"`
	Y2     int     `json:"y2"`
	Zoom   float64 `json:"zoom"`
}

func (s *Server) handleCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	rect := image.Rect(a.X1, a.Y1, a.X2, a.Y2)
	if a.Region != "" {
		if rect, err = imaging.NamedRegion(img.Bounds(), a.Region); err != nil {
			return nil, err
		}
	}
	return imaging.Zoom(img, rect, a.Zoom)
}

type measureArgs struct {
	scaleArgs
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (s *Server) handleMeasure(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a measureArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, result, err := s.analyze(ctx, a.scaleArgs, nil)
	if err != nil {
		return nil, err
	}
	return imaging.MeasureDistance(image.Pt(a.X1, a.Y1), image.Pt(a.X2, a.Y2), result.Scale.MicrometersPerPixel), nil
}

// === Configuration ===

type defaultConfigResponse struct {
	Version string `json:"version"`
	YAML    string `json:"yaml"`
}

func (s *Server) handleDefaultConfig() (interface{}, error) {
	data, err := config.Default(s.version).Marshal()
	if err != nil {
		return nil, err
	}
	return defaultConfigResponse{Version: s.version, YAML: string(data)}, nil
}
