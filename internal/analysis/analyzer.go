package analysis

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/graphene-metrics/internal/config"
	"github.com/ironsheep/graphene-metrics/internal/detection"
	"github.com/ironsheep/graphene-metrics/internal/imaging"
	"github.com/ironsheep/graphene-metrics/internal/report"
	"github.com/ironsheep/graphene-metrics/internal/scale"
)

// Analyzer runs the configured analyses on single images. It is safe for
// concurrent use as long as its TextReader is.
type Analyzer struct {
	// DiscardErrors makes Batch log and skip failing images instead of
	// stopping at the first failure.
	DiscardErrors bool

	cfg        *config.Config
	recognizer *scale.Recognizer
	cache      *imaging.ImageCache
	log        zerolog.Logger
	edgeColor  color.RGBA
	hullColor  color.RGBA
}

// Result holds everything computed for one image.
type Result struct {
	// Path is the analysed file, empty for in-memory images.
	Path string `json:"path,omitempty"`

	Scale *scale.Result `json:"scale"`

	// Exclusion is nil when the exclusion analysis is disabled.
	Exclusion *detection.ExclusionResult `json:"exclusion,omitempty"`

	// Flakes and the histograms are nil when the angle analysis is disabled.
	Flakes          *detection.FlakeResult `json:"flakes,omitempty"`
	AngleHistogram  []report.Bin           `json:"angle_histogram,omitempty"`
	LengthHistogram []report.Bin           `json:"length_histogram,omitempty"`

	// Artifacts lists the files written for this image.
	Artifacts []string `json:"artifacts,omitempty"`

	// Image is the pre-processed micrograph the analyses ran on.
	Image *image.Gray `json:"-"`
}

// ExclusionPercent returns the exclusion ratio as a percentage, and false
// when the exclusion analysis did not run.
func (r *Result) ExclusionPercent() (float64, bool) {
	if r.Exclusion == nil {
		return 0, false
	}
	return 100 * r.Exclusion.Ratio, true
}

// New creates an Analyzer for cfg. reader reads calibration labels and may
// be nil when the configuration overrides the scale.
func New(cfg *config.Config, reader scale.TextReader, log zerolog.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reader == nil && !cfg.TextRecognition.OverrideScale {
		return nil, errors.New("a text reader is required unless the scale is overridden")
	}

	// Validate has already checked both colours.
	edge, _ := imaging.ParseColor(cfg.Output.EdgeColor)
	hull, _ := imaging.ParseColor(cfg.Output.HullColor)

	return &Analyzer{
		cfg:        cfg,
		recognizer: &scale.Recognizer{Reader: reader, Options: cfg.ScaleOptions()},
		cache:      imaging.NewImageCache(),
		log:        log,
		edgeColor:  edge,
		hullColor:  hull,
	}, nil
}

// Config returns the configuration the Analyzer was created with.
func (a *Analyzer) Config() *config.Config {
	return a.cfg
}

// AnalyzeFile loads the image at path and analyses it. Artifacts are written
// under the output directory, prefixed with the file name without extension.
// The decoded image is dropped from memory once the analysis is done.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := a.cache.LoadGray(path)
	if err != nil {
		return nil, err
	}
	defer a.cache.Evict(path)

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	result, err := a.Analyze(ctx, stem, img)
	if err != nil {
		return nil, err
	}
	result.Path = path
	return result, nil
}

// Analyze runs the pipeline on an in-memory image. name prefixes the
// artifact files.
func (a *Analyzer) Analyze(ctx context.Context, name string, img *image.Gray) (*Result, error) {
	log := a.log.With().Str("image", name).Logger()

	sc, prepared, err := a.Prepare(img)
	if err != nil {
		return nil, err
	}
	result := &Result{Scale: sc, Image: prepared}
	log.Debug().
		Float64("um_per_px", sc.MicrometersPerPixel).
		Float64("um", sc.Micrometers).
		Int("px", sc.PixelLength).
		Int("footer_height", sc.FooterHeight).
		Msg("Scale determined")

	if a.cfg.BacteriaExclusion.Enabled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ex, err := detection.ComputeExclusion(prepared, a.cfg.ExclusionConfig(), sc.MicrometersPerPixel)
		if err != nil {
			return nil, fmt.Errorf("bacteria exclusion: %w", err)
		}
		result.Exclusion = ex
		log.Debug().Float64("percent", 100*ex.Ratio).Msg("Exclusion computed")
	}

	if a.cfg.GrapheneAngles.Enabled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fl, err := detection.ComputeFlakes(prepared, a.cfg.FlakeConfig(), sc.MicrometersPerPixel)
		if err != nil {
			return nil, fmt.Errorf("graphene angles: %w", err)
		}
		result.Flakes = fl
		result.AngleHistogram = report.AngleHistogram(fl.Flakes)
		result.LengthHistogram = report.LengthHistogram(fl.Flakes)
		log.Debug().Int("flakes", len(fl.Flakes)).Int("candidates", fl.Candidates).Msg("Flakes analysed")
	}

	if a.cfg.Output.Directory != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		artifacts, err := a.writeArtifacts(name, result)
		if err != nil {
			return nil, err
		}
		result.Artifacts = artifacts
	}
	return result, nil
}

// Prepare recognizes the scale of img and returns it with the micrograph
// cut from its footer and pre-processed.
func (a *Analyzer) Prepare(img *image.Gray) (*scale.Result, *image.Gray, error) {
	sc, err := a.recognizer.Recognize(img)
	if err != nil {
		return nil, nil, fmt.Errorf("scale recognition: %w", err)
	}

	prepared := sc.Image
	if a.cfg.PreProcessing.EqualizeHistogram {
		prepared = imaging.EqualizeHistogram(prepared)
	}
	return sc, prepared, nil
}

// ExclusionOverlay draws the edges of ex over img, and the field-of-view
// hull when the ratio was radius adjusted.
func (a *Analyzer) ExclusionOverlay(img *image.Gray, ex *detection.ExclusionResult) *image.RGBA {
	out := imaging.OverlayMask(img, ex.Edges, a.edgeColor)
	if ex.Profile != nil {
		imaging.DrawPolygon(out, hullPoints(ex.Profile), a.hullColor)
	}
	return out
}

// FlakeOverlay marks every accepted flake over img.
func FlakeOverlay(img *image.Gray, flakes []detection.Flake) *image.RGBA {
	markers := make([]imaging.FlakeMarker, len(flakes))
	for i, f := range flakes {
		markers[i] = imaging.FlakeMarker{
			Start:   image.Pt(f.Start.X, f.Start.Y),
			End:     image.Pt(f.End.X, f.End.Y),
			Apex:    image.Pt(f.Apex.X, f.Apex.Y),
			CenterX: f.Center.X,
			CenterY: f.Center.Y,
			Angle:   f.Angle,
		}
	}
	return imaging.DrawFlakeMarkers(img, markers)
}

func hullPoints(profile *detection.RadialProfile) []image.Point {
	points := make([]image.Point, len(profile.Hull))
	for i, p := range profile.Hull {
		points[i] = image.Pt(p.X, p.Y)
	}
	return points
}
