package analysis

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/graphene-metrics/internal/imaging"
	"github.com/ironsheep/graphene-metrics/internal/report"
)

// artifactWriter writes files named <directory>/<name>_<suffix> and records
// their paths.
type artifactWriter struct {
	prefix  string
	written []string
}

func (w *artifactWriter) path(suffix string) string {
	return w.prefix + suffix
}

func (w *artifactWriter) csv(suffix string, write func(io.Writer) error) error {
	path := w.path(suffix)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.written = append(w.written, path)
	return nil
}

func (w *artifactWriter) png(suffix string, img image.Image) error {
	path := w.path(suffix)
	if err := imaging.SavePNG(path, img); err != nil {
		return err
	}
	w.written = append(w.written, path)
	return nil
}

// writeArtifacts writes the reports of result, the diagnostic images when
// debugging, and a copy of the configuration.
func (a *Analyzer) writeArtifacts(name string, result *Result) ([]string, error) {
	dir := a.cfg.Output.Directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	w := &artifactWriter{prefix: filepath.Join(dir, name) + "_"}
	debug := a.cfg.Output.Debug
	um := result.Scale.MicrometersPerPixel

	if debug {
		sc := result.Scale
		if sc.Transitions != nil {
			if err := w.png("heights.png", sc.Transitions); err != nil {
				return nil, err
			}
		}
		if sc.LineMask != nil {
			if err := w.png("lines.png", sc.LineMask); err != nil {
				return nil, err
			}
		}
		if sc.Label != nil && !sc.Label.Bounds().Empty() {
			if err := w.png("scale.png", sc.Label); err != nil {
				return nil, err
			}
		}
	}

	if ex := result.Exclusion; ex != nil {
		if ex.Profile != nil {
			err := w.csv("graphene_by_radius.csv", func(out io.Writer) error {
				return report.WriteRadialProfile(out, ex.Profile, um)
			})
			if err != nil {
				return nil, err
			}
		}
		if debug {
			if err := w.png("edge_sharpness.png", ex.Contrast); err != nil {
				return nil, err
			}
			if err := w.png("graphene.png", imaging.OverlayMask(result.Image, ex.Edges, a.edgeColor)); err != nil {
				return nil, err
			}
			if err := w.png("bacteria-exclusion.png", ex.Zone); err != nil {
				return nil, err
			}
			if ex.Profile != nil {
				if err := w.png("radius_hull.png", a.ExclusionOverlay(result.Image, ex)); err != nil {
					return nil, err
				}
			}
		}
	}

	if fl := result.Flakes; fl != nil {
		b := result.Image.Bounds()
		steps := []struct {
			suffix string
			write  func(io.Writer) error
		}{
			{"angles.csv", func(out io.Writer) error {
				return report.WriteFlakeAngles(out, fl.Flakes, b.Dx(), b.Dy(), um)
			}},
			{"lengths.csv", func(out io.Writer) error {
				return report.WriteFlakeLengths(out, fl.Flakes)
			}},
			{"angle-histogram.csv", func(out io.Writer) error {
				return report.WriteHistogram(out, result.AngleHistogram)
			}},
			{"length-histogram.csv", func(out io.Writer) error {
				return report.WriteHistogram(out, result.LengthHistogram)
			}},
		}
		for _, step := range steps {
			if err := w.csv(step.suffix, step.write); err != nil {
				return nil, err
			}
		}
		if debug {
			if err := w.png("threshold.png", fl.Mask); err != nil {
				return nil, err
			}
			if err := w.png("angles.png", FlakeOverlay(result.Image, fl.Flakes)); err != nil {
				return nil, err
			}
		}
	}

	configPath := w.path("config.yaml")
	if err := a.cfg.Save(configPath); err != nil {
		return nil, err
	}
	w.written = append(w.written, configPath)

	return w.written, nil
}
