package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/graphene-metrics/internal/report"
)

// Outcome is the result of one image of a batch.
type Outcome struct {
	// Index is the position of the image in the sorted batch.
	Index int    `json:"index"`
	Path  string `json:"path"`

	// Result is nil when the image failed and errors are discarded.
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// BatchResult aggregates a batch run.
type BatchResult struct {
	Outcomes []Outcome `json:"outcomes"`

	// Failed counts the discarded images.
	Failed int `json:"failed"`

	// Summary covers the exclusion percentages of the successful images.
	Summary report.Summary `json:"summary"`
}

// FindTargets lists the TIFF images in dir (extensions .tif and .tiff, any
// case) in lexical order.
func FindTargets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var targets []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".tif", ".tiff":
			targets = append(targets, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(targets)
	return targets, nil
}

// Batch analyses every TIFF image in dir, running up to output.workers
// images at a time.
//
// With DiscardErrors set a failing image is logged and counted, and the
// batch goes on. Otherwise the first failure cancels the remaining images
// and is returned. Cancellation of ctx always stops the batch.
func (a *Analyzer) Batch(ctx context.Context, dir string) (*BatchResult, error) {
	targets, err := FindTargets(dir)
	if err != nil {
		return nil, err
	}

	workers := a.cfg.Output.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	a.log.Info().Int("images", len(targets)).Int("workers", workers).Str("directory", dir).Msg("Starting batch")
	for i, path := range targets {
		a.log.Debug().Int("index", i).Str("path", path).Msg("Batch target")
	}

	outcomes := make([]Outcome, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range targets {
		i, path := i, path
		outcomes[i] = Outcome{Index: i, Path: path}
		g.Go(func() error {
			result, err := a.AnalyzeFile(gctx, path)
			if err != nil {
				if !a.DiscardErrors || isCancellation(err) {
					return fmt.Errorf("image %d (%s): %w", i, path, err)
				}
				a.log.Warn().Err(err).Int("index", i).Str("path", path).Msg("Discarding image")
				outcomes[i].Err = err
				return nil
			}

			outcomes[i].Result = result
			event := a.log.Info().Int("index", i).Str("path", path).
				Float64("um", result.Scale.Micrometers).
				Int("px", result.Scale.PixelLength)
			if pct, ok := result.ExclusionPercent(); ok {
				event = event.Float64("exclusion_percent", pct)
			}
			if result.Flakes != nil {
				event = event.Int("flakes", len(result.Flakes.Flakes))
			}
			event.Msg("Image analysed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &BatchResult{Outcomes: outcomes}
	var percentages []float64
	for _, o := range outcomes {
		if o.Err != nil {
			batch.Failed++
			continue
		}
		if pct, ok := o.Result.ExclusionPercent(); ok {
			percentages = append(percentages, pct)
		}
	}
	batch.Summary = report.Summarize(percentages)

	if a.cfg.BacteriaExclusion.Enabled {
		a.log.Info().
			Int("images", batch.Summary.Count).
			Int("failed", batch.Failed).
			Float64("mean_percent", batch.Summary.Mean).
			Float64("std_dev", batch.Summary.StdDev).
			Msg("Batch complete")
	}
	return batch, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
