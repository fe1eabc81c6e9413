package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/ironsheep/graphene-metrics/internal/detection"
)

// WriteRadialProfile writes one row per radial bucket with the bucket
// distance converted to micrometers and the share of excluded pixels at that
// distance.
func WriteRadialProfile(w io.Writer, profile *detection.RadialProfile, scale float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"radial_distance", "ratio"}); err != nil {
		return err
	}
	for d, bucket := range profile.Buckets {
		record := []string{formatFloat(float64(d) * scale), formatFloat(bucket.Mean)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFlakeAngles writes the orientation of every flake in degrees along
// with the distance of its center to the optical center of a width x height
// image, rounded to whole pixels and converted to micrometers.
func WriteFlakeAngles(w io.Writer, flakes []detection.Flake, width, height int, scale float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"radial_distance", "angle"}); err != nil {
		return err
	}
	for _, f := range flakes {
		dx := float64(width) - f.Center.X
		dy := f.Center.Y - float64(height)/2
		d := math.Round(math.Hypot(dx, dy))
		record := []string{formatFloat(d * scale), fmt.Sprintf("%.3f", degrees(f.Angle))}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFlakeLengths writes one flake length per row, without a header.
func WriteFlakeLengths(w io.Writer, flakes []detection.Flake) error {
	cw := csv.NewWriter(w)
	for _, f := range flakes {
		if err := cw.Write([]string{fmt.Sprintf("%.3f", f.Length)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func degrees(radians float64) float64 {
	return radians * 180 / math.Pi
}
