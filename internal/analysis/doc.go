// Package analysis runs the full graphene-metrics pipeline on micrographs.
//
// An Analyzer recognizes the scale of an image, optionally equalizes it, runs
// the bacteria exclusion and flake orientation analyses enabled in its
// configuration, and writes the resulting CSV files and diagnostic images.
// Batch runs an Analyzer over every TIFF image in a directory on a bounded
// worker pool and aggregates the exclusion percentages.
package analysis
