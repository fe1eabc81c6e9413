// Package report writes analysis results as CSV and computes the
// histograms and batch statistics derived from them.
//
// All writers take an io.Writer; the analysis package decides where the
// files go. Distances are written in micrometers.
package report
