// Package rd is the rate-distortion calibration engine: Pareto fronts over
// measured encodes, the fixed-frame corner angle that makes results from
// different codecs and corpora comparable, 45° knee detection on
// corpus-aggregate curves, and configuration-aware frontiers with angular
// coverage audits.
//
// Everything here is a pure function of its inputs.
package rd
