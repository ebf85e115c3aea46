package hermes

import "time"

type CalibrationComputedEvent struct {
	CalibrationID  string    `json:"calibration_id"`
	Codec          string    `json:"codec"`
	Corpus         string    `json:"corpus"`
	ImageCount     int       `json:"image_count"`
	S2KneeBpp      float64   `json:"s2_knee_bpp"`
	S2KneeAngle    float64   `json:"s2_knee_angle"`
	BaKneeBpp      float64   `json:"ba_knee_bpp"`
	BaKneeAngle    float64   `json:"ba_knee_angle"`
	DisagreementLo float64   `json:"disagreement_lo"`
	DisagreementHi float64   `json:"disagreement_hi"`
	Timestamp      time.Time `json:"timestamp"`
}

type FrontComputedEvent struct {
	FrontID       string    `json:"front_id"`
	CalibrationID string    `json:"calibration_id,omitempty"`
	Codecs        []string  `json:"codecs"`
	Points        int       `json:"points"`
	EmptyBins     int       `json:"empty_bins"`
	Timestamp     time.Time `json:"timestamp"`
}

type SweepCompletedEvent struct {
	Codec         string    `json:"codec"`
	Corpus        string    `json:"corpus"`
	Config        string    `json:"config"`
	Measurements  int       `json:"measurements"`
	Images        int       `json:"images"`
	Failures      int       `json:"failures"`
	CalibrationID string    `json:"calibration_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
