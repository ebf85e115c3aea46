package hermes

const (
	// SubjectAggregateSubmitted carries an rd.CorpusAggregate to calibrate.
	SubjectAggregateSubmitted = "codeceval.aggregate.submitted"

	StreamName     = "CODECEVAL_EVENTS"
	StreamSubjects = "codeceval.>"
	StreamMaxAge   = "2160h" // 90 days

	// ConsumerCalibrator is the durable consumer of submitted aggregates.
	ConsumerCalibrator = "codeceval-calibrator"
	ConsumerMaxDeliver = 5
)

func SubjectCalibrationComputed(id string) string { return "codeceval.calibration." + id + ".computed" }
func SubjectFrontComputed(id string) string       { return "codeceval.front." + id + ".computed" }
func SubjectSweepCompleted(codec string) string   { return "codeceval.sweep." + subjectToken(codec) + ".completed" }

// subjectToken makes a codec name safe to use as one NATS subject token.
func subjectToken(s string) string {
	out := []byte(s)
	for i, c := range out {
		switch c {
		case '.', '*', '>', ' ', '\t':
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "_"
	}
	return string(out)
}
