package detector

import (
	"accidentdetector/internal/config"
	"accidentdetector/internal/logger"
	"accidentdetector/internal/model"

	"gocv.io/x/gocv"
)

// RegionSource produces the changed regions of a frame relative to the previous one.
type RegionSource interface {
	Compare(frame gocv.Mat) (Regions, bool, error)
	HasPrevious() bool
	Reset()
	Close() error
}

// AccidentDetector flags a sustained burst of large-area motion. It is owned
// by a single playback loop and is not safe for concurrent use.
type AccidentDetector struct {
	source      RegionSource
	accumulator *Accumulator
	minArea     float64
	logger      *logger.Logger
}

// NewAccidentDetector creates a detector backed by a gocv FrameDifferencer.
func NewAccidentDetector(cfg config.DetectionConfig, logger *logger.Logger) *AccidentDetector {
	return NewAccidentDetectorWithSource(NewFrameDifferencer(cfg.ThresholdSensitivity), cfg, logger)
}

// NewAccidentDetectorWithSource creates a detector over an arbitrary RegionSource.
func NewAccidentDetectorWithSource(source RegionSource, cfg config.DetectionConfig, logger *logger.Logger) *AccidentDetector {
	return &AccidentDetector{
		source:      source,
		accumulator: NewAccumulator(cfg.AccidentFramesThreshold),
		minArea:     cfg.MinContourArea,
		logger:      logger,
	}
}

// Observe feeds one frame. It returns true once an accident is confirmed and
// keeps returning true, without further image work, until Reset.
func (d *AccidentDetector) Observe(frame gocv.Mat) (bool, error) {
	if d.accumulator.Latched() {
		return true, nil
	}

	regions, ok, err := d.source.Compare(frame)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if d.accumulator.Record(regions.Significant(d.minArea)) {
		d.logger.Info("Accident confirmed after %d significant frames (last total area %.0f)",
			d.accumulator.Count(), regions.Total())
		return true, nil
	}
	return false, nil
}

// State returns a snapshot of the detector.
func (d *AccidentDetector) State() model.DetectorState {
	return model.DetectorState{
		HasPreviousFrame:        d.source.HasPrevious(),
		ConsecutiveMotionFrames: d.accumulator.Count(),
		Latched:                 d.accumulator.Latched(),
	}
}

// Reset prepares the detector for a new session.
func (d *AccidentDetector) Reset() {
	d.source.Reset()
	d.accumulator.Reset()
}

func (d *AccidentDetector) Close() error {
	return d.source.Close()
}
