package detector

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

const (
	// BlurSize is the Gaussian kernel used to smooth sensor and compression noise.
	BlurSize = 21
	// DilateIterations merges nearby motion blobs before contour extraction.
	DilateIterations = 2
)

// ErrEmptyFrame is returned for frames without pixel data.
var ErrEmptyFrame = errors.New("frame is empty")

// FrameDifferencer compares each frame against the previous one and returns
// the areas of the external contours of the thresholded difference.
type FrameDifferencer struct {
	sensitivity float32
	previous    gocv.Mat
	hasPrevious bool
	kernel      gocv.Mat
}

// NewFrameDifferencer creates a differencer binarizing at sensitivity (0-255).
func NewFrameDifferencer(sensitivity float64) *FrameDifferencer {
	return &FrameDifferencer{
		sensitivity: float32(sensitivity),
		previous:    gocv.NewMat(),
		kernel:      gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

// Compare returns the changed regions between frame and the previously seen
// frame. ok is false when there was nothing to compare against; the frame is
// then stored for the next call.
func (d *FrameDifferencer) Compare(frame gocv.Mat) (regions Regions, ok bool, err error) {
	if frame.Empty() {
		return nil, false, ErrEmptyFrame
	}

	gray, err := d.prepare(frame)
	if err != nil {
		return nil, false, err
	}

	if !d.hasPrevious || gray.Rows() != d.previous.Rows() || gray.Cols() != d.previous.Cols() {
		d.store(gray)
		return nil, false, nil
	}
	defer d.store(gray)

	diff := gocv.NewMat()
	defer diff.Close()
	if err := gocv.AbsDiff(d.previous, gray, &diff); err != nil {
		return nil, false, fmt.Errorf("failed to compute absolute difference: %w", err)
	}

	gocv.Threshold(diff, &diff, d.sensitivity, 255, gocv.ThresholdBinary)
	for i := 0; i < DilateIterations; i++ {
		if err := gocv.Dilate(diff, &diff, d.kernel); err != nil {
			return nil, false, fmt.Errorf("failed to dilate difference: %w", err)
		}
	}

	contours := gocv.FindContours(diff, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	regions = make(Regions, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		regions = append(regions, gocv.ContourArea(contours.At(i)))
	}
	return regions, true, nil
}

// prepare converts frame to a blurred single-channel image owned by the caller.
func (d *FrameDifferencer) prepare(frame gocv.Mat) (gocv.Mat, error) {
	gray := gocv.NewMat()
	if frame.Channels() == 1 {
		if err := frame.CopyTo(&gray); err != nil {
			gray.Close()
			return gocv.Mat{}, fmt.Errorf("failed to copy grayscale image: %w", err)
		}
	} else if err := gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray); err != nil {
		gray.Close()
		return gocv.Mat{}, fmt.Errorf("failed to convert image to grayscale: %w", err)
	}
	if err := gocv.GaussianBlur(gray, &gray, image.Pt(BlurSize, BlurSize), 0, 0, gocv.BorderDefault); err != nil {
		gray.Close()
		return gocv.Mat{}, fmt.Errorf("failed to blur image: %w", err)
	}
	return gray, nil
}

func (d *FrameDifferencer) store(gray gocv.Mat) {
	d.previous.Close()
	d.previous = gray
	d.hasPrevious = true
}

func (d *FrameDifferencer) HasPrevious() bool {
	return d.hasPrevious
}

// Reset forgets the stored previous frame.
func (d *FrameDifferencer) Reset() {
	d.previous.Close()
	d.previous = gocv.NewMat()
	d.hasPrevious = false
}

// Close releases the native buffers.
func (d *FrameDifferencer) Close() error {
	d.previous.Close()
	return d.kernel.Close()
}
