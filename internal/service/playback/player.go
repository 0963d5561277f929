package playback

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"accidentdetector/internal/config"
	"accidentdetector/internal/dto"
	"accidentdetector/internal/logger"
	"accidentdetector/internal/model"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

var (
	ErrNoVideo          = errors.New("no video loaded")
	ErrNotPlaying       = errors.New("playback is not running")
	ErrOpenFailed       = errors.New("could not open video file")
	ErrUnsupportedVideo = errors.New("unsupported video format")
)

const (
	statusReady      = "Ready to upload video"
	statusLoaded     = "Video loaded. Click 'Start Detection' to begin."
	statusProcessing = "Processing video..."
	statusPaused     = "Detection paused"
	statusStopped    = "Video stopped"
	statusOpenFailed = "Could not open video file"
	statusCompleted  = "Video processing completed. No accident detected."
)

// Detector decides per frame whether an accident is confirmed.
type Detector interface {
	Observe(frame gocv.Mat) (bool, error)
	Reset()
}

// Capturer stores the frame an accident was detected on.
type Capturer interface {
	Capture(frame gocv.Mat, videoIdentifier, timestamp string) (string, error)
}

// AlertSender delivers the accident notification.
type AlertSender interface {
	SendAlert(ctx context.Context, event model.AccidentEvent) bool
	Recipient() string
}

// FrameRenderer displays frames. It is called from the playback goroutine and
// must not retain frame after returning.
type FrameRenderer interface {
	RenderFrame(video string, frame gocv.Mat)
}

// StatusListener is notified of every status change.
type StatusListener interface {
	OnStatus(status dto.StatusMessage)
}

// Player drives one video at a time through detection. The control methods
// only flip the playback state; a single goroutine per playing span reads
// frames and owns the detector and the video source.
type Player struct {
	detector   Detector
	capturer   Capturer
	alerts     AlertSender
	open       SourceOpener
	renderers  []FrameRenderer
	listeners  []StatusListener
	frameDelay time.Duration
	logger     *logger.Logger

	mu         sync.Mutex
	state      model.PlaybackState
	videoPath  string
	source     VideoSource
	done       chan struct{} // closed when the current loop returns
	sessionID  string
	alerted    bool
	event      *model.AccidentEvent
	status     string
	processing bool
}

type Option func(*Player)

// WithSourceOpener replaces the gocv file opener.
func WithSourceOpener(open SourceOpener) Option {
	return func(p *Player) { p.open = open }
}

func WithRenderer(r FrameRenderer) Option {
	return func(p *Player) { p.renderers = append(p.renderers, r) }
}

func WithStatusListener(l StatusListener) Option {
	return func(p *Player) { p.listeners = append(p.listeners, l) }
}

// NewPlayer creates an idle Player.
func NewPlayer(config *config.Config, detector Detector, capturer Capturer, alerts AlertSender, logger *logger.Logger, opts ...Option) *Player {
	p := &Player{
		detector:   detector,
		capturer:   capturer,
		alerts:     alerts,
		open:       OpenCaptureSource,
		frameDelay: time.Duration(config.FrameDelayMs) * time.Millisecond,
		logger:     logger,
		state:      model.StateIdle,
		status:     statusReady,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load selects a new video, ending any current session.
func (p *Player) Load(path string) {
	p.Stop()

	p.mu.Lock()
	p.videoPath = path
	p.state = model.StateLoaded
	p.status = statusLoaded
	p.processing = false
	p.event = nil
	msg := p.snapshotLocked()
	p.mu.Unlock()

	p.logger.Info("Loaded video %s", path)
	p.publish(msg)
}

// Start begins or resumes playback. Starting from Loaded or Stopped opens the
// video and begins a new detection session.
func (p *Player) Start() error {
	p.lockIdle()

	switch p.state {
	case model.StateIdle:
		p.mu.Unlock()
		return ErrNoVideo
	case model.StatePlaying:
		p.mu.Unlock()
		return nil
	case model.StateLoaded, model.StateStopped:
		// drop anything a concurrent Stop has not released yet
		p.releaseLocked()
		source, err := p.open(p.videoPath)
		if err != nil {
			p.state = model.StateStopped
			p.status = statusOpenFailed
			p.processing = false
			msg := p.snapshotLocked()
			p.mu.Unlock()

			p.logger.Error("Failed to open %s: %v", p.videoPath, err)
			p.publish(msg)
			return fmt.Errorf("%w: %v", ErrOpenFailed, err)
		}
		p.source = source
		p.sessionID = uuid.NewString()
		p.alerted = false
		p.event = nil
		p.logger.Info("Session %s started for %s", p.sessionID, p.videoPath)
	}

	p.state = model.StatePlaying
	p.status = statusProcessing
	p.processing = true
	done := make(chan struct{})
	p.done = done
	go p.run(p.source, filepath.Base(p.videoPath), p.sessionID, done)

	msg := p.snapshotLocked()
	p.mu.Unlock()
	p.publish(msg)
	return nil
}

// lockIdle acquires the mutex once the player is playing or no loop is
// winding down.
func (p *Player) lockIdle() {
	for {
		p.mu.Lock()
		done := p.done
		if done == nil || p.state == model.StatePlaying || isClosed(done) {
			return
		}
		p.mu.Unlock()
		<-done
	}
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Pause suspends playback. The loop stops within one frame; the source and
// the detector keep their position.
func (p *Player) Pause() error {
	p.mu.Lock()
	if p.state != model.StatePlaying {
		p.mu.Unlock()
		return ErrNotPlaying
	}
	p.state = model.StatePaused
	p.status = statusPaused
	p.processing = false
	msg := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(msg)
	return nil
}

// Stop ends the session: it waits for the loop, releases the source and
// resets the detector. It must not be called from a FrameRenderer.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.state == model.StateIdle {
		p.mu.Unlock()
		return
	}
	p.state = model.StateStopped
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}

	p.mu.Lock()
	// a new session may have started while waiting; it is not ours to release
	if p.done == done {
		p.releaseLocked()
		p.status = statusStopped
		p.processing = false
	}
	msg := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(msg)
}

// Wait blocks until the current playback loop returns.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (p *Player) releaseLocked() {
	if p.source != nil {
		if err := p.source.Close(); err != nil {
			p.logger.Warning("Failed to release video source: %v", err)
		}
		p.source = nil
	}
	p.detector.Reset()
	p.alerted = false
	p.done = nil
}

func (p *Player) State() model.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Status returns the current status as sent to listeners.
func (p *Player) Status() dto.StatusMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Player) snapshotLocked() dto.StatusMessage {
	msg := dto.StatusMessage{
		Type:       dto.MessageTypeStatus,
		State:      p.state,
		Status:     p.status,
		Processing: p.processing,
		Recipient:  p.alerts.Recipient(),
		Event:      p.event,
	}
	if p.videoPath != "" {
		msg.Video = filepath.Base(p.videoPath)
	}
	return msg
}

func (p *Player) publish(msg dto.StatusMessage) {
	for _, l := range p.listeners {
		l.OnStatus(msg)
	}
}

func (p *Player) setStatus(status string, processing bool, event *model.AccidentEvent) {
	p.mu.Lock()
	p.status = status
	p.processing = processing
	if event != nil {
		p.event = event
	}
	msg := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(msg)
}

// active reports whether the loop owning done should keep going.
func (p *Player) active(done chan struct{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == model.StatePlaying && p.done == done
}

// claimAlert returns true exactly once per session.
func (p *Player) claimAlert() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.alerted {
		return false
	}
	p.alerted = true
	return true
}

func (p *Player) run(source VideoSource, video, sessionID string, done chan struct{}) {
	defer close(done)

	frame := gocv.NewMat()
	defer frame.Close()

	for p.active(done) {
		if ok := source.Read(&frame); !ok || frame.Empty() {
			p.finish(done)
			return
		}
		seconds := source.PositionSeconds()

		detected, err := p.detector.Observe(frame)
		if err != nil {
			p.logger.Warning("Detection failed on %s at %.2fs: %v", video, seconds, err)
		}
		if detected && p.claimAlert() {
			p.handleAccident(frame, video, sessionID, seconds)
		}

		for _, r := range p.renderers {
			r.RenderFrame(video, frame)
		}

		if p.frameDelay > 0 {
			time.Sleep(p.frameDelay)
		}
	}
}

// finish ends a session whose source ran out while still playing.
func (p *Player) finish(done chan struct{}) {
	p.mu.Lock()
	if p.state != model.StatePlaying || p.done != done {
		p.mu.Unlock()
		return
	}
	p.state = model.StateStopped
	if p.event == nil {
		p.status = statusCompleted
	}
	p.processing = false
	p.releaseLocked()
	msg := p.snapshotLocked()
	p.mu.Unlock()

	p.logger.Info("Finished %s", p.videoPath)
	p.publish(msg)
}

// handleAccident captures the frame and sends the alert. Delivery blocks the
// loop until the mail server answers.
func (p *Player) handleAccident(frame gocv.Mat, video, sessionID string, seconds float64) {
	timestamp := model.FormatTimestamp(seconds)
	event := model.AccidentEvent{
		SessionID:        sessionID,
		VideoIdentifier:  video,
		TimestampSeconds: seconds,
		Timestamp:        timestamp,
		DetectedAt:       time.Now(),
	}
	p.logger.Warning("Accident detected in %s at %s", video, timestamp)

	path, err := p.capturer.Capture(frame, video, timestamp)
	if err != nil {
		p.logger.Error("Failed to capture screenshot: %v", err)
	} else {
		event.ScreenshotPath = path
	}

	p.setStatus(fmt.Sprintf("Accident detected at %s! Sending email...", timestamp), false, &event)

	if p.alerts.SendAlert(context.Background(), event) {
		p.setStatus(fmt.Sprintf("Accident detected at %s! Email sent to %s", timestamp, p.alerts.Recipient()), false, nil)
	} else {
		p.setStatus(fmt.Sprintf("Accident detected at %s! But failed to send email.", timestamp), false, nil)
	}
}
