package display

import (
	"fmt"
	"sync"

	"accidentdetector/internal/dto"

	"gocv.io/x/gocv"
)

// Action is what a key press asks the desktop shell to do.
type Action int

const (
	ActionNone Action = iota
	ActionToggle
	ActionStop
	ActionQuit
)

const (
	keySpace  = 32
	keyEscape = 27
)

// KeyAction maps a gocv.Window.WaitKey result to an Action.
func KeyAction(key int) Action {
	if key < 0 {
		return ActionNone
	}
	switch key & 0xFF {
	case keySpace:
		return ActionToggle
	case 's', 'S':
		return ActionStop
	case 'q', 'Q', keyEscape:
		return ActionQuit
	default:
		return ActionNone
	}
}

// WindowService shows the most recent frame in a gocv window. Frames and
// status arrive from the playback goroutine; the window itself is only
// touched by the goroutine calling Show, which must be the main one.
type WindowService struct {
	title  string
	window *gocv.Window

	mu     sync.Mutex
	latest gocv.Mat
	fresh  bool
	status string
}

func NewWindowService(title string) *WindowService {
	return &WindowService{
		title:  title,
		window: gocv.NewWindow(title),
		latest: gocv.NewMat(),
	}
}

// RenderFrame keeps a copy of frame for the next Show.
func (w *WindowService) RenderFrame(video string, frame gocv.Mat) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// a failed copy keeps showing the previous frame
	if err := frame.CopyTo(&w.latest); err != nil {
		return
	}
	w.fresh = true
}

// OnStatus puts the playback status into the window title.
func (w *WindowService) OnStatus(status dto.StatusMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status.Status
}

// Show draws the latest frame if it changed, waits delay milliseconds for a
// key press and returns the resulting Action.
func (w *WindowService) Show(delay int) Action {
	w.mu.Lock()
	if w.fresh && !w.latest.Empty() {
		w.window.IMShow(w.latest)
		w.fresh = false
	}
	if w.status != "" {
		w.window.SetWindowTitle(fmt.Sprintf("%s - %s", w.title, w.status))
		w.status = ""
	}
	w.mu.Unlock()

	return KeyAction(w.window.WaitKey(delay))
}

func (w *WindowService) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.latest.Close()
	return w.window.Close()
}
