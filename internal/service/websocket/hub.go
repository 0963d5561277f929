package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	"accidentdetector/internal/config"
	"accidentdetector/internal/dto"
	"accidentdetector/internal/logger"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"
)

const (
	MaxFrameWidth  = 800
	MaxFrameHeight = 500

	// WriteWait bounds a single write to a viewer; slower viewers are dropped.
	WriteWait = 5 * time.Second
)

// HubService fans frames and status messages out to every connected viewer.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	lastStatus []byte // replayed to new clients
	writeWait  time.Duration
	logger     *logger.Logger
}

func NewHubService(config *config.Config, logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		writeWait:  WriteWait,
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until done is closed.
func (h *HubService) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			status := h.lastStatus
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)

			if status != nil {
				h.write(client, status)
			}

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case message := <-h.broadcast:
			for client := range h.GetClients() {
				h.write(client, message)
			}
		}
	}
}

// write sends message to client within writeWait, dropping the client on failure.
func (h *HubService) write(client *websocket.Conn, message []byte) {
	if err := client.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
		h.drop(client, err)
		return
	}
	if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
		h.drop(client, err)
	}
}

func (h *HubService) drop(client *websocket.Conn, err error) {
	h.logger.Error("Error sending message: %v", err)
	h.mutex.Lock()
	delete(h.clients, client)
	h.mutex.Unlock()
	client.Close()
}

func (h *HubService) Register(client *websocket.Conn) {
	h.register <- client
}

func (h *HubService) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// Broadcast queues message for all viewers. Frames are dropped rather than
// stalling playback when viewers fall behind.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		return false
	}
}

// OnStatus forwards a playback status change to the viewers. It never blocks
// the caller: when the queue is full the status is only kept for replay.
func (h *HubService) OnStatus(status dto.StatusMessage) {
	message, err := json.Marshal(status)
	if err != nil {
		h.logger.Error("Failed to encode status: %v", err)
		return
	}

	h.mutex.Lock()
	h.lastStatus = message
	count := len(h.clients)
	h.mutex.Unlock()

	if count > 0 && !h.Broadcast(message) {
		h.logger.Warning("Viewers are falling behind; status update not delivered")
	}
}

// RenderFrame encodes frame as JPEG and sends it to the viewers. Nothing is
// encoded while nobody watches.
func (h *HubService) RenderFrame(video string, frame gocv.Mat) {
	if h.GetClientCount() == 0 {
		return
	}

	data, err := EncodeFrame(frame)
	if err != nil {
		h.logger.Warning("Failed to encode frame: %v", err)
		return
	}

	message, err := json.Marshal(dto.FrameMessage{
		Type:  dto.MessageTypeFrame,
		Video: video,
		Image: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		h.logger.Error("Failed to encode frame message: %v", err)
		return
	}
	h.Broadcast(message)
}

// EncodeFrame shrinks frame to fit MaxFrameWidth x MaxFrameHeight, keeping
// the aspect ratio, and returns it as JPEG.
func EncodeFrame(frame gocv.Mat) ([]byte, error) {
	scale := FitScale(frame.Cols(), frame.Rows())

	src := frame
	if scale < 1 {
		resized := gocv.NewMat()
		defer resized.Close()
		if err := gocv.Resize(frame, &resized, image.Point{}, scale, scale, gocv.InterpolationArea); err != nil {
			return nil, fmt.Errorf("failed to resize frame: %w", err)
		}
		src = resized
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, src)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

// FitScale returns the factor that fits width x height into the viewer area.
// It never enlarges.
func FitScale(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 1
	}
	scale := 1.0
	if s := float64(MaxFrameWidth) / float64(width); s < scale {
		scale = s
	}
	if s := float64(MaxFrameHeight) / float64(height); s < scale {
		scale = s
	}
	return scale
}

func (h *HubService) GetClients() map[*websocket.Conn]bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make(map[*websocket.Conn]bool)
	for k, v := range h.clients {
		clients[k] = v
	}
	return clients
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
