package server

import (
	"encoding/json"
	"net/http"
	"time"

	"sensor-etl/src/metrics"
	"sensor-etl/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// feedEvent is what travels through the hub before it is rendered per client.
type feedEvent struct {
	kind string
	row  models.MDataRow
	id   int64
	at   int64
}

// render projects the event onto the fields a client subscribed to.
func (e *feedEvent) render(fields []string) models.MFeedMessage {
	msg := models.MFeedMessage{Type: e.kind, Timestamp: e.at}
	if e.kind == models.FeedDelete {
		msg.ID = e.id
		return msg
	}
	msg.Reading = e.row.Select(fields)
	return msg
}

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *ReadingsServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Store(int64(len(s.clients)))
			metrics.WebsocketClients.Set(float64(len(s.clients)))

			// Send the latest reading on connect
			s.stateMutex.RLock()
			if s.latest != nil {
				client.send <- &feedEvent{kind: models.FeedInitial, row: *s.latest, at: time.Now().UTC().Unix()}
			}
			s.stateMutex.RUnlock()

		case client := <-s.unregister:
			s.dropClient(client)

		case event := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- event:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					s.dropClient(client)
				}
			}

		case <-s.done:
			for client := range s.clients {
				s.dropClient(client)
			}
			return
		}
	}
}

func (s *ReadingsServer) dropClient(client *Client) {
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.send)
	s.connections.Store(int64(len(s.clients)))
	metrics.WebsocketClients.Set(float64(len(s.clients)))
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast pushes a stored reading to every subscriber and remembers it as
// the latest one.
func (s *ReadingsServer) Broadcast(payload interface{}) {
	var row models.MDataRow
	switch v := payload.(type) {
	case models.MDataRow:
		row = v
	case *models.MDataRow:
		row = *v
	default:
		s.Logger.Warning("Broadcast expected a reading, got %T", payload)
		return
	}

	s.stateMutex.Lock()
	if s.latest == nil || !row.Timestamp.Before(s.latest.Timestamp) {
		latest := row
		s.latest = &latest
	}
	s.stateMutex.Unlock()

	s.publish(&feedEvent{kind: models.FeedInsert, row: row, at: time.Now().UTC().Unix()})
}

// publish never blocks the request path; events are dropped when the queue
// is full or the hub is gone.
func (s *ReadingsServer) publish(event *feedEvent) {
	select {
	case s.broadcast <- event:
	case <-s.done:
	default:
		s.Logger.Warning("Feed queue full, dropping %s event", event.kind)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *ReadingsServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:    s,
		conn:   conn,
		send:   make(chan *feedEvent, 256),
		fields: models.AllFields,
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies a subscribe command. Unknown fields reject the
// whole command and the previous selection stays in place.
func (s *ReadingsServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	fields, err := models.ValidateFields(cmd.Fields)
	if err != nil {
		s.Logger.Warning("Rejected subscription: %v", err)
		return
	}
	client.setFields(fields)
}
