package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiz-session/internal/app"
	"quiz-session/internal/session"
)

var (
	errServerOwnedEvent = errors.New("event is produced by the server")
	errUnsupportedType  = errors.New("unsupported message type")
	errInvalidAnswer    = errors.New("invalid answer payload")
)

type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Choice *int `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request, opens a fresh quiz session for the connection
// and streams its state until either side goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess, err := h.service.Open(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.service.Close(ctx, sess.ID)
	}()

	updates, cancel, err := h.service.Subscribe(r.Context(), sess.ID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "session_id", sess.ID, "error", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "session", Payload: sessionPayload{SessionID: sess.ID}}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					// The session stopped (server shutdown); unblock the reader.
					_ = conn.SetReadDeadline(time.Now())
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ev, err := parseEvent(inbound)
		if err == nil {
			err = h.service.Dispatch(r.Context(), sess.ID, ev)
		}
		if err != nil {
			select {
			case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}:
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// parseEvent maps a client message onto the session events a player may
// trigger. Timer and load events are owned by the server.
func parseEvent(msg inboundMessage) (session.Event, error) {
	switch msg.Type {
	case "start":
		return session.Start{}, nil
	case "nextQuestion":
		return session.NextQuestion{}, nil
	case "finished":
		return session.Finish{}, nil
	case "restart":
		return session.Restart{}, nil
	case "newAnswer":
		var payload answerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Choice == nil {
			return nil, errInvalidAnswer
		}
		return session.NewAnswer{Choice: *payload.Choice}, nil
	case "tick", "dataReceived", "dataFailed":
		return nil, errServerOwnedEvent
	default:
		return nil, errUnsupportedType
	}
}
