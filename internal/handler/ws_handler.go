package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/classpulse/classpulse-backend/internal/config"
	"github.com/classpulse/classpulse-backend/internal/service"
	ws "github.com/classpulse/classpulse-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams poll lifecycle events to clients and accepts the join
// and answer actions over the same socket.
type WSHandler struct {
	rdb         *redis.Client
	coordinator *service.Coordinator
	pollService *service.PollService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, coordinator *service.Coordinator, pollService *service.PollService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		coordinator: coordinator,
		pollService: pollService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// PollEventStream godoc
// WS /ws/v1/polls/:id/stream
// Upgrades to WebSocket, subscribes the client to the poll's event channel
// and handles join / submit:answer actions.
func (h *WSHandler) PollEventStream(c *gin.Context) {
	pollID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid poll ID"})
		return
	}

	// Reject unknown polls before upgrading.
	if _, err := h.pollService.Get(c.Request.Context(), pollID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(rawConn)
	defer conn.Close()

	wsLog := h.log.With().Str("poll_id", pollID.Hex()).Logger()
	wsLog.Info().Msg("Client connected")

	// Fan out broadcaster events until the subscription or socket dies. The
	// pump context outlives the HTTP request context on purpose: gin cancels
	// the request context when the handler returns, we cancel on disconnect.
	pumpCtx, cancelPump := context.WithCancel(context.Background())
	defer cancelPump()

	sub := h.rdb.Subscribe(pumpCtx, config.ChannelKey.PollEventsChannel(pollID.Hex()))
	defer sub.Close()

	go func() {
		for msg := range sub.Channel() {
			if err := conn.WriteRaw([]byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Event forward failed, dropping client")
				cancelPump()
				return
			}
		}
	}()

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionJoin:
			h.handleJoin(pumpCtx, conn, wsLog, pollID, &msg)
		case ws.ActionSubmitAnswer:
			h.handleSubmitAnswer(pumpCtx, conn, pollID, &msg)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

// handleJoin registers the student and acknowledges with their identity. If a
// question is currently live it is replayed to this socket only, so late
// joiners see the countdown without waiting for the next broadcast.
func (h *WSHandler) handleJoin(ctx context.Context, conn *ws.Conn, wsLog zerolog.Logger, pollID primitive.ObjectID, msg *ws.RequestPayload) {
	poll, studentID, err := h.coordinator.JoinPoll(ctx, pollID, msg.StudentID, msg.Name)
	if err != nil {
		conn.WriteError(err.Error())
		return
	}

	conn.WriteTyped(ws.Frame{
		Event: ws.EventJoined,
		Data: ws.JoinedData{
			PollID:    pollID.Hex(),
			StudentID: studentID,
			Name:      msg.Name,
		},
	})

	if active := poll.ActiveQuestion(); active != nil && !active.Ended && !active.Expired(time.Now()) {
		conn.WriteTyped(map[string]any{
			"event": "question:asked",
			"data":  active.View(),
		})
	}

	wsLog.Info().Str("student_id", studentID).Msg("Student joined")
}

// handleSubmitAnswer records an answer; progress and auto-termination events
// reach this client through the broadcast pump like everyone else.
func (h *WSHandler) handleSubmitAnswer(ctx context.Context, conn *ws.Conn, pollID primitive.ObjectID, msg *ws.RequestPayload) {
	if msg.AnswerIndex == nil {
		conn.WriteError("answerIndex is required")
		return
	}
	if _, err := h.coordinator.SubmitAnswer(ctx, pollID, msg.StudentName, *msg.AnswerIndex); err != nil {
		conn.WriteError(err.Error())
	}
}
