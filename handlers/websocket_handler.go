package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/hockey-madness/realtime"
	"github.com/Dosada05/hockey-madness/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub          *realtime.Hub
	matchService services.MatchService
	upgrader     websocket.Upgrader
	logger       *slog.Logger
}

// NewWebSocketHandler принимает список разрешенных Origin; "*" разрешает любой.
func NewWebSocketHandler(hub *realtime.Hub, ms services.MatchService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		matchService: ms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger.With(slog.String("component", "websocket")),
	}
}

// ServeMatch подключает табло к комнате одного матча.
// Клиент подключается к /ws/matches/{matchID} и сразу получает MATCH_SNAPSHOT.
func (h *WebSocketHandler) ServeMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Проверяем матч до апгрейда, чтобы ответить обычным 404.
	match, err := h.matchService.Get(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP ошибку клиенту.
		h.logger.Warn("websocket upgrade failed", slog.String("match_id", matchID), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, realtime.RoomForMatch(matchID))
	if err := client.Queue(realtime.Message{Type: realtime.MessageMatchSnapshot, Payload: match}); err != nil {
		h.logger.Error("failed to queue match snapshot", slog.String("match_id", matchID), slog.Any("error", err))
	}
	h.start(client)
}

// ServeScoreboard подключает общий экран табло: снимок всех матчей в игре, затем все обновления.
func (h *WebSocketHandler) ServeScoreboard(w http.ResponseWriter, r *http.Request) {
	live, err := h.matchService.Live(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("room", realtime.ScoreboardRoom), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, realtime.ScoreboardRoom)
	if err := client.Queue(realtime.Message{Type: realtime.MessageMatchSnapshot, Payload: live}); err != nil {
		h.logger.Error("failed to queue scoreboard snapshot", slog.Any("error", err))
	}
	h.start(client)
}

func (h *WebSocketHandler) start(client *realtime.Client) {
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("client registered", slog.String("room", client.Room))
}
