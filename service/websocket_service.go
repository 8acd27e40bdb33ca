package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lacuradellauto/support-rag-be/types"
	"go.uber.org/zap"
)

const defaultReadWait = 60 * time.Second

// WebSocketService streams a single generated draft token-by-token so
// the UI can render the reply as it is produced.
type WebSocketService struct {
	rag      *RAGService
	upgrader websocket.Upgrader
	readWait time.Duration
	logger   *zap.Logger
}

func NewWebSocketService(rag *RAGService, logger *zap.Logger) *WebSocketService {
	return &WebSocketService{
		rag:      rag,
		readWait: defaultReadWait,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (s *WebSocketService) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512 * 1024)
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.readWait))
		return nil
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Writes come from both the stream handler goroutine and the
	// control paths below; gorilla connections allow one writer.
	var writeMu sync.Mutex
	writeJSON := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	for {
		// Set right before each read: a streamed answer may run
		// longer than the read wait, and a deadline stamped before it
		// started would kill the follow-up question.
		conn.SetReadDeadline(time.Now().Add(s.readWait))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var req types.WebsocketRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			writeJSON(types.WebsocketResponse{Type: types.TypeWebsocketError, Payload: "invalid request"})
			continue
		}

		switch req.Type {
		case types.TypeWebsocketPing:
			writeJSON(types.WebsocketResponse{Type: types.TypeWebsocketPong})

		case types.TypeWebsocketAnswer:
			raw, err := json.Marshal(req.Payload)
			if err != nil {
				writeJSON(types.WebsocketResponse{Type: types.TypeWebsocketError, Payload: "invalid payload"})
				continue
			}
			var answerReq types.WebsocketAnswerPayload
			if err := json.Unmarshal(raw, &answerReq); err != nil {
				writeJSON(types.WebsocketResponse{Type: types.TypeWebsocketError, Payload: "invalid payload"})
				continue
			}

			err = s.rag.AnswerStream(ctx, AnswerOptions{
				Query:    answerReq.Query,
				NTickets: answerReq.NTickets,
				NGuides:  answerReq.NGuides,
				Language: answerReq.Language,
			}, func(chunk string) {
				writeJSON(types.WebsocketResponse{Type: types.TypeWebsocketChunk, Payload: chunk})
			})
			if err != nil {
				s.logger.Warn("streamed answer failed", zap.Error(err))
				writeJSON(types.WebsocketResponse{Type: types.TypeWebsocketError, Payload: userMessage(err)})
				continue
			}
			writeJSON(types.WebsocketResponse{Type: types.TypeWebsocketDone})

		default:
			writeJSON(types.WebsocketResponse{Type: types.TypeWebsocketError, Payload: "unknown request type"})
		}
	}
}

// userMessage maps a pipeline error to the message shown to agents,
// never a raw stack of wrapped causes.
func userMessage(err error) string {
	switch KindOf(err) {
	case ErrorKindEmbedding, ErrorKindRetrieval:
		return "couldn't search the knowledge base"
	case ErrorKindGeneration:
		return "couldn't generate a response"
	case ErrorKindValidation:
		return err.Error()
	default:
		return "internal error"
	}
}
