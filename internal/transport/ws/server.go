package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"waystones.ai/internal/protocol"
	"waystones.ai/internal/sim/game"
)

// Loop is the part of the game the transport talks to.
type Loop interface {
	Join() chan<- game.JoinRequest
	Leave() chan<- uuid.UUID
	Inbox() chan<- game.Envelope
}

type Server struct {
	game Loop
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(g Loop, logger *log.Logger) *Server {
	s := &Server{
		game: g,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

var clientTypes = map[string]bool{
	protocol.TypeTeleport: true,
	protocol.TypeActivate: true,
	protocol.TypeSort:     true,
	protocol.TypeBreak:    true,
	protocol.TypeEdit:     true,
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, out := s.handshake(conn)
		if playerID == uuid.Nil {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || !clientTypes[base.Type] {
				s.reject(out, protocol.ErrProtoBadRequest, "unknown message")
				continue
			}
			if base.ProtocolVersion != protocol.Version {
				s.reject(out, protocol.ErrProtoBadRequest, "bad protocol_version")
				continue
			}
			if err := protocol.Validate(base.Type, msg); err != nil {
				s.reject(out, protocol.ErrBadRequest, err.Error())
				continue
			}
			s.game.Inbox() <- game.Envelope{PlayerID: playerID, Type: base.Type, Raw: msg}
		}

		// Cleanup.
		s.game.Leave() <- playerID
	}
}

// reject queues a NOTICE without waiting on a full queue.
func (s *Server) reject(out chan []byte, code, text string) {
	b, err := json.Marshal(protocol.NoticeMsg{
		Type:            protocol.TypeNotice,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Text:            text,
	})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func (s *Server) handshake(conn *websocket.Conn) (uuid.UUID, chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return uuid.Nil, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return uuid.Nil, nil
	}
	if base.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return uuid.Nil, nil
	}
	if err := protocol.Validate(protocol.TypeHello, msg); err != nil {
		closeWith(conn, "bad HELLO")
		return uuid.Nil, nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return uuid.Nil, nil
	}
	playerID, err := uuid.Parse(hello.PlayerID)
	if err != nil {
		closeWith(conn, "bad player_id")
		return uuid.Nil, nil
	}
	name := strings.TrimSpace(hello.Name)

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 32
	}
	if maxQ > 256 {
		maxQ = 256
	}
	out := make(chan []byte, maxQ)

	respCh := make(chan game.JoinResponse, 1)
	s.game.Join() <- game.JoinRequest{
		PlayerID: playerID,
		Name:     name,
		Out:      out,
		Resp:     respCh,
	}
	resp := <-respCh
	if resp.Err != nil {
		if s.log != nil {
			s.log.Printf("join %s: %v", playerID, resp.Err)
		}
		closeWith(conn, resp.Err.Error())
		return uuid.Nil, nil
	}

	// Welcome and the initial sync go out before the writer starts.
	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.game.Leave() <- playerID
		return uuid.Nil, nil
	}
	for _, b := range resp.Initial {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			s.game.Leave() <- playerID
			return uuid.Nil, nil
		}
	}
	return playerID, out
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
