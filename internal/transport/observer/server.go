package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voxelflow.ai/internal/observerproto"
	"voxelflow.ai/internal/protocol"
	"voxelflow.ai/internal/sim/fluid"
	"voxelflow.ai/internal/sim/voxel"
	"voxelflow.ai/internal/sim/world"
)

const maxCommandBody = 64 * 1024

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			WorldID:         cfg.ID,
			Tick:            s.world.CurrentTick(),
			WorldParams: observerproto.WorldParams{
				TickRateHz: cfg.TickRateHz,
				ChunkSize:  [3]int{voxel.ChunkSize, voxel.ChunkSize, cfg.Height},
				Height:     cfg.Height,
				BoundaryR:  cfg.BoundaryR,
			},
			BlockPalette: s.world.BlockPalette(),
			Fluids:       FluidInfos(),
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

// FluidInfos describes the compiled-in fluid table for clients.
func FluidInfos() []observerproto.FluidInfo {
	out := make([]observerproto.FluidInfo, 0, len(fluid.Types))
	for _, t := range fluid.Types {
		p := t.Params()
		out = append(out, observerproto.FluidInfo{
			Name:            p.Name,
			Block:           p.Block,
			DecayPerBlock:   p.DecayPerBlock,
			TickInterval:    p.TickInterval,
			MaxDecay:        p.MaxDecay,
			FlowSearchDepth: p.FlowSearchDepth,
			LightLevel:      p.LightLevel,
		})
	}
	return out
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		tickOut := make(chan []byte, 8)

		joinReq := world.ObserverJoinRequest{
			SessionID:    sid,
			TickOut:      tickOut,
			WantAudits:   sub.Audits,
			WantEntities: sub.Entities,
			WantChunks:   sub.Chunks,
		}
		select {
		case s.world.ObserverJoin() <- joinReq:
		default:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		if s.log != nil {
			s.log.Printf("observer %s joined audits=%v entities=%v chunks=%v", sid, sub.Audits, sub.Entities, sub.Chunks)
		}
		defer func() {
			select {
			case s.world.ObserverLeave() <- sid:
			default:
				// World loop is stopping; nothing else to do.
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b, ok := <-tickOut:
					if !ok {
						writeErr <- nil
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: observers are read-only; reads only detect the close.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// CommandHandler accepts one COMMAND per POST and answers with its ACK once the world has
// applied it at a tick boundary.
func (s *Server) CommandHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody+1))
		if err != nil || len(body) > maxCommandBody {
			s.writeAck(rw, http.StatusBadRequest, protocol.AckMsg{Code: protocol.ErrProtoBadRequest, Message: "body too large or unreadable"})
			return
		}
		var cmd protocol.CommandMsg
		if err := json.Unmarshal(body, &cmd); err != nil {
			s.writeAck(rw, http.StatusBadRequest, protocol.AckMsg{Code: protocol.ErrProtoBadRequest, Message: "bad json"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		res, err := s.world.Submit(ctx, cmd)
		if err != nil {
			s.writeAck(rw, http.StatusGatewayTimeout, protocol.AckMsg{AckFor: cmd.ID, Code: protocol.ErrWorldBusy, Message: err.Error()})
			return
		}
		ack := protocol.AckMsg{
			AckFor:     cmd.ID,
			Accepted:   res.Accepted,
			Code:       protocol.SanitizeCode(res.Code),
			Message:    res.Message,
			ServerTick: res.Tick,
			EntityID:   res.EntityID,
		}
		status := http.StatusOK
		if res.Code == protocol.ErrWorldBusy {
			status = http.StatusServiceUnavailable
		}
		s.writeAck(rw, status, ack)
	}
}

func (s *Server) writeAck(rw http.ResponseWriter, status int, ack protocol.AckMsg) {
	ack.Type = protocol.TypeAck
	ack.ProtocolVersion = protocol.Version
	ack.WorldID = s.world.ID()
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(ack)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
