package main

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bodul/xweditor/grid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const maxInputFrame = 1 << 10

// inputEvent is a pointer or keyboard event from the grid renderer.
//
//	press   primary button down over Cell
//	enter   pointer moved onto Cell
//	buttons window-level press/move/release carrying the button mask
//	key     Key pressed while the grid has focus
type inputEvent struct {
	Type    string `json:"type"`
	Cell    *int   `json:"cell"`
	Buttons int    `json:"buttons"`
	Key     string `json:"key"`
}

// inputReply answers every input frame.
type inputReply struct {
	Type   string      `json:"type"` // "state" or "error"
	Result string      `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	State  *grid.State `json:"state,omitempty"`
}

// pointerState tracks whether the primary button is held on one connection.
type pointerState struct {
	held bool
}

func (p *pointerState) update(buttons int) {
	p.held = buttons&1 == 1
}

// GET /api/editors/{id}/input — WebSocket stream of input events.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	e := s.store.Get(r.PathValue("id"))
	if e == nil {
		jsonError(w, "Éditeur introuvable", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		log.WithError(err).WithField("editor", e.ID).Warn("input upgrade failed")
		return
	}
	defer conn.Close()

	logger := log.WithFields(log.Fields{"editor": e.ID, "remote": r.RemoteAddr})
	logger.Info("input stream connected")

	conn.SetReadLimit(maxInputFrame)
	conn.SetPingHandler(func(message string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		return err
	})

	var pointer pointerState
	for {
		var ev inputEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).Warn("input stream read failed")
			}
			break
		}

		var reply inputReply
		if !s.inputRL.allow(r.RemoteAddr) {
			reply = inputReply{Type: "error", Error: "Trop de requêtes, réessayez plus tard"}
		} else {
			reply = s.applyInput(e, &pointer, ev)
		}
		if err := conn.WriteJSON(reply); err != nil {
			logger.WithError(err).Warn("input stream write failed")
			break
		}
	}
	logger.Info("input stream closed")
}

// applyInput runs one event against the editor and broadcasts the new
// state when the event changed it.
func (s *Server) applyInput(e *Editor, pointer *pointerState, ev inputEvent) inputReply {
	var (
		result grid.KeyResult
		fn     func(gs *grid.Session) error
	)
	switch ev.Type {
	case "buttons":
		pointer.update(ev.Buttons)
		fn = func(*grid.Session) error { return nil }
	case "press":
		if ev.Cell == nil {
			return inputReply{Type: "error", Error: "Champ 'cell' requis"}
		}
		pointer.held = true
		fn = func(gs *grid.Session) error { return gs.Press(*ev.Cell) }
	case "enter":
		if ev.Cell == nil {
			return inputReply{Type: "error", Error: "Champ 'cell' requis"}
		}
		held := pointer.held
		fn = func(gs *grid.Session) error { return gs.Enter(*ev.Cell, held) }
	case "key":
		fn = func(gs *grid.Session) error {
			var err error
			result, err = gs.Key(ev.Key)
			return err
		}
	default:
		return inputReply{Type: "error", Error: "Événement inconnu"}
	}

	var changed bool
	state, err := e.Apply(func(gs *grid.Session) error {
		before := gs.State()
		err := fn(gs)
		changed = !sameState(before, gs.State())
		return err
	})
	if changed {
		s.broadcastState(e.ID, state)
	}
	if err != nil {
		msg, _ := commandErrorMessage(err)
		return inputReply{Type: "error", Error: msg, State: &state}
	}

	reply := inputReply{Type: "state", State: &state}
	if ev.Type == "key" {
		reply.Result = result.String()
	}
	return reply
}

func sameState(a, b grid.State) bool {
	if a.Board != b.Board || a.Mode != b.Mode || a.Direction != b.Direction {
		return false
	}
	if a.Selected == nil || b.Selected == nil {
		return a.Selected == b.Selected
	}
	return *a.Selected == *b.Selected
}
