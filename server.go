package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/bodul/xweditor/grid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

//go:embed frontend
var frontendFS embed.FS

const maxUploadSize = 10 << 20 // 10 Mo

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// imageAnalyzer extracts a blocking pattern from a grid photo.
type imageAnalyzer interface {
	AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Pattern, error)
}

// rateLimiter is a simple per-IP token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*bucket
	rate     int           // tokens per interval
	interval time.Duration // refill interval
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

func newRateLimiter(rate int, interval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*bucket),
		rate:     rate,
		interval: interval,
	}
	// Cleanup stale entries every minute.
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.mu.Lock()
			for ip, b := range rl.visitors {
				if time.Since(b.lastSeen) > 5*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &bucket{tokens: rl.rate - 1, lastSeen: time.Now()}
		return true
	}

	// Refill tokens based on elapsed time.
	elapsed := time.Since(b.lastSeen)
	refill := int(elapsed / rl.interval)
	if refill > 0 {
		b.tokens += refill * rl.rate
		if b.tokens > rl.rate {
			b.tokens = rl.rate
		}
		b.lastSeen = time.Now()
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Server is the main HTTP server.
type Server struct {
	mux      *http.ServeMux
	store    *Store
	analyzer imageAnalyzer
	sse      *Broadcaster
	upgrader websocket.Upgrader
	importRL *rateLimiter
	inputRL  *rateLimiter
}

// NewServer creates a configured HTTP server. analyzer may be nil, which
// disables image import.
func NewServer(store *Store, analyzer imageAnalyzer) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		store:    store,
		analyzer: analyzer,
		sse:      NewBroadcaster(),
		importRL: newRateLimiter(5, time.Minute),  // 5 imports/min per IP
		inputRL:  newRateLimiter(120, time.Second), // drag-paint sends many events
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Editor API
	s.mux.HandleFunc("POST /api/editors", s.handleCreateEditor)
	s.mux.HandleFunc("GET /api/editors", s.handleListEditors)
	s.mux.HandleFunc("GET /api/editors/{id}", s.handleGetEditor)
	s.mux.HandleFunc("DELETE /api/editors/{id}", s.handleDeleteEditor)
	s.mux.HandleFunc("GET /api/editors/{id}/entries", s.handleEntries)

	// Commands
	s.mux.HandleFunc("POST /api/editors/{id}/toggle", s.handleToggle)
	s.mux.HandleFunc("POST /api/editors/{id}/letter", s.handleLetter)
	s.mux.HandleFunc("POST /api/editors/{id}/numbers", s.handleNumbers)
	s.mux.HandleFunc("POST /api/editors/{id}/reset", s.handleReset)
	s.mux.HandleFunc("POST /api/editors/{id}/mode", s.handleMode)
	s.mux.HandleFunc("POST /api/editors/{id}/direction", s.handleDirection)
	s.mux.HandleFunc("POST /api/editors/{id}/select", s.handleSelect)
	s.mux.HandleFunc("POST /api/editors/{id}/advance", s.handleAdvance)
	s.mux.HandleFunc("POST /api/editors/{id}/retreat", s.handleRetreat)
	s.mux.HandleFunc("POST /api/editors/{id}/pointer", s.handlePointer)
	s.mux.HandleFunc("POST /api/editors/{id}/key", s.handleKey)
	s.mux.HandleFunc("POST /api/editors/{id}/import", s.handleImport)

	// Streams
	s.mux.HandleFunc("GET /api/editors/{id}/events", s.handleEditorEvents)
	s.mux.HandleFunc("GET /api/editors/{id}/input", s.handleInput)

	// Frontend static files
	frontendDir, _ := fs.Sub(frontendFS, "frontend")
	fileServer := http.FileServer(http.FS(frontendDir))
	s.mux.HandleFunc("GET /editor/{id}", s.handleEditorPage)
	s.mux.Handle("GET /", fileServer)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
	s.mux.ServeHTTP(w, r)
}

// editorView is the JSON form of an editor and its state.
type editorView struct {
	ID string `json:"id"`
	grid.State
}

// --- Editor handlers ---

// POST /api/editors — start a new editor.
func (s *Server) handleCreateEditor(w http.ResponseWriter, _ *http.Request) {
	e := s.store.Create()
	log.WithField("editor", e.ID).Info("editor created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(editorView{ID: e.ID, State: e.State()})
}

// GET /api/editors — list all editors.
func (s *Server) handleListEditors(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.store.List())
}

// GET /api/editors/{id} — current state.
func (s *Server) handleGetEditor(w http.ResponseWriter, r *http.Request) {
	e := s.store.Get(r.PathValue("id"))
	if e == nil {
		jsonError(w, "Éditeur introuvable", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(editorView{ID: e.ID, State: e.State()})
}

// DELETE /api/editors/{id} — drop an editor and close its streams.
func (s *Server) handleDeleteEditor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.Delete(id) {
		jsonError(w, "Éditeur introuvable", http.StatusNotFound)
		return
	}
	s.sse.Close(id)
	log.WithField("editor", id).Info("editor deleted")
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/editors/{id}/entries — across and down entries for the words panel.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	e := s.store.Get(r.PathValue("id"))
	if e == nil {
		jsonError(w, "Éditeur introuvable", http.StatusNotFound)
		return
	}
	entries := e.Entries()
	if entries == nil {
		entries = []grid.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// --- Command handlers ---

type cellRequest struct {
	Cell *int `json:"cell"`
}

// POST /api/editors/{id}/toggle — toggle a cell and its partner.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		jsonError(w, "Champ 'cell' requis", http.StatusBadRequest)
		return
	}
	s.command(w, r, func(gs *grid.Session) error {
		return gs.ToggleBlock(*req.Cell)
	})
}

// POST /api/editors/{id}/letter — write or erase a letter.
func (s *Server) handleLetter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cell   *int   `json:"cell"`
		Letter string `json:"letter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		jsonError(w, "Champ 'cell' requis", http.StatusBadRequest)
		return
	}
	s.command(w, r, func(gs *grid.Session) error {
		return gs.SetLetter(*req.Cell, req.Letter)
	})
}

// POST /api/editors/{id}/numbers — regenerate clue numbers.
func (s *Server) handleNumbers(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(gs *grid.Session) error {
		gs.Renumber()
		return nil
	})
}

// POST /api/editors/{id}/reset — back to the empty board.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(gs *grid.Session) error {
		gs.Reset()
		return nil
	})
}

// POST /api/editors/{id}/mode — set the mode, or toggle it when absent.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode *grid.Mode `json:"mode"`
	}
	if err := decodeOptional(r, &req); err != nil {
		jsonError(w, "Mode invalide", http.StatusBadRequest)
		return
	}
	s.command(w, r, func(gs *grid.Session) error {
		if req.Mode == nil {
			return gs.ToggleMode()
		}
		return gs.SetMode(*req.Mode)
	})
}

// POST /api/editors/{id}/direction — change the fill direction.
func (s *Server) handleDirection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction *grid.Direction `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Direction == nil {
		jsonError(w, "Direction invalide", http.StatusBadRequest)
		return
	}
	s.command(w, r, func(gs *grid.Session) error {
		return gs.SetDirection(*req.Direction)
	})
}

// POST /api/editors/{id}/select — move the cursor to a cell.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		jsonError(w, "Champ 'cell' requis", http.StatusBadRequest)
		return
	}
	s.command(w, r, func(gs *grid.Session) error {
		return gs.Select(*req.Cell)
	})
}

// POST /api/editors/{id}/advance — next white cell.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.handleMove(w, r, (*grid.Session).Advance)
}

// POST /api/editors/{id}/retreat — previous white cell.
func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	s.handleMove(w, r, (*grid.Session).Retreat)
}

// handleMove moves the cursor in the requested direction, defaulting to
// the session's fill direction.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, move func(*grid.Session, grid.Direction) (int, error)) {
	var req struct {
		Direction *grid.Direction `json:"direction"`
	}
	if err := decodeOptional(r, &req); err != nil {
		jsonError(w, "Direction invalide", http.StatusBadRequest)
		return
	}
	s.command(w, r, func(gs *grid.Session) error {
		d := gs.Direction()
		if req.Direction != nil {
			d = *req.Direction
		}
		_, err := move(gs, d)
		return err
	})
}

// POST /api/editors/{id}/pointer — press or enter a cell.
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	if !s.inputRL.allow(r.RemoteAddr) {
		jsonError(w, "Trop de requêtes, réessayez plus tard", http.StatusTooManyRequests)
		return
	}
	var req struct {
		Event string `json:"event"`
		Cell  *int   `json:"cell"`
		Held  bool   `json:"held"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		jsonError(w, "Champ 'cell' requis", http.StatusBadRequest)
		return
	}
	var apply func(gs *grid.Session) error
	switch req.Event {
	case "press":
		apply = func(gs *grid.Session) error { return gs.Press(*req.Cell) }
	case "enter":
		apply = func(gs *grid.Session) error { return gs.Enter(*req.Cell, req.Held) }
	default:
		jsonError(w, "Événement invalide : press ou enter", http.StatusBadRequest)
		return
	}
	s.command(w, r, apply)
}

// POST /api/editors/{id}/key — letter, Backspace or Tab.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	if !s.inputRL.allow(r.RemoteAddr) {
		jsonError(w, "Trop de requêtes, réessayez plus tard", http.StatusTooManyRequests)
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		jsonError(w, "Champ 'key' requis", http.StatusBadRequest)
		return
	}

	e := s.store.Get(r.PathValue("id"))
	if e == nil {
		jsonError(w, "Éditeur introuvable", http.StatusNotFound)
		return
	}
	var result grid.KeyResult
	state, err := e.Apply(func(gs *grid.Session) error {
		var err error
		result, err = gs.Key(req.Key)
		return err
	})
	if result == grid.KeyApplied {
		s.broadcastState(e.ID, state)
	}
	if err != nil {
		commandError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Result grid.KeyResult `json:"result"`
		editorView
	}{result, editorView{ID: e.ID, State: state}})
}

// POST /api/editors/{id}/import — upload a grid photo and load its blocking.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !s.importRL.allow(r.RemoteAddr) {
		jsonError(w, "Trop de requêtes, réessayez plus tard", http.StatusTooManyRequests)
		return
	}

	if s.analyzer == nil {
		jsonError(w, "Analyse d'image non configurée", http.StatusServiceUnavailable)
		return
	}

	e := s.store.Get(r.PathValue("id"))
	if e == nil {
		jsonError(w, "Éditeur introuvable", http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, "Image trop volumineuse (max 10 Mo)", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, "Champ 'image' requis", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !allowedMIME[mimeType] {
		jsonError(w, "Format accepté : JPEG ou PNG", http.StatusBadRequest)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "Erreur de lecture de l'image", http.StatusInternalServerError)
		return
	}

	pattern, err := s.analyzer.AnalyzeImage(r.Context(), imageData, mimeType)
	if err != nil {
		log.WithError(err).WithField("editor", e.ID).Error("image analysis failed")
		jsonError(w, "Erreur lors de l'analyse de la grille", http.StatusInternalServerError)
		return
	}
	mask, err := pattern.Mask()
	if err != nil {
		log.WithError(err).WithField("editor", e.ID).Warn("imported pattern rejected")
		jsonError(w, "La grille doit faire 15×15", http.StatusUnprocessableEntity)
		return
	}

	s.command(w, r, func(gs *grid.Session) error {
		gs.LoadPattern(mask)
		return nil
	})
}

// command applies fn to the editor named in the path, broadcasts the new
// state and writes it back.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(gs *grid.Session) error) {
	e := s.store.Get(r.PathValue("id"))
	if e == nil {
		jsonError(w, "Éditeur introuvable", http.StatusNotFound)
		return
	}

	state, err := e.Apply(fn)
	if err != nil {
		commandError(w, err)
		return
	}
	s.broadcastState(e.ID, state)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(editorView{ID: e.ID, State: state})
}

func (s *Server) broadcastState(editorID string, state grid.State) {
	evt, err := json.Marshal(stateEvent(state))
	if err != nil {
		log.WithError(err).Error("encode state event")
		return
	}
	s.sse.Broadcast(editorID, string(evt))
}

// stateEvent is the SSE payload sent after every change.
func stateEvent(state grid.State) any {
	return struct {
		Type string `json:"type"`
		grid.State
	}{"state", state}
}

// --- Stream handlers ---

// GET /api/editors/{id}/events — SSE stream of state changes.
func (s *Server) handleEditorEvents(w http.ResponseWriter, r *http.Request) {
	e := s.store.Get(r.PathValue("id"))
	if e == nil {
		jsonError(w, "Éditeur introuvable", http.StatusNotFound)
		return
	}

	evt, err := json.Marshal(stateEvent(e.State()))
	if err != nil {
		log.WithError(err).Error("encode state event")
		jsonError(w, "Erreur interne", http.StatusInternalServerError)
		return
	}
	s.sse.ServeSSE(w, r, e.ID, string(evt))
}

// --- Frontend page handlers ---

// GET /editor/{id} — serve the editor page.
func (s *Server) handleEditorPage(w http.ResponseWriter, _ *http.Request) {
	data, _ := frontendFS.ReadFile("frontend/editor.html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// --- Helpers ---

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// decodeOptional decodes a JSON body that may be empty.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// commandError maps grid contract errors to an HTTP response.
func commandError(w http.ResponseWriter, err error) {
	msg, code := commandErrorMessage(err)
	jsonError(w, msg, code)
}

func commandErrorMessage(err error) (string, int) {
	switch {
	case errors.Is(err, grid.ErrCellRange):
		return "Position hors limites", http.StatusBadRequest
	case errors.Is(err, grid.ErrLetter):
		return "Valeur invalide : une lettre ou vide", http.StatusBadRequest
	case errors.Is(err, grid.ErrMode):
		return "Mode invalide", http.StatusBadRequest
	case errors.Is(err, grid.ErrDirection):
		return "Direction invalide", http.StatusBadRequest
	case errors.Is(err, grid.ErrColorMode):
		return "Sélection impossible en mode Couleur", http.StatusConflict
	case errors.Is(err, grid.ErrNoSelection):
		return "Aucune case sélectionnée", http.StatusConflict
	case errors.Is(err, grid.ErrNoTarget):
		return "Aucune case blanche disponible", http.StatusConflict
	}
	log.WithError(err).Error("unexpected command error")
	return "Erreur interne", http.StatusInternalServerError
}
