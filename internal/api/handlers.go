package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/GitRon/norimberga-sub001/internal/engine"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// savegameView is a savegame with its derived metrics.
type savegameView struct {
	*savegame.Savegame
	engine.Metrics
	Income int `json:"income"`
}

func (s *Server) view(r *http.Request, sg *savegame.Savegame) (savegameView, error) {
	tiles, err := s.Store.Tiles(r.Context(), sg.ID)
	if err != nil {
		return savegameView{}, err
	}
	m := engine.Measure(s.Catalog, sg, tiles)
	return savegameView{Savegame: sg, Metrics: m, Income: m.Income()}, nil
}

func (s *Server) writeSavegame(w http.ResponseWriter, r *http.Request, status int, sg *savegame.Savegame) {
	v, err := s.view(r, sg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, status, v)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"name":           "Norimberga",
		"catalog_digest": s.Catalog.Digest,
		"buildings":      len(s.Catalog.Buildings),
		"milestones":     len(s.Catalog.Milestones),
		"edicts":         len(s.Catalog.Edicts),
		"threads":        len(s.Catalog.Threads),
	})
}

func (s *Server) handleCreateSavegame(w http.ResponseWriter, r *http.Request, userID int64) {
	var req struct {
		CityName string `json:"city_name"`
		Seed     int64  `json:"seed"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	opts := s.NewGame
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}
	sg, err := engine.NewGame(r.Context(), s.Store, userID, req.CityName, opts)
	if errors.Is(err, engine.ErrInvalidGame) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeSavegame(w, r, http.StatusCreated, sg)
}

func (s *Server) handleSavegame(w http.ResponseWriter, r *http.Request, userID int64) {
	sg, ok := s.activeSavegame(w, r, userID)
	if !ok {
		return
	}
	s.writeSavegame(w, r, http.StatusOK, sg)
}

func (s *Server) handleTiles(w http.ResponseWriter, r *http.Request, userID int64) {
	type tileEntry struct {
		X        int    `json:"x"`
		Y        int    `json:"y"`
		Terrain  string `json:"terrain"`
		Building string `json:"building,omitempty"`
		Content  string `json:"content"` // Display name of the building, else the terrain
	}

	sg, ok := s.activeSavegame(w, r, userID)
	if !ok {
		return
	}
	tiles, err := s.Store.Tiles(r.Context(), sg.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	entries := make([]tileEntry, 0, len(tiles))
	for _, t := range tiles {
		e := tileEntry{X: t.X, Y: t.Y, Terrain: t.Terrain, Building: t.Building}
		if c, ok := s.Catalog.ContentOf(t); ok {
			e.Content = c.ContentName()
		}
		entries = append(entries, e)
	}
	writeJSON(w, map[string]any{
		"size":  sg.MapSize,
		"tiles": entries,
	})
}

// actionResponse reports a validated action together with the savegame
// after it.
type actionResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Savegame savegameView `json:"savegame"`
}

func (s *Server) writeAction(w http.ResponseWriter, r *http.Request, success bool, msg string, sg *savegame.Savegame) {
	v, err := s.view(r, sg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, actionResponse{Success: success, Message: msg, Savegame: v})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request, userID int64) {
	var req struct {
		X        int    `json:"x"`
		Y        int    `json:"y"`
		Building string `json:"building"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	b, ok := s.Catalog.Building(req.Building)
	if !ok {
		http.Error(w, "unknown building", http.StatusNotFound)
		return
	}

	s.locked(w, r, userID, func(sg *savegame.Savegame) {
		res, err := engine.NewBuildService(s.Store, s.Catalog, sg).Build(r.Context(), savegame.Coord{X: req.X, Y: req.Y}, b)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.writeAction(w, r, res.Success, res.Message, sg)
	})
}

func (s *Server) handleDemolish(w http.ResponseWriter, r *http.Request, userID int64) {
	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.locked(w, r, userID, func(sg *savegame.Savegame) {
		res, err := engine.NewBuildService(s.Store, s.Catalog, sg).Demolish(r.Context(), savegame.Coord{X: req.X, Y: req.Y})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.writeAction(w, r, res.Success, res.Message, sg)
	})
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request, userID int64) {
	s.locked(w, r, userID, func(sg *savegame.Savegame) {
		res, err := engine.NewRoundService(s.Store, s.Catalog, sg).Process(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		v, err := s.view(r, sg)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, map[string]any{
			"round":    res,
			"threads":  engine.DescribeThreads(s.Catalog, res.Threads),
			"savegame": v,
		})
	})
}

func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request, userID int64) {
	sg, ok := s.activeSavegame(w, r, userID)
	if !ok {
		return
	}
	tree, err := engine.NewMilestoneTree(s.Store, s.Catalog, sg).Process(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, tree)
}

func (s *Server) handleEdicts(w http.ResponseWriter, r *http.Request, userID int64) {
	sg, ok := s.activeSavegame(w, r, userID)
	if !ok {
		return
	}
	edicts, err := engine.AvailableEdicts(r.Context(), s.Store, s.Catalog, sg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, edicts)
}

func (s *Server) handleActivateEdict(w http.ResponseWriter, r *http.Request, userID int64) {
	e, ok := s.Catalog.Edict(r.PathValue("key"))
	if !ok {
		http.Error(w, "unknown edict", http.StatusNotFound)
		return
	}

	s.locked(w, r, userID, func(sg *savegame.Savegame) {
		res, err := engine.NewEdictActivation(s.Store, s.Catalog, sg, e).Process(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.writeAction(w, r, res.Success, res.Message, sg)
	})
}

func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request, userID int64) {
	sg, ok := s.activeSavegame(w, r, userID)
	if !ok {
		return
	}
	threads, err := s.Store.ActiveThreads(r.Context(), sg.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, engine.DescribeThreads(s.Catalog, threads))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, userID int64) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	sg, ok := s.activeSavegame(w, r, userID)
	if !ok {
		return
	}
	events, err := s.Store.RecentEvents(r.Context(), sg.ID, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if events == nil {
		events = []savegame.Event{}
	}
	writeJSON(w, events)
}
