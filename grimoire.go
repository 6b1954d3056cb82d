/*
Copyright © 2026 Kettlewitch <kettlewitch@posteo.net>
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/julienschmidt/httprouter"
)

const (
	grimoireFileName = "grimoire.json"
	maxPlayers       = 20
	maxDemonBluffs   = 3
)

// Player is one seat on the Grimoire board. IDs are position-derived and
// stable for the lifetime of a roster; the whole roster is replaced
// wholesale when a new game starts.
type Player struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name"`
	Character          string   `json:"character,omitempty"`
	Position           int      `json:"position"`
	IsDead             bool     `json:"isDead"`
	HasGhostVote       bool     `json:"hasGhostVote"`
	IsAlignmentFlipped bool     `json:"isAlignmentFlipped"`
	AboutToDie         bool     `json:"aboutToDie"`
	ReminderTokens     []string `json:"reminderTokens"`
}

// GrimoireState is the whole live game document: exactly one exists
// process-wide.
type GrimoireState struct {
	Players       []Player `json:"players"`
	DemonBluffs   []string `json:"demonBluffs"`
	HasActiveGame bool     `json:"hasActiveGame"`
}

func (s *GrimoireState) normalize() {
	if s.Players == nil {
		s.Players = []Player{}
	}
	if s.DemonBluffs == nil {
		s.DemonBluffs = []string{}
	}
	for i := range s.Players {
		if s.Players[i].ReminderTokens == nil {
			s.Players[i].ReminderTokens = []string{}
		}
	}
}

func (s *GrimoireState) player(id int) (*Player, error) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i], nil
		}
	}
	return nil, fmt.Errorf("player %d: %w", id, errNotFound)
}

// Grimoire owns the persisted game-state document. Every operation is a full
// read-modify-write of the file under the mutex; the client polls for
// externally-changed state rather than being pushed updates.
type Grimoire struct {
	mu   sync.Mutex
	file *fileStore
}

func newGrimoire(dataDir string) *Grimoire {
	return &Grimoire{file: newFileStore(dataDir, grimoireFileName)}
}

func (g *Grimoire) getState() (GrimoireState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var state GrimoireState
	if err := g.file.load(&state); err != nil {
		return GrimoireState{}, err
	}
	state.normalize()
	return state, nil
}

func (g *Grimoire) apply(mutate func(*GrimoireState) error) (GrimoireState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var state GrimoireState
	if err := g.file.load(&state); err != nil {
		return GrimoireState{}, err
	}
	state.normalize()
	if err := mutate(&state); err != nil {
		return GrimoireState{}, err
	}
	if err := g.file.save(&state); err != nil {
		return GrimoireState{}, err
	}
	return state, nil
}

// replacePlayers discards any existing roster and seats the given names in
// order, everyone alive with defaults. Names beyond the seat cap are dropped
// silently.
func (g *Grimoire) replacePlayers(names []string) (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		if len(names) > maxPlayers {
			names = names[:maxPlayers]
		}
		players := make([]Player, 0, len(names))
		for i, name := range names {
			players = append(players, Player{
				ID:             i + 1,
				Name:           name,
				Position:       i,
				ReminderTokens: []string{},
			})
		}
		state.Players = players
		state.HasActiveGame = len(players) > 0
		return nil
	})
}

// replaceState swaps in a whole document pushed by the client, enforcing the
// same caps the fine-grained operations do.
func (g *Grimoire) replaceState(next GrimoireState) (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		next.normalize()
		if len(next.Players) > maxPlayers {
			next.Players = next.Players[:maxPlayers]
		}
		bluffs := make([]string, 0, maxDemonBluffs)
		for _, slug := range next.DemonBluffs {
			if len(bluffs) == maxDemonBluffs {
				break
			}
			duplicate := false
			for _, b := range bluffs {
				if b == slug {
					duplicate = true
					break
				}
			}
			if !duplicate {
				bluffs = append(bluffs, slug)
			}
		}
		next.DemonBluffs = bluffs
		*state = next
		return nil
	})
}

// assignCharacter puts a fresh character token on a player. A fresh
// assignment always starts alive, so the death flags reset; alignment flips
// and reminder tokens survive it.
func (g *Grimoire) assignCharacter(playerID int, slug string) (GrimoireState, error) {
	if _, ok := lookupCharacter(slug); !ok {
		return GrimoireState{}, fmt.Errorf("%w: unknown character %q", errValidation, slug)
	}
	return g.apply(func(state *GrimoireState) error {
		p, err := state.player(playerID)
		if err != nil {
			return err
		}
		p.Character = slug
		p.IsDead = false
		p.HasGhostVote = false
		return nil
	})
}

func (g *Grimoire) unassignCharacter(playerID int) (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		p, err := state.player(playerID)
		if err != nil {
			return err
		}
		p.Character = ""
		p.IsDead = false
		p.HasGhostVote = false
		return nil
	})
}

// markDead kills a player. Death grants the ghost vote and settles the
// "about to die" marker.
func (g *Grimoire) markDead(playerID int) (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		p, err := state.player(playerID)
		if err != nil {
			return err
		}
		p.IsDead = true
		p.HasGhostVote = true
		p.AboutToDie = false
		return nil
	})
}

func (g *Grimoire) markAlive(playerID int) (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		p, err := state.player(playerID)
		if err != nil {
			return err
		}
		p.IsDead = false
		p.HasGhostVote = false
		return nil
	})
}

func (g *Grimoire) toggleGhostVote(playerID int) (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		p, err := state.player(playerID)
		if err != nil {
			return err
		}
		p.HasGhostVote = !p.HasGhostVote
		return nil
	})
}

func (g *Grimoire) toggleAlignmentFlip(playerID int) (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		p, err := state.player(playerID)
		if err != nil {
			return err
		}
		p.IsAlignmentFlipped = !p.IsAlignmentFlipped
		return nil
	})
}

func (g *Grimoire) toggleAboutToDie(playerID int) (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		p, err := state.player(playerID)
		if err != nil {
			return err
		}
		p.AboutToDie = !p.AboutToDie
		return nil
	})
}

func (g *Grimoire) addReminderToken(playerID int, token string) (GrimoireState, error) {
	if token == "" {
		return GrimoireState{}, fmt.Errorf("%w: token is required", errValidation)
	}
	return g.apply(func(state *GrimoireState) error {
		p, err := state.player(playerID)
		if err != nil {
			return err
		}
		p.ReminderTokens = append(p.ReminderTokens, token)
		return nil
	})
}

// removeReminderToken removes by positional index since duplicate token
// names are allowed on one player.
func (g *Grimoire) removeReminderToken(playerID, tokenIndex int) (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		p, err := state.player(playerID)
		if err != nil {
			return err
		}
		if tokenIndex < 0 || tokenIndex >= len(p.ReminderTokens) {
			return fmt.Errorf("reminder token %d: %w", tokenIndex, errNotFound)
		}
		p.ReminderTokens = append(p.ReminderTokens[:tokenIndex], p.ReminderTokens[tokenIndex+1:]...)
		return nil
	})
}

// addDemonBluff appends a bluff when there is room and the slug isn't
// already shown; otherwise it is a no-op, not an error.
func (g *Grimoire) addDemonBluff(slug string) (GrimoireState, error) {
	if _, ok := lookupCharacter(slug); !ok {
		return GrimoireState{}, fmt.Errorf("%w: unknown character %q", errValidation, slug)
	}
	return g.apply(func(state *GrimoireState) error {
		if len(state.DemonBluffs) >= maxDemonBluffs {
			return nil
		}
		for _, b := range state.DemonBluffs {
			if b == slug {
				return nil
			}
		}
		state.DemonBluffs = append(state.DemonBluffs, slug)
		return nil
	})
}

func (g *Grimoire) removeDemonBluff(slug string) (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		for i, b := range state.DemonBluffs {
			if b == slug {
				state.DemonBluffs = append(state.DemonBluffs[:i], state.DemonBluffs[i+1:]...)
				return nil
			}
		}
		return nil
	})
}

func (g *Grimoire) startNewGame() (GrimoireState, error) {
	return g.apply(func(state *GrimoireState) error {
		state.Players = []Player{}
		state.DemonBluffs = []string{}
		state.HasActiveGame = false
		return nil
	})
}

// ---- HTTP surface ----

func registerGrimoireRoutes(cfg *Config, mux *httprouter.Router, grim *Grimoire, scripts *ScriptStore) {
	mux.GET(cfg.prefix+"/api/grimoire", serveGrimoireState(cfg, grim))
	mux.PUT(cfg.prefix+"/api/grimoire", serveGrimoireReplace(cfg, grim))
	mux.POST(cfg.prefix+"/api/grimoire/new-game", serveGrimoireNewGame(cfg, grim))
	mux.POST(cfg.prefix+"/api/grimoire/players", serveGrimoirePlayers(cfg, grim))
	mux.POST(cfg.prefix+"/api/grimoire/players/:id/character", servePlayerAction(cfg, grim, assignCharacterAction))
	mux.DELETE(cfg.prefix+"/api/grimoire/players/:id/character", servePlayerAction(cfg, grim, unassignCharacterAction))
	mux.POST(cfg.prefix+"/api/grimoire/players/:id/dead", servePlayerAction(cfg, grim, markDeadAction))
	mux.POST(cfg.prefix+"/api/grimoire/players/:id/alive", servePlayerAction(cfg, grim, markAliveAction))
	mux.POST(cfg.prefix+"/api/grimoire/players/:id/ghost-vote", servePlayerAction(cfg, grim, toggleGhostVoteAction))
	mux.POST(cfg.prefix+"/api/grimoire/players/:id/alignment", servePlayerAction(cfg, grim, toggleAlignmentAction))
	mux.POST(cfg.prefix+"/api/grimoire/players/:id/about-to-die", servePlayerAction(cfg, grim, toggleAboutToDieAction))
	mux.POST(cfg.prefix+"/api/grimoire/players/:id/reminders", servePlayerAction(cfg, grim, addReminderAction))
	mux.DELETE(cfg.prefix+"/api/grimoire/players/:id/reminders/:index", serveRemoveReminder(cfg, grim))
	mux.POST(cfg.prefix+"/api/grimoire/bluffs", serveAddBluff(cfg, grim))
	mux.DELETE(cfg.prefix+"/api/grimoire/bluffs/:slug", serveRemoveBluff(cfg, grim))
	mux.GET(cfg.prefix+"/api/grimoire/board", serveBoard(cfg, grim, scripts))
}

func serveGrimoireState(cfg *Config, grim *Grimoire) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		state, err := grim.getState()
		if err != nil {
			writeError(cfg, w, err, "failed to read grimoire")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func serveGrimoireReplace(cfg *Config, grim *Grimoire) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		var next GrimoireState
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		state, err := grim.replaceState(next)
		if err != nil {
			writeError(cfg, w, err, "failed to update grimoire")
			return
		}
		writeJSON(w, http.StatusOK, state)

		logf(cfg, "GRIMOIRE: Replaced state (%d players) for %s", len(state.Players), realIP(r))
	}
}

func serveGrimoireNewGame(cfg *Config, grim *Grimoire) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		state, err := grim.startNewGame()
		if err != nil {
			writeError(cfg, w, err, "failed to start new game")
			return
		}
		writeJSON(w, http.StatusOK, state)

		logf(cfg, "GRIMOIRE: New game for %s", realIP(r))
	}
}

func serveGrimoirePlayers(cfg *Config, grim *Grimoire) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		var in struct {
			Names []string `json:"names"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		state, err := grim.replacePlayers(in.Names)
		if err != nil {
			writeError(cfg, w, err, "failed to seat players")
			return
		}
		writeJSON(w, http.StatusOK, state)

		logf(cfg, "GRIMOIRE: Seated %d players for %s", len(state.Players), realIP(r))
	}
}

// playerAction is one state-manager operation keyed off the player id and an
// optional request body.
type playerAction func(grim *Grimoire, playerID int, body []byte) (GrimoireState, error)

func assignCharacterAction(grim *Grimoire, playerID int, body []byte) (GrimoireState, error) {
	var in struct {
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(body, &in); err != nil || in.Slug == "" {
		return GrimoireState{}, fmt.Errorf("%w: slug is required", errValidation)
	}
	return grim.assignCharacter(playerID, in.Slug)
}

func unassignCharacterAction(grim *Grimoire, playerID int, _ []byte) (GrimoireState, error) {
	return grim.unassignCharacter(playerID)
}

func markDeadAction(grim *Grimoire, playerID int, _ []byte) (GrimoireState, error) {
	return grim.markDead(playerID)
}

func markAliveAction(grim *Grimoire, playerID int, _ []byte) (GrimoireState, error) {
	return grim.markAlive(playerID)
}

func toggleGhostVoteAction(grim *Grimoire, playerID int, _ []byte) (GrimoireState, error) {
	return grim.toggleGhostVote(playerID)
}

func toggleAlignmentAction(grim *Grimoire, playerID int, _ []byte) (GrimoireState, error) {
	return grim.toggleAlignmentFlip(playerID)
}

func toggleAboutToDieAction(grim *Grimoire, playerID int, _ []byte) (GrimoireState, error) {
	return grim.toggleAboutToDie(playerID)
}

func addReminderAction(grim *Grimoire, playerID int, body []byte) (GrimoireState, error) {
	var in struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return GrimoireState{}, fmt.Errorf("%w: token is required", errValidation)
	}
	return grim.addReminderToken(playerID, in.Token)
}

func servePlayerAction(cfg *Config, grim *Grimoire, action playerAction) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)

		playerID, err := strconv.Atoi(p.ByName("id"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid player id")
			return
		}

		var body []byte
		if r.Body != nil {
			body, _ = readBody(r)
		}

		state, err := action(grim, playerID, body)
		if err != nil {
			writeError(cfg, w, err, "failed to update player")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func serveRemoveReminder(cfg *Config, grim *Grimoire) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)

		playerID, err := strconv.Atoi(p.ByName("id"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid player id")
			return
		}
		index, err := strconv.Atoi(p.ByName("index"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid token index")
			return
		}

		state, err := grim.removeReminderToken(playerID, index)
		if err != nil {
			writeError(cfg, w, err, "failed to remove reminder token")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func serveAddBluff(cfg *Config, grim *Grimoire) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		var in struct {
			Slug string `json:"slug"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Slug == "" {
			writeJSONError(w, http.StatusBadRequest, "slug is required")
			return
		}

		state, err := grim.addDemonBluff(in.Slug)
		if err != nil {
			writeError(cfg, w, err, "failed to add demon bluff")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func serveRemoveBluff(cfg *Config, grim *Grimoire) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)

		state, err := grim.removeDemonBluff(p.ByName("slug"))
		if err != nil {
			writeError(cfg, w, err, "failed to remove demon bluff")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func serveBoard(cfg *Config, grim *Grimoire, scripts *ScriptStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		state, err := grim.getState()
		if err != nil {
			writeError(cfg, w, err, "failed to read grimoire")
			return
		}
		active, err := scripts.activeScript()
		if err != nil {
			writeError(cfg, w, err, "failed to read active script")
			return
		}
		writeJSON(w, http.StatusOK, buildBoardView(state, active))
	}
}
