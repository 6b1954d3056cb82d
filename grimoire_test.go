package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
)

func seatPlayers(t *testing.T, mux http.Handler, names ...string) GrimoireState {
	t.Helper()
	rr := doReq(t, mux, http.MethodPost, "/api/grimoire/players", map[string]any{"names": names})
	if rr.Code != http.StatusOK {
		t.Fatalf("POST players status=%d body=%s", rr.Code, rr.Body.String())
	}
	var state GrimoireState
	decodeInto(t, rr, &state)
	return state
}

func TestGrimoireEmptyState(t *testing.T) {
	mux, _, _ := newTestServer(t)

	rr := doReq(t, mux, http.MethodGet, "/api/grimoire", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/grimoire status=%d", rr.Code)
	}
	var state GrimoireState
	decodeInto(t, rr, &state)
	if state.Players == nil || state.DemonBluffs == nil {
		t.Fatalf("empty state not normalized: %s", rr.Body.String())
	}
	if state.HasActiveGame {
		t.Fatalf("hasActiveGame true with no players")
	}
}

func TestSeatPlayers(t *testing.T) {
	mux, _, _ := newTestServer(t)

	state := seatPlayers(t, mux, "Ada", "Brin", "Cole")
	if len(state.Players) != 3 {
		t.Fatalf("seated %d players, want 3", len(state.Players))
	}
	if !state.HasActiveGame {
		t.Fatalf("hasActiveGame false after seating")
	}
	for i, p := range state.Players {
		if p.ID != i+1 || p.Position != i {
			t.Fatalf("player %d has id=%d position=%d", i, p.ID, p.Position)
		}
		if p.IsDead || p.HasGhostVote || p.IsAlignmentFlipped || p.AboutToDie {
			t.Fatalf("player %d not seated with defaults: %+v", i, p)
		}
		if p.ReminderTokens == nil || len(p.ReminderTokens) != 0 {
			t.Fatalf("player %d reminderTokens = %v", i, p.ReminderTokens)
		}
	}
}

func TestSeatPlayersTruncatesAtCap(t *testing.T) {
	mux, _, _ := newTestServer(t)

	names := make([]string, maxPlayers+5)
	for i := range names {
		names[i] = fmt.Sprintf("Player %d", i+1)
	}
	state := seatPlayers(t, mux, names...)
	if len(state.Players) != maxPlayers {
		t.Fatalf("seated %d players, want %d", len(state.Players), maxPlayers)
	}
	if last := state.Players[maxPlayers-1]; last.Name != fmt.Sprintf("Player %d", maxPlayers) {
		t.Fatalf("last seat is %q", last.Name)
	}
}

func TestAssignAndUnassignCharacter(t *testing.T) {
	mux, _, _ := newTestServer(t)
	seatPlayers(t, mux, "Ada", "Brin")

	rr := doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/character", map[string]string{"slug": "imp"})
	if rr.Code != http.StatusOK {
		t.Fatalf("assign status=%d body=%s", rr.Code, rr.Body.String())
	}
	var state GrimoireState
	decodeInto(t, rr, &state)
	if state.Players[0].Character != "imp" {
		t.Fatalf("character = %q", state.Players[0].Character)
	}

	// Unknown slugs are rejected.
	rr = doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/character", map[string]string{"slug": "nobody"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("assign unknown slug status=%d, want 400", rr.Code)
	}

	// Unknown players are 404.
	rr = doReq(t, mux, http.MethodPost, "/api/grimoire/players/99/character", map[string]string{"slug": "imp"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("assign to missing player status=%d, want 404", rr.Code)
	}

	rr = doReq(t, mux, http.MethodDelete, "/api/grimoire/players/1/character", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unassign status=%d", rr.Code)
	}
	state = GrimoireState{}
	decodeInto(t, rr, &state)
	if state.Players[0].Character != "" {
		t.Fatalf("character = %q after unassign", state.Players[0].Character)
	}
}

func TestReassignmentResetsDeathFlags(t *testing.T) {
	mux, _, _ := newTestServer(t)
	seatPlayers(t, mux, "Ada")

	doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/character", map[string]string{"slug": "imp"})
	doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/alignment", nil)
	doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/reminders", map[string]string{"token": "Dead"})
	doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/dead", nil)

	rr := doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/character", map[string]string{"slug": "scarletwoman"})
	var state GrimoireState
	decodeInto(t, rr, &state)
	p := state.Players[0]
	if p.Character != "scarletwoman" {
		t.Fatalf("character = %q", p.Character)
	}
	if p.IsDead || p.HasGhostVote {
		t.Fatalf("death flags survived reassignment: %+v", p)
	}
	// Alignment and reminders belong to the seat, not the token.
	if !p.IsAlignmentFlipped {
		t.Fatalf("alignment flip lost on reassignment")
	}
	if len(p.ReminderTokens) != 1 || p.ReminderTokens[0] != "Dead" {
		t.Fatalf("reminder tokens lost on reassignment: %v", p.ReminderTokens)
	}
}

func TestDeathLifecycle(t *testing.T) {
	mux, _, _ := newTestServer(t)
	seatPlayers(t, mux, "Ada")

	doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/about-to-die", nil)

	rr := doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/dead", nil)
	var state GrimoireState
	decodeInto(t, rr, &state)
	p := state.Players[0]
	if !p.IsDead || !p.HasGhostVote {
		t.Fatalf("markDead: %+v", p)
	}
	if p.AboutToDie {
		t.Fatalf("aboutToDie survived death")
	}

	// Spending the ghost vote leaves the player dead.
	rr = doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/ghost-vote", nil)
	decodeInto(t, rr, &state)
	p = state.Players[0]
	if p.HasGhostVote || !p.IsDead {
		t.Fatalf("ghost vote toggle: %+v", p)
	}

	rr = doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/alive", nil)
	decodeInto(t, rr, &state)
	p = state.Players[0]
	if p.IsDead || p.HasGhostVote {
		t.Fatalf("markAlive: %+v", p)
	}
}

func TestReminderTokens(t *testing.T) {
	mux, _, _ := newTestServer(t)
	seatPlayers(t, mux, "Ada")

	// Duplicates are allowed.
	doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/reminders", map[string]string{"token": "Poisoned"})
	rr := doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/reminders", map[string]string{"token": "Poisoned"})
	var state GrimoireState
	decodeInto(t, rr, &state)
	if len(state.Players[0].ReminderTokens) != 2 {
		t.Fatalf("reminderTokens = %v", state.Players[0].ReminderTokens)
	}

	rr = doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/reminders", map[string]string{"token": ""})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty token status=%d, want 400", rr.Code)
	}

	// Removal is positional.
	rr = doReq(t, mux, http.MethodDelete, "/api/grimoire/players/1/reminders/0", nil)
	decodeInto(t, rr, &state)
	if len(state.Players[0].ReminderTokens) != 1 {
		t.Fatalf("reminderTokens = %v after removal", state.Players[0].ReminderTokens)
	}

	rr = doReq(t, mux, http.MethodDelete, "/api/grimoire/players/1/reminders/5", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("out-of-range removal status=%d, want 404", rr.Code)
	}
}

func TestDemonBluffs(t *testing.T) {
	mux, _, _ := newTestServer(t)

	for _, slug := range []string{"washerwoman", "librarian", "chef"} {
		rr := doReq(t, mux, http.MethodPost, "/api/grimoire/bluffs", map[string]string{"slug": slug})
		if rr.Code != http.StatusOK {
			t.Fatalf("add bluff %q status=%d", slug, rr.Code)
		}
	}

	// A fourth bluff and a duplicate are both silent no-ops.
	var state GrimoireState
	rr := doReq(t, mux, http.MethodPost, "/api/grimoire/bluffs", map[string]string{"slug": "empath"})
	if rr.Code != http.StatusOK {
		t.Fatalf("overflow bluff status=%d", rr.Code)
	}
	decodeInto(t, rr, &state)
	if len(state.DemonBluffs) != maxDemonBluffs {
		t.Fatalf("demonBluffs = %v", state.DemonBluffs)
	}
	rr = doReq(t, mux, http.MethodPost, "/api/grimoire/bluffs", map[string]string{"slug": "chef"})
	decodeInto(t, rr, &state)
	if len(state.DemonBluffs) != maxDemonBluffs {
		t.Fatalf("duplicate bluff changed the list: %v", state.DemonBluffs)
	}

	rr = doReq(t, mux, http.MethodPost, "/api/grimoire/bluffs", map[string]string{"slug": "nobody"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown bluff status=%d, want 400", rr.Code)
	}

	rr = doReq(t, mux, http.MethodDelete, "/api/grimoire/bluffs/librarian", nil)
	decodeInto(t, rr, &state)
	if len(state.DemonBluffs) != 2 {
		t.Fatalf("demonBluffs = %v after removal", state.DemonBluffs)
	}
	for _, b := range state.DemonBluffs {
		if b == "librarian" {
			t.Fatalf("removed bluff still present: %v", state.DemonBluffs)
		}
	}

	// Removing an absent bluff is a no-op.
	rr = doReq(t, mux, http.MethodDelete, "/api/grimoire/bluffs/librarian", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("remove absent bluff status=%d", rr.Code)
	}
}

func TestNewGameClearsEverything(t *testing.T) {
	mux, _, _ := newTestServer(t)
	seatPlayers(t, mux, "Ada", "Brin")
	doReq(t, mux, http.MethodPost, "/api/grimoire/bluffs", map[string]string{"slug": "chef"})

	rr := doReq(t, mux, http.MethodPost, "/api/grimoire/new-game", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("new-game status=%d", rr.Code)
	}
	var state GrimoireState
	decodeInto(t, rr, &state)
	if len(state.Players) != 0 || len(state.DemonBluffs) != 0 || state.HasActiveGame {
		t.Fatalf("new game left state behind: %+v", state)
	}
}

func TestGrimoireWholesaleReplace(t *testing.T) {
	mux, _, _ := newTestServer(t)

	next := GrimoireState{
		Players: make([]Player, maxPlayers+3),
		DemonBluffs: []string{
			"washerwoman", "washerwoman", "librarian", "chef", "empath",
		},
		HasActiveGame: true,
	}
	for i := range next.Players {
		next.Players[i] = Player{ID: i + 1, Name: fmt.Sprintf("P%d", i+1), Position: i}
	}

	rr := doReq(t, mux, http.MethodPut, "/api/grimoire", next)
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT /api/grimoire status=%d body=%s", rr.Code, rr.Body.String())
	}
	var state GrimoireState
	decodeInto(t, rr, &state)
	if len(state.Players) != maxPlayers {
		t.Fatalf("players = %d, want %d", len(state.Players), maxPlayers)
	}
	want := []string{"washerwoman", "librarian", "chef"}
	if len(state.DemonBluffs) != len(want) {
		t.Fatalf("demonBluffs = %v", state.DemonBluffs)
	}
	for i, slug := range want {
		if state.DemonBluffs[i] != slug {
			t.Fatalf("demonBluffs = %v, want %v", state.DemonBluffs, want)
		}
	}
}

func TestGrimoireStatePersists(t *testing.T) {
	mux, _, grim := newTestServer(t)
	seatPlayers(t, mux, "Ada")
	doReq(t, mux, http.MethodPost, "/api/grimoire/players/1/character", map[string]string{"slug": "imp"})

	// A second store over the same file sees the same document.
	reopened := newGrimoire(filepath.Dir(grim.file.path))
	state, err := reopened.getState()
	if err != nil {
		t.Fatalf("getState: %v", err)
	}
	if len(state.Players) != 1 || state.Players[0].Character != "imp" {
		t.Fatalf("persisted state = %+v", state)
	}
}
