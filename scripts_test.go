package main

import (
	"net/http"
	"testing"
)

func troubleBrewingGroups() ScriptGroups {
	return ScriptGroups{
		Townsfolk: []string{
			"washerwoman", "librarian", "investigator", "chef", "empath",
			"fortuneteller", "undertaker", "monk", "ravenkeeper", "virgin",
			"slayer", "soldier", "mayor",
		},
		Outsiders: []string{"butler", "drunk", "recluse", "saint"},
		Minions:   []string{"poisoner", "spy", "scarletwoman", "baron"},
		Demons:    []string{"imp"},
	}
}

func createScript(t *testing.T, mux http.Handler, name string, groups ScriptGroups, makeActive bool) Script {
	t.Helper()
	rr := doReq(t, mux, http.MethodPost, "/api/scripts", map[string]any{
		"name":       name,
		"groups":     groups,
		"makeActive": makeActive,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("POST /api/scripts status=%d body=%s", rr.Code, rr.Body.String())
	}
	var script Script
	decodeInto(t, rr, &script)
	return script
}

func TestScriptCreateAndGet(t *testing.T) {
	mux, _, _ := newTestServer(t)

	created := createScript(t, mux, "Trouble Brewing", troubleBrewingGroups(), false)
	if created.ID == "" {
		t.Fatalf("created script has no id")
	}
	if created.Name != "Trouble Brewing" {
		t.Fatalf("name = %q", created.Name)
	}
	if created.CreatedAt == "" {
		t.Fatalf("createdAt missing")
	}
	if created.UpdatedAt != "" {
		t.Fatalf("updatedAt set on create: %q", created.UpdatedAt)
	}

	rr := doReq(t, mux, http.MethodGet, "/api/scripts/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET script status=%d", rr.Code)
	}
	var fetched Script
	decodeInto(t, rr, &fetched)
	if fetched.ID != created.ID || fetched.Name != created.Name {
		t.Fatalf("fetched %+v does not match created %+v", fetched, created)
	}
	if len(fetched.Groups.Townsfolk) != 13 || len(fetched.Groups.Demons) != 1 {
		t.Fatalf("groups not persisted: %+v", fetched.Groups)
	}

	rr = doReq(t, mux, http.MethodGet, "/api/scripts", nil)
	var listed []Script
	decodeInto(t, rr, &listed)
	if len(listed) != 1 {
		t.Fatalf("list returned %d scripts, want 1", len(listed))
	}
}

func TestScriptBlankNameCoercedToDefault(t *testing.T) {
	mux, _, _ := newTestServer(t)

	script := createScript(t, mux, "   ", troubleBrewingGroups(), false)
	if script.Name != defaultScriptName {
		t.Fatalf("name = %q, want %q", script.Name, defaultScriptName)
	}

	// Update coerces too.
	rr := doReq(t, mux, http.MethodPut, "/api/scripts/"+script.ID, map[string]any{
		"name":   "",
		"groups": troubleBrewingGroups(),
	})
	var updated Script
	decodeInto(t, rr, &updated)
	if updated.Name != defaultScriptName {
		t.Fatalf("updated name = %q, want %q", updated.Name, defaultScriptName)
	}
}

func TestScriptCreateRequiresNameAndGroups(t *testing.T) {
	mux, _, _ := newTestServer(t)

	for _, body := range []map[string]any{
		{},
		{"name": "No Groups"},
		{"groups": troubleBrewingGroups()},
	} {
		rr := doReq(t, mux, http.MethodPost, "/api/scripts", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("POST %v status=%d, want 400", body, rr.Code)
		}
	}
}

func TestScriptGroupsMeetsMinimums(t *testing.T) {
	if !troubleBrewingGroups().meetsMinimums() {
		t.Fatalf("full script reported below minimums")
	}
	short := troubleBrewingGroups()
	short.Outsiders = short.Outsiders[:2]
	if short.meetsMinimums() {
		t.Fatalf("short script reported playable")
	}
}

func TestScriptGroupsSanitized(t *testing.T) {
	mux, _, _ := newTestServer(t)

	groups := troubleBrewingGroups()
	groups.Townsfolk = append(groups.Townsfolk, "notacharacter", "imp")
	groups.Demons = append(groups.Demons, "washerwoman")

	script := createScript(t, mux, "Messy", groups, false)
	if len(script.Groups.Townsfolk) != 13 {
		t.Fatalf("townsfolk = %v, unknown or misfiled slugs kept", script.Groups.Townsfolk)
	}
	if len(script.Groups.Demons) != 1 || script.Groups.Demons[0] != "imp" {
		t.Fatalf("demons = %v", script.Groups.Demons)
	}
}

func TestScriptUpdate(t *testing.T) {
	mux, _, _ := newTestServer(t)

	created := createScript(t, mux, "Draft", troubleBrewingGroups(), false)

	groups := troubleBrewingGroups()
	groups.Demons = []string{"legion"}
	body := map[string]any{"name": "Final", "groups": groups}

	rr := doReq(t, mux, http.MethodPut, "/api/scripts/"+created.ID, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT status=%d body=%s", rr.Code, rr.Body.String())
	}
	var updated Script
	decodeInto(t, rr, &updated)
	if updated.Name != "Final" {
		t.Fatalf("name = %q", updated.Name)
	}
	if updated.UpdatedAt == "" {
		t.Fatalf("updatedAt not stamped")
	}
	if updated.Groups.Demons[0] != "legion" {
		t.Fatalf("demons = %v", updated.Groups.Demons)
	}

	// Same payload again lands on the same state.
	rr = doReq(t, mux, http.MethodPut, "/api/scripts/"+created.ID, body)
	var again Script
	decodeInto(t, rr, &again)
	if again.Name != updated.Name || again.Groups.Demons[0] != updated.Groups.Demons[0] {
		t.Fatalf("repeated update diverged: %+v vs %+v", again, updated)
	}

	rr = doReq(t, mux, http.MethodPut, "/api/scripts/missing", body)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("PUT missing script status=%d, want 404", rr.Code)
	}
}

func TestScriptDelete(t *testing.T) {
	mux, _, _ := newTestServer(t)

	script := createScript(t, mux, "Doomed", troubleBrewingGroups(), true)

	rr := doReq(t, mux, http.MethodDelete, "/api/scripts/"+script.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("DELETE status=%d", rr.Code)
	}

	rr = doReq(t, mux, http.MethodGet, "/api/scripts/"+script.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET deleted script status=%d, want 404", rr.Code)
	}

	// Deleting the active script clears the pointer.
	rr = doReq(t, mux, http.MethodGet, "/api/scripts/active", nil)
	var active activeIDResponse
	decodeInto(t, rr, &active)
	if active.ActiveID != nil {
		t.Fatalf("activeId = %q after deleting active script", *active.ActiveID)
	}

	rr = doReq(t, mux, http.MethodDelete, "/api/scripts/"+script.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second DELETE status=%d, want 404", rr.Code)
	}
}

func TestScriptActivePointer(t *testing.T) {
	mux, _, _ := newTestServer(t)

	// No scripts yet: active is null.
	rr := doReq(t, mux, http.MethodGet, "/api/scripts/active", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET active status=%d", rr.Code)
	}
	var active activeIDResponse
	decodeInto(t, rr, &active)
	if active.ActiveID != nil {
		t.Fatalf("activeId = %q, want null", *active.ActiveID)
	}

	first := createScript(t, mux, "First", troubleBrewingGroups(), true)
	second := createScript(t, mux, "Second", troubleBrewingGroups(), false)

	rr = doReq(t, mux, http.MethodGet, "/api/scripts/active", nil)
	decodeInto(t, rr, &active)
	if active.ActiveID == nil || *active.ActiveID != first.ID {
		t.Fatalf("activeId = %v, want %s", active.ActiveID, first.ID)
	}

	rr = doReq(t, mux, http.MethodPost, "/api/scripts/"+second.ID+"/active", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST active status=%d", rr.Code)
	}
	rr = doReq(t, mux, http.MethodGet, "/api/scripts/active", nil)
	decodeInto(t, rr, &active)
	if active.ActiveID == nil || *active.ActiveID != second.ID {
		t.Fatalf("activeId = %v, want %s", active.ActiveID, second.ID)
	}

	// Activating a missing script fails and leaves the pointer alone.
	rr = doReq(t, mux, http.MethodPost, "/api/scripts/missing/active", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("POST missing active status=%d, want 404", rr.Code)
	}
	rr = doReq(t, mux, http.MethodGet, "/api/scripts/active", nil)
	decodeInto(t, rr, &active)
	if active.ActiveID == nil || *active.ActiveID != second.ID {
		t.Fatalf("activeId changed after failed activation: %v", active.ActiveID)
	}

	// DELETE on the reserved id deactivates without deleting.
	rr = doReq(t, mux, http.MethodDelete, "/api/scripts/active", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("DELETE active status=%d", rr.Code)
	}
	rr = doReq(t, mux, http.MethodGet, "/api/scripts/active", nil)
	decodeInto(t, rr, &active)
	if active.ActiveID != nil {
		t.Fatalf("activeId = %q after deactivation", *active.ActiveID)
	}
	rr = doReq(t, mux, http.MethodGet, "/api/scripts/"+second.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("deactivation deleted the script: status=%d", rr.Code)
	}
}

func TestScriptJinxesEndpoint(t *testing.T) {
	mux, _, _ := newTestServer(t)

	groups := troubleBrewingGroups()
	groups.Townsfolk = append(groups.Townsfolk, "preacher")
	groups.Demons = []string{"legion"}
	script := createScript(t, mux, "Jinxed", groups, false)

	rr := doReq(t, mux, http.MethodGet, "/api/scripts/"+script.ID+"/jinxes", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET jinxes status=%d", rr.Code)
	}
	var jinxes []ScriptJinx
	decodeInto(t, rr, &jinxes)

	found := false
	for _, j := range jinxes {
		if j.Character == "legion" && j.Other == "preacher" {
			found = true
		}
		if j.Character == "preacher" && j.Other == "legion" {
			t.Fatalf("legion/preacher jinx attributed to the townsfolk end")
		}
	}
	if !found {
		t.Fatalf("legion/preacher jinx missing from %+v", jinxes)
	}
}

func TestScriptCacheInvalidatedByMutation(t *testing.T) {
	_, store, _ := newTestServer(t)

	script, err := store.create(scriptInput{
		Name:   ptr("Cached"),
		Groups: &ScriptGroups{Demons: []string{"imp"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Prime the cache, mutate, then read again: the mutation must be visible
	// immediately rather than after the TTL.
	if _, err := store.list(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := store.delete(script.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	scripts, err := store.list()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(scripts) != 0 {
		t.Fatalf("stale cache: %d scripts listed after delete", len(scripts))
	}
}

func ptr(s string) *string {
	return &s
}
