/*
Copyright © 2026 Kettlewitch <kettlewitch@posteo.net>
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

const (
	defaultScriptName = "Untitled Script"
	scriptsFileName   = "scripts.json"
	scriptCacheTTL    = 5 * time.Second
)

// Minimum group sizes for a script to cover every player count. Advisory
// only; the server never rejects a script for falling short.
var scriptMinimums = map[string]int{
	typeTownsfolk: 13,
	typeOutsiders: 4,
	typeMinions:   4,
	typeDemons:    1,
}

type ScriptGroups struct {
	Townsfolk []string `json:"townsfolk"`
	Outsiders []string `json:"outsiders"`
	Minions   []string `json:"minions"`
	Demons    []string `json:"demons"`
}

func (g ScriptGroups) group(t string) []string {
	switch t {
	case typeTownsfolk:
		return g.Townsfolk
	case typeOutsiders:
		return g.Outsiders
	case typeMinions:
		return g.Minions
	case typeDemons:
		return g.Demons
	}
	return nil
}

// slugs returns every slug in the script, in group order. That order doubles
// as the "first seen" order for jinx attribution ties.
func (g ScriptGroups) slugs() []string {
	var out []string
	for _, t := range characterTypes {
		out = append(out, g.group(t)...)
	}
	return out
}

func (g ScriptGroups) contains(slug string) bool {
	for _, s := range g.slugs() {
		if s == slug {
			return true
		}
	}
	return false
}

func (g ScriptGroups) meetsMinimums() bool {
	for _, t := range characterTypes {
		if len(g.group(t)) < scriptMinimums[t] {
			return false
		}
	}
	return true
}

// sanitize drops slugs the catalog doesn't know, or that sit in the wrong
// group for their type, mirroring what the script-builder UI allows.
func (g ScriptGroups) sanitize() ScriptGroups {
	keep := func(t string, slugs []string) []string {
		out := make([]string, 0, len(slugs))
		for _, slug := range slugs {
			if c, ok := lookupCharacter(slug); ok && c.Type == t {
				out = append(out, slug)
			}
		}
		return out
	}
	return ScriptGroups{
		Townsfolk: keep(typeTownsfolk, g.Townsfolk),
		Outsiders: keep(typeOutsiders, g.Outsiders),
		Minions:   keep(typeMinions, g.Minions),
		Demons:    keep(typeDemons, g.Demons),
	}
}

type Script struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	CreatedAt string       `json:"createdAt"`
	UpdatedAt string       `json:"updatedAt,omitempty"`
	Groups    ScriptGroups `json:"groups"`
}

// scriptInput is the create/update request body. Name and Groups are
// pointers so a missing field can be told apart from an empty one: absent is
// a validation error, while a blank name is coerced to the default.
type scriptInput struct {
	Name       *string       `json:"name"`
	Groups     *ScriptGroups `json:"groups"`
	MakeActive bool          `json:"makeActive"`
}

func (in scriptInput) scriptName() string {
	name := strings.TrimSpace(*in.Name)
	if name == "" {
		return defaultScriptName
	}
	return name
}

type scriptsDocument struct {
	Scripts  []Script `json:"scripts"`
	ActiveID string   `json:"activeId,omitempty"`
}

// scriptCache fronts list/active reads for a few seconds to keep polling
// clients from hammering the disk. Every mutation invalidates it eagerly.
type scriptCache struct {
	ttl     time.Duration
	fetched time.Time
	valid   bool
	doc     scriptsDocument
}

func (c *scriptCache) get(now time.Time) (scriptsDocument, bool) {
	if !c.valid || now.Sub(c.fetched) > c.ttl {
		return scriptsDocument{}, false
	}
	return c.doc, true
}

func (c *scriptCache) set(doc scriptsDocument, now time.Time) {
	c.doc = doc
	c.fetched = now
	c.valid = true
}

func (c *scriptCache) invalidate() {
	c.valid = false
}

// ScriptStore persists every script plus the active pointer in one JSON
// document. Each operation is a full read-modify-write under the mutex;
// concurrent processes writing the same file still race (last write wins).
type ScriptStore struct {
	mu    sync.Mutex
	file  *fileStore
	cache scriptCache
}

func newScriptStore(dataDir string) *ScriptStore {
	return &ScriptStore{
		file:  newFileStore(dataDir, scriptsFileName),
		cache: scriptCache{ttl: scriptCacheTTL},
	}
}

func (s *ScriptStore) loadLocked() (scriptsDocument, error) {
	if doc, ok := s.cache.get(time.Now()); ok {
		return doc, nil
	}
	var doc scriptsDocument
	if err := s.file.load(&doc); err != nil {
		return scriptsDocument{}, err
	}
	if doc.Scripts == nil {
		doc.Scripts = []Script{}
	}
	s.cache.set(doc, time.Now())
	return doc, nil
}

func (s *ScriptStore) saveLocked(doc scriptsDocument) error {
	s.cache.invalidate()
	return s.file.save(doc)
}

func (s *ScriptStore) list() ([]Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	return doc.Scripts, nil
}

func (s *ScriptStore) get(id string) (Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return Script{}, err
	}
	for _, script := range doc.Scripts {
		if script.ID == id {
			return script, nil
		}
	}
	return Script{}, fmt.Errorf("script %s: %w", id, errNotFound)
}

func (s *ScriptStore) activeID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return "", err
	}
	return doc.ActiveID, nil
}

// activeScript resolves the active pointer, returning nil when no script is
// active or the pointer dangles.
func (s *ScriptStore) activeScript() (*Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	if doc.ActiveID == "" {
		return nil, nil
	}
	for i := range doc.Scripts {
		if doc.Scripts[i].ID == doc.ActiveID {
			script := doc.Scripts[i]
			return &script, nil
		}
	}
	return nil, nil
}

func (s *ScriptStore) create(in scriptInput) (Script, error) {
	if in.Name == nil || in.Groups == nil {
		return Script{}, fmt.Errorf("%w: name and groups are required", errValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return Script{}, err
	}

	script := Script{
		ID:        uuid.NewString(),
		Name:      in.scriptName(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Groups:    in.Groups.sanitize(),
	}
	doc.Scripts = append(doc.Scripts, script)
	if in.MakeActive {
		doc.ActiveID = script.ID
	}

	if err := s.saveLocked(doc); err != nil {
		return Script{}, err
	}
	return script, nil
}

func (s *ScriptStore) update(id string, in scriptInput) (Script, error) {
	if in.Name == nil || in.Groups == nil {
		return Script{}, fmt.Errorf("%w: name and groups are required", errValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return Script{}, err
	}

	for i := range doc.Scripts {
		if doc.Scripts[i].ID != id {
			continue
		}
		doc.Scripts[i].Name = in.scriptName()
		doc.Scripts[i].Groups = in.Groups.sanitize()
		doc.Scripts[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		if in.MakeActive {
			doc.ActiveID = id
		}
		script := doc.Scripts[i]
		if err := s.saveLocked(doc); err != nil {
			return Script{}, err
		}
		return script, nil
	}
	return Script{}, fmt.Errorf("script %s: %w", id, errNotFound)
}

func (s *ScriptStore) delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return err
	}

	for i := range doc.Scripts {
		if doc.Scripts[i].ID != id {
			continue
		}
		doc.Scripts = append(doc.Scripts[:i], doc.Scripts[i+1:]...)
		if doc.ActiveID == id {
			doc.ActiveID = ""
		}
		return s.saveLocked(doc)
	}
	return fmt.Errorf("script %s: %w", id, errNotFound)
}

func (s *ScriptStore) setActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return err
	}

	for _, script := range doc.Scripts {
		if script.ID == id {
			doc.ActiveID = id
			return s.saveLocked(doc)
		}
	}
	return fmt.Errorf("script %s: %w", id, errNotFound)
}

func (s *ScriptStore) clearActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadLocked()
	if err != nil {
		return err
	}
	doc.ActiveID = ""
	return s.saveLocked(doc)
}

// ---- HTTP surface ----

// activeIDResponse marshals an unset pointer as JSON null.
type activeIDResponse struct {
	ActiveID *string `json:"activeId"`
}

func newActiveIDResponse(id string) activeIDResponse {
	if id == "" {
		return activeIDResponse{}
	}
	return activeIDResponse{ActiveID: &id}
}

func registerScriptRoutes(cfg *Config, mux *httprouter.Router, store *ScriptStore) {
	mux.GET(cfg.prefix+"/api/scripts", serveScriptList(cfg, store))
	mux.POST(cfg.prefix+"/api/scripts", serveScriptCreate(cfg, store))
	// httprouter cannot register /scripts/active next to /scripts/:id, so
	// "active" is a reserved id handled inside the :id routes.
	mux.GET(cfg.prefix+"/api/scripts/:id", serveScriptGet(cfg, store))
	mux.PUT(cfg.prefix+"/api/scripts/:id", serveScriptUpdate(cfg, store))
	mux.DELETE(cfg.prefix+"/api/scripts/:id", serveScriptDelete(cfg, store))
	mux.POST(cfg.prefix+"/api/scripts/:id/active", serveScriptSetActive(cfg, store))
	mux.GET(cfg.prefix+"/api/scripts/:id/jinxes", serveScriptJinxes(cfg, store))
}

func serveScriptList(cfg *Config, store *ScriptStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()
		securityHeaders(cfg, w)

		scripts, err := store.list()
		if err != nil {
			writeError(cfg, w, err, "failed to read scripts")
			return
		}
		writeJSON(w, http.StatusOK, scripts)

		logf(cfg, "SERVE: Script list (%d) to %s in %s",
			len(scripts), realIP(r), time.Since(startTime).Round(time.Microsecond))
	}
}

func serveScriptGet(cfg *Config, store *ScriptStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)

		id := p.ByName("id")
		if id == "active" {
			activeID, err := store.activeID()
			if err != nil {
				writeError(cfg, w, err, "failed to read active script")
				return
			}
			writeJSON(w, http.StatusOK, newActiveIDResponse(activeID))
			return
		}

		script, err := store.get(id)
		if err != nil {
			writeError(cfg, w, err, "failed to read script")
			return
		}
		writeJSON(w, http.StatusOK, script)
	}
}

func serveScriptCreate(cfg *Config, store *ScriptStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		var in scriptInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		script, err := store.create(in)
		if err != nil {
			writeError(cfg, w, err, "failed to save script")
			return
		}
		writeJSON(w, http.StatusOK, script)

		logf(cfg, "SCRIPT: Created %q (%s) for %s", script.Name, script.ID, realIP(r))
		if !script.Groups.meetsMinimums() {
			logf(cfg, "SCRIPT: %q is below play minimums", script.Name)
		}
	}
}

func serveScriptUpdate(cfg *Config, store *ScriptStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)

		var in scriptInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		script, err := store.update(p.ByName("id"), in)
		if err != nil {
			writeError(cfg, w, err, "failed to update script")
			return
		}
		writeJSON(w, http.StatusOK, script)

		logf(cfg, "SCRIPT: Updated %q (%s) for %s", script.Name, script.ID, realIP(r))
		if !script.Groups.meetsMinimums() {
			logf(cfg, "SCRIPT: %q is below play minimums", script.Name)
		}
	}
}

func serveScriptDelete(cfg *Config, store *ScriptStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)

		id := p.ByName("id")
		var err error
		if id == "active" {
			err = store.clearActive()
		} else {
			err = store.delete(id)
		}
		if err != nil {
			writeError(cfg, w, err, "failed to delete script")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

		logf(cfg, "SCRIPT: Deleted %s for %s", id, realIP(r))
	}
}

func serveScriptSetActive(cfg *Config, store *ScriptStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)

		if err := store.setActive(p.ByName("id")); err != nil {
			writeError(cfg, w, err, "failed to set active script")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func serveScriptJinxes(cfg *Config, store *ScriptStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)

		script, err := store.get(p.ByName("id"))
		if err != nil {
			writeError(cfg, w, err, "failed to read script")
			return
		}
		writeJSON(w, http.StatusOK, dedupJinxes(script.Groups))
	}
}
