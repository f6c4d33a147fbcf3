package anki_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// fakeAnki is an in-memory AnkiConnect endpoint. It implements just enough
// of the protocol for the client and syncer specs and records every request
// so tests can assert on traffic.
type fakeAnki struct {
	mu sync.Mutex

	server *httptest.Server

	actions []string
	decks   []string
	models  []string
	notes   []*fakeNote
	nextID  int64

	// failOn maps an action to the AnkiConnect-level error it should return.
	failOn map[string]string
}

type fakeNote struct {
	ID     int64
	Deck   string
	Model  string
	Fields map[string]string
	Tags   []string
}

func newFakeAnki() *fakeAnki {
	f := &fakeAnki{
		models: []string{"Basic", "Basic (and reversed card)", "Cloze"},
		nextID: 1000,
		failOn: make(map[string]string),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeAnki) URL() string {
	return f.server.URL
}

func (f *fakeAnki) Close() {
	f.server.Close()
}

func (f *fakeAnki) calls(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, a := range f.actions {
		if a == action {
			count++
		}
	}
	return count
}

func (f *fakeAnki) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.actions)
}

func (f *fakeAnki) deckNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.decks...)
}

func (f *fakeAnki) noteByTag(tag string) (fakeNote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if note := f.findByTag(tag); note != nil {
		return *note, true
	}
	return fakeNote{}, false
}

func (f *fakeAnki) seedNote(note fakeNote) {
	f.mu.Lock()
	defer f.mu.Unlock()

	note.ID = f.nextID
	f.nextID++
	f.notes = append(f.notes, &note)
}

func (f *fakeAnki) findByTag(tag string) *fakeNote {
	for _, note := range f.notes {
		for _, t := range note.Tags {
			if t == tag {
				return note
			}
		}
	}
	return nil
}

func (f *fakeAnki) findByID(id int64) *fakeNote {
	for _, note := range f.notes {
		if note.ID == id {
			return note
		}
	}
	return nil
}

func (f *fakeAnki) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string                 `json:"action"`
		Version int                    `json:"version"`
		Params  map[string]interface{} `json:"params"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "malformed request: "+err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.actions = append(f.actions, req.Action)

	if req.Version != 6 {
		respondError(w, "unsupported version")
		return
	}

	if msg, ok := f.failOn[req.Action]; ok {
		respondError(w, msg)
		return
	}

	switch req.Action {
	case "version":
		respond(w, 6)

	case "modelNames":
		respond(w, f.models)

	case "createDeck":
		name, _ := req.Params["deck"].(string)
		f.decks = append(f.decks, name)
		respond(w, f.nextID)

	case "findNotes":
		query, _ := req.Params["query"].(string)
		tag := strings.TrimPrefix(query, "tag:")
		ids := []int64{}
		if note := f.findByTag(tag); note != nil {
			ids = append(ids, note.ID)
		}
		respond(w, ids)

	case "addNote":
		raw, _ := req.Params["note"].(map[string]interface{})
		note := &fakeNote{
			ID:     f.nextID,
			Fields: map[string]string{},
		}
		f.nextID++
		note.Deck, _ = raw["deckName"].(string)
		note.Model, _ = raw["modelName"].(string)
		if fields, ok := raw["fields"].(map[string]interface{}); ok {
			for k, v := range fields {
				note.Fields[k], _ = v.(string)
			}
		}
		if tags, ok := raw["tags"].([]interface{}); ok {
			for _, t := range tags {
				if s, ok := t.(string); ok {
					note.Tags = append(note.Tags, s)
				}
			}
		}
		f.notes = append(f.notes, note)
		respond(w, note.ID)

	case "updateNoteFields":
		raw, _ := req.Params["note"].(map[string]interface{})
		id, _ := raw["id"].(float64)
		note := f.findByID(int64(id))
		if note == nil {
			respondError(w, "note was not found")
			return
		}
		if fields, ok := raw["fields"].(map[string]interface{}); ok {
			for k, v := range fields {
				note.Fields[k], _ = v.(string)
			}
		}
		respond(w, nil)

	case "addTags":
		rawIDs, _ := req.Params["notes"].([]interface{})
		tagList, _ := req.Params["tags"].(string)
		for _, rawID := range rawIDs {
			id, _ := rawID.(float64)
			note := f.findByID(int64(id))
			if note == nil {
				respondError(w, "note was not found")
				return
			}
			for _, tag := range strings.Fields(tagList) {
				if !hasTag(note, tag) {
					note.Tags = append(note.Tags, tag)
				}
			}
		}
		respond(w, nil)

	default:
		respondError(w, "unsupported action: "+req.Action)
	}
}

func hasTag(note *fakeNote, tag string) bool {
	for _, t := range note.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func respond(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"result": result,
		"error":  nil,
	})
}

func respondError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"result": nil,
		"error":  msg,
	})
}
