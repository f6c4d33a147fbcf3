package acceptance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// FakeAnkiConnect is an in-memory AnkiConnect endpoint for end-to-end specs.
// It keeps added notes and created decks so tests can assert on the state a
// real Anki would end up in.
type FakeAnkiConnect struct {
	mu sync.Mutex

	server  *httptest.Server
	actions []string
	decks   []string
	models  []string
	notes   []*StoredNote
	nextID  int64
}

// StoredNote is a note as the fake endpoint stores it.
type StoredNote struct {
	ID     int64
	Deck   string
	Model  string
	Fields map[string]string
	Tags   []string
}

func NewFakeAnkiConnect() *FakeAnkiConnect {
	f := &FakeAnkiConnect{
		models: []string{"Basic", "Basic (and reversed card)", "Cloze"},
		nextID: 1000,
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *FakeAnkiConnect) URL() string {
	return f.server.URL
}

func (f *FakeAnkiConnect) Close() {
	f.server.Close()
}

// Calls counts how often an action was invoked.
func (f *FakeAnkiConnect) Calls(action string) int {
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

func (f *FakeAnkiConnect) NoteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notes)
}

func (f *FakeAnkiConnect) DeckNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.decks...)
}

func (f *FakeAnkiConnect) NoteByTag(tag string) (StoredNote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if note := f.findByTag(tag); note != nil {
		return *note, true
	}
	return StoredNote{}, false
}

func (f *FakeAnkiConnect) findByTag(tag string) *StoredNote {
	for _, note := range f.notes {
		for _, t := range note.Tags {
			if t == tag {
				return note
			}
		}
	}
	return nil
}

func (f *FakeAnkiConnect) findByID(id int64) *StoredNote {
	for _, note := range f.notes {
		if note.ID == id {
			return note
		}
	}
	return nil
}

func (f *FakeAnkiConnect) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string                 `json:"action"`
		Version int                    `json:"version"`
		Params  map[string]interface{} `json:"params"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, nil, "malformed request: "+err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.actions = append(f.actions, req.Action)

	switch req.Action {
	case "version":
		writeResult(w, 6, "")

	case "modelNames":
		writeResult(w, f.models, "")

	case "createDeck":
		name, _ := req.Params["deck"].(string)
		f.decks = append(f.decks, name)
		writeResult(w, f.nextID, "")

	case "findNotes":
		query, _ := req.Params["query"].(string)
		tag := strings.TrimPrefix(query, "tag:")
		ids := []int64{}
		if note := f.findByTag(tag); note != nil {
			ids = append(ids, note.ID)
		}
		writeResult(w, ids, "")

	case "addNote":
		raw, _ := req.Params["note"].(map[string]interface{})
		note := &StoredNote{
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
		writeResult(w, note.ID, "")

	case "updateNoteFields":
		raw, _ := req.Params["note"].(map[string]interface{})
		id, _ := raw["id"].(float64)
		note := f.findByID(int64(id))
		if note == nil {
			writeResult(w, nil, "note was not found")
			return
		}
		if fields, ok := raw["fields"].(map[string]interface{}); ok {
			for k, v := range fields {
				note.Fields[k], _ = v.(string)
			}
		}
		writeResult(w, nil, "")

	case "addTags":
		rawIDs, _ := req.Params["notes"].([]interface{})
		tagList, _ := req.Params["tags"].(string)
		for _, rawID := range rawIDs {
			id, _ := rawID.(float64)
			note := f.findByID(int64(id))
			if note == nil {
				writeResult(w, nil, "note was not found")
				return
			}
			for _, tag := range strings.Fields(tagList) {
				if !containsTag(note.Tags, tag) {
					note.Tags = append(note.Tags, tag)
				}
			}
		}
		writeResult(w, nil, "")

	default:
		writeResult(w, nil, "unsupported action: "+req.Action)
	}
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func writeResult(w http.ResponseWriter, result interface{}, errMsg string) {
	w.Header().Set("Content-Type", "application/json")

	payload := map[string]interface{}{
		"result": result,
		"error":  nil,
	}
	if errMsg != "" {
		payload["error"] = errMsg
	}

	json.NewEncoder(w).Encode(payload)
}
