package gametest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"trivia-client/internal/domain"
)

// ContentAPI is a fake trivia-set API mounted under /api.
type ContentAPI struct {
	httpSrv *httptest.Server

	mu   sync.Mutex
	sets map[string]domain.TriviaSet
	hits int
}

// NewContentAPI serves the trivia-set API with the given seed sets.
func NewContentAPI(seed ...domain.TriviaSet) *ContentAPI {
	c := &ContentAPI{sets: make(map[string]domain.TriviaSet)}
	for _, set := range seed {
		c.sets[set.ID] = set
	}

	r := chi.NewRouter()
	r.Route("/api/trivia-sets", func(r chi.Router) {
		r.Get("/", c.list)
		r.Post("/", c.create)
		r.Get("/{id}", c.get)
	})
	c.httpSrv = httptest.NewServer(r)
	return c
}

// URL is the API base, including the /api prefix.
func (c *ContentAPI) URL() string { return c.httpSrv.URL + "/api" }

func (c *ContentAPI) Close() { c.httpSrv.Close() }

// Hits counts requests served.
func (c *ContentAPI) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func (c *ContentAPI) list(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.hits++
	sets := make([]domain.TriviaSet, 0, len(c.sets))
	for _, set := range c.sets {
		sets = append(sets, set)
	}
	c.mu.Unlock()

	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	writeJSON(w, http.StatusOK, sets, "")
}

func (c *ContentAPI) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c.mu.Lock()
	c.hits++
	set, ok := c.sets[id]
	c.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, nil, "Trivia set not found")
		return
	}
	writeJSON(w, http.StatusOK, set, "")
}

func (c *ContentAPI) create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateTriviaSet
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, nil, "invalid body")
		return
	}
	if err := in.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, nil, err.Error())
		return
	}

	set := domain.TriviaSet{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		Questions:   in.Questions,
		IsPublic:    in.IsPublic,
		CreatedAt:   time.Now().UTC(),
	}
	c.mu.Lock()
	c.hits++
	c.sets[set.ID] = set
	c.mu.Unlock()

	writeJSON(w, http.StatusCreated, set, "")
}

func writeJSON(w http.ResponseWriter, status int, data any, msg string) {
	body := map[string]any{"success": msg == ""}
	if data != nil {
		body["data"] = data
	}
	if msg != "" {
		body["error"] = msg
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
