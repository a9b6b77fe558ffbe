package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/barquiz/trivia-server/internal/common"
)

// GameRegistry is the slice of the registry the REST surface needs.
type GameRegistry interface {
	Count() int
	Create(hostName string, hostClient uint64) (*common.Game, string, error)
	Lookup(pin string) (*common.Game, error)
}

type RestApi struct {
	games     GameRegistry
	clientURL string
}

func InitRestApi(games GameRegistry, clientURL string) *RestApi {
	return &RestApi{games: games, clientURL: clientURL}
}

// Health reports liveness and the number of live games.
func (api *RestApi) Health(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, struct {
		Status string `json:"status"`
		Games  int    `json:"games"`
	}{
		Status: "ok",
		Games:  api.games.Count(),
	})
}

// Games serves /api/games/create (POST, out-of-band creation) and
// /api/games/<pin> (GET, introspection).
func (api *RestApi) Games(w http.ResponseWriter, r *http.Request) {
	api.setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	last := lastPart(r.URL.Path)

	if r.Method == http.MethodPost && last == "create" {
		api.createGame(w, r)
		return
	}

	if r.Method == http.MethodGet {
		api.gameInfo(w, last)
		return
	}

	http.Error(w, "unsupported method", http.StatusNotImplemented)
}

func (api *RestApi) createGame(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	// body is optional - a bare POST creates a game with no host name
	req := struct {
		HostName string `json:"hostName"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	game, hostId, err := api.games.Create(req.HostName, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	api.writeJSON(w, struct {
		GameId string `json:"gameId"`
		Pin    string `json:"pin"`
		HostId string `json:"hostId"`
	}{
		GameId: game.Id,
		Pin:    game.Pin,
		HostId: hostId,
	})
}

func (api *RestApi) gameInfo(w http.ResponseWriter, pin string) {
	game, err := api.games.Lookup(pin)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	api.writeJSON(w, struct {
		Pin       string           `json:"pin"`
		State     common.GameState `json:"state"`
		Teams     int              `json:"teams"`
		Questions int              `json:"questions"`
	}{
		Pin:       game.Pin,
		State:     game.CurrentState(),
		Teams:     game.TeamCount(),
		Questions: game.QuestionCount(),
	})
}

func (api *RestApi) setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", api.clientURL)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (api *RestApi) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Add("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if err := enc.Encode(payload); err != nil {
		log.Printf("error encoding response to JSON: %v", err)
	}
}

// returns the part beyond the last slash in the URL
func lastPart(s string) string {
	last := strings.LastIndex(s, "/")
	if last == -1 {
		return s
	}
	return s[last+1:]
}
