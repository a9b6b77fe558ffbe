package internal

import (
	"crypto/rand"
	"encoding/binary"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/barquiz/trivia-server/internal/common"
	"github.com/barquiz/trivia-server/internal/shutdown"
)

// pinAttempts bounds the retry budget for PIN allocation.
const pinAttempts = 20

// Games is the process-wide registry mapping PINs to live games.
type Games struct {
	mutex sync.RWMutex
	all   map[string]*common.Game // map key is the game pin
}

func InitGames() *Games {
	return &Games{
		all: make(map[string]*common.Game),
	}
}

// Create allocates a game under a fresh PIN and returns it together with a
// newly minted host id.
func (g *Games) Create(hostName string, hostClient uint64) (*common.Game, string, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	for i := 0; i < pinAttempts; i++ {
		pin := generatePin()
		if _, exists := g.all[pin]; exists {
			continue
		}
		game := common.NewGame(pin, hostName, hostClient)
		g.all[pin] = game
		return game, uuid.NewString(), nil
	}
	return nil, "", common.NewPinExhaustedError(pinAttempts)
}

// generatePin samples uniformly from [1000, 9999] - always four decimal
// digits.
func generatePin() string {
	b := make([]byte, 8)
	rand.Read(b)

	n := binary.BigEndian.Uint64(b) % 9000
	pin := 1000 + int(n)

	digits := []byte{
		byte('0' + pin/1000),
		byte('0' + pin/100%10),
		byte('0' + pin/10%10),
		byte('0' + pin%10),
	}
	return string(digits)
}

func (g *Games) Lookup(pin string) (*common.Game, error) {
	g.mutex.RLock()
	game, ok := g.all[pin]
	g.mutex.RUnlock()

	if !ok {
		return nil, common.NewNoSuchGameError(pin)
	}
	return game, nil
}

func (g *Games) Remove(pin string) {
	g.mutex.Lock()
	delete(g.all, pin)
	g.mutex.Unlock()
}

func (g *Games) Count() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.all)
}

func (g *Games) snapshot() []*common.Game {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	games := make([]*common.Game, 0, len(g.all))
	for _, game := range g.all {
		games = append(games, game)
	}
	return games
}

// GameRemoval describes a team dropped from one game by a disconnect sweep.
type GameRemoval struct {
	Pin     string
	Removal common.TeamRemoval
	Evicted bool
}

// RemoveClientTeams sweeps every live game for teams owned by the departing
// connection. A lobby emptied by the sweep is evicted immediately.
func (g *Games) RemoveClientTeams(client uint64) []GameRemoval {
	var all []GameRemoval
	for _, game := range g.snapshot() {
		removals, lobbyEmpty := game.RemoveTeamsForClient(client)
		for _, r := range removals {
			all = append(all, GameRemoval{Pin: game.Pin, Removal: r})
		}
		if lobbyEmpty {
			g.Remove(game.Pin)
			log.Printf("evicted empty lobby game %s", game.Pin)
			if len(all) > 0 {
				all[len(all)-1].Evicted = true
			}
		}
	}
	return all
}

// RunJanitor periodically sweeps ended games out of the registry.
func (g *Games) RunJanitor(interval time.Duration) {
	ctx := shutdown.Context()
	defer shutdown.NotifyShutdownComplete()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Print("shutting down games janitor")
			return
		case <-ticker.C:
			g.sweepEnded()
		}
	}
}

func (g *Games) sweepEnded() {
	for _, game := range g.snapshot() {
		if game.CurrentState() == common.StateEnded {
			g.Remove(game.Pin)
			log.Printf("janitor removed ended game %s", game.Pin)
		}
	}
}
