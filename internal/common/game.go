package common

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Game states:
// * The game starts off in the lobby - teams may join, the host adds
//   questions
// * When the host starts the game, the state shifts to question and the
//   cursor moves to the first question
// * When the host reveals the answer, the state shifts to answer-reveal
// * When the host advances, the state shifts back to question (the host may
//   also advance straight from question, skipping the reveal)
// * Advancing past the last question ends the game - ended is terminal
type GameState string

const (
	StateLobby        GameState = "lobby"
	StateQuestion     GameState = "question"
	StateAnswerReveal GameState = "answer-reveal"
	StateEnded        GameState = "ended"
)

const (
	basePoints = 100
	maxBonus   = 50
)

// Answer records a single submission. Answers are append-only and never
// mutated.
type Answer struct {
	QuestionId string `json:"questionId"`
	Option     int    `json:"option"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
	ElapsedMs  int64  `json:"elapsedMs"`
}

// Team is the unit of scoring. Client is a lookup key into the transport
// layer and may go stale on disconnect.
type Team struct {
	Id      string   `json:"teamId"`
	Name    string   `json:"teamName"`
	Client  uint64   `json:"-"`
	Score   int      `json:"score"`
	Answers []Answer `json:"answers"`
}

type LeaderboardEntry struct {
	Name         string `json:"name"`
	Score        int    `json:"score"`
	AnswersCount int    `json:"answersCount"`
}

// TeamRemoval describes a team dropped by a disconnect sweep.
type TeamRemoval struct {
	TeamId     string
	TeamName   string
	TotalTeams int
}

// Game is a single trivia session. Multiple goroutines may invoke methods on
// a Game simultaneously; every method serializes on the game's own mutex.
// Pin, Id and HostName are fixed at creation and safe to read without it.
type Game struct {
	mu sync.Mutex

	Id         string
	Pin        string
	HostName   string
	HostClient uint64

	state           GameState
	questions       []Question
	questionIndex   int // -1 while in the lobby
	questionStarted time.Time

	teams     map[string]*Team
	teamOrder []string // join order, keeps leaderboard ties stable
}

func NewGame(pin, hostName string, hostClient uint64) *Game {
	return &Game{
		Id:            uuid.NewString(),
		Pin:           pin,
		HostName:      hostName,
		HostClient:    hostClient,
		state:         StateLobby,
		questionIndex: -1,
		teams:         make(map[string]*Team),
	}
}

func (g *Game) CurrentState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) TeamCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.teams)
}

func (g *Game) QuestionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.questions)
}

// AddTeam registers a new team. Teams may only join while the game is in the
// lobby. Team names are not required to be unique.
func (g *Game) AddTeam(name string, client uint64) (teamId string, totalTeams int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateLobby {
		return "", 0, NewGameAlreadyStartedError(g.Pin, g.state)
	}

	team := &Team{
		Id:     uuid.NewString(),
		Name:   name,
		Client: client,
	}
	g.teams[team.Id] = team
	g.teamOrder = append(g.teamOrder, team.Id)
	return team.Id, len(g.teams), nil
}

// RemoveTeam drops a team by id. Removing an absent team is a no-op.
func (g *Game) RemoveTeam(teamId string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeTeamLocked(teamId)
}

func (g *Game) removeTeamLocked(teamId string) {
	if _, ok := g.teams[teamId]; !ok {
		return
	}
	delete(g.teams, teamId)
	for i, id := range g.teamOrder {
		if id == teamId {
			g.teamOrder = append(g.teamOrder[:i], g.teamOrder[i+1:]...)
			break
		}
	}
}

// RemoveTeamsForClient drops every team owned by the departing connection.
// Teams are only removed while the game is still in the lobby; past that the
// connection id merely goes stale and scores are retained.
func (g *Game) RemoveTeamsForClient(client uint64) (removals []TeamRemoval, lobbyEmpty bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateLobby {
		return nil, false
	}

	for _, id := range append([]string(nil), g.teamOrder...) {
		team := g.teams[id]
		if team == nil || team.Client != client {
			continue
		}
		g.removeTeamLocked(id)
		removals = append(removals, TeamRemoval{
			TeamId:     id,
			TeamName:   team.Name,
			TotalTeams: len(g.teams),
		})
	}

	return removals, len(removals) > 0 && len(g.teams) == 0
}

// AddQuestion appends a question and returns the new total. Permitted in any
// state; an addition mid-game has no effect on the in-flight question.
func (g *Game) AddQuestion(q Question) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if q.Id == "" {
		q.Id = uuid.NewString()
	}
	if q.TimeLimit <= 0 {
		q.TimeLimit = DefaultTimeLimit
	}
	g.questions = append(g.questions, q)
	return len(g.questions)
}

// Start moves the game out of the lobby and activates the first question.
func (g *Game) Start() (QuestionView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateLobby {
		return QuestionView{}, NewWrongStateError(g.Pin, g.state)
	}
	if len(g.questions) == 0 {
		return QuestionView{}, NewNoQuestionsError(g.Pin)
	}

	g.state = StateQuestion
	g.questionIndex = 0
	g.questionStarted = time.Now()
	return g.currentViewLocked(), nil
}

// NextQuestion advances the cursor. Advancing past the last question ends the
// game and returns the final leaderboard. The host may advance straight from
// the question state, skipping the reveal.
func (g *Game) NextQuestion() (view QuestionView, ended bool, final []LeaderboardEntry, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateQuestion && g.state != StateAnswerReveal {
		return QuestionView{}, false, nil, NewWrongStateError(g.Pin, g.state)
	}

	g.questionIndex++
	if g.questionIndex >= len(g.questions) {
		g.state = StateEnded
		return QuestionView{}, true, g.leaderboardLocked(), nil
	}

	g.state = StateQuestion
	g.questionStarted = time.Now()
	return g.currentViewLocked(), false, nil, nil
}

// SubmitAnswer records a team's answer to the live question. The first
// submission wins: a repeat for the same question returns the recorded result
// and never mutates the score.
func (g *Game) SubmitAnswer(teamId string, option int) (correct bool, points int, first bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateQuestion {
		return false, 0, false, NewNotAcceptingAnswersError(g.Pin, g.state)
	}
	team, ok := g.teams[teamId]
	if !ok {
		return false, 0, false, NewUnknownTeamError(g.Pin, teamId)
	}
	if g.questionIndex < 0 || g.questionIndex >= len(g.questions) {
		return false, 0, false, NewUnknownQuestionError(g.Pin, g.questionIndex)
	}

	question := g.questions[g.questionIndex]
	if option < 0 || option >= question.NumOptions() {
		return false, 0, false, NewBadRequestError("answer index %d out of range", option)
	}

	for _, prior := range team.Answers {
		if prior.QuestionId == question.Id {
			return prior.Correct, prior.Points, false, nil
		}
	}

	elapsed := time.Since(g.questionStarted).Milliseconds()
	correct = option == question.Correct
	if correct {
		points = calculateScore(elapsed, question.TimeLimit)
	}
	team.Answers = append(team.Answers, Answer{
		QuestionId: question.Id,
		Option:     option,
		Correct:    correct,
		Points:     points,
		ElapsedMs:  elapsed,
	})
	team.Score += points
	return correct, points, true, nil
}

// Reveal discloses the correct answer index and a leaderboard snapshot.
// Calling it again in answer-reveal returns the same values.
func (g *Game) Reveal() (correctIndex int, leaderboard []LeaderboardEntry, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateQuestion && g.state != StateAnswerReveal {
		return 0, nil, NewWrongStateError(g.Pin, g.state)
	}
	if g.questionIndex < 0 || g.questionIndex >= len(g.questions) {
		return 0, nil, NewUnknownQuestionError(g.Pin, g.questionIndex)
	}

	g.state = StateAnswerReveal
	return g.questions[g.questionIndex].Correct, g.leaderboardLocked(), nil
}

// End terminates the game and returns the final leaderboard.
func (g *Game) End() ([]LeaderboardEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateEnded {
		return nil, NewWrongStateError(g.Pin, g.state)
	}
	g.state = StateEnded
	return g.leaderboardLocked(), nil
}

// Leaderboard is a pure snapshot of current team scores, sorted by score
// descending with ties in join order.
func (g *Game) Leaderboard() []LeaderboardEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leaderboardLocked()
}

func (g *Game) leaderboardLocked() []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(g.teams))
	for _, id := range g.teamOrder {
		team := g.teams[id]
		entries = append(entries, LeaderboardEntry{
			Name:         team.Name,
			Score:        team.Score,
			AnswersCount: len(team.Answers),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

func (g *Game) currentViewLocked() QuestionView {
	return g.questions[g.questionIndex].View(g.questionIndex+1, len(g.questions))
}

// calculateScore awards the base plus a bonus that decays linearly from 50 at
// t=0 to 0 at the time limit. Late submissions still earn the base - there is
// no penalty.
func calculateScore(elapsedMs int64, timeLimit int) int {
	limitMs := int64(timeLimit) * 1000
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	if limitMs <= 0 || elapsedMs >= limitMs {
		return basePoints
	}
	bonus := maxBonus * (limitMs - elapsedMs) / limitMs
	return basePoints + int(bonus)
}
