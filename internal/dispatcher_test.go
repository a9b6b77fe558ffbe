package internal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barquiz/trivia-server/internal/common"
)

func newTestDispatcher() (*Dispatcher, *Games) {
	games := InitGames()
	return InitDispatcher(games, InitRooms()), games
}

func dispatch(t *testing.T, d *Dispatcher, c *Client, event string, data interface{}, ack interface{}) {
	t.Helper()
	payload, err := json.Marshal(common.Envelope{Event: event, Data: data, Ack: ack})
	require.NoError(t, err)
	d.Dispatch(c, payload)
}

func decodeData(t *testing.T, env common.Envelope, target interface{}) {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, target))
}

func errorOf(t *testing.T, env common.Envelope) string {
	t.Helper()
	var reply common.ErrorReply
	decodeData(t, env, &reply)
	require.False(t, reply.Success)
	return reply.Error
}

func TestGameFlow(t *testing.T) {
	d, games := newTestDispatcher()
	host := newTestClient(1)
	pandas := newTestClient(2)
	wolves := newTestClient(3)

	// host creates the game
	dispatch(t, d, host, common.EventHostCreateGame, common.CreateGameRequest{HostName: "Alex"}, 1)
	env := nextFrame(t, host)
	require.Equal(t, common.EventHostCreateGame, env.Event)
	assert.EqualValues(t, 1, env.Ack)
	var created common.CreateGameReply
	decodeData(t, env, &created)
	require.True(t, created.Success)
	require.Len(t, created.Pin, 4)
	assert.NotEmpty(t, created.GameId)
	assert.NotEmpty(t, created.HostId)
	pin := created.Pin

	// two teams join; the host hears about each join
	dispatch(t, d, pandas, common.EventTeamJoin, common.JoinGameRequest{Pin: pin, TeamName: "Pandas"}, 2)
	joinedEnv := nextFrame(t, host)
	require.Equal(t, common.EventTeamJoined, joinedEnv.Event)
	var joined common.TeamJoinedEvent
	decodeData(t, joinedEnv, &joined)
	assert.Equal(t, "Pandas", joined.TeamName)
	assert.Equal(t, 1, joined.TotalTeams)

	env = nextFrame(t, pandas)
	var joinReply common.JoinGameReply
	decodeData(t, env, &joinReply)
	require.True(t, joinReply.Success)
	assert.Equal(t, common.StateLobby, joinReply.GameState)
	pandasId := joinReply.TeamId

	dispatch(t, d, wolves, common.EventTeamJoin, common.JoinGameRequest{Pin: pin, TeamName: "Wolves"}, 3)
	nextFrame(t, host) // team:joined for Wolves
	env = nextFrame(t, wolves)
	decodeData(t, env, &joinReply)
	wolvesId := joinReply.TeamId

	// host adds a question
	dispatch(t, d, host, common.EventHostAddQuestion, common.AddQuestionRequest{
		Pin: pin,
		Question: common.QuestionPayload{
			Text:          "2+2?",
			Options:       []string{"3", "4", "5", "6"},
			CorrectAnswer: 1,
			TimeLimit:     30,
		},
	}, 4)
	env = nextFrame(t, host)
	var addReply common.AddQuestionReply
	decodeData(t, env, &addReply)
	require.True(t, addReply.Success)
	assert.Equal(t, 1, addReply.TotalQuestions)

	// start: every room member sees the broadcast before the host's reply
	dispatch(t, d, host, common.EventHostStartGame, common.PinRequest{Pin: pin}, 5)
	startedEnv := nextFrame(t, host)
	require.Equal(t, common.EventGameStarted, startedEnv.Event)
	env = nextFrame(t, host)
	require.Equal(t, common.EventHostStartGame, env.Event)

	for _, c := range []*Client{pandas, wolves} {
		raw := <-c.send
		assert.NotContains(t, string(raw), "correctAnswer")
		var teamStarted common.Envelope
		require.NoError(t, json.Unmarshal(raw, &teamStarted))
		require.Equal(t, common.EventGameStarted, teamStarted.Event)
		var started common.GameStartedEvent
		decodeData(t, teamStarted, &started)
		assert.Equal(t, 1, started.Question.QuestionNumber)
		assert.Equal(t, 1, started.Question.TotalQuestions)
	}

	// answers: Pandas correct (immediately, so full bonus), Wolves wrong
	answer := 1
	dispatch(t, d, pandas, common.EventTeamSubmitAnswer, common.SubmitAnswerRequest{Pin: pin, TeamId: pandasId, Answer: &answer}, 6)
	submittedEnv := nextFrame(t, host)
	require.Equal(t, common.EventAnswerSubmitted, submittedEnv.Event)
	var submitted common.AnswerSubmittedEvent
	decodeData(t, submittedEnv, &submitted)
	assert.Equal(t, pandasId, submitted.TeamId)
	assert.True(t, submitted.Answered)

	env = nextFrame(t, pandas)
	var submitReply common.SubmitAnswerReply
	decodeData(t, env, &submitReply)
	require.True(t, submitReply.Success)
	assert.True(t, submitReply.Submitted)

	wrong := 2
	dispatch(t, d, wolves, common.EventTeamSubmitAnswer, common.SubmitAnswerRequest{Pin: pin, TeamId: wolvesId, Answer: &wrong}, 7)
	nextFrame(t, host) // answer:submitted for Wolves
	nextFrame(t, wolves)

	// reveal
	dispatch(t, d, host, common.EventHostRevealAnswer, common.PinRequest{Pin: pin}, 8)
	revealedEnv := nextFrame(t, pandas)
	require.Equal(t, common.EventAnswerRevealed, revealedEnv.Event)
	var revealed common.AnswerRevealedEvent
	decodeData(t, revealedEnv, &revealed)
	assert.Equal(t, 1, revealed.CorrectAnswer)
	require.Len(t, revealed.Leaderboard, 2)
	assert.Equal(t, "Pandas", revealed.Leaderboard[0].Name)
	// submitted right away, so close to the full 50-point bonus
	assert.GreaterOrEqual(t, revealed.Leaderboard[0].Score, 140)
	assert.LessOrEqual(t, revealed.Leaderboard[0].Score, 150)
	assert.Equal(t, "Wolves", revealed.Leaderboard[1].Name)
	assert.Equal(t, 0, revealed.Leaderboard[1].Score)

	nextFrame(t, wolves) // answer:revealed
	nextFrame(t, host)   // answer:revealed
	env = nextFrame(t, host)
	var revealReply common.RevealAnswerReply
	decodeData(t, env, &revealReply)
	require.True(t, revealReply.Success)

	// past the last question the game ends
	dispatch(t, d, host, common.EventHostNextQuestion, common.PinRequest{Pin: pin}, 9)
	endedEnv := nextFrame(t, pandas)
	require.Equal(t, common.EventGameEnded, endedEnv.Event)
	var gameEnded common.GameEndedEvent
	decodeData(t, endedEnv, &gameEnded)
	assert.Equal(t, 1, gameEnded.TotalQuestions)
	require.Len(t, gameEnded.FinalLeaderboard, 2)

	nextFrame(t, wolves)
	nextFrame(t, host) // game:ended
	env = nextFrame(t, host)
	var nextReply common.NextQuestionReply
	decodeData(t, env, &nextReply)
	require.True(t, nextReply.Success)
	assert.True(t, nextReply.Ended)

	game, err := games.Lookup(pin)
	require.NoError(t, err)
	assert.Equal(t, common.StateEnded, game.CurrentState())
}

func TestJoinUnknownPin(t *testing.T) {
	d, _ := newTestDispatcher()
	c := newTestClient(1)

	dispatch(t, d, c, common.EventTeamJoin, common.JoinGameRequest{Pin: "0000", TeamName: "Pandas"}, 1)
	assert.Equal(t, "Game not found", errorOf(t, nextFrame(t, c)))
}

func TestJoinAfterStart(t *testing.T) {
	d, games := newTestDispatcher()
	host := newTestClient(1)
	late := newTestClient(2)

	dispatch(t, d, host, common.EventHostCreateGame, common.CreateGameRequest{HostName: "Alex"}, 1)
	var created common.CreateGameReply
	decodeData(t, nextFrame(t, host), &created)

	game, err := games.Lookup(created.Pin)
	require.NoError(t, err)
	game.AddQuestion(common.Question{Text: "2+2?", Options: []string{"3", "4"}, Correct: 1})
	_, err = game.Start()
	require.NoError(t, err)

	dispatch(t, d, late, common.EventTeamJoin, common.JoinGameRequest{Pin: created.Pin, TeamName: "Late"}, 2)
	assert.Equal(t, "Game already started", errorOf(t, nextFrame(t, late)))
}

func TestStartWithoutQuestions(t *testing.T) {
	d, _ := newTestDispatcher()
	host := newTestClient(1)

	dispatch(t, d, host, common.EventHostCreateGame, common.CreateGameRequest{HostName: "Alex"}, 1)
	var created common.CreateGameReply
	decodeData(t, nextFrame(t, host), &created)

	dispatch(t, d, host, common.EventHostStartGame, common.PinRequest{Pin: created.Pin}, 2)
	assert.Equal(t, "No questions added", errorOf(t, nextFrame(t, host)))
}

func TestHostEndGame(t *testing.T) {
	d, games := newTestDispatcher()
	host := newTestClient(1)

	dispatch(t, d, host, common.EventHostCreateGame, common.CreateGameRequest{HostName: "Alex"}, 1)
	var created common.CreateGameReply
	decodeData(t, nextFrame(t, host), &created)

	dispatch(t, d, host, common.EventHostEndGame, common.PinRequest{Pin: created.Pin}, 2)
	endedEnv := nextFrame(t, host)
	require.Equal(t, common.EventGameEnded, endedEnv.Event)
	env := nextFrame(t, host)
	var reply common.NextQuestionReply
	decodeData(t, env, &reply)
	require.True(t, reply.Success)
	assert.True(t, reply.Ended)

	game, err := games.Lookup(created.Pin)
	require.NoError(t, err)
	assert.Equal(t, common.StateEnded, game.CurrentState())
}

func TestGetLeaderboard(t *testing.T) {
	d, games := newTestDispatcher()
	host := newTestClient(1)

	dispatch(t, d, host, common.EventHostCreateGame, common.CreateGameRequest{HostName: "Alex"}, 1)
	var created common.CreateGameReply
	decodeData(t, nextFrame(t, host), &created)

	game, err := games.Lookup(created.Pin)
	require.NoError(t, err)
	game.AddTeam("Pandas", 9)

	dispatch(t, d, host, common.EventGetLeaderboard, common.PinRequest{Pin: created.Pin}, 2)
	var reply common.LeaderboardReply
	decodeData(t, nextFrame(t, host), &reply)
	require.True(t, reply.Success)
	require.Len(t, reply.Leaderboard, 1)
	assert.Equal(t, "Pandas", reply.Leaderboard[0].Name)
}

func TestDisconnectEmptiesLobby(t *testing.T) {
	d, games := newTestDispatcher()
	host := newTestClient(1)
	team := newTestClient(2)

	dispatch(t, d, host, common.EventHostCreateGame, common.CreateGameRequest{HostName: "Alex"}, 1)
	var created common.CreateGameReply
	decodeData(t, nextFrame(t, host), &created)

	dispatch(t, d, team, common.EventTeamJoin, common.JoinGameRequest{Pin: created.Pin, TeamName: "Pandas"}, 2)
	nextFrame(t, host) // team:joined
	nextFrame(t, team)

	d.ClientDisconnected(team.id)

	leftEnv := nextFrame(t, host)
	require.Equal(t, common.EventTeamLeft, leftEnv.Event)
	var left common.TeamLeftEvent
	decodeData(t, leftEnv, &left)
	assert.Equal(t, "Pandas", left.TeamName)
	assert.Equal(t, 0, left.TotalTeams)

	_, err := games.Lookup(created.Pin)
	assert.Error(t, err, "emptied lobby should be evicted")
}

func TestMalformedFrame(t *testing.T) {
	d, _ := newTestDispatcher()
	c := newTestClient(1)

	d.Dispatch(c, []byte("not json"))
	assert.Equal(t, "Bad request", errorOf(t, nextFrame(t, c)))
}

func TestUnknownEvent(t *testing.T) {
	d, _ := newTestDispatcher()
	c := newTestClient(1)

	dispatch(t, d, c, "host:no-such-event", nil, 1)
	env := nextFrame(t, c)
	assert.EqualValues(t, 1, env.Ack)
	assert.Equal(t, "Bad request", errorOf(t, env))
}

func TestSubmitMissingAnswer(t *testing.T) {
	d, _ := newTestDispatcher()
	c := newTestClient(1)

	dispatch(t, d, c, common.EventTeamSubmitAnswer, common.PinRequest{Pin: "1234"}, 1)
	assert.Equal(t, "Bad request", errorOf(t, nextFrame(t, c)))
}
