package internal

import (
	"encoding/json"
	"log"

	"github.com/barquiz/trivia-server/internal/common"
)

// Dispatcher demultiplexes inbound events: parse, validate, look up the game,
// run the operation under the game's lock, then emit broadcasts followed by
// the acknowledgement reply. Broadcasts always go out before the reply so the
// initiator's observers see state changes first.
//
// host:* events are not authenticated against the host connection; any
// connection knowing the PIN can drive the game.
type Dispatcher struct {
	games *Games
	rooms *Rooms
}

func InitDispatcher(games *Games, rooms *Rooms) *Dispatcher {
	return &Dispatcher{
		games: games,
		rooms: rooms,
	}
}

// Dispatch handles one inbound frame. Runs on its own goroutine; a handler
// panic is reported to the originator as a bad request.
func (d *Dispatcher) Dispatch(c *Client, payload []byte) {
	var ev common.ClientEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Printf("client %d sent an unparseable frame: %v", c.id, err)
		d.replyError(c, "", nil, common.NewBadRequestError("unparseable frame"))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic handling %s from client %d: %v", ev.Event, c.id, r)
			d.replyError(c, ev.Event, ev.Ack, common.NewBadRequestError("handler fault"))
		}
	}()

	switch ev.Event {
	case common.EventHostCreateGame:
		d.handleCreateGame(c, &ev)
	case common.EventTeamJoin:
		d.handleTeamJoin(c, &ev)
	case common.EventHostAddQuestion:
		d.handleAddQuestion(c, &ev)
	case common.EventHostStartGame:
		d.handleStartGame(c, &ev)
	case common.EventHostNextQuestion:
		d.handleNextQuestion(c, &ev)
	case common.EventTeamSubmitAnswer:
		d.handleSubmitAnswer(c, &ev)
	case common.EventHostRevealAnswer:
		d.handleRevealAnswer(c, &ev)
	case common.EventHostEndGame:
		d.handleEndGame(c, &ev)
	case common.EventGetLeaderboard:
		d.handleGetLeaderboard(c, &ev)
	default:
		log.Printf("client %d sent unrecognized event %q", c.id, ev.Event)
		d.replyError(c, ev.Event, ev.Ack, common.NewBadRequestError("unknown event %q", ev.Event))
	}
}

func (d *Dispatcher) replyError(c *Client, event string, ack interface{}, err error) {
	d.rooms.Reply(c, event, ack, common.ErrorReply{
		Success: false,
		Error:   err.Error(),
	})
}

func (d *Dispatcher) handleCreateGame(c *Client, ev *common.ClientEvent) {
	var req common.CreateGameRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil || req.HostName == "" {
		d.replyError(c, ev.Event, ev.Ack, common.NewBadRequestError("hostName is missing"))
		return
	}

	game, hostId, err := d.games.Create(req.HostName, c.id)
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return
	}

	d.rooms.Join(c, GameRoom(game.Pin))
	d.rooms.Join(c, HostRoom(game.Pin))

	d.rooms.Reply(c, ev.Event, ev.Ack, common.CreateGameReply{
		Success: true,
		GameId:  game.Id,
		Pin:     game.Pin,
		HostId:  hostId,
	})
}

func (d *Dispatcher) handleTeamJoin(c *Client, ev *common.ClientEvent) {
	var req common.JoinGameRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil || req.TeamName == "" {
		d.replyError(c, ev.Event, ev.Ack, common.NewBadRequestError("teamName is missing"))
		return
	}

	game, err := d.games.Lookup(req.Pin)
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return
	}

	teamId, totalTeams, err := game.AddTeam(req.TeamName, c.id)
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return
	}

	d.rooms.Join(c, GameRoom(game.Pin))

	d.rooms.Broadcast(HostRoom(game.Pin), common.EventTeamJoined, common.TeamJoinedEvent{
		TeamId:     teamId,
		TeamName:   req.TeamName,
		TotalTeams: totalTeams,
	})
	d.rooms.Reply(c, ev.Event, ev.Ack, common.JoinGameReply{
		Success:   true,
		TeamId:    teamId,
		TeamName:  req.TeamName,
		GameState: game.CurrentState(),
	})
}

func (d *Dispatcher) handleAddQuestion(c *Client, ev *common.ClientEvent) {
	var req common.AddQuestionRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil {
		d.replyError(c, ev.Event, ev.Ack, common.NewBadRequestError("bad add-question payload"))
		return
	}
	q := req.Question
	if q.Text == "" || len(q.Options) < 2 || q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		d.replyError(c, ev.Event, ev.Ack, common.NewBadRequestError("invalid question"))
		return
	}

	game, err := d.games.Lookup(req.Pin)
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return
	}

	total := game.AddQuestion(common.Question{
		Text:      q.Text,
		Options:   q.Options,
		Correct:   q.CorrectAnswer,
		TimeLimit: q.TimeLimit,
		Category:  q.Category,
	})

	d.rooms.Reply(c, ev.Event, ev.Ack, common.AddQuestionReply{
		Success:        true,
		TotalQuestions: total,
	})
}

func (d *Dispatcher) handleStartGame(c *Client, ev *common.ClientEvent) {
	game, err := d.lookupByPin(c, ev)
	if game == nil || err != nil {
		return
	}

	view, err := game.Start()
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return
	}

	d.rooms.Broadcast(GameRoom(game.Pin), common.EventGameStarted, common.GameStartedEvent{
		Question: view,
	})
	d.rooms.Reply(c, ev.Event, ev.Ack, common.StartGameReply{Success: true})
}

func (d *Dispatcher) handleNextQuestion(c *Client, ev *common.ClientEvent) {
	game, err := d.lookupByPin(c, ev)
	if game == nil || err != nil {
		return
	}

	view, ended, final, err := game.NextQuestion()
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return
	}

	if ended {
		d.rooms.Broadcast(GameRoom(game.Pin), common.EventGameEnded, common.GameEndedEvent{
			FinalLeaderboard: final,
			TotalQuestions:   game.QuestionCount(),
		})
		d.rooms.Reply(c, ev.Event, ev.Ack, common.NextQuestionReply{
			Success: true,
			Ended:   true,
		})
		return
	}

	d.rooms.Broadcast(GameRoom(game.Pin), common.EventQuestionNew, common.QuestionNewEvent{
		Question: view,
	})
	d.rooms.Reply(c, ev.Event, ev.Ack, common.NextQuestionReply{
		Success:  true,
		Question: &view,
	})
}

func (d *Dispatcher) handleSubmitAnswer(c *Client, ev *common.ClientEvent) {
	var req common.SubmitAnswerRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil || req.Answer == nil {
		d.replyError(c, ev.Event, ev.Ack, common.NewBadRequestError("answer is missing"))
		return
	}

	game, err := d.games.Lookup(req.Pin)
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return
	}

	_, _, first, err := game.SubmitAnswer(req.TeamId, *req.Answer)
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return
	}

	if first {
		d.rooms.Broadcast(HostRoom(game.Pin), common.EventAnswerSubmitted, common.AnswerSubmittedEvent{
			TeamId:   req.TeamId,
			Answered: true,
		})
	}
	d.rooms.Reply(c, ev.Event, ev.Ack, common.SubmitAnswerReply{
		Success:   true,
		Submitted: true,
	})
}

func (d *Dispatcher) handleRevealAnswer(c *Client, ev *common.ClientEvent) {
	game, err := d.lookupByPin(c, ev)
	if game == nil || err != nil {
		return
	}

	correct, leaderboard, err := game.Reveal()
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return
	}

	d.rooms.Broadcast(GameRoom(game.Pin), common.EventAnswerRevealed, common.AnswerRevealedEvent{
		CorrectAnswer: correct,
		Leaderboard:   leaderboard,
	})
	d.rooms.Reply(c, ev.Event, ev.Ack, common.RevealAnswerReply{
		Success:       true,
		CorrectAnswer: correct,
		Leaderboard:   leaderboard,
	})
}

func (d *Dispatcher) handleEndGame(c *Client, ev *common.ClientEvent) {
	game, err := d.lookupByPin(c, ev)
	if game == nil || err != nil {
		return
	}

	final, err := game.End()
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return
	}

	d.rooms.Broadcast(GameRoom(game.Pin), common.EventGameEnded, common.GameEndedEvent{
		FinalLeaderboard: final,
		TotalQuestions:   game.QuestionCount(),
	})
	d.rooms.Reply(c, ev.Event, ev.Ack, common.NextQuestionReply{
		Success: true,
		Ended:   true,
	})
}

func (d *Dispatcher) handleGetLeaderboard(c *Client, ev *common.ClientEvent) {
	game, err := d.lookupByPin(c, ev)
	if game == nil || err != nil {
		return
	}

	d.rooms.Reply(c, ev.Event, ev.Ack, common.LeaderboardReply{
		Success:     true,
		Leaderboard: game.Leaderboard(),
	})
}

// lookupByPin parses a {pin} payload and resolves the game, replying with the
// failure itself so callers can simply bail out.
func (d *Dispatcher) lookupByPin(c *Client, ev *common.ClientEvent) (*common.Game, error) {
	var req common.PinRequest
	if err := json.Unmarshal(ev.Data, &req); err != nil || req.Pin == "" {
		badReq := common.NewBadRequestError("pin is missing")
		d.replyError(c, ev.Event, ev.Ack, badReq)
		return nil, badReq
	}

	game, err := d.games.Lookup(req.Pin)
	if err != nil {
		d.replyError(c, ev.Event, ev.Ack, err)
		return nil, err
	}
	return game, nil
}

// ClientDisconnected sweeps the departing connection's teams out of every
// lobby game and tells each affected host.
func (d *Dispatcher) ClientDisconnected(client uint64) {
	for _, removal := range d.games.RemoveClientTeams(client) {
		d.rooms.Broadcast(HostRoom(removal.Pin), common.EventTeamLeft, common.TeamLeftEvent{
			TeamId:     removal.Removal.TeamId,
			TeamName:   removal.Removal.TeamName,
			TotalTeams: removal.Removal.TotalTeams,
		})
	}
}
