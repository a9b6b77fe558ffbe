package common

import "encoding/json"

// Inbound event names.
const (
	EventHostCreateGame   = "host:create-game"
	EventTeamJoin         = "team:join"
	EventHostAddQuestion  = "host:add-question"
	EventHostStartGame    = "host:start-game"
	EventHostNextQuestion = "host:next-question"
	EventTeamSubmitAnswer = "team:submit-answer"
	EventHostRevealAnswer = "host:reveal-answer"
	EventHostEndGame      = "host:end-game"
	EventGetLeaderboard   = "game:get-leaderboard"
)

// Broadcast event names.
const (
	EventTeamJoined      = "team:joined"
	EventTeamLeft        = "team:left"
	EventGameStarted     = "game:started"
	EventQuestionNew     = "question:new"
	EventGameEnded       = "game:ended"
	EventAnswerSubmitted = "answer:submitted"
	EventAnswerRevealed  = "answer:revealed"
)

// ClientEvent is an inbound frame, parsed once at the transport boundary.
// Ack is an opaque correlation id echoed back in the reply.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Ack   interface{}     `json:"ack,omitempty"`
}

// Envelope is an outbound frame.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	Ack   interface{} `json:"ack,omitempty"`
}

// --------------------
// Request payloads
// --------------------

type CreateGameRequest struct {
	HostName string `json:"hostName"`
}

type JoinGameRequest struct {
	Pin      string `json:"pin"`
	TeamName string `json:"teamName"`
}

type QuestionPayload struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	TimeLimit     int      `json:"timeLimit"`
	Category      string   `json:"category"`
}

type AddQuestionRequest struct {
	Pin      string          `json:"pin"`
	Question QuestionPayload `json:"question"`
}

// PinRequest covers every host event that only needs the game's PIN.
type PinRequest struct {
	Pin string `json:"pin"`
}

type SubmitAnswerRequest struct {
	Pin    string `json:"pin"`
	TeamId string `json:"teamId"`
	Answer *int   `json:"answer"`
}

// --------------------
// Reply payloads
// --------------------

type ErrorReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type CreateGameReply struct {
	Success bool   `json:"success"`
	GameId  string `json:"gameId"`
	Pin     string `json:"pin"`
	HostId  string `json:"hostId"`
}

type JoinGameReply struct {
	Success   bool      `json:"success"`
	TeamId    string    `json:"teamId"`
	TeamName  string    `json:"teamName"`
	GameState GameState `json:"gameState"`
}

type AddQuestionReply struct {
	Success        bool `json:"success"`
	TotalQuestions int  `json:"totalQuestions"`
}

type StartGameReply struct {
	Success bool `json:"success"`
}

type NextQuestionReply struct {
	Success  bool          `json:"success"`
	Ended    bool          `json:"ended,omitempty"`
	Question *QuestionView `json:"question,omitempty"`
}

type SubmitAnswerReply struct {
	Success   bool `json:"success"`
	Submitted bool `json:"submitted"`
}

type RevealAnswerReply struct {
	Success       bool               `json:"success"`
	CorrectAnswer int                `json:"correctAnswer"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
}

type LeaderboardReply struct {
	Success     bool               `json:"success"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// --------------------
// Broadcast payloads
// --------------------

type TeamJoinedEvent struct {
	TeamId     string `json:"teamId"`
	TeamName   string `json:"teamName"`
	TotalTeams int    `json:"totalTeams"`
}

type TeamLeftEvent struct {
	TeamId     string `json:"teamId"`
	TeamName   string `json:"teamName"`
	TotalTeams int    `json:"totalTeams"`
}

type GameStartedEvent struct {
	Question QuestionView `json:"question"`
}

type QuestionNewEvent struct {
	Question QuestionView `json:"question"`
}

type GameEndedEvent struct {
	FinalLeaderboard []LeaderboardEntry `json:"finalLeaderboard"`
	TotalQuestions   int                `json:"totalQuestions"`
}

type AnswerSubmittedEvent struct {
	TeamId   string `json:"teamId"`
	Answered bool   `json:"answered"`
}

type AnswerRevealedEvent struct {
	CorrectAnswer int                `json:"correctAnswer"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
}
