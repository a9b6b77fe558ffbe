package common

import "fmt"

// Client-facing error strings are stable - the web client renders them
// directly.

type NoSuchGameError struct {
	Pin string
}

func (e *NoSuchGameError) Error() string {
	return "Game not found"
}

func NewNoSuchGameError(pin string) *NoSuchGameError {
	return &NoSuchGameError{Pin: pin}
}

type WrongStateError struct {
	Pin     string
	State   GameState
	message string
}

func (e *WrongStateError) Error() string {
	return e.message
}

func NewWrongStateError(pin string, state GameState) *WrongStateError {
	return &WrongStateError{
		Pin:     pin,
		State:   state,
		message: "Wrong game state",
	}
}

// NewGameAlreadyStartedError reports a join attempt after the lobby closed.
func NewGameAlreadyStartedError(pin string, state GameState) *WrongStateError {
	return &WrongStateError{
		Pin:     pin,
		State:   state,
		message: "Game already started",
	}
}

// NewNotAcceptingAnswersError reports a submission outside the question state.
func NewNotAcceptingAnswersError(pin string, state GameState) *WrongStateError {
	return &WrongStateError{
		Pin:     pin,
		State:   state,
		message: "Game is not accepting answers",
	}
}

type NoQuestionsError struct {
	Pin string
}

func (e *NoQuestionsError) Error() string {
	return "No questions added"
}

func NewNoQuestionsError(pin string) *NoQuestionsError {
	return &NoQuestionsError{Pin: pin}
}

type UnknownTeamError struct {
	Pin    string
	TeamId string
}

func (e *UnknownTeamError) Error() string {
	return "Unknown team"
}

func NewUnknownTeamError(pin, teamId string) *UnknownTeamError {
	return &UnknownTeamError{Pin: pin, TeamId: teamId}
}

type UnknownQuestionError struct {
	Pin   string
	Index int
}

func (e *UnknownQuestionError) Error() string {
	return "Unknown question"
}

func NewUnknownQuestionError(pin string, index int) *UnknownQuestionError {
	return &UnknownQuestionError{Pin: pin, Index: index}
}

type BadRequestError struct {
	Detail string
}

func (e *BadRequestError) Error() string {
	return "Bad request"
}

func NewBadRequestError(format string, args ...interface{}) *BadRequestError {
	return &BadRequestError{Detail: fmt.Sprintf(format, args...)}
}

type PinExhaustedError struct {
	Attempts int
}

func (e *PinExhaustedError) Error() string {
	return "Could not allocate a game PIN"
}

func NewPinExhaustedError(attempts int) *PinExhaustedError {
	return &PinExhaustedError{Attempts: attempts}
}
