package domain

import "errors"

var (
	// ErrDisplayNameRequired is returned when a host or player name is blank.
	ErrDisplayNameRequired = errors.New("display name is required")
	// ErrDisplayNameTooLong is returned when a name exceeds MaxDisplayNameLength.
	ErrDisplayNameTooLong = errors.New("display name is too long")
	// ErrRoomCodeInvalid indicates a room code that is not six letters or digits.
	ErrRoomCodeInvalid = errors.New("room code must be 6 letters or digits")
	// ErrIdentityNotFound is returned when no session identity has been stored.
	ErrIdentityNotFound = errors.New("session identity not found")
	// ErrTriviaSetNotFound indicates the content API has no set with the requested id.
	ErrTriviaSetNotFound = errors.New("trivia set not found")
	// ErrTriviaSetInvalid wraps every trivia set validation failure.
	ErrTriviaSetInvalid = errors.New("invalid trivia set")
	// ErrTriviaSetEmpty is returned when a room is created from a set without questions.
	ErrTriviaSetEmpty = errors.New("trivia set has no questions")
	// ErrOptionOutOfRange indicates an answer index outside the current question's options.
	ErrOptionOutOfRange = errors.New("answer option out of range")
	// ErrNoSelection is returned when confirming without a staged answer.
	ErrNoSelection = errors.New("no answer selected")
	// ErrConfirmDisabled is returned when confirming under the immediate submission policy.
	ErrConfirmDisabled = errors.New("confirm is not used by the immediate policy")
	// ErrUnknownPolicy indicates a submission policy name other than immediate or confirm.
	ErrUnknownPolicy = errors.New("unknown submission policy")
	// ErrNotHost is returned when a player attempts a host-only action.
	ErrNotHost = errors.New("only the host can start the game")
	// ErrNotEnoughPlayers guards start until at least one non-host participant is present.
	ErrNotEnoughPlayers = errors.New("at least one player must join before starting")
	// ErrInvalidPhase is returned when an action does not apply to the current session phase.
	ErrInvalidPhase = errors.New("action not allowed in current phase")
)
