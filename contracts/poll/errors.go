package poll

import "golang.org/x/xerrors"

var (
	// ErrUnauthorized is returned when someone else than the owner calls an
	// owner-only command.
	ErrUnauthorized = xerrors.New("only owner can call this function")

	// ErrNotFound is returned when the poll does not exist.
	ErrNotFound = xerrors.New("poll not found")

	// ErrInvalidCandidate is returned when a candidate is empty, duplicated or
	// not part of the poll.
	ErrInvalidCandidate = xerrors.New("invalid candidate")

	// ErrPollClosed is returned when a vote is cast on a closed poll.
	ErrPollClosed = xerrors.New("poll is closed")

	// ErrAlreadyVoted is returned when a voter votes twice in the same poll.
	ErrAlreadyVoted = xerrors.New("you have already voted in this poll")

	// ErrAlreadyClosed is returned when a poll is closed twice.
	ErrAlreadyClosed = xerrors.New("poll is already closed")

	// ErrPollMustBeClosed is returned when the results or the winners are
	// requested while the poll is still open.
	ErrPollMustBeClosed = xerrors.New("poll must be closed")

	// ErrAlreadyDeclared is returned when the winners are declared twice.
	ErrAlreadyDeclared = xerrors.New("winners already declared")
)
