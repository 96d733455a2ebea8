package types

// PollCreated is emitted when the owner creates a poll.
//
// - implements execution.Event
type PollCreated struct {
	PollID     uint64   `json:"pollId"`
	Title      string   `json:"title"`
	Candidates []string `json:"candidates"`
}

// GetName implements execution.Event.
func (PollCreated) GetName() string {
	return "PollCreated"
}

// VoteCasted is emitted when a voter votes for a candidate.
//
// - implements execution.Event
type VoteCasted struct {
	PollID    uint64 `json:"pollId"`
	Voter     string `json:"voter"`
	Candidate string `json:"candidate"`
}

// GetName implements execution.Event.
func (VoteCasted) GetName() string {
	return "VoteCasted"
}

// PollClosed is emitted when the owner closes a poll.
//
// - implements execution.Event
type PollClosed struct {
	PollID uint64 `json:"pollId"`
}

// GetName implements execution.Event.
func (PollClosed) GetName() string {
	return "PollClosed"
}

// WinnerDeclared is emitted when the owner declares the winners of a closed
// poll.
//
// - implements execution.Event
type WinnerDeclared struct {
	PollID  uint64   `json:"pollId"`
	Winners []string `json:"winners"`
}

// GetName implements execution.Event.
func (WinnerDeclared) GetName() string {
	return "WinnerDeclared"
}
