// Package types defines the records and the events of the poll contract.
package types

import "time"

// Status is the state of a poll.
type Status string

const (
	// Open is the status of a poll accepting votes.
	Open Status = "open"
	// Closed is the status of a poll that does not accept votes anymore. It
	// is final.
	Closed Status = "closed"
)

// IsOpen returns true if the poll accepts votes.
func (s Status) IsOpen() bool {
	return s == Open
}

// Poll is the record of a poll. Tally is parallel to Candidates, and Voters is
// the number of identities that voted.
type Poll struct {
	ID         uint64    `json:"id"`
	Title      string    `json:"title"`
	Candidates []string  `json:"candidates"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	Tally      []uint64  `json:"tally"`
	Voters     uint64    `json:"voters"`
	Winners    []string  `json:"winners,omitempty"`
}

// IndexOf returns the position of the candidate, or -1 if it is not one of the
// candidates.
func (p Poll) IndexOf(candidate string) int {
	for i, c := range p.Candidates {
		if c == candidate {
			return i
		}
	}

	return -1
}

// TotalVotes returns the sum of the tally.
func (p Poll) TotalVotes() uint64 {
	total := uint64(0)
	for _, count := range p.Tally {
		total += count
	}

	return total
}

// IsDeclared returns true once the winners are set.
func (p Poll) IsDeclared() bool {
	return len(p.Winners) > 0
}

// Summary is the identifier and the title of a poll.
type Summary struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// Results are the candidates of a poll alongside their number of votes, in the
// order of declaration.
type Results struct {
	Candidates []string `json:"candidates"`
	Counts     []uint64 `json:"counts"`
}
