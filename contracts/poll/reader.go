package poll

import (
	"time"

	"go.dedis.ch/polls/contracts/poll/types"
	"go.dedis.ch/polls/core/store"
	"golang.org/x/xerrors"
)

// Reader provides the read accessors of the polls. Nobody needs a permission
// to read.
type Reader struct {
	polls pollReader
}

// NewReader returns a reader of the polls stored in the state.
func NewReader(r store.Readable) Reader {
	return Reader{
		polls: newPollReader(r),
	}
}

// GetPoll returns the complete record of a poll.
func (r Reader) GetPoll(id uint64) (types.Poll, error) {
	return r.polls.Get(id)
}

// GetPollStatus returns the status of a poll.
func (r Reader) GetPollStatus(id uint64) (types.Status, error) {
	poll, err := r.polls.Get(id)
	if err != nil {
		return "", err
	}

	return poll.Status, nil
}

// GetCandidates returns the candidates in the order of declaration.
func (r Reader) GetCandidates(id uint64) ([]string, error) {
	poll, err := r.polls.Get(id)
	if err != nil {
		return nil, err
	}

	return poll.Candidates, nil
}

// GetTotalVotes returns the number of votes cast in a poll.
func (r Reader) GetTotalVotes(id uint64) (uint64, error) {
	poll, err := r.polls.Get(id)
	if err != nil {
		return 0, err
	}

	return poll.TotalVotes(), nil
}

// GetPollCreationTime returns the ledger timestamp of the creation.
func (r Reader) GetPollCreationTime(id uint64) (time.Time, error) {
	poll, err := r.polls.Get(id)
	if err != nil {
		return time.Time{}, err
	}

	return poll.CreatedAt, nil
}

// GetTotalPolls returns the number of polls.
func (r Reader) GetTotalPolls() (uint64, error) {
	return r.polls.Count()
}

// GetAllPollIdsWithTitles returns the identifier and the title of every poll
// in the order of creation.
func (r Reader) GetAllPollIdsWithTitles() ([]types.Summary, error) {
	count, err := r.polls.Count()
	if err != nil {
		return nil, err
	}

	summaries := make([]types.Summary, 0, count)

	for id := uint64(0); id < count; id++ {
		poll, err := r.polls.Get(id)
		if err != nil {
			return nil, xerrors.Errorf("failed to read poll %d: %w", id, err)
		}

		summaries = append(summaries, types.Summary{ID: poll.ID, Title: poll.Title})
	}

	return summaries, nil
}

// GetPollResults returns the counts of a closed poll.
func (r Reader) GetPollResults(id uint64) (types.Results, error) {
	poll, err := r.polls.Get(id)
	if err != nil {
		return types.Results{}, err
	}

	if poll.Status.IsOpen() {
		return types.Results{}, xerrors.Errorf("poll %d: %w", id, ErrPollMustBeClosed)
	}

	res := types.Results{
		Candidates: poll.Candidates,
		Counts:     poll.Tally,
	}

	return res, nil
}

// GetWinners returns the declared winners, or an empty list before the
// declaration.
func (r Reader) GetWinners(id uint64) ([]string, error) {
	poll, err := r.polls.Get(id)
	if err != nil {
		return nil, err
	}

	return poll.Winners, nil
}
