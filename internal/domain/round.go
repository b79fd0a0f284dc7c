package domain

import (
	"fmt"
	"time"
)

// Color is one symbol of the memory sequence.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
)

// Palette is the fixed symbol alphabet, indexed by the engine's rng.
var Palette = [4]Color{Red, Blue, Green, Yellow}

// ParseSequence converts raw client symbols into Colors, rejecting
// anything outside the palette.
func ParseSequence(raw []string) ([]Color, error) {
	seq := make([]Color, 0, len(raw))
	for _, s := range raw {
		switch c := Color(s); c {
		case Red, Blue, Green, Yellow:
			seq = append(seq, c)
		default:
			return nil, fmt.Errorf("unknown color %q", s)
		}
	}
	return seq, nil
}

// EliminationReason explains why a player left active play.
type EliminationReason string

const (
	ReasonWrong   EliminationReason = "wrong"
	ReasonTimeout EliminationReason = "timeout"
)

// Round is one show-sequence/collect-input/judge iteration. The
// sequence of round N is round N-1's sequence plus exactly one new
// symbol, never re-randomized.
type Round struct {
	Number      int
	Sequence    []Color
	Deadline    time.Time
	Duration    time.Duration
	Submissions map[string][]Color
	Verdicts    map[string]bool
	Order       []string // playerIDs in submission arrival order
	TimedOut    []string
}

// NextRound grows prev's sequence by one symbol chosen via pick, which
// must return a uniform index into Palette. A nil prev starts round 1
// with a single symbol.
func NextRound(prev *Round, pick func(n int) int) *Round {
	number := 1
	var seq []Color
	if prev != nil {
		number = prev.Number + 1
		seq = append(seq, prev.Sequence...)
	}
	seq = append(seq, Palette[pick(len(Palette))])

	return &Round{
		Number:      number,
		Sequence:    seq,
		Submissions: make(map[string][]Color),
		Verdicts:    make(map[string]bool),
	}
}

// Judge reports whether got matches the target exactly: same length,
// same symbols, same order. A correct prefix is still wrong.
func Judge(target, got []Color) bool {
	if len(got) != len(target) {
		return false
	}
	for i, c := range target {
		if got[i] != c {
			return false
		}
	}
	return true
}

// Submit records and judges a submission. The second return is false
// when the submission was a duplicate and has been ignored.
func (rd *Round) Submit(playerID string, seq []Color) (correct, accepted bool) {
	if _, dup := rd.Submissions[playerID]; dup {
		return false, false
	}

	correct = Judge(rd.Sequence, seq)
	rd.Submissions[playerID] = seq
	rd.Verdicts[playerID] = correct
	rd.Order = append(rd.Order, playerID)

	return correct, true
}

// Submitted reports whether the player already has an entry this round.
func (rd *Round) Submitted(playerID string) bool {
	_, ok := rd.Submissions[playerID]
	return ok
}

// Discard forgets a player's bookkeeping, used when a seat is
// reclaimed mid-round.
func (rd *Round) Discard(playerID string) {
	delete(rd.Submissions, playerID)
	delete(rd.Verdicts, playerID)
	for i, id := range rd.Order {
		if id == playerID {
			rd.Order = append(rd.Order[:i], rd.Order[i+1:]...)
			break
		}
	}
}

// Elimination names a player dropped from active play and why.
type Elimination struct {
	PlayerID string            `json:"playerId"`
	Name     string            `json:"name"`
	Reason   EliminationReason `json:"reason"`
}

// Outcome is the judged result of a round over the active players.
type Outcome struct {
	WinnerID   string
	WinnerName string
	Eliminated []Elimination
}

// Resolve computes the round outcome: the first correct submitter in
// arrival order wins; every active player that was wrong or silent is
// eliminated. Players that never submitted are treated as timed out.
func (rd *Round) Resolve(active []*Player) Outcome {
	var out Outcome

	for _, id := range rd.Order {
		if rd.Verdicts[id] {
			out.WinnerID = id
			break
		}
	}

	for _, p := range active {
		if out.WinnerID == p.ID {
			out.WinnerName = p.Name
		}

		verdict, submitted := rd.Verdicts[p.ID]
		switch {
		case !submitted:
			out.Eliminated = append(out.Eliminated, Elimination{
				PlayerID: p.ID, Name: p.Name, Reason: ReasonTimeout,
			})
		case !verdict:
			out.Eliminated = append(out.Eliminated, Elimination{
				PlayerID: p.ID, Name: p.Name, Reason: ReasonWrong,
			})
		}
	}

	return out
}
