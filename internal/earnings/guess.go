package earnings

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNoObservations is returned when there is nothing to reconcile.
	ErrNoObservations = errors.New("earnings: no observations to reconcile")
	// ErrNoCandidate is matched by NoCandidateError.
	ErrNoCandidate = errors.New("earnings: no candidate session on or after today")
)

// NoCandidateError reports that every observed session lies before Today.
type NoCandidateError struct {
	Today  Date
	Latest Date
}

func (e *NoCandidateError) Error() string {
	return fmt.Sprintf("earnings: latest observed session %s is before %s", e.Latest, e.Today)
}

// Is lets errors.Is(err, ErrNoCandidate) match.
func (e *NoCandidateError) Is(target error) bool {
	return target == ErrNoCandidate
}

// Placement records why an observation was registered at a session.
type Placement int

const (
	// PlacementExact is a known-timing observation at its own session.
	PlacementExact Placement = iota
	// PlacementFuzzy is an unknown-timing observation at its own session.
	PlacementFuzzy
	// PlacementSpillover is an unknown-timing observation at a neighbouring session.
	PlacementSpillover
)

func (p Placement) String() string {
	switch p {
	case PlacementExact:
		return "exact"
	case PlacementFuzzy:
		return "fuzzy"
	default:
		return "spillover"
	}
}

type vote struct {
	obs       SourcedDateTime
	placement Placement
}

type ballot map[Date][]vote

func (b ballot) add(session Date, obs SourcedDateTime, p Placement) {
	b[session] = append(b[session], vote{obs: obs, placement: p})
}

func (b ballot) sessions() []Date {
	dates := make([]Date, 0, len(b))
	for d := range b {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func placeVotes(observations []SourcedDateTime) ballot {
	b := make(ballot, len(observations)*3)
	for _, obs := range observations {
		session, fuzzy := obs.DateTime.LastSession()
		if !fuzzy {
			b.add(session, obs, PlacementExact)
			continue
		}
		// Unknown timing may sit on either side of the session boundary.
		b.add(session, obs, PlacementFuzzy)
		b.add(session.NextTradingDay(), obs, PlacementSpillover)
		b.add(session.PrevTradingDay(), obs, PlacementSpillover)
	}
	return b
}

// BestGuess reconciles the observations into a single estimate of the last trading
// session before the announcement. Sessions before today are never selected.
func BestGuess(observations []SourcedDateTime, today Date) (Guess, error) {
	if len(observations) == 0 {
		return Guess{}, ErrNoObservations
	}

	b := placeVotes(observations)
	sessions := b.sessions()

	var (
		best      Date
		bestVotes int
		found     bool
	)
	for _, session := range sessions {
		if session.Before(today) {
			continue
		}
		// sessions are ascending, so strict > keeps the earliest on ties.
		if votes := len(b[session]); !found || votes > bestVotes {
			best, bestVotes, found = session, votes, true
		}
	}
	if !found {
		return Guess{}, &NoCandidateError{Today: today, Latest: sessions[len(sessions)-1]}
	}

	placed := make(map[string]struct{}, len(observations))
	take := func(dst []SourcedDateTime, votes []vote) []SourcedDateTime {
		for _, v := range votes {
			if _, seen := placed[v.obs.Source]; seen {
				continue
			}
			placed[v.obs.Source] = struct{}{}
			dst = append(dst, v.obs)
		}
		return dst
	}

	guess := Guess{
		LastSession:        best,
		Concurrences:       []SourcedDateTime{},
		CloseDisagreements: []SourcedDateTime{},
		FarDisagreements:   []SourcedDateTime{},
	}
	guess.Concurrences = take(guess.Concurrences, b[best])

	prev, next := best.PrevTradingDay(), best.NextTradingDay()
	guess.CloseDisagreements = take(guess.CloseDisagreements, b[prev])
	guess.CloseDisagreements = take(guess.CloseDisagreements, b[next])

	for _, session := range sessions {
		if session == best || session == prev || session == next {
			continue
		}
		guess.FarDisagreements = take(guess.FarDisagreements, b[session])
	}

	return guess, nil
}

// SessionTally is the vote breakdown for one session.
type SessionTally struct {
	Session   Date `json:"session"`
	Votes     int  `json:"votes"`
	Exact     int  `json:"exact"`
	Fuzzy     int  `json:"fuzzy"`
	Spillover int  `json:"spillover"`
	Eligible  bool `json:"eligible"`
}

// Tally returns the per-session vote breakdown in ascending date order. It is
// informational and has no bearing on BestGuess.
func Tally(observations []SourcedDateTime, today Date) []SessionTally {
	b := placeVotes(observations)
	out := make([]SessionTally, 0, len(b))
	for _, session := range b.sessions() {
		t := SessionTally{Session: session, Votes: len(b[session]), Eligible: !session.Before(today)}
		for _, v := range b[session] {
			switch v.placement {
			case PlacementExact:
				t.Exact++
			case PlacementFuzzy:
				t.Fuzzy++
			case PlacementSpillover:
				t.Spillover++
			}
		}
		out = append(out, t)
	}
	return out
}
