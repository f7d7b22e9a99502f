package game

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	// MinPoolSize is the fairness floor: multiple choice needs the subject
	// plus two real distractors.
	MinPoolSize = 3

	distractorCount = 2
)

// ErrNeedMorePlayers indicates the eligible pool is below MinPoolSize.
var ErrNeedMorePlayers = errors.New("need more players")

// Participant is an eligible player in the guessing pool.
type Participant struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Tracks []string `json:"tracks"`
}

// Round is one presentation of a subject's tracks plus a 3-way choice set.
type Round struct {
	Subject Participant `json:"subject"`
	Choices []string    `json:"choices"`
}

// Selector draws rounds from the participant pool. The random source is
// injected so tests can seed it.
type Selector struct {
	rng *rand.Rand
}

func NewSelector(src rand.Source) *Selector {
	return &Selector{rng: rand.New(src)}
}

// Select draws the next round. The subject comes uniformly from remaining,
// never from the whole pool, so a session shows each participant exactly
// once and terminates after exactly len(pool) rounds. Two distractor names
// are drawn uniformly without replacement from the rest of the pool, and
// the combined choice list is shuffled so the correct answer's position
// carries no information.
func (s *Selector) Select(pool []Participant, remaining []int64) (Round, error) {
	if len(pool) < MinPoolSize {
		return Round{}, ErrNeedMorePlayers
	}
	if len(remaining) == 0 {
		return Round{}, fmt.Errorf("no participants remaining")
	}

	byID := make(map[int64]Participant, len(pool))
	for _, p := range pool {
		byID[p.ID] = p
	}

	subjectID := remaining[s.rng.Intn(len(remaining))]
	subject, ok := byID[subjectID]
	if !ok {
		return Round{}, fmt.Errorf("remaining participant %d not in pool", subjectID)
	}

	others := make([]string, 0, len(pool)-1)
	for _, p := range pool {
		if p.ID != subjectID {
			others = append(others, p.Name)
		}
	}
	s.rng.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})

	choices := make([]string, 0, distractorCount+1)
	choices = append(choices, subject.Name)
	choices = append(choices, others[:distractorCount]...)
	s.rng.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	return Round{Subject: subject, Choices: choices}, nil
}
