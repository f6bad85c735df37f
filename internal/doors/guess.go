package doors

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/jackyckma/baudagain/internal/door"
)

type guessState struct {
	Target int `json:"target"`
	Tries  int `json:"tries"`
}

// Guess is a number-guessing door: 1 to 100, higher/lower hints.
type Guess struct{}

func NewGuess() *Guess { return &Guess{} }

func (g *Guess) ID() string    { return "guess" }
func (g *Guess) Title() string { return "High-Low" }

func (g *Guess) Init(ctx context.Context) (door.Result, error) {
	state, err := json.Marshal(guessState{Target: rand.Intn(100) + 1})
	if err != nil {
		return door.Result{}, err
	}
	out := "*** HIGH-LOW ***\nI'm thinking of a number from 1 to 100. Your guess?"
	return door.Result{State: state, Output: out}, nil
}

func (g *Guess) Handle(ctx context.Context, state []byte, input string) (door.Result, error) {
	var st guessState
	if err := json.Unmarshal(state, &st); err != nil {
		return door.Result{}, fmt.Errorf("guess state: %w", err)
	}

	if input == "" {
		return door.Result{State: state, Output: fmt.Sprintf("Guess a number from 1 to 100 (%d tries so far).", st.Tries)}, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > 100 {
		return door.Result{State: state, Output: "Numbers from 1 to 100 only. Try again."}, nil
	}

	st.Tries++
	newState, merr := json.Marshal(st)
	if merr != nil {
		return door.Result{}, merr
	}

	switch {
	case n < st.Target:
		return door.Result{State: newState, Output: "Higher."}, nil
	case n > st.Target:
		return door.Result{State: newState, Output: "Lower."}, nil
	default:
		out := fmt.Sprintf("Got it in %d tries! Returning to menu.", st.Tries)
		return door.Result{State: newState, Output: out, Done: true}, nil
	}
}
