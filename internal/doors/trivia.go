package doors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackyckma/baudagain/internal/door"
)

type triviaQuestion struct {
	Prompt string
	Answer string
}

var triviaQuestions = []triviaQuestion{
	{"What does BBS stand for? (two words, plural)", "bulletin board systems"},
	{"The answer to life, the universe and everything?", "42"},
	{"What baud rate made the Hayes Smartmodem famous? (number)", "300"},
	{"Which protocol, named after a letter, transferred files at 128-byte blocks?", "xmodem"},
	{"What year did FidoNet launch? (yyyy)", "1984"},
}

type triviaState struct {
	Round int `json:"round"`
	Score int `json:"score"`
}

// Trivia is a question-and-answer door. Its whole state lives in the opaque
// blob, so an interrupted game resumes mid-round.
type Trivia struct{}

func NewTrivia() *Trivia { return &Trivia{} }

func (t *Trivia) ID() string    { return "trivia" }
func (t *Trivia) Title() string { return "Teletype Trivia" }

func (t *Trivia) Init(ctx context.Context) (door.Result, error) {
	state, err := json.Marshal(triviaState{})
	if err != nil {
		return door.Result{}, err
	}
	out := "*** TELETYPE TRIVIA ***\n" + prompt(0)
	return door.Result{State: state, Output: out}, nil
}

func (t *Trivia) Handle(ctx context.Context, state []byte, input string) (door.Result, error) {
	var st triviaState
	if err := json.Unmarshal(state, &st); err != nil {
		return door.Result{}, fmt.Errorf("trivia state: %w", err)
	}

	// A finished game's blob can come back around if the exit write never
	// landed. Report game over instead of indexing past the last question.
	if st.Round >= len(triviaQuestions) {
		out := fmt.Sprintf("Game over. Final score: %d/%d. Returning to menu.",
			st.Score, len(triviaQuestions))
		return door.Result{State: state, Output: out, Done: true}, nil
	}

	if input == "" {
		return door.Result{State: state, Output: prompt(st.Round)}, nil
	}

	q := triviaQuestions[st.Round]
	var verdict string
	if strings.EqualFold(strings.TrimSpace(input), q.Answer) {
		st.Score++
		verdict = "Correct!"
	} else {
		verdict = fmt.Sprintf("Wrong -- it was %q.", q.Answer)
	}
	st.Round++

	newState, err := json.Marshal(st)
	if err != nil {
		return door.Result{}, err
	}

	if st.Round >= len(triviaQuestions) {
		out := fmt.Sprintf("%s\nGame over. Final score: %d/%d. Returning to menu.",
			verdict, st.Score, len(triviaQuestions))
		return door.Result{State: newState, Output: out, Done: true}, nil
	}

	out := fmt.Sprintf("%s Score: %d.\n%s", verdict, st.Score, prompt(st.Round))
	return door.Result{State: newState, Output: out}, nil
}

func prompt(round int) string {
	return fmt.Sprintf("Q%d: %s", round+1, triviaQuestions[round].Prompt)
}
