package doors

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessBinarySearchWins(t *testing.T) {
	d := NewGuess()
	ctx := context.Background()

	res, err := d.Init(ctx)
	require.NoError(t, err)

	lo, hi := 1, 100
	state := res.State
	for i := 0; i < 8; i++ {
		guess := (lo + hi) / 2
		res, err = d.Handle(ctx, state, strconv.Itoa(guess))
		require.NoError(t, err)
		state = res.State
		switch res.Output {
		case "Higher.":
			lo = guess + 1
		case "Lower.":
			hi = guess - 1
		default:
			assert.True(t, res.Done)
			assert.Contains(t, res.Output, "Got it")
			return
		}
	}
	t.Fatal("binary search should find the target within 8 guesses")
}

func TestGuessRejectsGarbage(t *testing.T) {
	d := NewGuess()
	ctx := context.Background()

	res, err := d.Init(ctx)
	require.NoError(t, err)

	for _, input := range []string{"banana", "0", "101"} {
		out, err := d.Handle(ctx, res.State, input)
		require.NoError(t, err)
		assert.False(t, out.Done)
		assert.Contains(t, out.Output, "1 to 100")
		// Invalid input does not burn a try.
		assert.Equal(t, res.State, out.State)
	}
}

func TestGuessStateIsResumable(t *testing.T) {
	d := NewGuess()
	ctx := context.Background()

	res, err := d.Init(ctx)
	require.NoError(t, err)

	var st struct {
		Target int `json:"target"`
		Tries  int `json:"tries"`
	}
	require.NoError(t, json.Unmarshal(res.State, &st))
	assert.GreaterOrEqual(t, st.Target, 1)
	assert.LessOrEqual(t, st.Target, 100)
}
