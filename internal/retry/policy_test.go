package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, Exponential, p.Mode)
	assert.Equal(t, 100*time.Millisecond, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
	require.NoError(t, p.Validate())
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(Fixed, 5*time.Second, 2*time.Second, 5)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 2*time.Second, p.Max)
	assert.Equal(t, Fixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)

	assert.Equal(t, Exponential, NewPolicy("bogus", 0, 0, -1).Mode)
}

func TestDelay(t *testing.T) {
	lin := NewPolicy(Linear, time.Second, 3*time.Second, 3)
	assert.Equal(t, time.Duration(0), lin.Delay(0))
	assert.Equal(t, 2*time.Second, lin.Delay(2))
	assert.Equal(t, 3*time.Second, lin.Delay(5))

	exp := NewPolicy(Exponential, time.Second, 10*time.Second, 5)
	assert.Equal(t, 4*time.Second, exp.Delay(3))
	assert.Equal(t, 10*time.Second, exp.Delay(5))
	assert.Equal(t, 10*time.Second, exp.Delay(80))

	fixed := NewPolicy(Fixed, time.Second, time.Minute, 1)
	assert.Equal(t, time.Second, fixed.Delay(7))
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Max: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
}

func TestDo(t *testing.T) {
	p := NewPolicy(Fixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = p.Do(context.Background(), func() error { calls++; return errors.New("down") })
	assert.EqualError(t, err, "down")
	assert.Equal(t, 3, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewPolicy(Fixed, time.Hour, time.Hour, 1)
	assert.ErrorIs(t, slow.Do(ctx, func() error { return errors.New("x") }), context.Canceled)
}
