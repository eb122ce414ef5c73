package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBusy = errors.New("busy")

func isBusy(err error) bool { return errors.Is(err, errBusy) }

func TestPolicyNextDelay(t *testing.T) {
	policy := Policy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	d1 := policy.NextDelay(1)
	d2 := policy.NextDelay(2)
	d3 := policy.NextDelay(5)

	if d1 != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d2)
	}
	if d3 != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d3)
	}

	assert.Equal(t, time.Second, Policy{}.NextDelay(0))
}

func TestPolicyDo(t *testing.T) {
	policy := Policy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"FirstTry", 0, nil, 1, nil},
		{"RecoversAfterBusy", 2, errBusy, 3, nil},
		{"GivesUp", 10, errBusy, 4, errBusy},
		{"PermanentError", 10, errors.New("constraint"), 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := policy.Do(context.Background(), isBusy, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.failures > 0 && !isBusy(tt.err):
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicyDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Policy{MaxRetries: 5, InitialDelay: time.Hour}.Do(ctx, isBusy, func() error {
		calls++
		return errBusy
	})
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 1, calls)
}
