package syncer

import (
	"context"
	"testing"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync(t *testing.T) {
	tests := []struct {
		name      string
		failOn    string
		wantCalls []string
		wantErr   bool
	}{
		{name: "pull then push", wantCalls: []string{"Pull", "Push"}},
		{name: "pull failure skips push", failOn: "Pull", wantCalls: []string{"Pull"}, wantErr: true},
		{name: "push failure", failOn: "Push", wantCalls: []string{"Pull", "Push"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewFakeBackend()
			if tt.failOn != "" {
				backend.FailOn(tt.failOn, errors.Newf(errors.ErrBackend, "git %s failed", tt.failOn))
			}

			err := New(backend).Sync(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, errors.ErrBackend))
				assert.Contains(t, err.Error(), tt.failOn)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, backend.Calls())
		})
	}
}

func TestStatusRawOnly(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.SetStatus(" M .vimrc")

	st, err := New(backend).Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, " M .vimrc", st.Raw)
	assert.False(t, st.Clean())
	assert.False(t, st.Compared)
	assert.False(t, st.InSync())
}

func TestStatusWithRemoteComparison(t *testing.T) {
	backend := testutil.NewFakeRemoteBackend(2, 1)

	st, err := New(backend).Status(context.Background())
	require.NoError(t, err)

	assert.True(t, st.Clean())
	assert.True(t, st.Compared)
	assert.Equal(t, 2, st.Ahead)
	assert.Equal(t, 1, st.Behind)
	assert.False(t, st.InSync())
	assert.Equal(t, []string{"Status", "Divergence"}, backend.Calls())
}

func TestStatusComparisonFailureIsNotFatal(t *testing.T) {
	backend := testutil.NewFakeRemoteBackend(0, 0)
	backend.FailOn("Divergence", errors.New(errors.ErrBackend, "no upstream"))

	st, err := New(backend).Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Compared)
	assert.Error(t, st.CompareErr)
}

func TestStatusBackendFailure(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.FailOn("Status", errors.New(errors.ErrBackend, "not a git repository"))

	_, err := New(backend).Status(context.Background())
	assert.True(t, errors.IsErrorCode(err, errors.ErrBackend))
}
