package subflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyForAccessWalkthrough(t *testing.T) {
	f := ApplyForAccess()
	require.Equal(t, 3, f.Len())
	require.Equal(t, 0, f.Stage())
	require.Equal(t, "apply", f.Current().Name)

	require.NoError(t, f.Advance())
	require.Equal(t, 1, f.Stage())

	err := f.Advance()
	require.ErrorIs(t, err, ErrGuard)
	var guardErr *GuardError
	require.True(t, errors.As(err, &guardErr))
	require.Equal(t, FlagConsent, guardErr.Flag)
	require.Contains(t, guardErr.Error(), "Accept the API terms")
	require.Equal(t, 1, f.Stage(), "rejected advance leaves the stage unchanged")

	f.Set(FlagConsent, true)
	require.NoError(t, f.Advance())
	require.Equal(t, 2, f.Stage())
	require.True(t, f.Done())
}

func TestAdvanceClampsAtLastStage(t *testing.T) {
	f := New(Stage{Name: "a"}, Stage{Name: "b"})
	require.NoError(t, f.Advance())
	require.NoError(t, f.Advance())
	require.NoError(t, f.Advance())
	require.Equal(t, 1, f.Stage())
}

func TestRevokedConsentBlocksAgain(t *testing.T) {
	f := ApplyForAccess()
	require.NoError(t, f.Advance())
	f.Set(FlagConsent, true)
	f.Set(FlagConsent, false)
	require.ErrorIs(t, f.Advance(), ErrGuard)
}

func TestReset(t *testing.T) {
	f := ApplyForAccess()
	require.NoError(t, f.Advance())
	f.Set(FlagConsent, true)
	require.NoError(t, f.Advance())

	f.Reset()
	require.Equal(t, 0, f.Stage())
	require.False(t, f.Flag(FlagConsent))
	require.False(t, f.Done())
}

func TestNewPanicsWithoutStages(t *testing.T) {
	require.Panics(t, func() { New() })
}
