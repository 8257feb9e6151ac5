package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwell/taskwell/internal/engine"
	apperrors "github.com/taskwell/taskwell/internal/errors"
)

func TestRegisterAndGet(t *testing.T) {
	r := New()
	e := engine.New()

	require.NoError(t, r.Register("primary", e))

	got, err := r.Get("primary")
	require.NoError(t, err)
	assert.Same(t, e, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterValidation(t *testing.T) {
	r := New()

	assert.Error(t, r.Register("", engine.New()))
	assert.Error(t, r.Register("name", nil))
}

func TestRegisterDuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("primary", engine.New()))

	err := r.Register("primary", engine.New())
	assert.ErrorIs(t, err, apperrors.ErrDuplicateID)
}

func TestGetUnknown(t *testing.T) {
	r := New()

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, apperrors.ErrEngineNotFound)
}

func TestRemove(t *testing.T) {
	r := New()
	e := engine.New()
	require.NoError(t, r.Register("primary", e))

	removed, err := r.Remove("primary")
	require.NoError(t, err)
	assert.Same(t, e, removed)
	assert.Equal(t, 0, r.Len())

	_, err = r.Remove("primary")
	assert.ErrorIs(t, err, apperrors.ErrEngineNotFound)
}

func TestNamesSorted(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("zeta", engine.New()))
	require.NoError(t, r.Register("alpha", engine.New()))
	require.NoError(t, r.Register("mid", engine.New()))

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names())
}

func TestStopAll(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("a", engine.New()))
	require.NoError(t, r.Register("b", engine.New()))

	r.StopAll()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Names())
}
