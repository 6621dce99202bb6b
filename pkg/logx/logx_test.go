package logx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugDomainFiltering(t *testing.T) {
	t.Cleanup(func() { SetDebug(false, nil) })

	SetDebug(false, nil)
	assert.False(t, IsDebugEnabledFor("crew"))

	SetDebug(true, nil)
	assert.True(t, IsDebugEnabledFor("crew"))
	assert.True(t, IsDebugEnabledFor("tools"))

	SetDebug(true, []string{"crew", " tools "})
	assert.True(t, IsDebugEnabledFor("crew"))
	assert.True(t, IsDebugEnabledFor("tools"))
	assert.False(t, IsDebugEnabledFor("server"))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))

	err := Errorf("base failure")
	wrapped := Wrap(err, "loading config")
	assert.ErrorIs(t, wrapped, err)
	assert.Contains(t, wrapped.Error(), "loading config: base failure")
}

func TestLoggerComponent(t *testing.T) {
	l := NewLogger("crew")
	assert.Equal(t, "crew", l.Component())
}
