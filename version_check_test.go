package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNewerVersion(t *testing.T) {
	assert.True(t, isNewerVersion("1.2.0", "1.1.9"))
	assert.True(t, isNewerVersion("v2.0.0", "1.9.9"), "tag prefix does not matter")
	assert.False(t, isNewerVersion("1.1.0", "1.1.0"))
	assert.False(t, isNewerVersion("1.0.0", "1.1.0"))
}

func TestVersionInfoDevBuild(t *testing.T) {
	vc := &VersionChecker{stopCh: make(chan struct{})}
	vc.latest = "9.9.9"

	info := vc.Info()
	assert.Equal(t, "dev", info.Current)
	assert.Equal(t, "9.9.9", info.Latest)
	assert.False(t, info.UpdateAvail, "a dev build never reports an update")
}
