package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPackageHelpers(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := log
	log = zap.New(core).Sugar()
	defer func() { log = prev }()

	Debugf("resolving %s", "2024-03-10")
	Warnf("lookup failed: %v", "timeout")
	Infof("pruned %d", 3)

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, "resolving 2024-03-10", entries[0].Message)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "lookup failed: timeout", entries[1].Message)
	assert.Equal(t, "pruned 3", entries[2].Message)
}

func TestComponentTagsEntries(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := log
	log = zap.New(core).Sugar()
	defer func() { log = prev }()

	Component("restserver").Info("listening")

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "restserver", entries[0].ContextMap()["component"])
}
