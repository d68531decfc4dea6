package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/kvcache"
)

func TestLogrusLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Info("connected", kvcache.Fields{"hosts": []string{"127.0.0.1:3000"}})
	boom := errors.New("boom")
	l.Error("store operation failed", kvcache.Fields{"op": "set", "err": boom})

	require.Len(t, hook.AllEntries(), 2)
	first := hook.AllEntries()[0]
	assert.Equal(t, logrus.InfoLevel, first.Level)
	assert.Equal(t, "kvcache", first.Data["component"])

	last := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "store operation failed", last.Message)
	assert.Equal(t, boom, last.Data[logrus.ErrorKey])
	assert.Equal(t, "set", last.Data["op"])
}

func TestLogrusLoggerNilFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	New(base).Debug("disconnected", nil)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}
