package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockLogger_SharesEntriesWithDerivedLoggers(t *testing.T) {
	mock := NewMockLogger()

	mock.Info("start")
	mock.WithField(FieldRow, 2).Warn("odd row")
	mock.WithError(errors.New("boom")).Error("failed")

	entries := mock.GetEntries()
	assert.Len(t, entries, 3)
	assert.True(t, mock.HasEntry("WARN", "odd row"))
	assert.Equal(t, []Field{F(FieldRow, 2)}, mock.GetEntriesByLevel("WARN")[0].Fields)
	assert.EqualError(t, mock.GetEntriesByLevel("ERROR")[0].Error, "boom")
}

func TestMockLogger_ZeroValueIsUsable(t *testing.T) {
	var mock MockLogger
	mock.Debug("hello")
	assert.True(t, mock.HasEntry("DEBUG", "hello"))
}
