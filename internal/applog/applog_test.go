package applog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubTagsLinesWithSubsystem(t *testing.T) {
	var buf bytes.Buffer
	root := NewWithWriter(&buf)
	root.Println("booting")
	root.Sub("cache").Println("connected")

	out := buf.String()
	assert.Contains(t, out, "[CRYSTALGEO] ")
	assert.Contains(t, out, "[CRYSTALGEO:cache] ")
}

func TestEventFormatsKeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf).Event("script evaluated", "id", "cube", "atoms", 18)
	assert.Contains(t, buf.String(), "script evaluated id=cube atoms=18")
}

func TestEventDanglingKey(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf).Event("odd", "key")
	assert.Contains(t, buf.String(), "odd key=?")
}
