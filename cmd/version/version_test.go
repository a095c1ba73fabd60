package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCommand(t *testing.T) {
	original := Version
	defer func() { Version = original }()
	Version = "1.2.3"

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.Run(Cmd, nil)

	assert.Equal(t, "g2b 1.2.3\n", out.String())
}
