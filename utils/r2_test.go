package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentKey(t *testing.T) {
	assert.Equal(t, "attachments/sql-injection-101/handout.zip",
		AttachmentKey("sql-injection-101", "handout.zip"))

	// crafted filenames stay inside the challenge's prefix
	assert.Equal(t, "attachments/warmup/passwd",
		AttachmentKey("warmup", "../../etc/passwd"))
}
