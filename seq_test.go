package hudp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqLT(t *testing.T) {
	assert.True(t, seqLT(1, 2))
	assert.False(t, seqLT(2, 1))
	assert.False(t, seqLT(5, 5))
	// wraparound: 65535 precedes 0
	assert.True(t, seqLT(65535, 0))
	assert.False(t, seqLT(0, 65535))
}

func TestSeqInWindow(t *testing.T) {
	assert.True(t, seqInWindow(10, 10, 64))
	assert.True(t, seqInWindow(73, 10, 64))
	assert.False(t, seqInWindow(74, 10, 64))
	assert.False(t, seqInWindow(9, 10, 64))

	// wraparound: window starting near the top of the sequence space
	assert.True(t, seqInWindow(5, 65530, 64))
	assert.False(t, seqInWindow(65529, 65530, 64))
}
