//go:build !wasip1

package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuestEnv_PanicsOffGuest(t *testing.T) {
	assert.Panics(t, func() { GuestEnv() })
	assert.Panics(t, func() {
		HandleNoInput(func() int { return 1 })
	})
}
