package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFirstSeenSuppressesRedelivery(t *testing.T) {
	w := NewWindow(time.Minute)
	defer w.Close()

	assert.True(t, w.FirstSeen("wamid.abc"))
	assert.False(t, w.FirstSeen("wamid.abc"))
	assert.True(t, w.FirstSeen("wamid.def"))
}

func TestWindowExpires(t *testing.T) {
	w := NewWindow(30 * time.Millisecond)
	defer w.Close()

	assert.True(t, w.FirstSeen("wamid.abc"))
	time.Sleep(60 * time.Millisecond)
	assert.True(t, w.FirstSeen("wamid.abc"))
}

func TestEmptyIDAlwaysPasses(t *testing.T) {
	w := NewWindow(time.Minute)
	defer w.Close()

	assert.True(t, w.FirstSeen(""))
	assert.True(t, w.FirstSeen(""))
}
