package host

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solrisk/mwabridge/ports"
)

func TestStateFeedFanOut(t *testing.T) {
	feed := NewStateFeed()

	var a, b []ports.AppState
	unsubA := feed.Subscribe(func(s ports.AppState) { a = append(a, s) })
	feed.Subscribe(func(s ports.AppState) { b = append(b, s) })

	feed.Emit(ports.AppStateBackground)

	unsubA()
	unsubA() // harmless

	feed.Emit(ports.AppStateForeground)

	assert.Equal(t, []ports.AppState{ports.AppStateBackground}, a)
	assert.Equal(t, []ports.AppState{ports.AppStateBackground, ports.AppStateForeground}, b)
}
