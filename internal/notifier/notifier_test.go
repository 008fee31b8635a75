package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishFansOut(t *testing.T) {
	n := New()

	var first, second []string
	n.Subscribe(func(e Event) { first = append(first, e.Key) })
	n.Subscribe(func(e Event) { second = append(second, e.Key) })

	n.Publish("event", map[string]any{"badgefile_id": int64(1)})
	n.Publish("import_complete", nil)

	assert.Equal(t, []string{"event", "import_complete"}, first)
	assert.Equal(t, []string{"event", "import_complete"}, second)
}

func TestPublishWithoutObservers(t *testing.T) {
	n := New()
	assert.NotPanics(t, func() {
		n.Publish("event", map[string]any{})
	})
}

func TestObserverSeesPayload(t *testing.T) {
	n := New()

	var got Event
	n.Subscribe(func(e Event) { got = e })
	n.Publish("sync_complete", map[string]any{"count": 3})

	assert.Equal(t, "sync_complete", got.Key)
	assert.Equal(t, 3, got.Payload["count"])
}
