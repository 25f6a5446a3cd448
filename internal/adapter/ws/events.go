package ws

import (
	"encoding/json"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain/event"
)

// TypeConnected is the type of the first frame sent on every connection.
const TypeConnected = "connected"

// helloFrame confirms the feed a connection is bound to.
type helloFrame struct {
	Type     string    `json:"type"`
	TenantID string    `json:"tenant_id"`
	UserID   string    `json:"user_id"`
	At       time.Time `json:"created_at"`
}

func encodeHello(tenantID, userID string) ([]byte, error) {
	return json.Marshal(helloFrame{Type: TypeConnected, TenantID: tenantID, UserID: userID, At: time.Now().UTC()})
}

// encodeEvent renders ev as one text frame. Events are sent exactly as they
// are published, so clients decode them as event.Event.
func encodeEvent(ev event.Event) ([]byte, error) {
	return json.Marshal(ev)
}
