package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Strob0t/DealerForge/internal/domain/event"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
)

// Validate checks that data is well-formed JSON conforming to the payload
// of subject. An event whose tenant differs from the tenant in its subject
// is rejected, so a malformed publisher cannot leak one tenant's event to
// another tenant's feed. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch {
	case subject == SubjectTenantStatus:
		var c tenant.StatusChange
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if c.TenantID == "" || !c.Status.Valid() {
			return fmt.Errorf("schema validation failed for %s: tenant_id and a valid status are required", subject)
		}
	case strings.HasPrefix(subject, SubjectEvents+"."):
		tid, typ, ok := strings.Cut(strings.TrimPrefix(subject, SubjectEvents+"."), ".")
		if !ok || tid == "" || typ == "" {
			return fmt.Errorf("malformed event subject %s", subject)
		}
		var ev event.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if ev.TenantID != tid {
			return errors.New("event tenant does not match subject " + subject)
		}
		if string(ev.Type) != typ {
			return errors.New("event type does not match subject " + subject)
		}
	}
	return nil
}
