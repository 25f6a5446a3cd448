package messagequeue

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    string
		wantErr string
	}{
		{"status change", SubjectTenantStatus, `{"tenant_id":"t1","status":"blocked"}`, ""},
		{"status unknown value", SubjectTenantStatus, `{"tenant_id":"t1","status":"paused"}`, "schema validation failed"},
		{"status missing tenant", SubjectTenantStatus, `{"status":"active"}`, "schema validation failed"},
		{"status wrong shape", SubjectTenantStatus, `"just a string"`, "schema validation failed"},
		{"event", EventSubject("t1", "sale.created"), `{"type":"sale.created","tenant_id":"t1","entity_id":"s1"}`, ""},
		{"event for other tenant", EventSubject("t1", "sale.created"), `{"type":"sale.created","tenant_id":"t2"}`, "does not match"},
		{"event type mismatch", EventSubject("t1", "sale.created"), `{"type":"vehicle.deleted","tenant_id":"t1"}`, "does not match"},
		{"event subject without type", "events.t1", `{"tenant_id":"t1"}`, "malformed event subject"},
		{"unknown subject", "unknown.subject", `{"foo":"bar"}`, ""},
		{"invalid json", SubjectTenantStatus, `{not valid json`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.subject, []byte(tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEventSubject(t *testing.T) {
	if got := EventSubject("t1", "vehicle.created"); got != "events.t1.vehicle.created" {
		t.Errorf("EventSubject = %q", got)
	}
}
