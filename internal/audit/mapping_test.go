package audit

import "testing"

func TestParseRoute(t *testing.T) {
	tests := []struct {
		method, path     string
		action, resource string
	}{
		{"POST", "/api/v1/auth/logout", "logout", "session"},
		{"POST", "/api/v1/auth/devices", "register", "device"},
		{"GET", "/api/v1/auth/sessions", "list", "session"},
		{"GET", "/api/v1/security-alerts", "list", "security_alert"},
		{"GET", "/api/v1/security-alerts/", "list", "security_alert"},
		{"post", "/api/v1/homework", "create", "homework"},
		{"GET", "/api/v1/timetable", "get", "timetable"},
		{"DELETE", "/api/v1/notes", "delete", "note"},
		{"PATCH", "/api/v1/profile", "update", "profile"},
		{"GET", "/api/v1/notes/:id", "get", "unknown"},
		{"OPTIONS", "/", "options", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			ar := ParseRoute(tt.method, tt.path)
			if ar.Action != tt.action {
				t.Errorf("action = %q, want %q", ar.Action, tt.action)
			}
			if ar.Resource != tt.resource {
				t.Errorf("resource = %q, want %q", ar.Resource, tt.resource)
			}
		})
	}
}
