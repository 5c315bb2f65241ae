package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// Route overrides for endpoints whose verb does not describe the event.
var routeOverrides = map[string]ActionResource{
	"POST /api/v1/auth/logout":    {Action: "logout", Resource: ResourceSession},
	"POST /api/v1/auth/devices":   {Action: "register", Resource: "device"},
	"GET /api/v1/auth/sessions":   {Action: "list", Resource: ResourceSession},
	"GET /api/v1/security-alerts": {Action: "list", Resource: "security_alert"},
}

// ParseRoute returns action and resource for an HTTP method and route path (e.g. GET /api/v1/security-alerts).
// Action is a verb derived from the method; resource is the last path segment, singular, with dashes
// replaced by underscores. Known auth routes use fixed names.
func ParseRoute(method, path string) ActionResource {
	method = strings.ToUpper(method)
	path = strings.TrimRight(path, "/")
	if ar, ok := routeOverrides[method+" "+path]; ok {
		return ar
	}
	segment := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		segment = path[i+1:]
	}
	if segment == "" || strings.HasPrefix(segment, ":") {
		return ActionResource{Action: methodToAction(method), Resource: "unknown"}
	}
	resource := strings.ReplaceAll(segment, "-", "_")
	plural := strings.HasSuffix(resource, "s")
	resource = strings.TrimSuffix(resource, "s")
	action := methodToAction(method)
	if action == "get" && plural {
		action = "list"
	}
	return ActionResource{Action: action, Resource: resource}
}

func methodToAction(method string) string {
	switch method {
	case "GET", "HEAD":
		return "get"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
