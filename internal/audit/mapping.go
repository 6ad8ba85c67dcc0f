package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseRoute returns action and resource for an HTTP method and path
// (e.g. POST /api/v1/sessions/{id}/arrive). Resource is the first path segment
// after the API prefix, singularized; the action is the trailing verb segment
// when present, otherwise it is derived from the method.
func ParseRoute(method, path string) ActionResource {
	segments := routeSegments(path)
	if len(segments) == 0 {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	resource := singular(segments[0])

	// A trailing non-parameter segment names the action itself:
	// /sessions/{id}/arrive → arrive on session, /auth/login → login on auth.
	if len(segments) >= 2 && !isParam(segments[len(segments)-1]) {
		return ActionResource{Action: strings.ToLower(segments[len(segments)-1]), Resource: resource}
	}

	switch method {
	case "GET":
		if len(segments) > 1 {
			return ActionResource{Action: "get", Resource: resource}
		}
		return ActionResource{Action: "list", Resource: resource}
	case "POST":
		return ActionResource{Action: "create", Resource: resource}
	case "PUT", "PATCH":
		return ActionResource{Action: "update", Resource: resource}
	case "DELETE":
		return ActionResource{Action: "delete", Resource: resource}
	default:
		return ActionResource{Action: strings.ToLower(method), Resource: resource}
	}
}

func routeSegments(path string) []string {
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	// Drop the api/v1 prefix when present.
	for len(parts) > 0 && (parts[0] == "api" || strings.HasPrefix(parts[0], "v")) {
		if parts[0] == "api" || isVersion(parts[0]) {
			parts = parts[1:]
			continue
		}
		break
	}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isParam(s string) bool {
	if strings.HasPrefix(s, "{") {
		return true
	}
	// UUIDs in concrete request paths count as parameters too.
	return strings.Count(s, "-") == 4 && len(s) == 36
}

func singular(s string) string {
	if strings.HasSuffix(s, "s") && len(s) > 1 {
		return s[:len(s)-1]
	}
	return s
}
