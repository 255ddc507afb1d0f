package middleware

// publicPaths bypass auth and rate limiting.
var publicPaths = map[string]bool{
	"/":        true,
	"/health":  true,
	"/healthz": true,
	"/readyz":  true,
	"/livez":   true,
}

func isPublic(path string) bool { return publicPaths[path] }
