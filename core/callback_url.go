package core

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ResolveCallbackURL derives the OAuth redirect URI from the request's
// declared origin plus the configured callback path. Platforms reject the
// exchange when this differs from the registered redirect URI, so the
// derivation is deterministic: Origin header first, then forwarded proto and
// host.
func ResolveCallbackURL(req *http.Request, callbackPath string) (string, error) {
	if req == nil {
		return "", fmt.Errorf("core: request is required to resolve callback url")
	}
	path := strings.TrimSpace(callbackPath)
	if path == "" {
		path = defaultCallbackPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if origin := strings.TrimSpace(req.Header.Get("Origin")); origin != "" {
		parsed, err := url.Parse(origin)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return "", fmt.Errorf("core: invalid origin header %q", origin)
		}
		return parsed.Scheme + "://" + parsed.Host + path, nil
	}

	host := strings.TrimSpace(req.Header.Get("X-Forwarded-Host"))
	if host == "" {
		host = strings.TrimSpace(req.Host)
	}
	if host == "" {
		return "", fmt.Errorf("core: request host is required to resolve callback url")
	}
	scheme := strings.TrimSpace(req.Header.Get("X-Forwarded-Proto"))
	if scheme == "" {
		if req.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	return scheme + "://" + host + path, nil
}
