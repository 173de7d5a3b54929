package api

import (
	"crypto/subtle"
	"errors"
	"strings"

	"studiodesk/internal/config"
)

const (
	PermReadBookings       = "read:bookings"
	PermWriteBookings      = "write:bookings"
	PermReadNotifications  = "read:notifications"
	PermWriteNotifications = "write:notifications"
	PermWriteLogo          = "write:logo"

	clientKeyUnknown = "unknown"
)

var (
	errMissingCredentials = errors.New("missing api key headers")
	errInvalidAPIKey      = errors.New("invalid api key")
	errInvalidExtra       = errors.New("invalid extra header")
	errPermissionDenied   = errors.New("permission denied")
	errRateLimited        = errors.New("rate limit exceeded")
)

// keyring validates API credentials for both transports.
type keyring struct {
	apiKeyHeader string
	extraHeader  string
	clients      map[string]config.APIClientKey
}

func newKeyring(cfg config.APIAuthConfig) *keyring {
	m := make(map[string]config.APIClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}
	return &keyring{
		apiKeyHeader: headerName(cfg.HeaderAPIKey, "x-api-key"),
		extraHeader:  headerName(cfg.HeaderExtra, "x-api-extra"),
		clients:      m,
	}
}

func headerName(configured, fallback string) string {
	if h := strings.ToLower(strings.TrimSpace(configured)); h != "" {
		return h
	}
	return fallback
}

// authenticate resolves the client owning apiKey and checks that it may use
// the required permission. An empty permission list allows everything.
func (k *keyring) authenticate(apiKey, extra, required string) (config.APIClientKey, error) {
	apiKey, extra = strings.TrimSpace(apiKey), strings.TrimSpace(extra)
	if apiKey == "" || extra == "" {
		return config.APIClientKey{}, errMissingCredentials
	}

	client, ok := k.clients[apiKey]
	if !ok {
		return config.APIClientKey{}, errInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return config.APIClientKey{}, errInvalidExtra
	}

	if required == "" || len(client.Permissions) == 0 {
		return client, nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return client, nil
		}
	}
	return client, errPermissionDenied
}
