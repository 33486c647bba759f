// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInactiveToken      = errors.New("token is not active")
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Roles  []string
}

// HasRole reports whether the identity carries role.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Authenticator resolves the caller of an HTTP request. It returns
// ErrMissingCredentials when the request carries no identity at all.
type Authenticator interface {
	Authenticate(r *http.Request) (*Identity, error)
}

// HeaderAuthenticator trusts identity headers set by an upstream gateway.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (*Identity, error) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		return nil, ErrMissingCredentials
	}

	id := &Identity{UserID: userID}
	for _, role := range strings.Split(r.Header.Get("X-User-Role"), ",") {
		if role = strings.TrimSpace(role); role != "" {
			id.Roles = append(id.Roles, role)
		}
	}
	return id, nil
}

// KeycloakClient validates bearer tokens against a Keycloak realm.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// IntrospectionResponse holds the fields of the RFC 7662 answer we use.
type IntrospectionResponse struct {
	Active      bool   `json:"active"`
	Subject     string `json:"sub"`
	Username    string `json:"preferred_username"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// NewKeycloakClient creates a new instance of KeycloakClient.
func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Introspect asks Keycloak whether token is active and who it belongs to.
func (k *KeycloakClient) Introspect(ctx context.Context, token string) (*IntrospectionResponse, error) {
	introspectURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("token", token)
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, introspectURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute introspection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("keycloak introspection failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out IntrospectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode introspection response: %w", err)
	}
	return &out, nil
}

// Authenticate reads the bearer token from the Authorization header.
func (k *KeycloakClient) Authenticate(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if header == "" || token == "" || token == header {
		return nil, ErrMissingCredentials
	}

	resp, err := k.Introspect(r.Context(), token)
	if err != nil {
		return nil, err
	}
	if !resp.Active {
		return nil, ErrInactiveToken
	}

	userID := resp.Subject
	if userID == "" {
		userID = resp.Username
	}
	return &Identity{UserID: userID, Roles: resp.RealmAccess.Roles}, nil
}
