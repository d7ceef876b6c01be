package middleware

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FetchPublicKey fetches the identity provider's RSA key, served as {"key": "<PEM>"}.
func FetchPublicKey(ctx context.Context, client *http.Client, url string) (*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build public key request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	keyResponse := struct {
		Key string `json:"key"`
	}{}
	if err := json.Unmarshal(body, &keyResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal public key response: %w", err)
	}
	return ParsePublicKey([]byte(keyResponse.Key))
}

// ParsePublicKey decodes a PEM "PUBLIC KEY" block holding an RSA key.
func ParsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("failed to decode PEM block containing public key")
	}
	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	rsaPubKey, ok := pubKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return rsaPubKey, nil
}

// keyCache keeps the fetched key for ttl instead of fetching it on every request.
type keyCache struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu        sync.Mutex
	key       *rsa.PublicKey
	fetchedAt time.Time
}

func (k *keyCache) get(ctx context.Context) (*rsa.PublicKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.key != nil && time.Since(k.fetchedAt) < k.ttl {
		return k.key, nil
	}
	key, err := FetchPublicKey(ctx, k.client, k.url)
	if err != nil {
		// keep serving the stale key while the provider is unreachable
		if k.key != nil {
			return k.key, nil
		}
		return nil, err
	}
	k.key, k.fetchedAt = key, time.Now()
	return key, nil
}

// VerifyJWT checks the signature with the HS256 secret or the provider's RSA key, whichever
// matches the token's algorithm and is configured.
func (a *Authenticator) VerifyJWT(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if len(a.secret) == 0 {
				return nil, fmt.Errorf("HMAC tokens are not accepted")
			}
			return a.secret, nil
		case *jwt.SigningMethodRSA:
			if a.keys == nil {
				return nil, fmt.Errorf("RSA tokens are not accepted")
			}
			return a.keys.get(ctx)
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
	}, jwt.WithExpirationRequired(), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT token")
	}
	return claims, nil
}
