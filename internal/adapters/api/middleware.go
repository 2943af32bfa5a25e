package api

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/poyrazK/hora/internal/core/domain"
	"github.com/poyrazK/hora/internal/core/ports"
	"github.com/poyrazK/hora/internal/infrastructure/metrics"
)

// Protocol headers of the hora wire contract.
const (
	HeaderVersion = "hora-version"
	HeaderKey     = "hora-key"
	HeaderSecret  = "hora-secret"
	HeaderWarning = "hora-warning"
)

const LatestVersion = 1

var (
	supportedVersions  = map[int]bool{LatestVersion: true}
	deprecatedVersions = map[int]bool{}
)

type contextKey string

const (
	CtxRealm   contextKey = "realm"
	CtxVersion contextKey = "version"
)

// RealmFrom extracts the authenticated realm a middleware stored on the
// request context.
func RealmFrom(ctx context.Context) (*domain.Realm, bool) {
	realm, ok := ctx.Value(CtxRealm).(*domain.Realm)
	return realm, ok && realm != nil
}

// VersionFrom returns the protocol version the client negotiated, or the
// latest version when the request bypassed the version middleware.
func VersionFrom(ctx context.Context) int {
	if version, ok := ctx.Value(CtxVersion).(int); ok {
		return version
	}
	return LatestVersion
}

// VersionMiddleware enforces the hora-version header: required, integer,
// and within the supported set. Deprecated versions are still served but
// flagged in the response.
func VersionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderVersion)
		if raw == "" {
			writeErrorCode(w, http.StatusBadRequest, 0, "You must specify an API version in the header `hora-version`!")
			return
		}
		version, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorCode(w, http.StatusBadRequest, 0, "API Version must be integer")
			return
		}
		if !supportedVersions[version] {
			writeErrorCode(w, http.StatusBadRequest, 0, "Invalid API Version `"+raw+"`")
			return
		}
		if deprecatedVersions[version] {
			w.Header().Set(HeaderWarning, "API Version Deprecated!")
		}

		ctx := context.WithValue(r.Context(), CtxVersion, version)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware resolves the caller's realm from the hora-key/hora-secret
// headers. The failure message never indicates which half of the pair was
// wrong, or whether the key exists at all.
func AuthMiddleware(auth ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			secret := r.Header.Get(HeaderSecret)
			if key == "" || secret == "" {
				metrics.AuthFailures.WithLabelValues("missing_credentials").Inc()
				writeErrorCode(w, http.StatusUnauthorized, domain.CodeBadAPICredentials,
					"You must be authenticated to make Hora API requests!")
				return
			}

			realm, err := auth.Authenticate(r.Context(), key, secret)
			if err != nil {
				metrics.AuthFailures.WithLabelValues("api_credentials").Inc()
				writeDomainError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), CtxRealm, realm)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware rejects clients that exhausted their token bucket.
func RateLimitMiddleware(limiter *rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiter.Allow(ip) {
				metrics.RateLimited.Inc()
				writeErrorCode(w, http.StatusTooManyRequests, 0, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
