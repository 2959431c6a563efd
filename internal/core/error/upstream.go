package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// maxBodySnippet bounds how much of a provider response body is kept in errors.
const maxBodySnippet = 200

// UpstreamTimeoutMessage is reported when a dependency did not answer in time.
const UpstreamTimeoutMessage = "upstream timed out"

// upstream classifies a failure of a remote dependency: deadlines become 504,
// anything else 502 with the given public message.
func upstream(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(err, http.StatusGatewayTimeout, UpstreamTimeoutMessage)
	}
	return New(err, http.StatusBadGateway, message)
}

// WrapRedis maps Redis failures. A missing key is 404.
func WrapRedis(err error) error {
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return upstream(err, RedisErrorMessage)
}

// WrapProvider wraps a transport failure talking to the messaging provider.
func WrapProvider(err error) error {
	return upstream(err, ProviderErrorMessage)
}

// ProviderStatus builds an error for a non-2xx provider response.
func ProviderStatus(status int, body []byte) error {
	if len(body) > maxBodySnippet {
		body = body[:maxBodySnippet]
	}
	return New(fmt.Errorf("provider answered %d: %s", status, body), http.StatusBadGateway, ProviderErrorMessage)
}
