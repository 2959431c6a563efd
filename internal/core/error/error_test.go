package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))

	notFound := WrapRedis(redis.Nil)
	assert.Equal(t, http.StatusNotFound, StatusOf(notFound, 0))
	assert.True(t, errors.Is(notFound, redis.Nil))

	other := WrapRedis(errors.New("connection refused"))
	assert.Equal(t, http.StatusBadGateway, StatusOf(other, 0))
	assert.Contains(t, other.Error(), RedisErrorMessage)
}

func TestAppErrorAs(t *testing.T) {
	wrapped := fmt.Errorf("send welcome: %w", ProviderStatus(http.StatusUnauthorized, []byte(`{"error":"bad key"}`)))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Contains(t, appErr.Error(), "provider answered 401")
}

func TestProviderStatusTruncatesBody(t *testing.T) {
	err := ProviderStatus(http.StatusInternalServerError, []byte(strings.Repeat("x", 1000)))
	assert.Less(t, len(err.Error()), 300)
}

func TestStatusOfFallback(t *testing.T) {
	assert.Equal(t, http.StatusTeapot, StatusOf(errors.New("plain"), http.StatusTeapot))
}

func TestMessageOf(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", New(errors.New("boom"), http.StatusBadGateway, AgentErrorMessage))
	assert.Equal(t, AgentErrorMessage, MessageOf(wrapped, SystemErrorMessage))
	assert.Equal(t, SystemErrorMessage, MessageOf(errors.New("boom"), SystemErrorMessage))
}

func TestUpstreamTimeout(t *testing.T) {
	err := WrapProvider(fmt.Errorf("post: %w", context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, StatusOf(err, 0))
	assert.Equal(t, UpstreamTimeoutMessage, MessageOf(err, ""))

	assert.Equal(t, http.StatusGatewayTimeout, StatusOf(WrapRedis(context.DeadlineExceeded), 0))
	assert.NoError(t, WrapProvider(nil))
}
