package couturelite

import (
	"errors"
	"fmt"
	"testing"
)

func TestNetworkError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&NetworkError{Op: "GET /api/clients", Err: cause})

	if !IsNetworkError(err) {
		t.Error("expected IsNetworkError to match a NetworkError")
	}
	if !IsNetworkError(fmt.Errorf("sync failed: %w", err)) {
		t.Error("expected IsNetworkError to match through wrapping")
	}
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
	if IsNetworkError(ErrNotFound) {
		t.Error("plain sentinel must not read as a network error")
	}
}
