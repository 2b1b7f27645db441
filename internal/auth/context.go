// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
)

type contextKey string

const operatorKey contextKey = "operator"

// SetOperator stores the authenticated operator's username in the context.
func SetOperator(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, operatorKey, username)
}

// Operator retrieves the authenticated operator's username from the context.
func Operator(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(operatorKey).(string)
	return username, ok
}
