package auth

import "context"

type contextKey string

const userContextKey contextKey = "zhenzhen_user"

// UserInfo is the identity attached to a request once the allow-list
// check has passed.
type UserInfo struct {
	ID string
}

func ContextWithUser(ctx context.Context, info *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, info)
}

func UserFromContext(ctx context.Context) (*UserInfo, bool) {
	info, ok := ctx.Value(userContextKey).(*UserInfo)
	return info, ok
}
