package bundle

import "context"

type callingUIDKey struct{}

// WithCallingUID attaches the uid of the calling process to ctx
func WithCallingUID(ctx context.Context, uid int32) context.Context {
	return context.WithValue(ctx, callingUIDKey{}, uid)
}

// CallingUID returns the calling uid attached to ctx
func CallingUID(ctx context.Context) (int32, bool) {
	uid, ok := ctx.Value(callingUIDKey{}).(int32)
	return uid, ok
}
