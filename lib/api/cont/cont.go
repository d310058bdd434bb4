package cont

import (
	"admitgate/entity"
	"context"
)

type ctxKey string

const CallerKey ctxKey = "caller"

func PutCaller(c context.Context, caller *entity.Caller) context.Context {
	return context.WithValue(c, CallerKey, *caller)
}

// GetCaller returns nil when the request was not authenticated
func GetCaller(c context.Context) *entity.Caller {
	caller, ok := c.Value(CallerKey).(entity.Caller)
	if !ok {
		return nil
	}
	return &caller
}
