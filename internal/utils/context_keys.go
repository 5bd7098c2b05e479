package utils

type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return k.name
}

var TraceIdKey = &contextKey{"traceId"}
var SanitizedPayloadKey = &contextKey{"sanitizedPayload"}
