package event

import "reflect"

type Event interface {
	Type() string
}

var (
	ModelPublishedEventType  = "ModelPublishedEvent"
	DenylistUpdatedEventType = "DenylistUpdatedEvent"
)

var Registry = map[string]reflect.Type{
	ModelPublishedEventType:  reflect.TypeOf(ModelPublishedEvent{}),
	DenylistUpdatedEventType: reflect.TypeOf(DenylistUpdatedEvent{}),
}
