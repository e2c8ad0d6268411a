package event

// DenylistUpdatedEvent carries a replacement denylist, grouped by
// policy category.
type DenylistUpdatedEvent struct {
	Denylist map[string][]string `json:"denylist"`
}

func (e DenylistUpdatedEvent) Type() string {
	return DenylistUpdatedEventType
}
