package event

// ModelPublishedEvent announces that a training run published a new
// model version. Peers load the artifact and hot-swap without restart.
type ModelPublishedEvent struct {
	Version string `json:"version"`
}

func (e ModelPublishedEvent) Type() string {
	return ModelPublishedEventType
}
