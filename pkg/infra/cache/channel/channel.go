package channel

type Channel string

// ModerationEventsChannel carries denylist and model lifecycle events
// between scamguard instances.
const ModerationEventsChannel Channel = "scamguard:moderation:events"
