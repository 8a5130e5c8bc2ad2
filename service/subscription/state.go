package subscription

type State int

const (
	StateUnregistered State = iota
	StateSubscribing
	StateRegisteredPending
	StateRegisteredVerified
	StateStopped
)

func (s State) String() string {
	return [...]string{
		"Unregistered",
		"Subscribing",
		"RegisteredPending",
		"RegisteredVerified",
		"Stopped",
	}[s]
}
