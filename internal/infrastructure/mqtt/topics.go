package mqtt

import "fmt"

// TopicPrefixDoor is the base of every door topic.
const TopicPrefixDoor = "garage/door"

// Payload tokens of the door protocol. Matching is exact and case-sensitive.
const (
	// PayloadPush on a door topic requests one actuator pulse.
	PayloadPush = "push"

	// PayloadGet on a status topic requests a status reply.
	PayloadGet = "get"

	// PayloadStatusOpen and PayloadStatusClosed are the status replies.
	PayloadStatusOpen   = "status:open"
	PayloadStatusClosed = "status:closed"

	// PayloadOnline and PayloadOffline are published on the availability topic.
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// QoS levels used by the door protocol.
const (
	// QoSAtMostOnce is used for command subscriptions and status replies.
	QoSAtMostOnce byte = 0

	// QoSAtLeastOnce is used for the retained availability messages.
	QoSAtLeastOnce byte = 1
)

// Topics provides builders for door topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.DoorCommand("left") // "garage/door/left"
//	topics.DoorStatus("left")  // "garage/door/left/status"
type Topics struct{}

// DoorCommand returns the actuate topic of a door.
//
// Example: garage/door/left
func (Topics) DoorCommand(door string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixDoor, door)
}

// DoorStatus returns the status topic of a door. Replies are published on
// the same topic the query arrived on.
//
// Example: garage/door/right/status
func (Topics) DoorStatus(door string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixDoor, door)
}
