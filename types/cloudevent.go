package types

// ContractVersion is the cloud-event envelope contract version. Per the
// lockstep versioning policy, this must match Version.
const ContractVersion = "0.7.0"

// EventType names a lifecycle or invocation-result event published by the
// core. RPC result events use the wasmbus.rpcevt topic prefix; the rest
// publish on the lattice's default cloud-event topic.
type EventType string

const (
	EventActorStarted       EventType = "actor_started"
	EventActorStopped       EventType = "actor_stopped"
	EventActorUpdated       EventType = "actor_updated"
	EventActorUpdateFailed  EventType = "actor_update_failed"
	EventActorStartFailed   EventType = "actor_start_failed"
	EventInvocationSucceeded EventType = "invocation_succeeded"
	EventInvocationFailed    EventType = "invocation_failed"
)

// RPCResultTopicPrefix is the topic prefix for invocation-result events,
// scoped per lattice: "wasmbus.rpcevt.{lattice_prefix}".
const RPCResultTopicPrefix = "wasmbus.rpcevt"

// CloudEvent is the standard envelope wrapping every event this core
// publishes: {specversion, type, source, id, time, data}. Time is carried
// as an RFC 3339 string so the envelope round-trips identically across
// msgpack and JSON transports.
type CloudEvent struct {
	SpecVersion string `msgpack:"specversion" json:"specversion"`
	Type        string `msgpack:"type" json:"type"`
	Source      string `msgpack:"source" json:"source"`
	ID          string `msgpack:"id" json:"id"`
	Time        string `msgpack:"time" json:"time"`
	Data        any    `msgpack:"data" json:"data"`

	// ContractVersion and HostID are host-envelope fields layered on top
	// of the bare cloud-event shape per the Event Publisher Adapter.
	ContractVersion string `msgpack:"contract_version" json:"contract_version"`
	HostID          string `msgpack:"host_id" json:"host_id"`
}

// ActorStartedData is the payload of an actor_started event: the full
// public claims bundle, never any private signing material.
type ActorStartedData struct {
	PublicKey   string       `msgpack:"public_key" json:"public_key"`
	ImageRef    string       `msgpack:"image_ref" json:"image_ref"`
	Annotations Annotations  `msgpack:"annotations" json:"annotations"`
	Claims      PublicClaims `msgpack:"claims" json:"claims"`
}

// ActorStoppedData is the payload of an actor_stopped event.
type ActorStoppedData struct {
	PublicKey   string      `msgpack:"public_key" json:"public_key"`
	InstanceID  string      `msgpack:"instance_id" json:"instance_id"`
	Annotations Annotations `msgpack:"annotations" json:"annotations"`
}

// ActorUpdatedData is the payload of an actor_updated event.
type ActorUpdatedData struct {
	PublicKey  string `msgpack:"public_key" json:"public_key"`
	Revision   int64  `msgpack:"revision" json:"revision"`
	InstanceID string `msgpack:"instance_id" json:"instance_id"`
}

// ActorUpdateFailedData is the payload of an actor_update_failed event.
type ActorUpdateFailedData struct {
	PublicKey  string `msgpack:"public_key" json:"public_key"`
	InstanceID string `msgpack:"instance_id" json:"instance_id"`
	Reason     string `msgpack:"reason" json:"reason"`
}

// ActorStartFailedData is the payload of an actor_start_failed event.
type ActorStartFailedData struct {
	PublicKey string `msgpack:"public_key" json:"public_key"`
	Reason    string `msgpack:"reason" json:"reason"`
}

// InvocationResultData is the payload shared by invocation_succeeded and
// invocation_failed events.
type InvocationResultData struct {
	InvocationID string `msgpack:"invocation_id" json:"invocation_id"`
	Origin       string `msgpack:"origin" json:"origin"`
	Target       string `msgpack:"target" json:"target"`
	Operation    string `msgpack:"operation" json:"operation"`
	Bytes        int64  `msgpack:"bytes" json:"bytes"`
	Error        string `msgpack:"error,omitempty" json:"error,omitempty"`
}
