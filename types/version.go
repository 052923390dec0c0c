package types

// Version is the canonical project version.
// All components (CLI, cloud-event envelope, wire contract) share this
// version per the lockstep versioning policy.
const Version = "0.7.0"
