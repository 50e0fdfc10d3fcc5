package telemetry

// Topic-builder functions: every published topic gets a small dedicated
// function rather than scattering T(...) literals through caller code.

// ChargerStateTopic carries the regulator controller's latest published
// state, a by-value copy taken under no lock beyond the struct copy
// itself.
func ChargerStateTopic() Topic { return T("charger", "state") }

// BatteryStateTopic carries the Battery Monitor's latest published state.
func BatteryStateTopic() Topic { return T("battery", "state") }

// FaultTopic carries one faults.Kind while that fault is set (cmd/charger
// republishes every set fault after each Battery Monitor cycle), keyed by
// its String() name so subscribers can filter with the single-token
// wildcard without importing the faults package.
func FaultTopic(kind string) Topic { return T("fault", kind) }

// FaultWildcardTopic subscribes to every fault kind's topic.
func FaultWildcardTopic() Topic { return T("fault", "+") }
