package bq25703a

// Snapshot collects the results of one ADC conversion cycle: bus, pack,
// and system-rail voltages, plus charge and input current.
type Snapshot struct {
	VBUSmV int32
	VBATmV int32
	VSYSmV int32
	ICHGmA int32
	IINmA  int32
}
