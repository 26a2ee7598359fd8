// Package device selects the compute backend that serves a tensor's device
// and provides the CPU backend.
//
// Backends are registered explicitly in a Registry that callers construct
// and inject; there is no process-wide backend state.
//
//	reg := device.NewRegistry(device.NewCPU(func(o *device.CPUOptions) {
//	    o.Workers = 8
//	}))
//	backend, err := reg.Lookup(points.Device())
package device
