package device

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/fps/kernel"
	"github.com/hupe1980/fps/tensor"
)

// Backend allocates buffers on one device family and launches kernels there.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// DeviceType is the device family the backend serves.
	DeviceType() tensor.DeviceType

	// Alloc allocates a zeroed, contiguous tensor on dev.
	Alloc(shape tensor.Shape, dtype tensor.DType, dev tensor.Device) (*tensor.Tensor, error)

	// Free returns an allocation's budget. The tensor stays readable.
	Free(t *tensor.Tensor)

	// Kernel resolves a kernel by name.
	Kernel(name string) (kernel.Func, error)
}

// Registry maps device families to backends. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	backends map[tensor.DeviceType]Backend
}

// NewRegistry creates a registry holding the given backends.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[tensor.DeviceType]Backend)}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register adds b, replacing any backend for the same device family.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.DeviceType()] = b
}

// Lookup returns the backend serving dev.
func (r *Registry) Lookup(dev tensor.Device) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[dev.Type]
	if !ok {
		return nil, fmt.Errorf("%w: no backend for %v", kernel.ErrUnsupportedDevice, dev)
	}
	return b, nil
}

// Backends returns the registered backends ordered by device family.
func (r *Registry) Backends() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Backend, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceType() < out[j].DeviceType() })
	return out
}
