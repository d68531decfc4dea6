package kvcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The adapter calls them on hot paths.
type Hooks interface {
	// Start could not establish a handle.
	ConnectFailed(hosts []string, err error)

	// A racing Start dialed a second handle; it was closed and the first one kept.
	DuplicateHandle()

	// Get read a record that is not a valid envelope.
	EnvelopeMalformed(addr string, err error)

	// The store failed an operation (not-found on Get is not reported).
	// op ∈ {"get", "set", "drop"}
	StoreError(op, addr string, err error)

	// Set refused a value before writing it.
	SerializationRejected(addr string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) ConnectFailed([]string, error)       {}
func (NopHooks) DuplicateHandle()                    {}
func (NopHooks) EnvelopeMalformed(string, error)     {}
func (NopHooks) StoreError(string, string, error)    {}
func (NopHooks) SerializationRejected(string, error) {}
