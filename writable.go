package http2

// Writable is the byte-sink contract an Endpoint writes its outbound
// frames through (spec component A). The core never dials, accepts, or
// manages a socket itself — the embedder owns the connection and hands
// the core something satisfying this interface.
//
// IsConnected means the underlying channel can still accept writes;
// IsWritable means a further Write is unlikely to need unbounded local
// buffering (e.g. the embedder's socket send buffer isn't full). An
// Endpoint treats a Write error as the embedder's to report; it reacts
// to persistent unwritability by tearing the connection down rather
// than growing a backlog forever (see the DoS guard in Endpoint).
type Writable interface {
	// Write submits bytes for sending. It must not block; if the
	// underlying transport can't accept them immediately, the
	// embedder should buffer internally and report IsWritable(false)
	// until it has drained.
	Write(p []byte) (n int, err error)

	// Flush requests that any internal buffering be handed to the
	// transport as soon as possible. It must not block.
	Flush() error

	IsConnected() bool
	IsWritable() bool

	// RemoteName identifies the peer for logging (e.g. "ip:port" or
	// a proxy-assigned connection id); it carries no protocol meaning.
	RemoteName() string

	Close() error
}
