package crossref

import (
	"testing"

	"go.uber.org/goleak"
)

// Lookups run behind singleflight and errgroup; no goroutine may outlive a test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Idle keep-alive connections of the KASI client's transport.
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}
