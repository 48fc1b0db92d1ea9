// Package testutil provides test doubles and lifecycle helpers for code that
// dispatches requests through a transport.
//
// # Doubles
//
//   - Transport records every request it receives (body included) and
//     answers through a responder function. It is also a TestComponent.
//   - ChunkStream is a scripted chunk source with optional delays and errors,
//     usable as a streaming request payload.
//   - ChunkBody is a response body that hands out views of one reused buffer,
//     the way buffer-pooling transports do.
//
// # Lifecycle
//
// Components are started and stopped with automatic cleanup:
//
//	func TestUpload(t *testing.T) {
//	    tr := testutil.NewTransport("fake", testutil.Respond(200, "ok"))
//	    testutil.T(t).Setup(tr)
//	    // tr is stopped when the test ends
//	}
//
// Manager starts, stops and resets several components together.
package testutil
