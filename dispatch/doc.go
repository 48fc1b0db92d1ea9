// Package dispatch sends already-signed API requests through a pluggable
// HTTP transport.
//
// The package only translates shapes. A SignedRequest becomes an
// *http.Request whose body is a Body over the request's Payload; the
// transport's *http.Response becomes a Response whose body is a ByteStream
// of owned chunks. Signing, retries and timeouts belong to the caller.
//
// # Payloads
//
// A Payload is absent (nil), a *BufferedPayload yielded as one chunk, or a
// *StreamingPayload forwarding the chunks of a ChunkStream as they become
// ready. Payloads are single-use.
//
// # Usage
//
//	t, err := transport.New(transport.Config{Name: "s3"})
//	if err != nil {
//	    return err
//	}
//	client := dispatch.New(t, dispatch.WithLogger(log), dispatch.WithTracing("uploader"))
//
//	resp, err := client.Dispatch(ctx, &dispatch.SignedRequest{
//	    Method:        "PUT",
//	    Scheme:        "https",
//	    Hostname:      "bucket.s3.amazonaws.com",
//	    CanonicalPath: "/key",
//	    Headers:       signed,
//	    Payload:       dispatch.NewBufferedPayload(data),
//	})
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
//	body, err := resp.Body.ReadAll(ctx)
//
// Every status code is a response. Failures are *Error values with an
// ErrorCode; Error.ToAppError maps them onto the shared errors taxonomy.
package dispatch
