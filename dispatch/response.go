package dispatch

import (
	"maps"
	"net/http"
	"slices"
	"strings"
	"unicode/utf8"
)

// Header is one response header occurrence.
type Header struct {
	Name  string
	Value string
}

// Response is the envelope handed back to the caller. The caller owns Body
// and must drain or close it.
type Response struct {
	StatusCode int
	Headers    []Header
	Body       *ByteStream
}

// HeaderValues returns the values of every occurrence of name, matched case-insensitively.
func (r *Response) HeaderValues(name string) []string {
	var values []string
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			values = append(values, h.Value)
		}
	}
	return values
}

// TranslateResponse builds the Response envelope from a transport response.
// The status is copied verbatim; 4xx and 5xx are not errors here. Every
// header occurrence is kept, names in sorted order and values in order.
// A header value that is not valid UTF-8 fails with ErrCodeHeaderDecode and
// closes the response body.
func TranslateResponse(resp *http.Response, readBufferSize int) (*Response, error) {
	headers := make([]Header, 0, len(resp.Header))
	for _, name := range slices.Sorted(maps.Keys(resp.Header)) {
		for _, value := range resp.Header[name] {
			if !utf8.ValidString(value) {
				if resp.Body != nil {
					_ = resp.Body.Close()
				}
				return nil, newError(ErrCodeHeaderDecode, nil, "response header %q is not valid UTF-8", name)
			}
			headers = append(headers, Header{Name: name, Value: value})
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       NewByteStream(resp.Body, readBufferSize),
	}, nil
}
