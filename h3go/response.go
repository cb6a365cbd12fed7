// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package h3go

import "strconv"

// Response is the mutable response builder. sent becomes true once per
// Event, either for a regular response or when StartSSE hands off to a
// stream (an Event invariant enforced by the Event methods, not by
// Response alone). Once finished is true, no further
// mutation is permitted — every setter here returns ErrResponseFinished
// rather than panicking.
type Response struct {
	Status   Status
	Headers  headerMap
	Body     []byte
	owned    bool // true once Body holds a copy this Response owns
	sent     bool // headers+body logically complete, ready to flush
	finished bool // terminal; further mutation is a programming error
}

func newResponse() Response {
	return Response{
		Status:  NewStatus(200),
		Headers: newHeaderMap(8),
	}
}

func (r *Response) reset() {
	r.Status = NewStatus(200)
	r.Headers.reset()
	r.Body = nil
	r.owned = false
	r.sent = false
	r.finished = false
}

// Sent reports whether the response has been finalized, either as a
// regular response or by StartSSE.
func (r *Response) Sent() bool { return r.sent }

// Finished reports whether the response is terminal.
func (r *Response) Finished() bool { return r.finished }

// SetHeader sets a response header, copying both name and value so the
// caller's buffer can be reused afterward. Fails if the response is
// already finished.
func (r *Response) SetHeader(name, value string) error {
	if r.finished {
		return Classify(KindState, ErrResponseFinished)
	}
	r.Headers.Set(string(append([]byte(nil), name...)), string(append([]byte(nil), value...)))
	return nil
}

// SetStatus sets the response status. Fails if the response is already
// finished.
func (r *Response) SetStatus(code int) error {
	if r.finished {
		return Classify(KindState, ErrResponseFinished)
	}
	r.Status = NewStatus(code)
	return nil
}

// finalize marks the response sent+finished with an owned copy of body,
// setting Content-Type and Content-Length automatically for buffered
// (non-streaming) responses.
func (r *Response) finalize(contentType string, body []byte) error {
	if r.finished {
		return Classify(KindState, ErrResponseFinished)
	}
	if contentType != "" {
		r.Headers.Set("Content-Type", contentType)
	}
	owned := make([]byte, len(body))
	copy(owned, body)
	r.Body = owned
	r.owned = true
	r.Headers.Set("Content-Length", strconv.Itoa(len(owned)))
	r.sent = true
	r.finished = true
	return nil
}
