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

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// maxRequestLineLen and maxHeaderBytes bound how much a single request is
// allowed to make the connection buffer before it's rejected as malformed
// — a client that never sends a blank line shouldn't be able to grow the
// read buffer without limit.
const (
	maxRequestLineLen = 8 * 1024
	maxHeaderBytes    = 64 * 1024
	maxHeaderLines    = 256
)

// readRequest scans exactly one HTTP/1.1 request off br: the request
// line, headers up to the blank line, and a fixed-length body if
// Content-Length is present. This is the minimal parser the connection
// state machine needs to know where one request ends and the next
// begins; it is not a general-purpose HTTP parser (no chunked
// transfer-encoding, no trailers) and is not meant to be used outside
// Connection.
//
// onRequestLine, if non-nil, runs immediately after the request line is
// read successfully, before headers and body are parsed. Connection uses
// it to swap an idle-connection read deadline for a shorter in-flight
// one without wire.go needing any awareness of net.Conn or deadlines.
//
// maxBodyBytes, if positive, rejects a request whose Content-Length
// exceeds it with a KindPayload error instead of reading the body.
func readRequest(br *bufio.Reader, maxBodyBytes int, onRequestLine func()) (Request, error) {
	line, err := readLine(br, maxRequestLineLen)
	if err != nil {
		return Request{}, err
	}
	if line == "" {
		return Request{}, Classify(KindProtocol, errMalformedRequestLine)
	}
	if onRequestLine != nil {
		onRequestLine()
	}
	method, rawURL, version, err := parseRequestLine(line)
	if err != nil {
		return Request{}, err
	}

	headers := newHeaderMap(8)
	headerBytes := 0
	for i := 0; ; i++ {
		if i >= maxHeaderLines {
			return Request{}, Classify(KindProtocol, errTooManyHeaders)
		}
		hline, err := readLine(br, maxHeaderBytes)
		if err != nil {
			return Request{}, err
		}
		headerBytes += len(hline)
		if headerBytes > maxHeaderBytes {
			return Request{}, Classify(KindProtocol, errHeadersTooLarge)
		}
		if hline == "" {
			break
		}
		name, value, ok := strings.Cut(hline, ":")
		if !ok {
			return Request{}, Classify(KindProtocol, errMalformedHeader)
		}
		headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if te, ok := headers.Get("Transfer-Encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
		return Request{}, Classify(KindProtocol, errChunkedUnsupported)
	}

	var body []byte
	if cl, ok := headers.Get("Content-Length"); ok {
		n, convErr := strconv.Atoi(strings.TrimSpace(cl))
		if convErr != nil || n < 0 {
			return Request{}, Classify(KindProtocol, errMalformedHeader)
		}
		if maxBodyBytes > 0 && n > maxBodyBytes {
			return Request{}, Classify(KindPayload, errBodyTooLarge)
		}
		if n > 0 {
			body = make([]byte, n)
			if _, readErr := io.ReadFull(br, body); readErr != nil {
				return Request{}, Classify(KindTransport, readErr)
			}
		}
	}

	path, rawQuery, _ := strings.Cut(rawURL, "?")

	return Request{
		Method:   method,
		RawURL:   rawURL,
		Path:     path,
		RawQuery: rawQuery,
		Version:  version,
		Headers:  headers,
		Body:     body,
	}, nil
}

func parseRequestLine(line string) (Method, string, string, error) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return "", "", "", Classify(KindProtocol, errMalformedRequestLine)
	}
	m := Method(parts[0])
	if methodIndex(m) < 0 {
		return "", "", "", Classify(KindProtocol, errUnsupportedMethod)
	}
	if !strings.HasPrefix(parts[2], "HTTP/1.") {
		return "", "", "", Classify(KindProtocol, errUnsupportedVersion)
	}
	return m, parts[1], parts[2], nil
}

// readLine reads one CRLF- or LF-terminated line, stripped of its
// terminator, failing if it grows past limit bytes without finding one.
func readLine(br *bufio.Reader, limit int) (string, error) {
	var b strings.Builder
	for {
		chunk, err := br.ReadSlice('\n')
		b.Write(chunk)
		if limit > 0 && b.Len() > limit {
			return "", Classify(KindProtocol, errLineTooLong)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if err == io.EOF && b.Len() == 0 {
				return "", io.EOF
			}
			return "", Classify(KindTransport, err)
		}
		break
	}
	s := b.String()
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}

// writeResponse serializes a finalized Response as an HTTP/1.1
// status-line + headers + body onto w.
func writeResponse(bw *bufio.Writer, resp *Response) error {
	if _, err := bw.WriteString("HTTP/1.1 "); err != nil {
		return err
	}
	if _, err := bw.WriteString(strconv.Itoa(resp.Status.Code)); err != nil {
		return err
	}
	if _, err := bw.WriteString(" "); err != nil {
		return err
	}
	if _, err := bw.WriteString(resp.Status.Reason); err != nil {
		return err
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}
	for i := 0; i < resp.Headers.Len(); i++ {
		if _, err := bw.WriteString(resp.Headers.keys[i]); err != nil {
			return err
		}
		if _, err := bw.WriteString(": "); err != nil {
			return err
		}
		if _, err := bw.WriteString(resp.Headers.values[i]); err != nil {
			return err
		}
		if _, err := bw.WriteString("\r\n"); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}
	if len(resp.Body) > 0 {
		if _, err := bw.Write(resp.Body); err != nil {
			return err
		}
	}
	return bw.Flush()
}
