// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"bytes"
	"encoding/json"
)

// =============================================================================
// STREAM DECODER
// =============================================================================

// dataPrefix marks SSE payload lines. Lines without it are ignored.
var dataPrefix = []byte("data: ")

// doneSentinel marks logical end of stream.
var doneSentinel = []byte("[DONE]")

// deltaChunk is the JSON payload carried on a data line. Only the first
// choice's delta content is consumed.
type deltaChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// content returns the first choice's delta content, if any.
func (c *deltaChunk) content() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// StreamDecoder incrementally decodes a chunked SSE byte stream into content
// deltas. Chunks are fed in as they arrive off the wire; the decoder owns a
// transient line buffer and nothing else.
//
// Framing rules:
//   - the buffer is drained one '\n'-terminated line at a time, a trailing
//     '\r' is stripped;
//   - blank lines and comment lines (leading ':') are keep-alives, skipped;
//   - only lines with a "data: " prefix carry payload;
//   - the payload "[DONE]" ends the stream, no further lines are processed;
//   - a payload that fails to parse as JSON is assumed to be a frame split
//     across a network read, not corruption: the line is re-joined with the
//     buffer and scanning stops until more bytes arrive.
//
// The buffer holds raw bytes and lines are split on the single-byte '\n',
// so a multi-byte UTF-8 sequence straddling a chunk boundary is never torn.
type StreamDecoder struct {
	buf  []byte
	done bool
}

// NewStreamDecoder creates a decoder for one stream. Decoders are not
// reusable across streams.
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{}
}

// Done reports whether the [DONE] sentinel has been seen.
func (d *StreamDecoder) Done() bool {
	return d.done
}

// Feed appends one raw chunk and returns the content deltas completed by it,
// in stream order. After the [DONE] sentinel further chunks are ignored.
func (d *StreamDecoder) Feed(chunk []byte) []string {
	if d.done {
		return nil
	}
	d.buf = append(d.buf, chunk...)

	var deltas []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]
		line = bytes.TrimSuffix(line, []byte("\r"))

		if skipLine(line) {
			continue
		}

		payload := bytes.TrimSpace(line[len(dataPrefix):])
		if bytes.Equal(payload, doneSentinel) {
			d.done = true
			break
		}

		var chunk deltaChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			// Incomplete frame: put the line back in front of the buffer
			// and wait for the next network read.
			rejoined := make([]byte, 0, len(line)+1+len(d.buf))
			rejoined = append(rejoined, line...)
			rejoined = append(rejoined, '\n')
			rejoined = append(rejoined, d.buf...)
			d.buf = rejoined
			break
		}

		if content := chunk.content(); content != "" {
			deltas = append(deltas, content)
		}
	}
	return deltas
}

// Flush performs the final best-effort pass over any unterminated content
// left in the buffer once the underlying read reports end-of-stream. Parse
// failures here are dropped rather than re-queued: no more bytes are coming.
func (d *StreamDecoder) Flush() []string {
	if d.done {
		d.buf = nil
		return nil
	}
	buf := d.buf
	d.buf = nil
	d.done = true

	if len(bytes.TrimSpace(buf)) == 0 {
		return nil
	}

	var deltas []string
	for _, line := range bytes.Split(buf, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if skipLine(line) {
			continue
		}
		payload := bytes.TrimSpace(line[len(dataPrefix):])
		if bytes.Equal(payload, doneSentinel) {
			continue
		}
		var chunk deltaChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			continue
		}
		if content := chunk.content(); content != "" {
			deltas = append(deltas, content)
		}
	}
	return deltas
}

// skipLine reports whether a line carries no payload: blank lines, comment
// or keep-alive lines starting with ':', and lines without the data prefix.
func skipLine(line []byte) bool {
	if len(bytes.TrimSpace(line)) == 0 {
		return true
	}
	if line[0] == ':' {
		return true
	}
	return !bytes.HasPrefix(line, dataPrefix)
}
