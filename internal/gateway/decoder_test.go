// Copyright (c) 2025 LegalGuru
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// event builds a single SSE data line carrying one content delta.
func event(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n"
}

// drain feeds the whole stream as one chunk and joins the deltas.
func drain(t *testing.T, stream string) string {
	t.Helper()
	d := NewStreamDecoder()
	deltas := d.Feed([]byte(stream))
	deltas = append(deltas, d.Flush()...)
	return strings.Join(deltas, "")
}

func TestStreamDecoder_BasicStream(t *testing.T) {
	stream := event("You") + event(" may") + event(" have") + "data: [DONE]\n"

	d := NewStreamDecoder()
	deltas := d.Feed([]byte(stream))

	require.Equal(t, []string{"You", " may", " have"}, deltas)
	assert.True(t, d.Done())
}

func TestStreamDecoder_ChunkBoundaryInvariance(t *testing.T) {
	stream := event("Hello") + ": keep-alive\n" + event(", ") + "\n" + event("world — ünïcode ✓") + "data: [DONE]\n"
	want := drain(t, stream)
	require.Equal(t, "Hello, world — ünïcode ✓", want)

	// Splitting the byte stream at every possible boundary must not change
	// the reassembled reply, including splits inside multi-byte runes.
	raw := []byte(stream)
	for cut := 0; cut <= len(raw); cut++ {
		d := NewStreamDecoder()
		var got strings.Builder
		for _, delta := range d.Feed(raw[:cut]) {
			got.WriteString(delta)
		}
		for _, delta := range d.Feed(raw[cut:]) {
			got.WriteString(delta)
		}
		for _, delta := range d.Flush() {
			got.WriteString(delta)
		}
		require.Equalf(t, want, got.String(), "split at byte %d", cut)
	}
}

func TestStreamDecoder_ByteAtATime(t *testing.T) {
	stream := event("a") + event("b") + event("c") + "data: [DONE]\n"

	d := NewStreamDecoder()
	var got strings.Builder
	for i := 0; i < len(stream); i++ {
		for _, delta := range d.Feed([]byte{stream[i]}) {
			got.WriteString(delta)
		}
	}

	assert.Equal(t, "abc", got.String())
	assert.True(t, d.Done())
}

func TestStreamDecoder_IgnoresCommentsAndBlankLines(t *testing.T) {
	stream := ": ping\n" + "\n" + "   \n" + ":\n" + "event: message\n"

	d := NewStreamDecoder()
	deltas := d.Feed([]byte(stream))
	deltas = append(deltas, d.Flush()...)

	assert.Empty(t, deltas)
}

func TestStreamDecoder_DoneHaltsFurtherLines(t *testing.T) {
	stream := event("first") + "data: [DONE]\n" + event("after-done")

	d := NewStreamDecoder()
	deltas := d.Feed([]byte(stream))

	require.Equal(t, []string{"first"}, deltas)
	assert.True(t, d.Done())

	// Chunks arriving after the sentinel are ignored outright.
	assert.Empty(t, d.Feed([]byte(event("late"))))
	assert.Empty(t, d.Flush())
}

func TestStreamDecoder_SplitJSONAcrossChunks(t *testing.T) {
	d := NewStreamDecoder()

	deltas := d.Feed([]byte(`data: {"choi`))
	assert.Empty(t, deltas, "partial frame must not emit a delta")

	deltas = d.Feed([]byte(`ces":[{"delta":{"content":"You"}}]}` + "\n"))
	assert.Equal(t, []string{"You"}, deltas)
}

func TestStreamDecoder_ReprependedLineWaitsForMoreBytes(t *testing.T) {
	d := NewStreamDecoder()

	// A newline-terminated line whose payload does not parse is treated as
	// a split frame: nothing is emitted and scanning stops at that line.
	deltas := d.Feed([]byte(`data: {"choices":[{"delta"` + "\n"))
	assert.Empty(t, deltas)

	// A later valid line stays queued behind the stuck frame for the
	// remainder of the chunked phase.
	deltas = d.Feed([]byte(event("queued")))
	assert.Empty(t, deltas)

	// The final pass drops the unparseable frame and recovers the rest.
	assert.Equal(t, []string{"queued"}, d.Flush())
}

func TestStreamDecoder_FlushTrailingUnterminatedLine(t *testing.T) {
	d := NewStreamDecoder()

	deltas := d.Feed([]byte(`data: {"choices":[{"delta":{"content":"tail"}}]}`))
	assert.Empty(t, deltas, "no newline yet, nothing to emit")

	assert.Equal(t, []string{"tail"}, d.Flush())
}

func TestStreamDecoder_CarriageReturnStripped(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"crlf\"}}]}\r\n" + "data: [DONE]\r\n"

	d := NewStreamDecoder()
	deltas := d.Feed([]byte(stream))

	assert.Equal(t, []string{"crlf"}, deltas)
	assert.True(t, d.Done())
}

func TestStreamDecoder_EmptyContentNotEmitted(t *testing.T) {
	stream := `data: {"choices":[{"delta":{"content":""}}]}` + "\n" +
		`data: {"choices":[]}` + "\n" +
		`data: null` + "\n" +
		event("only")

	d := NewStreamDecoder()
	deltas := d.Feed([]byte(stream))

	assert.Equal(t, []string{"only"}, deltas)
}
