package mastra

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/toasahi/ramen-agent/internal/domain"
)

const doneMarker = "[DONE]"

// chunkFrame is one decoded data line of the chat stream. The text delta
// field name has varied across service versions, so both are accepted.
type chunkFrame struct {
	Type      string `json:"type"`
	Delta     string `json:"delta"`
	TextDelta string `json:"textDelta"`
}

func (f chunkFrame) text() string {
	if f.Delta != "" {
		return f.Delta
	}
	return f.TextDelta
}

// chunkStream reads SSE-style "data:" lines off the chat response body and
// yields displayable chunks in arrival order. The stream is finite and not
// restartable once closed.
type chunkStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func newChunkStream(body io.ReadCloser) *chunkStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &chunkStream{body: body, scanner: scanner}
}

// Recv returns the next chunk, or io.EOF once the response is complete
func (s *chunkStream) Recv() (domain.Chunk, error) {
	if s.done {
		return domain.Chunk{}, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == doneMarker {
			s.done = true
			return domain.Chunk{}, io.EOF
		}

		var frame chunkFrame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			return domain.Chunk{}, fmt.Errorf("decode chunk: %w", err)
		}

		switch frame.Type {
		case "text-delta":
			return domain.Chunk{Type: frame.Type, Text: frame.text()}, nil
		case "finish":
			s.done = true
			return domain.Chunk{}, io.EOF
		default:
			// Tool-call and step bookkeeping frames carry nothing displayable.
			continue
		}
	}

	if err := s.scanner.Err(); err != nil {
		return domain.Chunk{}, fmt.Errorf("read chunk stream: %w", err)
	}
	s.done = true
	return domain.Chunk{}, io.EOF
}

// Close releases the underlying response body
func (s *chunkStream) Close() error {
	s.done = true
	return s.body.Close()
}
