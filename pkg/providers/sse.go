package providers

import (
	"bufio"
	"io"
	"strings"
)

// SSEEvent is one server-sent event: an optional event name and the joined
// data payload.
type SSEEvent struct {
	Name string
	Data string
}

// SSEScanner reads server-sent events from an upstream response body.
// It understands the subset of the protocol LLM providers emit: `event:`
// and `data:` fields separated by blank lines. Other fields are ignored.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner wraps a reader in an event scanner. Buffer capacity is
// raised above the bufio default because model output lines routinely
// exceed 64KiB.
func NewSSEScanner(r io.Reader) *SSEScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &SSEScanner{scanner: sc}
}

// Next reads the next complete event. It returns io.EOF at end of stream.
func (s *SSEScanner) Next() (*SSEEvent, error) {
	var name string
	var data []string

	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			if name != "" || len(data) > 0 {
				return &SSEEvent{Name: name, Data: strings.Join(data, "\n")}, nil
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	if name != "" || len(data) > 0 {
		return &SSEEvent{Name: name, Data: strings.Join(data, "\n")}, nil
	}
	return nil, io.EOF
}
