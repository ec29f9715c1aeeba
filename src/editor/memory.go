package editor

import (
	"context"
	"fmt"
	"sync"

	"go.lsp.dev/protocol"
)

// Memory is an in-process BufferService. It backs tests and holds
// virtual documents (for example deno: sources) that have no file.
type Memory struct {
	mu      sync.RWMutex
	nextBuf int
	byPath  map[string]int
	byBuf   map[int]string
	lines   map[int][]string

	cursorBuf int
	cursorPos protocol.Position
	selStart  protocol.Position
	selEnd    protocol.Position
	linewise  bool
	cwd       string
}

// NewMemory creates an empty in-memory buffer service.
func NewMemory() *Memory {
	return &Memory{
		nextBuf: 1,
		byPath:  make(map[string]int),
		byBuf:   make(map[int]string),
		lines:   make(map[int][]string),
	}
}

// Open creates (or reuses) a buffer for path with the given content and
// returns its number.
func (m *Memory) Open(path string, lines []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	bufNr, ok := m.byPath[path]
	if !ok {
		bufNr = m.nextBuf
		m.nextBuf++
		m.byPath[path] = bufNr
		m.byBuf[bufNr] = path
	}
	m.lines[bufNr] = append([]string(nil), lines...)
	return bufNr
}

// SetCursor places the cursor for subsequent Cursor calls.
func (m *Memory) SetCursor(bufNr int, pos protocol.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursorBuf = bufNr
	m.cursorPos = pos
	m.selStart = pos
	m.selEnd = pos
	m.linewise = false
}

// Select sets the active selection for subsequent Selection calls.
func (m *Memory) Select(start, end protocol.Position, linewise bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selStart = start
	m.selEnd = end
	m.linewise = linewise
}

// SetWorkingDirectory sets the value returned by WorkingDirectory.
func (m *Memory) SetWorkingDirectory(cwd string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cwd = cwd
}

// Lines returns a copy of the buffer content.
func (m *Memory) Lines(bufNr int) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.lines[bufNr]...)
}

func (m *Memory) ReadLine(_ context.Context, bufNr, line int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lines, ok := m.lines[bufNr]
	if !ok {
		return "", fmt.Errorf("editor: no buffer %d", bufNr)
	}
	if line < 0 || line >= len(lines) {
		return "", fmt.Errorf("editor: line %d out of range in buffer %d", line, bufNr)
	}
	return lines[line], nil
}

func (m *Memory) LineCount(_ context.Context, bufNr int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lines, ok := m.lines[bufNr]
	if !ok {
		return 0, fmt.Errorf("editor: no buffer %d", bufNr)
	}
	return len(lines), nil
}

func (m *Memory) BufferForPath(_ context.Context, path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bufNr, ok := m.byPath[path]; ok {
		return bufNr, nil
	}
	bufNr := m.nextBuf
	m.nextBuf++
	m.byPath[path] = bufNr
	m.byBuf[bufNr] = path
	m.lines[bufNr] = []string{""}
	return bufNr, nil
}

func (m *Memory) PathForBuffer(_ context.Context, bufNr int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.byBuf[bufNr]
	if !ok {
		return "", fmt.Errorf("editor: no buffer %d", bufNr)
	}
	return path, nil
}

func (m *Memory) LoadBuffer(_ context.Context, bufNr int) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.lines[bufNr]; !ok {
		return fmt.Errorf("editor: no buffer %d", bufNr)
	}
	return nil
}

func (m *Memory) SetText(_ context.Context, bufNr int, start, end protocol.Position, lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.lines[bufNr]
	if !ok {
		return fmt.Errorf("editor: no buffer %d", bufNr)
	}
	startLine, endLine := int(start.Line), int(end.Line)
	if startLine < 0 || endLine >= len(buf) || startLine > endLine {
		return fmt.Errorf("editor: region %d..%d out of range in buffer %d", startLine, endLine, bufNr)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}

	before := buf[startLine][:min(int(start.Character), len(buf[startLine]))]
	after := buf[endLine][min(int(end.Character), len(buf[endLine])):]

	spliced := make([]string, len(lines))
	copy(spliced, lines)
	spliced[0] = before + spliced[0]
	spliced[len(spliced)-1] += after

	out := make([]string, 0, len(buf)-(endLine-startLine+1)+len(spliced))
	out = append(out, buf[:startLine]...)
	out = append(out, spliced...)
	out = append(out, buf[endLine+1:]...)
	m.lines[bufNr] = out
	return nil
}

func (m *Memory) AppendLines(_ context.Context, bufNr int, lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.lines[bufNr]
	if !ok {
		return fmt.Errorf("editor: no buffer %d", bufNr)
	}
	m.lines[bufNr] = append(buf, lines...)
	return nil
}

func (m *Memory) SetLines(_ context.Context, bufNr int, lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lines[bufNr]; !ok {
		return fmt.Errorf("editor: no buffer %d", bufNr)
	}
	m.lines[bufNr] = append([]string(nil), lines...)
	return nil
}

func (m *Memory) Cursor(_ context.Context, _ int) (int, protocol.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursorBuf, m.cursorPos, nil
}

func (m *Memory) Selection(_ context.Context, _ int) (protocol.Position, protocol.Position, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selStart, m.selEnd, m.linewise, nil
}

func (m *Memory) WorkingDirectory(_ context.Context, _ int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cwd, nil
}

var _ BufferService = (*Memory)(nil)
