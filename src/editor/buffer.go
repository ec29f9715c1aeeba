// Package editor defines the text-buffer service the finder consumes.
// All coordinates are (0, 0)-indexed; the character component of a
// position is a byte offset into the line, matching editor addressing.
// Protocol offsets never enter this package unconverted.
package editor

import (
	"context"

	"go.lsp.dev/protocol"
)

// BufferService is the editor collaborator: line access, buffer/path
// identity and the few mutation primitives edit application needs.
type BufferService interface {
	// ReadLine returns the text of one line without its newline.
	ReadLine(ctx context.Context, bufNr, line int) (string, error)

	// LineCount returns the number of lines in the buffer.
	LineCount(ctx context.Context, bufNr int) (int, error)

	// BufferForPath returns the buffer holding path, creating an
	// unloaded one when none exists.
	BufferForPath(ctx context.Context, path string) (int, error)

	// PathForBuffer returns the absolute path of the buffer, or its
	// name for virtual buffers.
	PathForBuffer(ctx context.Context, bufNr int) (string, error)

	// LoadBuffer makes sure the buffer content is available.
	LoadBuffer(ctx context.Context, bufNr int) error

	// SetText splices lines into the region [start, end), editor
	// coordinates. The caller is responsible for clamping.
	SetText(ctx context.Context, bufNr int, start, end protocol.Position, lines []string) error

	// AppendLines appends lines after the last line of the buffer.
	AppendLines(ctx context.Context, bufNr int, lines []string) error

	// SetLines replaces the whole buffer content. Used for virtual
	// documents fetched from a server.
	SetLines(ctx context.Context, bufNr int, lines []string) error

	// Cursor returns the cursor position in the window, editor
	// coordinates.
	Cursor(ctx context.Context, winID int) (bufNr int, pos protocol.Position, err error)

	// Selection returns the active selection span in the buffer,
	// editor coordinates, cursor-collapsed in normal mode. linewise
	// reports a line-wise selection.
	Selection(ctx context.Context, winID int) (start, end protocol.Position, linewise bool, err error)

	// WorkingDirectory returns the working directory of the window.
	WorkingDirectory(ctx context.Context, winID int) (string, error)
}
