package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"

	"lsp-finder/src/host"
	"lsp-finder/src/internal/errors"
)

// Remote is the production BufferService, backed by editor function
// calls through the host bridge.
type Remote struct {
	host host.Host
}

func NewRemote(h host.Host) *Remote {
	return &Remote{host: h}
}

func (r *Remote) call(ctx context.Context, out interface{}, fn string, args ...interface{}) error {
	raw, err := r.host.Call(ctx, fn, args...)
	if err != nil {
		return errors.WrapWithContext("editor "+fn, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.WrapWithContext("editor "+fn, err)
	}
	return nil
}

func (r *Remote) ReadLine(ctx context.Context, bufNr, line int) (string, error) {
	var lines []string
	if err := r.call(ctx, &lines, "getbufline", bufNr, line+1); err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", errors.NewValidationError("line", fmt.Sprintf("line %d out of range in buffer %d", line, bufNr))
	}
	return lines[0], nil
}

func (r *Remote) LineCount(ctx context.Context, bufNr int) (int, error) {
	var infos []struct {
		LineCount int `json:"linecount"`
	}
	if err := r.call(ctx, &infos, "getbufinfo", bufNr); err != nil {
		return 0, err
	}
	if len(infos) == 0 {
		return 0, errors.NewValidationError("bufnr", fmt.Sprintf("no buffer %d", bufNr))
	}
	return infos[0].LineCount, nil
}

func (r *Remote) BufferForPath(ctx context.Context, path string) (int, error) {
	var bufNr int
	if err := r.call(ctx, &bufNr, "bufadd", path); err != nil {
		return 0, err
	}
	return bufNr, nil
}

func (r *Remote) PathForBuffer(ctx context.Context, bufNr int) (string, error) {
	var name string
	if err := r.call(ctx, &name, "bufname", bufNr); err != nil {
		return "", err
	}
	var path string
	if err := r.call(ctx, &path, "fnamemodify", name, ":p"); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Remote) LoadBuffer(ctx context.Context, bufNr int) error {
	return r.call(ctx, nil, "bufload", bufNr)
}

// SetText splices lines into [start, end) with line-based primitives:
// the spliced text absorbs the untouched head of the start line and
// tail of the end line, then the whole region is rewritten.
func (r *Remote) SetText(ctx context.Context, bufNr int, start, end protocol.Position, lines []string) error {
	startLine, err := r.ReadLine(ctx, bufNr, int(start.Line))
	if err != nil {
		return err
	}
	endLine, err := r.ReadLine(ctx, bufNr, int(end.Line))
	if err != nil {
		return err
	}

	before := sliceBytes(startLine, 0, int(start.Character))
	after := sliceBytes(endLine, int(end.Character), len(endLine))

	replacement := make([]string, len(lines))
	copy(replacement, lines)
	if len(replacement) == 0 {
		replacement = []string{""}
	}
	replacement[0] = before + replacement[0]
	replacement[len(replacement)-1] += after

	if err := r.call(ctx, nil, "deletebufline", bufNr, int(start.Line)+1, int(end.Line)+1); err != nil {
		return err
	}
	return r.call(ctx, nil, "appendbufline", bufNr, int(start.Line), replacement)
}

func (r *Remote) AppendLines(ctx context.Context, bufNr int, lines []string) error {
	return r.call(ctx, nil, "appendbufline", bufNr, "$", lines)
}

func (r *Remote) SetLines(ctx context.Context, bufNr int, lines []string) error {
	count, err := r.LineCount(ctx, bufNr)
	if err != nil {
		return err
	}
	if err := r.call(ctx, nil, "setbufline", bufNr, 1, lines); err != nil {
		return err
	}
	if count > len(lines) {
		return r.call(ctx, nil, "deletebufline", bufNr, len(lines)+1, "$")
	}
	return nil
}

func (r *Remote) Cursor(ctx context.Context, winID int) (int, protocol.Position, error) {
	var bufNr int
	if err := r.call(ctx, &bufNr, "winbufnr", winID); err != nil {
		return 0, protocol.Position{}, err
	}

	// getcurpos answers [bufnum, lnum, col, off, curswant], 1-indexed.
	var pos []int
	if err := r.call(ctx, &pos, "getcurpos", winID); err != nil {
		return 0, protocol.Position{}, err
	}
	if len(pos) < 3 {
		return 0, protocol.Position{}, errors.NewValidationError("winId", "unexpected getcurpos shape")
	}
	return bufNr, protocol.Position{Line: uint32(pos[1] - 1), Character: uint32(pos[2] - 1)}, nil
}

// Selection reads the 'v' and '.' marks, which both sit on the cursor
// outside visual mode.
func (r *Remote) Selection(ctx context.Context, winID int) (protocol.Position, protocol.Position, bool, error) {
	var start, end protocol.Position
	for i, mark := range []string{"v", "."} {
		var pos []int
		if err := r.call(ctx, &pos, "getpos", mark); err != nil {
			return start, end, false, err
		}
		if len(pos) < 3 {
			return start, end, false, errors.NewValidationError("mark", "unexpected getpos shape")
		}
		p := protocol.Position{Line: uint32(pos[1] - 1), Character: uint32(pos[2] - 1)}
		if i == 0 {
			start = p
		} else {
			end = p
		}
	}

	var mode string
	if err := r.call(ctx, &mode, "mode"); err != nil {
		return start, end, false, err
	}
	return start, end, mode == "V", nil
}

func (r *Remote) WorkingDirectory(ctx context.Context, winID int) (string, error) {
	var cwd string
	if err := r.call(ctx, &cwd, "getcwd", winID); err != nil {
		return "", err
	}
	return cwd, nil
}

func sliceBytes(s string, from, to int) string {
	if from > len(s) {
		from = len(s)
	}
	if to > len(s) {
		to = len(s)
	}
	if from > to {
		from = to
	}
	return s[from:to]
}

var _ BufferService = (*Remote)(nil)
