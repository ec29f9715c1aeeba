package kind

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.lsp.dev/protocol"

	"lsp-finder/src/internal/common"
	"lsp-finder/src/internal/errors"
	"lsp-finder/src/internal/types"
	"lsp-finder/src/offset"
	"lsp-finder/src/utils"
	"lsp-finder/src/utils/jsonutil"
)

// workspaceEdit mirrors the protocol WorkspaceEdit with documentChanges
// kept raw: the array mixes TextDocumentEdit with create/rename/delete
// operations and has to be sniffed per element.
type workspaceEdit struct {
	Changes         map[string][]protocol.TextEdit `json:"changes,omitempty"`
	DocumentChanges []json.RawMessage              `json:"documentChanges,omitempty"`
}

type documentChange struct {
	Kind string `json:"kind,omitempty"`

	// TextDocumentEdit fields. Document versions are not checked.
	TextDocument struct {
		URI string `json:"uri"`
	} `json:"textDocument,omitempty"`
	Edits []protocol.TextEdit `json:"edits,omitempty"`

	// create / delete
	URI string `json:"uri,omitempty"`
	// rename
	OldURI string `json:"oldUri,omitempty"`
	NewURI string `json:"newUri,omitempty"`

	Options *struct {
		Overwrite         bool `json:"overwrite,omitempty"`
		IgnoreIfExists    bool `json:"ignoreIfExists,omitempty"`
		IgnoreIfNotExists bool `json:"ignoreIfNotExists,omitempty"`
		Recursive         bool `json:"recursive,omitempty"`
	} `json:"options,omitempty"`
}

// ApplyWorkspaceEdit applies a workspace edit. documentChanges wins over
// changes when both are present, per the protocol.
func (e *Executor) ApplyWorkspaceEdit(ctx context.Context, raw json.RawMessage, client types.Client) error {
	edit, ok := jsonutil.Decode[workspaceEdit](raw)
	if !ok {
		return errors.NewValidationError("edit", "undecodable workspace edit")
	}

	if len(edit.DocumentChanges) > 0 {
		for _, element := range edit.DocumentChanges {
			change, ok := jsonutil.Decode[documentChange](element)
			if !ok {
				return errors.NewValidationError("documentChanges", "undecodable document change")
			}
			if err := e.applyDocumentChange(ctx, change, client); err != nil {
				return err
			}
		}
		return nil
	}

	for uriStr, edits := range edit.Changes {
		path := utils.URIToFilePath(uriStr)
		bufNr, err := e.buffers.BufferForPath(ctx, path)
		if err != nil {
			return errors.WrapWithContext("edit buffer", err)
		}
		if err := e.applyTextEdits(ctx, bufNr, edits, client.Encoding()); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) applyDocumentChange(ctx context.Context, change documentChange, client types.Client) error {
	switch change.Kind {
	case "":
		path := utils.URIToFilePath(change.TextDocument.URI)
		bufNr, err := e.buffers.BufferForPath(ctx, path)
		if err != nil {
			return errors.WrapWithContext("edit buffer", err)
		}
		return e.applyTextEdits(ctx, bufNr, change.Edits, client.Encoding())
	case "create":
		return e.createFile(ctx, change)
	case "rename":
		return e.renameFile(ctx, change)
	case "delete":
		return e.deleteFile(change)
	default:
		return errors.NewValidationError("documentChanges", "unknown change kind: "+change.Kind)
	}
}

func (e *Executor) createFile(ctx context.Context, change documentChange) error {
	path := utils.URIToFilePath(change.URI)
	_, statErr := os.Stat(path)
	exists := statErr == nil

	overwrite := change.Options != nil && change.Options.Overwrite
	ignoreIfExists := change.Options != nil && change.Options.IgnoreIfExists

	if !exists || overwrite || !ignoreIfExists {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.WrapWithContext("create file", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return errors.WrapWithContext("create file", err)
		}
		f.Close()
	}

	_, err := e.buffers.BufferForPath(ctx, path)
	return err
}

func (e *Executor) renameFile(ctx context.Context, change documentChange) error {
	oldPath := utils.URIToFilePath(change.OldURI)
	newPath := utils.URIToFilePath(change.NewURI)

	if _, err := os.Stat(newPath); err == nil {
		overwrite := change.Options != nil && change.Options.Overwrite
		ignoreIfExists := change.Options != nil && change.Options.IgnoreIfExists
		if !overwrite || ignoreIfExists {
			common.SourceLogger.Warn("rename target %s already exists, skipping", newPath)
			return nil
		}
		if err := os.RemoveAll(newPath); err != nil {
			return errors.WrapWithContext("rename file", err)
		}
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return errors.WrapWithContext("rename file", err)
	}
	_, err := e.buffers.BufferForPath(ctx, newPath)
	return err
}

func (e *Executor) deleteFile(change documentChange) error {
	path := utils.URIToFilePath(change.URI)
	if _, err := os.Stat(path); err != nil {
		ignore := change.Options != nil && change.Options.IgnoreIfNotExists
		if !ignore {
			return errors.NewValidationError("uri", "cannot delete missing file: "+path)
		}
		return nil
	}

	if change.Options != nil && change.Options.Recursive {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

// applyTextEdits applies edits to one buffer, last-to-first, so earlier
// edit positions stay valid while later regions are rewritten.
func (e *Executor) applyTextEdits(ctx context.Context, bufNr int, edits []protocol.TextEdit, enc types.OffsetEncoding) error {
	if len(edits) == 0 {
		return nil
	}

	if err := e.buffers.LoadBuffer(ctx, bufNr); err != nil {
		return errors.WrapWithContext("load buffer", err)
	}

	for i := range edits {
		edits[i].Range = types.NormalizeRange(edits[i].Range)
	}
	sort.SliceStable(edits, func(i, j int) bool {
		return !types.PositionBefore(edits[i].Range.Start, edits[j].Range.Start)
	})

	for _, edit := range edits {
		if err := e.applyTextEdit(ctx, bufNr, edit, enc); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) applyTextEdit(ctx context.Context, bufNr int, edit protocol.TextEdit, enc types.OffsetEncoding) error {
	newText := strings.ReplaceAll(edit.NewText, "\r\n", "\n")
	newText = strings.ReplaceAll(newText, "\r", "\n")
	lines := strings.Split(newText, "\n")

	lineCount, err := e.buffers.LineCount(ctx, bufNr)
	if err != nil {
		return errors.WrapWithContext("edit buffer", err)
	}

	if int(edit.Range.Start.Line)+1 > lineCount {
		return e.buffers.AppendLines(ctx, bufNr, lines)
	}

	start, err := offset.DecodePosition(ctx, e.buffers, bufNr, edit.Range.Start, enc)
	if err != nil {
		return err
	}

	lastLineNr := int(edit.Range.End.Line)
	if lastLineNr > lineCount-1 {
		lastLineNr = lineCount - 1
	}
	lastLine, err := e.buffers.ReadLine(ctx, bufNr, lastLineNr)
	if err != nil {
		return errors.WrapWithContext("edit buffer", err)
	}
	lastLineLen := uint32(len(lastLine))

	var end protocol.Position
	if int(edit.Range.End.Line)+1 > lineCount {
		// Some servers address one line past the end of the buffer.
		end = protocol.Position{Line: uint32(lineCount - 1), Character: lastLineLen}
	} else {
		end, err = offset.DecodePosition(ctx, e.buffers, bufNr, edit.Range.End, enc)
		if err != nil {
			return err
		}
		if end.Character+1 > lastLineLen && strings.HasSuffix(newText, "\n") {
			// A replacement running past the end of a line would otherwise
			// leave an extra empty line behind.
			lines = lines[:len(lines)-1]
		}
		if end.Character > lastLineLen {
			end.Character = lastLineLen
		}
	}

	return e.buffers.SetText(ctx, bufNr, start, end, lines)
}
