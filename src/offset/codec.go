// Package offset converts character positions between the editor's byte
// addressing and the protocol's UTF-8/UTF-16/UTF-32 code-unit addressing.
// The conversions are deliberately permissive: an index landing inside a
// multi-byte scalar rounds down to the previous boundary instead of
// failing, matching editor behavior on malformed server responses.
package offset

import (
	"context"
	"unicode/utf8"

	"go.lsp.dev/protocol"

	"lsp-finder/src/editor"
	"lsp-finder/src/internal/types"
)

// EncodeUTFIndex converts a byte index into line to a code-unit index in
// the given encoding. For utf-8 the conversion is the identity, except
// that index 0 maps to the full byte length of the line; that
// end-of-line sentinel is carried over from editor column semantics.
func EncodeUTFIndex(line string, byteIndex int, enc types.OffsetEncoding) int {
	if enc == "" {
		enc = types.OffsetEncodingUTF16
	}
	if enc == types.OffsetEncodingUTF8 {
		if byteIndex != 0 {
			return byteIndex
		}
		return len(line)
	}

	utf32Index, utf16Index := utfIndex(line, byteIndex)
	if enc == types.OffsetEncodingUTF32 {
		return utf32Index
	}
	return utf16Index
}

// DecodeUTFIndex converts a code-unit index in the given encoding back to
// a byte index into line. Indexes past the end of the line saturate at
// the line's byte length; an index splitting a surrogate pair rounds
// down.
func DecodeUTFIndex(line string, utfIndex int, enc types.OffsetEncoding) int {
	if enc == "" {
		enc = types.OffsetEncodingUTF16
	}
	if enc == types.OffsetEncodingUTF8 {
		if utfIndex != 0 {
			return utfIndex
		}
		return len(line)
	}
	return byteIndex(line, utfIndex, enc == types.OffsetEncodingUTF16)
}

// utfIndex counts UTF-32 and UTF-16 code units in lockstep over the
// scalars whose bytes fit entirely below byteIndex.
func utfIndex(line string, byteIndex int) (utf32Index, utf16Index int) {
	bytes := 0
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		if r == utf8.RuneError && size == 1 {
			// Invalid byte or embedded null, count as one code point
			if bytes+1 > byteIndex {
				return
			}
			bytes++
			i++
			utf32Index++
			utf16Index++
			continue
		}
		if bytes+size > byteIndex {
			return
		}
		bytes += size
		i += size
		utf32Index++
		if r > 0xFFFF {
			// surrogate pair
			utf16Index += 2
		} else {
			utf16Index++
		}
	}
	return
}

// byteIndex walks the line by scalar, accumulating code units, and
// returns the byte offset of the last scalar boundary whose cumulative
// unit count does not exceed target.
func byteIndex(line string, target int, useUTF16 bool) int {
	byteIdx := 0
	units := 0
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		if r == utf8.RuneError && size == 1 {
			// Invalid byte or embedded null, count as one code point
			if units >= target {
				break
			}
			units++
			i++
			byteIdx = i
			continue
		}
		if useUTF16 && r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		if units > target {
			break
		}
		i += size
		byteIdx = i
	}
	return byteIdx
}

// EncodePosition converts an editor position (byte character) on a
// buffer line to a protocol position in the client's encoding.
func EncodePosition(ctx context.Context, buf editor.BufferService, bufNr int, pos protocol.Position, enc types.OffsetEncoding) (protocol.Position, error) {
	line, err := buf.ReadLine(ctx, bufNr, int(pos.Line))
	if err != nil {
		return pos, err
	}
	return protocol.Position{
		Line:      pos.Line,
		Character: uint32(EncodeUTFIndex(line, int(pos.Character), enc)),
	}, nil
}

// DecodePosition converts a protocol position in the client's encoding
// to an editor position with a byte character offset.
func DecodePosition(ctx context.Context, buf editor.BufferService, bufNr int, pos protocol.Position, enc types.OffsetEncoding) (protocol.Position, error) {
	line, err := buf.ReadLine(ctx, bufNr, int(pos.Line))
	if err != nil {
		return pos, err
	}
	return protocol.Position{
		Line:      pos.Line,
		Character: uint32(DecodeUTFIndex(line, int(pos.Character), enc)),
	}, nil
}

// ToUTF16Position re-encodes a protocol position from the client's
// encoding to utf-16 units. Used when splicing lines held as Go strings
// indexed by the patch builder.
func ToUTF16Position(ctx context.Context, buf editor.BufferService, bufNr int, pos protocol.Position, enc types.OffsetEncoding) (protocol.Position, error) {
	decoded, err := DecodePosition(ctx, buf, bufNr, pos, enc)
	if err != nil {
		return pos, err
	}
	return EncodePosition(ctx, buf, bufNr, decoded, types.OffsetEncodingUTF16)
}
