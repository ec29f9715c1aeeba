package types

// OffsetEncoding is the unit in which a protocol character offset is
// expressed. Declared per backend client.
type OffsetEncoding string

const (
	// OffsetEncodingUTF8 counts UTF-8 code units (bytes).
	OffsetEncodingUTF8 OffsetEncoding = "utf-8"

	// OffsetEncodingUTF16 counts UTF-16 code units. This is the protocol
	// default and must always be supported by servers.
	OffsetEncodingUTF16 OffsetEncoding = "utf-16"

	// OffsetEncodingUTF32 counts UTF-32 code units, i.e. Unicode code
	// points.
	OffsetEncodingUTF32 OffsetEncoding = "utf-32"
)

// ClientName identifies one of the supported backend client ecosystems.
// The set is closed: the dispatcher switches exhaustively over it.
type ClientName string

const (
	ClientNvimLSP ClientName = "nvim-lsp"
	ClientCoc     ClientName = "coc.nvim"
	ClientVimLSP  ClientName = "vim-lsp"
)

// ClientNames lists every supported backend.
var ClientNames = []ClientName{ClientNvimLSP, ClientCoc, ClientVimLSP}

// IsClientName reports whether name belongs to the closed backend set.
func IsClientName(name string) bool {
	for _, n := range ClientNames {
		if string(n) == name {
			return true
		}
	}
	return false
}

// Client describes one attached language client. Descriptors are built
// fresh for every request; attached servers can change between calls.
type Client struct {
	Name ClientName `json:"name"`

	// ID is the backend's own identifier for the client: a numeric id
	// for nvim-lsp, a service id for coc.nvim, a server name for
	// vim-lsp. Kept opaque.
	ID string `json:"id"`

	OffsetEncoding OffsetEncoding `json:"offsetEncoding"`
}

// Encoding returns the declared offset encoding, falling back to the
// protocol default when the backend did not declare one.
func (c Client) Encoding() OffsetEncoding {
	if c.OffsetEncoding == "" {
		return OffsetEncodingUTF16
	}
	return c.OffsetEncoding
}
