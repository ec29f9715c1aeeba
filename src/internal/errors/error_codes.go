// Package errors provides unified error types and codes.
package errors

// Standard JSON-RPC error codes
const (
	ParseError     = -32700 // Invalid JSON was received by the server
	InvalidRequest = -32600 // The JSON sent is not a valid Request object
	MethodNotFound = -32601 // The method does not exist / is not available
	InvalidParams  = -32602 // Invalid method parameter(s)
	InternalError  = -32603 // Internal JSON-RPC error
)

// LSP-specific error codes as defined in the LSP specification
const (
	ServerNotInitialized = -32002 // Server not initialized
	UnknownErrorCode     = -32001 // Unknown error code
	RequestCancelled     = -32800 // Request was cancelled
	ContentModified      = -32801 // Content was modified
	RequestFailed        = -32803 // Request failed with unrecoverable error
)

// Finder custom error codes (range: -33000 to -33099)
const (
	// Connection and transport errors
	ConnectionFailure  = -33001 // Failed to reach a backend client
	CommunicationError = -33002 // Transport error talking to a backend client

	// Timeout errors
	OperationTimeout = -33010 // Client request timeout

	// Validation errors
	InvalidURI           = -33020 // Invalid URI format
	InvalidPosition      = -33021 // Invalid position (line/character)
	MissingParameter     = -33022 // Required parameter missing
	InvalidParameterType = -33023 // Parameter has invalid type

	// Feature and capability errors
	UnsupportedMethod = -33030 // Method not supported by any client
	UnknownClientName = -33031 // Backend client name outside the closed set

	// Aggregation errors
	NoActiveClients  = -33050 // No client attached to the buffer
	AggregationError = -33051 // Error during result aggregation
	NoValidResults   = -33052 // No valid results from any client

	// Resolve-at-use errors
	ResolveFailure = -33060 // A */resolve round-trip returned nothing

	// Configuration errors
	ConfigurationError = -33070 // Configuration error
)

var errorCodeMessages = map[int]string{
	ParseError:           "Parse error",
	InvalidRequest:       "Invalid Request",
	MethodNotFound:       "Method not found",
	InvalidParams:        "Invalid params",
	InternalError:        "Internal error",
	ServerNotInitialized: "Server not initialized",
	UnknownErrorCode:     "Unknown error code",
	RequestCancelled:     "Request cancelled",
	ContentModified:      "Content modified",
	RequestFailed:        "Request failed",
	ConnectionFailure:    "Connection failure",
	CommunicationError:   "Communication error",
	OperationTimeout:     "Operation timeout",
	InvalidURI:           "Invalid URI",
	InvalidPosition:      "Invalid position",
	MissingParameter:     "Missing parameter",
	InvalidParameterType: "Invalid parameter type",
	UnsupportedMethod:    "Unsupported method",
	UnknownClientName:    "Unknown client name",
	NoActiveClients:      "No active clients",
	AggregationError:     "Aggregation error",
	NoValidResults:       "No valid results",
	ResolveFailure:       "Resolve failure",
	ConfigurationError:   "Configuration error",
}

// GetErrorCodeMessage returns the standard message for a given error code
func GetErrorCodeMessage(code int) string {
	if msg, ok := errorCodeMessages[code]; ok {
		return msg
	}
	return "Unknown error"
}
