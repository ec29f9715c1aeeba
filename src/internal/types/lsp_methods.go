package types

// LSP language feature methods served by the finder.
const (
	MethodTextDocumentDeclaration          = "textDocument/declaration"
	MethodTextDocumentDefinition           = "textDocument/definition"
	MethodTextDocumentTypeDefinition       = "textDocument/typeDefinition"
	MethodTextDocumentImplementation       = "textDocument/implementation"
	MethodTextDocumentReferences           = "textDocument/references"
	MethodTextDocumentDocumentSymbol       = "textDocument/documentSymbol"
	MethodWorkspaceSymbol                  = "workspace/symbol"
	MethodWorkspaceSymbolResolve           = "workspaceSymbol/resolve"
	MethodTextDocumentPrepareCallHierarchy = "textDocument/prepareCallHierarchy"
	MethodCallHierarchyIncomingCalls       = "callHierarchy/incomingCalls"
	MethodCallHierarchyOutgoingCalls       = "callHierarchy/outgoingCalls"
	MethodTextDocumentPrepareTypeHierarchy = "textDocument/prepareTypeHierarchy"
	MethodTypeHierarchySupertypes          = "typeHierarchy/supertypes"
	MethodTypeHierarchySubtypes            = "typeHierarchy/subtypes"
	MethodTextDocumentCodeAction           = "textDocument/codeAction"
	MethodCodeActionResolve                = "codeAction/resolve"
	MethodWorkspaceExecuteCommand          = "workspace/executeCommand"
	MethodDenoVirtualTextDocument          = "deno/virtualTextDocument"
)

var supportedMethods = map[string]struct{}{
	MethodTextDocumentDeclaration:          {},
	MethodTextDocumentDefinition:           {},
	MethodTextDocumentTypeDefinition:       {},
	MethodTextDocumentImplementation:       {},
	MethodTextDocumentReferences:           {},
	MethodTextDocumentDocumentSymbol:       {},
	MethodWorkspaceSymbol:                  {},
	MethodWorkspaceSymbolResolve:           {},
	MethodTextDocumentPrepareCallHierarchy: {},
	MethodCallHierarchyIncomingCalls:       {},
	MethodCallHierarchyOutgoingCalls:       {},
	MethodTextDocumentPrepareTypeHierarchy: {},
	MethodTypeHierarchySupertypes:          {},
	MethodTypeHierarchySubtypes:            {},
	MethodTextDocumentCodeAction:           {},
	MethodCodeActionResolve:                {},
	MethodWorkspaceExecuteCommand:          {},
	MethodDenoVirtualTextDocument:          {},
}

// IsSupportedMethod reports whether method belongs to the closed set of
// methods the finder can dispatch.
func IsSupportedMethod(method string) bool {
	_, ok := supportedMethods[method]
	return ok
}
