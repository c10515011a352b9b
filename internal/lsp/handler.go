// Package lsp implements a language server over spesh IR text: it
// parses and optimizes whatever is open in the editor and reports
// parse errors plus the optimizer's own advisory findings (a method
// lookup that stayed polymorphic, a type check left indeterminate, a
// block pruned as unreachable) as diagnostics.
package lsp

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"spesh/internal/dslparser"
	"spesh/internal/errors"
	"spesh/internal/oracle"
	"spesh/internal/spesh"
)

// Handler implements the LSP server handlers for spesh IR documents.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	model   spesh.ObjectModel
}

// NewHandler creates a new Handler backed by an empty object model:
// every findmeth in an edited document reports as polymorphic, and
// every istype reports as indeterminate unless both operands have the
// same known type.
func NewHandler() *Handler {
	return &Handler{
		content: make(map[string]string),
		model:   oracle.New(),
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("spesh-lsp Initialize called")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("spesh-lsp Initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("spesh-lsp Shutdown")
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Printf("opened %s\n", params.TextDocument.URI)
	return h.refresh(ctx, params.TextDocument.URI)
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Printf("changed %s\n", params.TextDocument.URI)
	return h.refresh(ctx, params.TextDocument.URI)
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	delete(h.content, path)
	h.mu.Unlock()
	return nil
}

func (h *Handler) refresh(ctx *glsp.Context, rawURI string) error {
	path, err := uriToPath(rawURI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", rawURI, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	text := string(content)

	h.mu.Lock()
	h.content[path] = text
	h.mu.Unlock()

	diags := Diagnose(path, text, h.model)
	sendDiagnostics(ctx, rawURI, diags)
	return nil
}

// Diagnose runs the full parse/build/optimize pipeline over source and
// converts every resulting DiagError plus pruned-block findings into
// LSP diagnostics. It is exported so the CLI and tests can reuse it
// without a running LSP session.
func Diagnose(path, source string, model spesh.ObjectModel) []protocol.Diagnostic {
	res := dslparser.Parse(path, source, model)

	var out []protocol.Diagnostic
	for _, d := range res.Diags {
		out = append(out, toProtocolDiagnostic(d))
	}
	if res.Graph == nil {
		return out
	}

	before := res.Graph.NumBBs
	spesh.Optimize(res.Graph)
	if pruned := before - res.Graph.NumBBs; pruned > 0 {
		d := errors.UnreachableBlockPruned(fmt.Sprintf("%d block(s)", pruned), errors.Position{Line: 1, Column: 1})
		out = append(out, toProtocolDiagnostic(d))
	}
	for cur := res.Graph.Entry; cur != nil; cur = cur.LinearNext {
		for ins := cur.FirstIns; ins != nil; ins = ins.Next {
			switch ins.Info.Opcode {
			case spesh.OpSpFindmeth:
				d := errors.PolymorphicCallsite(res.Graph.GetString(ins.Operands[2]), errors.Position{Line: 1, Column: 1})
				out = append(out, toProtocolDiagnostic(d))
			case spesh.OpIsType:
				out = append(out, toProtocolDiagnostic(errors.IndeterminateTypeCheck(errors.Position{Line: 1, Column: 1})))
			}
		}
	}
	return out
}

func toProtocolDiagnostic(d errors.DiagError) protocol.Diagnostic {
	sev := protocol.DiagnosticSeverityError
	if errors.IsWarning(d.Code) {
		sev = protocol.DiagnosticSeverityWarning
	}
	line := uint32(0)
	if d.Position.Line > 0 {
		line = uint32(d.Position.Line - 1)
	}
	col := uint32(0)
	if d.Position.Column > 0 {
		col = uint32(d.Position.Column - 1)
	}
	length := uint32(d.Length)
	if length == 0 {
		length = 1
	}
	message := fmt.Sprintf("[%s] %s", d.Code, d.Message)
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + length},
		},
		Severity: &sev,
		Message:  message,
		Source:   strPtr("spesh"),
	}
}

func sendDiagnostics(ctx *glsp.Context, uri string, diags []protocol.Diagnostic) {
	if diags == nil {
		diags = []protocol.Diagnostic{}
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }

func strPtr(s string) *string { return &s }
