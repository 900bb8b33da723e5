package handlers

import (
	"context"
	"fmt"
)

// ParseResult is the external markup parser's output (spec.md §4.8: "call
// external parse(bytes) -> AST"). Only the fields Handlers needs are
// modeled; the AST itself is opaque to this package.
type ParseResult struct {
	Title string
	AST   any
}

// Parser is the external markup-parsing collaborator.
type Parser interface {
	Parse(data []byte) (ParseResult, error)
}

// DynamicRequest is passed into the sandbox for .lua-style dynamic pages
// (spec.md §4.8).
type DynamicRequest struct {
	URL     string
	Method  string
	Params  map[string]string
	Headers map[string]string
	Cookies map[string]string
	Body    []byte
}

// Sandbox is the restricted execution environment (spec.md C9).
type Sandbox interface {
	Execute(ctx context.Context, code string, req DynamicRequest) (ok bool, output string, errMsg string)
}

// ProcessedResult is what Handlers hands back to the Loader for display.
type ProcessedResult struct {
	Kind  ContentKind
	Title string
	AST   any
	Text  string
}

// Processor runs the markup/dynamic/text pipeline over fetched content
// (spec.md §4.8).
type Processor struct {
	parser  Parser
	sandbox Sandbox
}

// NewProcessor creates a content processor backed by parser and sandbox.
func NewProcessor(parser Parser, sandbox Sandbox) *Processor {
	return &Processor{parser: parser, sandbox: sandbox}
}

// Process dispatches content by kind, producing a uniform result.
func (p *Processor) Process(ctx context.Context, kind ContentKind, content []byte, req DynamicRequest) (ProcessedResult, error) {
	switch kind {
	case KindMarkup, KindHTML:
		return p.processMarkup(content)
	case KindDynamic:
		return p.processDynamic(ctx, content, req)
	default:
		return ProcessedResult{Kind: KindText, Text: string(content)}, nil
	}
}

func (p *Processor) processMarkup(content []byte) (ProcessedResult, error) {
	if p.parser == nil {
		return ProcessedResult{}, fmt.Errorf("handlers: no markup parser configured")
	}
	result, err := p.parser.Parse(content)
	if err != nil {
		return ProcessedResult{}, fmt.Errorf("handlers: parse error: %w", err)
	}
	return ProcessedResult{Kind: KindMarkup, Title: result.Title, AST: result.AST}, nil
}

func (p *Processor) processDynamic(ctx context.Context, code []byte, req DynamicRequest) (ProcessedResult, error) {
	if p.sandbox == nil {
		return ProcessedResult{}, fmt.Errorf("handlers: no sandbox configured")
	}
	ok, output, errMsg := p.sandbox.Execute(ctx, string(code), req)
	if !ok {
		return ProcessedResult{}, fmt.Errorf("handlers: sandbox error: %s", errMsg)
	}

	if p.parser != nil {
		if result, err := p.parser.Parse([]byte(output)); err == nil {
			return ProcessedResult{Kind: KindMarkup, Title: result.Title, AST: result.AST}, nil
		}
	}
	return ProcessedResult{Kind: KindText, Text: output}, nil
}
