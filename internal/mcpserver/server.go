// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes namohub tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/namohub/internal/apperr"
	"github.com/starford/namohub/internal/decode"
	"github.com/starford/namohub/internal/itemservice"
	"github.com/starford/namohub/internal/models"
	"github.com/starford/namohub/internal/views"
)

// ContractURI is the resource URI of the item format contract.
const ContractURI = "namohub://item-format"

// Server wraps the MCP server with namohub tools.
type Server struct {
	mcp *server.MCPServer
	svc *itemservice.Service
}

// New creates a new MCP server with all namohub tools registered.
func New(svc *itemservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"namohub",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("classify_text",
		mcp.WithDescription("Classify free text into nature, domain, status and a completeness score."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to classify")),
	), s.classifyText)

	s.mcp.AddTool(mcp.NewTool("list_items",
		mcp.WithDescription("List items, optionally filtered by nature, domain, status and a text query."),
		mcp.WithString("nature", mcp.Description("Blueprint, Solution or All")),
		mcp.WithString("domain", mcp.Description("Technical, Business, Process, Research or All")),
		mcp.WithString("status", mcp.Description("Draft, Reviewed, Final or All")),
		mcp.WithString("query", mcp.Description("Case-insensitive substring of title and content")),
	), s.listItems)

	s.mcp.AddTool(mcp.NewTool("get_item",
		mcp.WithDescription("Get a single item by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	), s.getItem)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Full-text search through item titles, content and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("create_item",
		mcp.WithDescription("Create a new item. Nature, domain and status default to the classifier's "+
			"verdict on the content; completeness is always computed. Read the contract first via "+
			"the get_item_contract tool or the "+ContractURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Item title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Item body text")),
		mcp.WithString("author", mcp.Description("Optional author")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("nature", mcp.Description("Blueprint or Solution")),
		mcp.WithString("domain", mcp.Description("Technical, Business, Process or Research")),
		mcp.WithString("status", mcp.Description("Draft, Reviewed or Final")),
	), s.createItem)

	s.mcp.AddTool(mcp.NewTool("set_item_status",
		mcp.WithDescription("Move an item to another status."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Draft, Reviewed or Final")),
	), s.setItemStatus)

	s.mcp.AddTool(mcp.NewTool("import_items",
		mcp.WithDescription("Replace the whole collection with an imported JSON or YAML array of items. "+
			"Pass the document inline or as a source (http(s) URL or data: URI). "+
			"The import is aborted when any record is rejected."),
		mcp.WithString("document", mcp.Description("Inline JSON or YAML document")),
		mcp.WithString("source", mcp.Description("http(s) URL or data: URI to read the document from")),
		mcp.WithString("format", mcp.Description("json or yaml; detected when omitted")),
		mcp.WithBoolean("dry_run", mcp.Description("Only report the normalization outcome")),
	), s.importItems)

	s.mcp.AddTool(mcp.NewTool("get_item_contract",
		mcp.WithDescription("Returns the namohub item format contract. "+
			"Call this before creating or importing items to ensure correct structure."),
	), s.getItemContract)

	// Resource: item format contract.
	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Item Format Contract",
			mcp.WithResourceDescription("Item record format accepted by import and produced by export."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readItemFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) classifyText(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Classify(text)), nil
}

func (s *Server) listItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.List(ctx, views.Filter{
		Nature: req.GetString("nature", ""),
		Domain: req.GetString("domain", ""),
		Status: req.GetString("status", ""),
		Text:   req.GetString("query", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items), nil
}

func (s *Server) getItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	it, err := s.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(it), nil
}

func (s *Server) searchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) createItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	it, err := s.svc.Create(ctx, itemservice.CreateInput{
		Title:   title,
		Content: content,
		Author:  req.GetString("author", ""),
		Tags:    req.GetString("tags", ""),
		Nature:  models.Nature(req.GetString("nature", "")),
		Domain:  models.Domain(req.GetString("domain", "")),
		Status:  models.Status(req.GetString("status", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(it), nil
}

func (s *Server) setItemStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	it, err := s.svc.SetStatus(ctx, id, models.Status(status))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(it), nil
}

func (s *Server) importItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := req.GetString("document", "")
	source := req.GetString("source", "")
	format := decode.Format(req.GetString("format", ""))

	var data []byte
	switch {
	case doc != "" && source != "":
		return mcp.NewToolResultError("pass either document or source, not both"), nil
	case doc != "":
		data = []byte(doc)
	case source != "":
		fetched, detected, err := fetchDocument(source)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data = fetched
		if format == decode.FormatAuto {
			format = detected
		}
	default:
		return mcp.NewToolResultError("document or source is required"), nil
	}

	if req.GetBool("dry_run", false) {
		out, err := s.svc.Preview(ctx, data, format)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(out), nil
	}

	out, err := s.svc.Import(ctx, data, format, "")
	if err != nil {
		if errors.Is(err, apperr.ErrImportRejected) {
			res := jsonResult(out)
			res.IsError = true
			return res, nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out), nil
}

func (s *Server) getItemContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ItemFormatContract), nil
}

func (s *Server) readItemFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     ItemFormatContract,
		},
	}, nil
}
