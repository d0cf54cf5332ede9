// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes cheat-sheet editing tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cheatsheet/internal/api"
	"github.com/starford/cheatsheet/internal/apperr"
	"github.com/starford/cheatsheet/internal/confirm"
	"github.com/starford/cheatsheet/internal/models"
	"github.com/starford/cheatsheet/internal/sheetservice"
)

// BlockFormatURI is the resource holding BlockFormatContract.
const BlockFormatURI = "cheatsheet://block-format"

// Server wraps the MCP server with cheat-sheet tools.
type Server struct {
	mcp *server.MCPServer
	svc *sheetservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *sheetservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Cheatsheet",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Return the whole sheet: a list of pages, each with three columns of blocks."),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Append a default block to a column. A separator is inserted first when "+
			"the column already has blocks. Returns the new block's position."),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("Page index (0-based)")),
		mcp.WithNumber("column", mcp.Required(), mcp.Description("Column index 0-2")),
	), s.addBlock)

	s.mcp.AddTool(mcp.NewTool("edit_block",
		mcp.WithDescription("Replace the block at a position. Read the block contract first via "+
			"get_block_contract or the "+BlockFormatURI+" resource."),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("Page index (0-based)")),
		mcp.WithNumber("column", mcp.Required(), mcp.Description("Column index 0-2")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Block index within the column")),
		mcp.WithString("block", mcp.Required(), mcp.Description("Block object as JSON")),
	), s.editBlock)

	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete the block at a position. Requires confirm=true."),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("Page index (0-based)")),
		mcp.WithNumber("column", mcp.Required(), mcp.Description("Column index 0-2")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Block index within the column")),
		mcp.WithBoolean("confirm", mcp.Description("Set to true to confirm the deletion")),
	), s.deleteBlock)

	s.mcp.AddTool(mcp.NewTool("add_page",
		mcp.WithDescription("Append an empty page with three columns."),
	), s.addPage)

	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block before or after another block, or to the end of a column "+
			"when to_index is omitted."),
		mcp.WithNumber("from_page", mcp.Required()),
		mcp.WithNumber("from_column", mcp.Required()),
		mcp.WithNumber("from_index", mcp.Required()),
		mcp.WithNumber("to_page", mcp.Required()),
		mcp.WithNumber("to_column", mcp.Required()),
		mcp.WithNumber("to_index", mcp.Description("Target block index; omit to append to the column")),
		mcp.WithBoolean("insert_after", mcp.Description("Insert after the target block instead of before")),
	), s.moveBlock)

	s.mcp.AddTool(mcp.NewTool("distribute",
		mcp.WithDescription("Repack every block into columns and pages by rendered height. "+
			"Replaces the current arrangement; requires confirm=true."),
		mcp.WithBoolean("confirm", mcp.Description("Set to true to confirm the rearrangement")),
	), s.distribute)

	s.mcp.AddTool(mcp.NewTool("export_document",
		mcp.WithDescription("Return the sheet in the indented .cheat-sheet file format."),
	), s.exportDocument)

	s.mcp.AddTool(mcp.NewTool("import_document",
		mcp.WithDescription("Replace the sheet with a .cheat-sheet file given inline, as a data: URI "+
			"or as an http(s) URL. Requires confirm=true."),
		mcp.WithString("content", mcp.Description("File content (JSON)")),
		mcp.WithString("url", mcp.Description("data: URI or http(s) URL of the file")),
		mcp.WithBoolean("confirm", mcp.Description("Set to true to confirm the replacement")),
	), s.importDocument)

	s.mcp.AddTool(mcp.NewTool("get_block_contract",
		mcp.WithDescription("Returns the block format contract. "+
			"Call this before editing blocks to ensure correct structure."),
	), s.getBlockContract)

	// Resource: block format contract.
	s.mcp.AddResource(
		mcp.NewResource(BlockFormatURI, "Block Format Contract",
			mcp.WithResourceDescription("Fields and rules of a cheat-sheet block."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBlockFormatResource,
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

func confirmer(req mcp.CallToolRequest) confirm.Confirmer {
	if req.GetBool("confirm", false) {
		return confirm.Always
	}
	return confirm.Never
}

func position(req mcp.CallToolRequest, prefix string) (models.Position, error) {
	page, err := req.RequireInt(prefix + "page")
	if err != nil {
		return models.Position{}, err
	}
	col, err := req.RequireInt(prefix + "column")
	if err != nil {
		return models.Position{}, err
	}
	idx, err := req.RequireInt(prefix + "index")
	if err != nil {
		return models.Position{}, err
	}
	return models.Position{Page: page, Column: col, Index: idx}, nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, rev := s.svc.Snapshot()
	return jsonResult(map[string]any{
		"revision": rev,
		"pages":    doc.Pages,
	}), nil
}

func (s *Server) addBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := req.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	col, err := req.RequireInt("column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.svc.ColumnExists(page, col) {
		return mcp.NewToolResultError(fmt.Sprintf("no column %d on page %d", col, page)), nil
	}
	pos, err := s.svc.AddBlock(ctx, page, col)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(pos), nil
}

func (s *Server) editBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos, err := position(req, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("block")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var in api.BlockRequest
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid block JSON: %v", err)), nil
	}
	if err := in.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid block: %v", err)), nil
	}
	if !s.svc.Exists(pos) {
		return mcp.NewToolResultError(fmt.Sprintf("no block at %s", pos)), nil
	}
	b := models.Normalize(in.Block())
	if err := s.svc.EditBlock(ctx, pos, b); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(b), nil
}

func (s *Server) deleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos, err := position(req, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.svc.Exists(pos) {
		return mcp.NewToolResultError(fmt.Sprintf("no block at %s", pos)), nil
	}
	ok, err := s.svc.DeleteBlock(ctx, pos, confirmer(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("not deleted: pass confirm=true"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", pos)), nil
}

func (s *Server) addPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := s.svc.AddPage(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added page %d", idx)), nil
}

func (s *Server) moveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := position(req, "from_")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.svc.Exists(from) {
		return mcp.NewToolResultError(fmt.Sprintf("no block at %s", from)), nil
	}
	toPage, err := req.RequireInt("to_page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toCol, err := req.RequireInt("to_column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if toIdx, idxErr := req.RequireInt("to_index"); idxErr == nil {
		to := models.Position{Page: toPage, Column: toCol, Index: toIdx}
		if !s.svc.Exists(to) {
			return mcp.NewToolResultError(fmt.Sprintf("no block at %s", to)), nil
		}
		err = s.svc.MoveBlock(ctx, from, to, req.GetBool("insert_after", false))
	} else {
		if !s.svc.ColumnExists(toPage, toCol) {
			return mcp.NewToolResultError(fmt.Sprintf("no column %d on page %d", toCol, toPage)), nil
		}
		err = s.svc.MoveBlockToColumnEnd(ctx, from, toPage, toCol)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("moved block from %s", from)), nil
}

func (s *Server) distribute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if len(s.svc.Document().ContentBlocks()) == 0 {
		return mcp.NewToolResultText("nothing to distribute"), nil
	}
	ok, err := s.svc.Distribute(ctx, confirmer(req))
	switch {
	case errors.Is(err, apperr.ErrBusy):
		return mcp.NewToolResultError("a distribution is already running"), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	case !ok:
		return mcp.NewToolResultError("not distributed: pass confirm=true"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("distributed into %d pages", len(s.svc.Document().Pages))), nil
}

func (s *Server) exportDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.svc.Export()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getBlockContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BlockFormatContract), nil
}

func (s *Server) readBlockFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      BlockFormatURI,
			MIMEType: "text/markdown",
			Text:     BlockFormatContract,
		},
	}, nil
}
