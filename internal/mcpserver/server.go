// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes quire build and index tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/quire/internal/blog"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/site"
	"github.com/starford/quire/internal/storage"
)

const (
	defaultLimit     = 20
	contentFormatURI = "quire://content-format"
)

// BuildFunc runs one full build of the site.
type BuildFunc func(ctx context.Context) (*site.Result, error)

// Server wraps the MCP server with the quire tools.
type Server struct {
	mcp     *server.MCPServer
	idx     index.Reader
	build   BuildFunc
	content *storage.FS
}

// New creates a new MCP server with all tools registered. content is the
// input directory posts are written to.
func New(idx index.Reader, build BuildFunc, content *storage.FS, version string) *Server {
	s := &Server{idx: idx, build: build, content: content}

	s.mcp = server.NewMCPServer(
		"quire",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("build_site",
		mcp.WithDescription("Rebuild the whole site and refresh the search index. "+
			"Returns the number of articles and pages written and the tag counts."),
	), s.buildSite)

	s.mcp.AddTool(mcp.NewTool("search_site",
		mcp.WithDescription("Full-text search through the titles, tags and bodies of built documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchSite)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List articles newest first, optionally only those carrying a tag."),
		mcp.WithString("tag", mcp.Description("Optional tag filter")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of articles (default 50)")),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List tags with their article counts, most used first."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_content_format",
		mcp.WithDescription("Returns the source format of quire documents. "+
			"Call this before create_post."),
	), s.getContentFormat)

	s.mcp.AddTool(mcp.NewTool("create_post",
		mcp.WithDescription("Create a new Markdown article in the content directory. "+
			"The metadata block is generated from the arguments."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new post (must end with .md)")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Post title")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Markdown body without metadata")),
		mcp.WithString("date", mcp.Description("Publication date, e.g. 2025-01-20 12:00 (default now)")),
		mcp.WithString("description", mcp.Description("Optional one-line summary")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tags")),
	), s.createPost)

	s.mcp.AddResource(
		mcp.NewResource(contentFormatURI, "Content Format",
			mcp.WithResourceDescription("Markdown source format with its metadata block."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormatResource,
	)

	return s
}

// Serve runs the stdio transport on in and out until ctx is cancelled or
// in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer, logger *slog.Logger) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type buildSummary struct {
	Articles int               `json:"articles"`
	Pages    int               `json:"pages"`
	Tags     []models.TagCount `json:"tags"`
	Removed  []string          `json:"removed,omitempty"`
	Duration string            `json:"duration"`
}

func (s *Server) buildSite(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.build(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(buildSummary{
		Articles: len(res.Articles),
		Pages:    len(res.Pages),
		Tags:     blog.Counts(res.Tags),
		Removed:  res.Removed,
		Duration: res.Duration.String(),
	})
}

func (s *Server) searchSite(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.idx.Search(query, req.GetInt("limit", defaultLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}
	return jsonResult(results)
}

func (s *Server) listArticles(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	articles, err := s.idx.Articles(req.GetString("tag", ""), req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(articles)
}

func (s *Server) listTags(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.idx.Tags()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tags)
}

func (s *Server) getContentFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentFormat), nil
}

func (s *Server) readContentFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contentFormatURI,
			MIMEType: "text/markdown",
			Text:     ContentFormat,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

var errNoContentDir = errors.New("no content directory configured")
