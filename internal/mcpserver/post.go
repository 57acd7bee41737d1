package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/quire/internal/markdown"
	"github.com/starford/quire/internal/storage"
)

const postDateLayout = "2006-01-02 15:04"

type post struct {
	Title       string
	Description string
	Date        time.Time
	Tags        []string
	Body        string
}

// Source renders the post as a Markdown document with a metadata block.
func (p post) Source() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "title: %s\n", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", p.Description)
	}
	fmt.Fprintf(&b, "date: %s\n", p.Date.Format(postDateLayout))
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "tags: %s\n", strings.Join(p.Tags, ", "))
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(p.Body))
	b.WriteString("\n")
	return []byte(b.String())
}

func (s *Server) createPost(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.content == nil {
		return mcp.NewToolResultError(errNoContentDir.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !storage.IsMarkdown(path) {
		return mcp.NewToolResultError(fmt.Sprintf("path must end with .md or .markdown: %s", path)), nil
	}
	if strings.ContainsAny(title, "\r\n") {
		return mcp.NewToolResultError("title must be a single line"), nil
	}

	p := post{
		Title:       title,
		Description: strings.Join(strings.Fields(req.GetString("description", "")), " "),
		Date:        time.Now().Truncate(time.Minute),
		Tags:        markdown.ParseTags(req.GetString("tags", "")),
		Body:        body,
	}
	if raw := req.GetString("date", ""); raw != "" {
		p.Date, err = markdown.ParseDate(raw, time.Local)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid date %q: %v", raw, err)), nil
		}
	}

	if _, readErr := s.content.Read(path); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("post already exists: %s", path)), nil
	} else if !errors.Is(readErr, fs.ErrNotExist) {
		return mcp.NewToolResultError(readErr.Error()), nil
	}

	if err := s.content.Write(path, p.Source()); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}
