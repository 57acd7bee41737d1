package mcpserver

// ContentFormat describes the Markdown source format quire builds from.
const ContentFormat = `# quire content format

Every file ending in ` + "`.md`" + ` or ` + "`.markdown`" + ` under the content directory
becomes one HTML page at the same relative path with an ` + "`.html`" + ` extension.
Every other file is copied unchanged.

## Metadata block

The file may start with a metadata block: ` + "`key: value`" + ` lines, ended by
the first blank line. The block may be wrapped in ` + "`---`" + ` lines.
A line indented by four spaces continues the previous value.

` + "```" + `markdown
title: Weekly notes
description: What happened this week
date: 2025-01-20 12:00
tags: go, web

Body text in Markdown.
` + "```" + `

## Keys

- **title**: shown in the archive, tag pages and the feed. When missing it
  is derived from the file name (` + "`my-first-post.md`" + ` becomes "My First Post").
- **date**: turns the document into an article. Without it the document is
  a plain page. Accepted forms: ` + "`2006-01-02`" + `, ` + "`2006-01-02 15:04`" + `,
  ` + "`2006-01-02 15:04:05`" + ` and RFC 3339.
- **tags**: comma-separated list, lowercased. Empty elements are dropped.
- **description**: summary used by the feed.

Keys are lowercased. Any other key is passed to the template as is.

## Links

Relative links to other Markdown files (` + "`[next](other.md#part)`" + `) are
rewritten to the generated HTML file (` + "`other.html#part`" + `). Links with a
scheme or a host are left untouched.
`
