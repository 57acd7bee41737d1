// Package site runs the build pipeline: it classifies the content tree,
// renders documents, the archive, the tag pages and the feed.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/blog"
	"github.com/starford/quire/internal/feed"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/markdown"
	"github.com/starford/quire/internal/metrics"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/render"
	"github.com/starford/quire/internal/storage"
)

// Pipeline stages, in execution order.
const (
	StageOutput    = "output"
	StageContent   = "content"
	StageStatic    = "static"
	StageConfig    = "config"
	StageTemplates = "templates"
	StageDocuments = "documents"
	StageArchive   = "archive"
	StageTags      = "tags"
	StageFeed      = "feed"
	StageIndex     = "index"
)

// Generated artifacts that never count as stale output.
const (
	ArchivePath = "index.html"
	TagsDir     = "tags"
)

// Dirs groups the directories a build reads and writes.
type Dirs struct {
	Input     string
	Output    string
	Templates string
	Static    string
}

// Indexer receives the documents of every successful build.
type Indexer interface {
	Sync(ctx context.Context, docs []models.Document) (index.SyncStats, error)
}

// Options configures one build.
type Options struct {
	Dirs Dirs
	Site models.Site
	// Fallback lets the embedded theme supply missing templates.
	Fallback bool
	// Globals are passed to every template next to site.
	Globals   map[string]any
	Converter *markdown.Converter
	Logger    *slog.Logger
	Recorder  metrics.Recorder
	// Index is optional. Sync failures are logged, not fatal.
	Index Indexer
}

// Result describes a finished build.
type Result struct {
	Articles []models.Document
	Pages    []models.Document
	Tags     []blog.Tag
	Removed  []string
	Duration time.Duration
}

// Documents returns articles followed by pages.
func (r *Result) Documents() []models.Document {
	out := make([]models.Document, 0, len(r.Articles)+len(r.Pages))
	out = append(out, r.Articles...)
	return append(out, r.Pages...)
}

// buildContext holds the state of one build. It is discarded at the end.
type buildContext struct {
	ctx     context.Context
	opts    Options
	site    models.Site
	out     *storage.FS
	env     *render.Environment
	entries []storage.Entry
	result  *Result
}

// Build runs every stage in order and stops at the first failure. Work
// already written to the output directory is left in place.
func Build(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Converter == nil {
		opts.Converter = markdown.New()
	}

	b := &buildContext{ctx: ctx, opts: opts, site: opts.Site, result: &Result{}}
	start := time.Now()
	err := b.run()
	b.result.Duration = time.Since(start)
	opts.Recorder.ObserveBuildDuration(b.result.Duration)

	switch {
	case err == nil:
		opts.Recorder.IncBuildOutcome(metrics.OutcomeSuccess)
		opts.Recorder.SetDocuments(index.KindArticle, len(b.result.Articles))
		opts.Recorder.SetDocuments(index.KindPage, len(b.result.Pages))
		opts.Logger.Info("build: finished",
			slog.Int("articles", len(b.result.Articles)),
			slog.Int("pages", len(b.result.Pages)),
			slog.Int("tags", len(b.result.Tags)),
			slog.Duration("duration", b.result.Duration))
		return b.result, nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		opts.Recorder.IncBuildOutcome(metrics.OutcomeCanceled)
	default:
		opts.Recorder.IncBuildOutcome(metrics.OutcomeFailed)
	}
	return nil, err
}

func (b *buildContext) run() error {
	stages := []struct {
		name string
		fn   func() error
	}{
		{StageOutput, b.ensureOutput},
		{StageContent, b.classifyContent},
		{StageStatic, b.copyStatic},
		{StageConfig, b.validateConfig},
		{StageTemplates, b.loadTemplates},
		{StageDocuments, b.renderDocuments},
		{StageArchive, b.renderArchive},
		{StageTags, b.renderTags},
		{StageFeed, b.renderFeed},
		{StageIndex, b.syncIndex},
	}
	for _, s := range stages {
		if err := b.ctx.Err(); err != nil {
			return &apperr.StageError{Stage: s.name, Err: err}
		}
		start := time.Now()
		err := s.fn()
		b.opts.Recorder.ObserveStageDuration(s.name, time.Since(start))
		if err != nil {
			return &apperr.StageError{Stage: s.name, Err: err}
		}
		b.opts.Logger.Debug("build: stage done", slog.String("stage", s.name), slog.Duration("duration", time.Since(start)))
	}
	return nil
}

func (b *buildContext) ensureOutput() error {
	out, err := storage.NewFS(b.opts.Dirs.Output)
	if err != nil {
		return err
	}
	b.out = out
	return nil
}

// classifyContent mirrors the input tree and removes output that no source,
// static file or generated artifact accounts for.
func (b *buildContext) classifyContent() error {
	entries, err := storage.Mirror(b.opts.Dirs.Input, b.out)
	if err != nil {
		return err
	}
	b.entries = entries

	static, err := staticEntries(b.opts.Dirs.Static)
	if err != nil {
		return err
	}
	keep := storage.NewKeep().
		AddEntries(entries).
		AddEntries(static).
		AddFiles(ArchivePath, feed.Path).
		AddTree(TagsDir)
	removed, err := b.out.Prune("", keep)
	if err != nil {
		return err
	}
	for _, p := range removed {
		b.opts.Logger.Debug("build: removed stale output", slog.String("path", p))
	}
	b.result.Removed = removed
	return nil
}

// staticEntries lists the static tree with every path copied verbatim.
func staticEntries(dir string) ([]storage.Entry, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := storage.Scan(dir)
	if errors.Is(err, apperr.ErrInputMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Dest = entries[i].Source
	}
	return entries, nil
}

func (b *buildContext) copyStatic() error {
	if b.opts.Dirs.Static == "" {
		return nil
	}
	_, err := storage.CopyTree(b.opts.Dirs.Static, b.out)
	return err
}

func (b *buildContext) validateConfig() error {
	if err := b.site.Validate(); err != nil {
		return fmt.Errorf("%w: main: %v", apperr.ErrConfig, err)
	}
	return nil
}

func (b *buildContext) loadTemplates() error {
	b.env = render.New(render.Options{
		Dir:      b.opts.Dirs.Templates,
		Fallback: b.opts.Fallback,
		Site:     b.site,
		Globals:  b.opts.Globals,
	})
	return b.env.Check(render.Required...)
}

func (b *buildContext) renderDocuments() error {
	for _, e := range b.entries {
		if e.Kind != storage.KindConvertible {
			continue
		}
		doc, err := b.convert(e)
		if err != nil {
			return err
		}

		tpl := render.Page
		if doc.IsArticle() {
			tpl = render.Article
			b.result.Articles = append(b.result.Articles, doc)
		} else {
			b.result.Pages = append(b.result.Pages, doc)
		}
		if err := b.write(tpl, doc.Dest, doc.Context()); err != nil {
			return err
		}
		b.opts.Logger.Debug("build: wrote document", slog.String("path", doc.Dest), slog.String("template", tpl))
	}
	blog.SortArticles(b.result.Articles)
	return nil
}

func (b *buildContext) convert(e storage.Entry) (models.Document, error) {
	src, err := os.ReadFile(filepath.Join(b.opts.Dirs.Input, e.Source))
	if err != nil {
		return models.Document{}, fmt.Errorf("read %s: %w", e.Source, err)
	}
	content, meta, err := b.opts.Converter.Convert(src)
	if err != nil {
		return models.Document{}, &apperr.ContentError{Path: e.Source, Reason: "cannot convert document", Err: err}
	}
	if meta.Get("title") == "" {
		meta["title"] = models.String(titleFromPath(e.Source))
	}
	return models.Document{Source: e.Source, Dest: e.Dest, Content: content, Meta: meta}, nil
}

func (b *buildContext) renderArchive() error {
	return b.write(render.Archive, ArchivePath, map[string]any{
		"archive": blog.Archive(b.result.Articles),
	})
}

func (b *buildContext) renderTags() error {
	if err := b.out.Mkdir(TagsDir); err != nil {
		return err
	}
	tags := blog.Tags(b.result.Articles)
	b.result.Tags = tags

	tagIndex := filepath.Join(TagsDir, "index.html")
	if err := b.write(render.Tags, tagIndex, map[string]any{"tags": blog.Index(tags)}); err != nil {
		return err
	}
	keep := storage.NewKeep().AddFiles(tagIndex)
	for _, t := range tags {
		ctx := map[string]any{"tag": t.Name, "archive": blog.Archive(t.Articles)}
		if err := b.write(render.Tag, t.Path(), ctx); err != nil {
			return err
		}
		keep.AddFiles(t.Path())
	}
	removed, err := b.out.Prune(TagsDir, keep)
	if err != nil {
		return err
	}
	b.result.Removed = append(b.result.Removed, removed...)
	return nil
}

func (b *buildContext) renderFeed() error {
	data, err := feed.Atom(b.site, b.result.Articles)
	if err != nil {
		return err
	}
	return b.out.Write(feed.Path, data)
}

func (b *buildContext) syncIndex() error {
	if b.opts.Index == nil {
		return nil
	}
	stats, err := b.opts.Index.Sync(b.ctx, b.result.Documents())
	if err != nil {
		b.opts.Logger.Warn("build: index sync failed, site output is complete", slog.String("error", err.Error()))
		return nil
	}
	b.opts.Logger.Debug("build: index synced",
		slog.Int("indexed", stats.Indexed),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("removed", stats.Removed))
	return nil
}

func (b *buildContext) write(tpl, dest string, ctx map[string]any) error {
	data, err := b.env.Render(tpl, ctx)
	if err != nil {
		return err
	}
	return b.out.Write(dest, data)
}
