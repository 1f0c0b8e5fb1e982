// Package server implements the newline-delimited JSON-RPC 2.0 interface
// spoken over stdin/stdout, plus the registry of live indexes it shares
// with watch mode. Logs go to stderr so stdout stays protocol-clean.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/repowiki/internal/analyzer"
	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/index"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
	"git.home.luguber.info/inful/repowiki/internal/publish"
	"git.home.luguber.info/inful/repowiki/internal/slides"
	"git.home.luguber.info/inful/repowiki/internal/summarize"
	"git.home.luguber.info/inful/repowiki/internal/wiki"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server handles JSON-RPC requests sequentially over a line-oriented
// stream.
type Server struct {
	cfg      *config.Config
	registry *Registry
	metrics  metrics.Recorder
}

// New constructs a Server sharing registry with the caller. A nil
// registry gets a fresh one sized per [server].registry-size.
func New(cfg *config.Config, registry *Registry, rec metrics.Recorder) (*Server, error) {
	if registry == nil {
		var err error
		registry, err = NewRegistry(cfg.Server.RegistrySize)
		if err != nil {
			return nil, err
		}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Server{cfg: cfg, registry: registry, metrics: rec}, nil
}

// Registry exposes the index registry so watch mode can feed it.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Serve reads newline-delimited requests from r until EOF or ctx
// cancellation, writing one response line per request. Requests are
// handled one at a time.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	slog.Info("JSON-RPC server listening on stdio")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := writeResponse(w, s.handleLine(ctx, line)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request stream: %w", err)
	}
	slog.Debug("Request stream closed")
	return nil
}

func writeResponse(w io.Writer, resp response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

func (s *Server) handleLine(ctx context.Context, line []byte) response {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return errorResponse(nil, codeParseError, fmt.Sprintf("parse error: %v", err))
	}

	slog.Debug("Request received", slog.String("method", req.Method))
	result, rpcErr := s.dispatch(ctx, req.Method, req.Params)
	if rpcErr != nil {
		slog.Error("Request failed",
			slog.String("method", req.Method),
			slog.String("message", rpcErr.Message))
		return response{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
	}
	return response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) response {
	return response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}

func (s *Server) dispatch(ctx context.Context, method string, params json.RawMessage) (any, *rpcError) {
	switch method {
	case "index_repo":
		return s.indexRepo(ctx, params)
	case "summarize":
		return s.summarize(ctx, params)
	case "generate_wiki":
		return s.generateWiki(ctx, params)
	case "generate_slides":
		return s.generateSlides(ctx, params)
	case "publish_pages":
		return s.publishPages(ctx, params)
	case "search":
		return s.search(params)
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", method)}
	}
}

func decodeParams(params json.RawMessage, into any) *rpcError {
	if len(params) == 0 {
		return &rpcError{Code: codeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(params, into); err != nil {
		return &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

type indexRepoParams struct {
	RepoPath string `json:"repo_path"`
	Config   string `json:"config,omitempty"`
}

type indexRepoResult struct {
	OK        bool     `json:"ok"`
	IndexID   string   `json:"index_id"`
	Files     int      `json:"files"`
	Languages []string `json:"languages"`
	Modules   int      `json:"modules"`
}

func (s *Server) indexRepo(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p indexRepoParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.RepoPath == "" {
		return nil, &rpcError{Code: codeInvalidParams, Message: "repo_path is required"}
	}

	cfg := s.cfg
	if p.Config != "" {
		loaded, err := config.Load(p.Config)
		if err != nil {
			return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("load config: %v", err)}
		}
		cfg = loaded
	}

	ix, err := analyzer.New(analyzer.OptionsFromConfig(cfg, s.metrics)).Analyze(ctx, p.RepoPath)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: fmt.Sprintf("index repo: %v", err)}
	}
	handle := s.registry.Put(ix)
	slog.Info("Index registered", logfields.IndexID(handle), logfields.Path(p.RepoPath))

	return indexRepoResult{
		OK:        true,
		IndexID:   handle,
		Files:     ix.Stats.Files,
		Languages: ix.Languages,
		Modules:   ix.Stats.Modules,
	}, nil
}

type summarizeParams struct {
	Scope  string `json:"scope"`
	Target string `json:"target"`
	Style  string `json:"style,omitempty"`
}

func (s *Server) summarize(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p summarizeParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Style == "" {
		p.Style = summarize.StyleConcise
	}

	ix, ok := s.registry.Get("")
	if !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: "no index available; call index_repo first"}
	}

	sum, err := summarize.New(s.cfg)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: err.Error()}
	}
	res, err := sum.Summarize(ctx, ix, p.Scope, p.Target, p.Style)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: fmt.Sprintf("summarize: %v", err)}
	}
	return res, nil
}

type generateWikiParams struct {
	IndexID      string   `json:"index_id"`
	OutDir       string   `json:"out_dir,omitempty"`
	WithDiagrams bool     `json:"with_diagrams"`
	TOC          []string `json:"toc,omitempty"`
}

type generateWikiResult struct {
	OK      bool   `json:"ok"`
	SiteDir string `json:"site_dir,omitempty"`
	Pages   int    `json:"pages"`
}

func (s *Server) generateWiki(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p generateWikiParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	ix, ok := s.registry.Get(p.IndexID)
	if !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("unknown index: %s", p.IndexID)}
	}
	if p.OutDir == "" {
		p.OutDir = s.cfg.Site.OutDir
	}

	builder, err := wiki.NewBuilder(s.cfg, s.metrics, nil)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: err.Error()}
	}
	res, err := builder.Build(ctx, ix, p.OutDir, p.WithDiagrams, p.TOC)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: fmt.Sprintf("generate wiki: %v", err)}
	}
	return generateWikiResult{OK: true, SiteDir: res.SiteDir, Pages: res.Pages}, nil
}

type generateSlidesParams struct {
	IndexID  string   `json:"index_id"`
	Flavor   string   `json:"flavor,omitempty"`
	OutDir   string   `json:"out_dir,omitempty"`
	Sections []string `json:"sections,omitempty"`
	Export   []string `json:"export,omitempty"`
}

type slideFile struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}

type generateSlidesResult struct {
	OK    bool        `json:"ok"`
	Files []slideFile `json:"files"`
}

func (s *Server) generateSlides(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p generateSlidesParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	ix, ok := s.registry.Get(p.IndexID)
	if !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("unknown index: %s", p.IndexID)}
	}
	if p.Flavor == "" {
		p.Flavor = slides.FlavorMdbookReveal
	}
	if p.OutDir == "" {
		p.OutDir = s.cfg.Slides.OutDir
	}

	builder, err := slides.NewBuilder(s.cfg, s.metrics)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: err.Error()}
	}
	res, err := builder.Build(ctx, ix, p.Flavor, p.OutDir, p.Sections, p.Export)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: fmt.Sprintf("generate slides: %v", err)}
	}

	files := make([]slideFile, 0, len(res.Files))
	for _, f := range res.Files {
		files = append(files, slideFile{Format: f.Format, Path: f.Path})
	}
	return generateSlidesResult{OK: true, Files: files}, nil
}

type publishPagesParams struct {
	Mode      string `json:"mode"`
	SiteDir   string `json:"site_dir"`
	SlidesDir string `json:"slides_dir"`
	RepoRoot  string `json:"repo_root"`
	Branch    string `json:"branch,omitempty"`
}

type publishPagesResult struct {
	OK   bool   `json:"ok"`
	Hint string `json:"hint"`
}

func (s *Server) publishPages(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p publishPagesParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.Branch == "" {
		p.Branch = "gh-pages"
	}

	res, err := publish.New(s.metrics).Publish(ctx, p.Mode, p.SiteDir, p.SlidesDir, p.RepoRoot, p.Branch)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: fmt.Sprintf("publish pages: %v", err)}
	}
	return publishPagesResult{OK: true, Hint: res.Hint}, nil
}

type searchParams struct {
	Q string `json:"q"`
	K int    `json:"k,omitempty"`
}

type searchResult struct {
	OK   bool              `json:"ok"`
	Hits []index.SearchHit `json:"hits"`
}

func (s *Server) search(params json.RawMessage) (any, *rpcError) {
	var p searchParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if p.K < 0 {
		return nil, &rpcError{Code: codeInvalidParams, Message: "k must be non-negative"}
	}
	if p.K == 0 {
		p.K = 20
	}

	ix, ok := s.registry.Get("")
	if !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: "no index available; call index_repo first"}
	}
	s.metrics.IncSearch()
	hits := ix.Search(p.Q, p.K)
	slog.Debug("Search served", logfields.Query(p.Q), logfields.Count(len(hits)))
	if hits == nil {
		hits = []index.SearchHit{}
	}
	return searchResult{OK: true, Hits: hits}, nil
}
