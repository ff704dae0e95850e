package engine

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"docsift-backend/internal/document"
	"docsift-backend/internal/profile"
	"docsift-backend/internal/provider"
	"docsift-backend/internal/schema"
	"docsift-backend/internal/shared/fault"
	"docsift-backend/internal/shared/metrics"
)

const (
	defaultMaxDocuments = 16
	defaultSystemPrompt = "Return JSON that matches the provided schema. Use null for missing values. Do not add extra text."
)

// Defaults are the lowest-precedence option layer, below the profile and the
// call-site options.
type Defaults struct {
	ModelName       string
	Temperature     *float64
	MaxOutputTokens *int
	MaxDocuments    int
	Concurrency     int
}

// Engine orchestrates one extraction: profile/schema resolution, document
// loading, provider invocation, validation, and result assembly. It holds no
// mutable state across calls.
type Engine struct {
	resolver *profile.Resolver
	defaults Defaults
}

// New builds an engine. resolver may be nil when callers always pass resolved
// profiles or standalone schemas.
func New(resolver *profile.Resolver, defaults Defaults) *Engine {
	return &Engine{resolver: resolver, defaults: defaults}
}

// Request is one extraction call.
type Request struct {
	Documents []document.Source
	// Schema is a raw standalone schema mapping. When set it always
	// overrides the profile's own schema.
	Schema map[string]any
	// ProfileID is resolved through the engine's resolver. Profile, when
	// non-nil, is used as-is and skips resolution.
	ProfileID string
	Profile   *profile.Profile
	Provider  provider.Provider
	Options   provider.Options
	// MultiMode overrides the profile's multi-document policy.
	MultiMode profile.MultiMode
	// Concurrency bounds parallel per-document provider calls; <=1 runs
	// sequentially.
	Concurrency int
}

// Extract runs one extraction and assembles the multi-document result. All
// transient state lives on this call's stack: cancellation leaves nothing to
// clean up.
func (e *Engine) Extract(ctx context.Context, req Request) (*MultiResult, error) {
	metrics.IncExtractionStarted()
	start := metrics.NowMillis()

	out, err := e.extract(ctx, req)
	metrics.ObserveExtractionDurationMs(metrics.NowMillis() - start)
	if err != nil {
		metrics.IncExtractionFailed()
		return nil, err
	}
	metrics.IncExtractionCompleted()
	return out, nil
}

func (e *Engine) extract(ctx context.Context, req Request) (*MultiResult, error) {
	if req.Provider == nil {
		return nil, fault.New(fault.KindExtraction, "provider is required")
	}
	if len(req.Documents) == 0 {
		return nil, fault.New(fault.KindDocument, "no documents provided")
	}
	maxDocs := e.defaults.MaxDocuments
	if maxDocs <= 0 {
		maxDocs = defaultMaxDocuments
	}
	if len(req.Documents) > maxDocs {
		return nil, fault.Newf(fault.KindExtraction, "too many documents for a single extraction (%d > %d)", len(req.Documents), maxDocs)
	}

	prof := req.Profile
	if prof == nil && req.ProfileID != "" {
		if e.resolver == nil {
			return nil, fault.New(fault.KindExtraction, "no profile resolver configured")
		}
		var err error
		if prof, err = e.resolver.Resolve(req.ProfileID); err != nil {
			return nil, err
		}
	}

	sch, err := e.effectiveSchema(req, prof)
	if err != nil {
		return nil, err
	}

	mode, err := effectiveMultiMode(req, prof)
	if err != nil {
		return nil, err
	}

	opts := e.baseOptions()
	if prof != nil && prof.Options != nil {
		opts = opts.Merge(*prof.Options)
	}
	opts = opts.Merge(req.Options)

	loaded := e.loadDocuments(ctx, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &MultiResult{}

	if mode == profile.PerFile || mode == profile.Both {
		out.PerFile = e.runPerFile(ctx, req, prof, sch, opts, loaded)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if mode == profile.PerFile && allFailed(out.PerFile) {
			return nil, fault.Wrap(fault.KindExtraction, "every document failed", firstError(out.PerFile))
		}
	}

	if mode == profile.Aggregate || mode == profile.Both {
		agg, err := e.runAggregate(ctx, req, prof, sch, opts, loaded)
		if err != nil {
			// A single aggregate invocation has no partial result.
			return nil, err
		}
		out.Aggregate = agg
	}

	return out, nil
}

func (e *Engine) effectiveSchema(req Request, prof *profile.Profile) (*schema.InternalSchema, error) {
	if req.Schema != nil {
		return schema.Parse(req.Schema)
	}
	if prof != nil {
		return prof.Schema, nil
	}
	return nil, nil
}

func effectiveMultiMode(req Request, prof *profile.Profile) (profile.MultiMode, error) {
	mode := req.MultiMode
	if mode == "" && prof != nil {
		mode = prof.MultiDoc
	}
	if mode == "" {
		mode = profile.PerFile
	}
	if !profile.ValidMultiMode(mode) {
		return "", fault.Newf(fault.KindExtraction, "invalid multi-document mode %q", mode)
	}
	return mode, nil
}

func (e *Engine) baseOptions() provider.Options {
	return provider.Options{
		ModelName:       e.defaults.ModelName,
		Temperature:     e.defaults.Temperature,
		MaxOutputTokens: e.defaults.MaxOutputTokens,
	}
}

type loadedDoc struct {
	name string
	data []byte
	err  error
}

// loadDocuments loads every source once, bounded by the call's concurrency
// limit. Failures are recorded per slot, not propagated, so per_file mode can
// keep siblings alive.
func (e *Engine) loadDocuments(ctx context.Context, req Request) []loadedDoc {
	loaded := make([]loadedDoc, len(req.Documents))
	g := new(errgroup.Group)
	g.SetLimit(e.concurrency(req))
	for i, src := range req.Documents {
		g.Go(func() error {
			data, err := src.Load(ctx)
			loaded[i] = loadedDoc{name: src.DisplayName(), data: data, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return loaded
}

func (e *Engine) concurrency(req Request) int {
	n := req.Concurrency
	if n <= 0 {
		n = e.defaults.Concurrency
	}
	if n <= 0 {
		n = 1
	}
	return n
}

func (e *Engine) runPerFile(ctx context.Context, req Request, prof *profile.Profile, sch *schema.InternalSchema, opts provider.Options, loaded []loadedDoc) []FileResult {
	prompt, system := buildPrompt(prof, false)
	results := make([]FileResult, len(loaded))

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency(req))
	for i, doc := range loaded {
		g.Go(func() error {
			if doc.err != nil {
				results[i] = FileResult{SourceName: doc.name, Err: doc.err}
				return nil
			}
			res, err := invoke(ctx, req.Provider, prompt, system, sch, opts, []provider.Attachment{{Name: doc.name, Data: doc.data}}, doc.name, "per_file", prof)
			results[i] = FileResult{SourceName: doc.name, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Engine) runAggregate(ctx context.Context, req Request, prof *profile.Profile, sch *schema.InternalSchema, opts provider.Options, loaded []loadedDoc) (*Result, error) {
	attachments := make([]provider.Attachment, 0, len(loaded))
	names := make([]string, 0, len(loaded))
	for _, doc := range loaded {
		if doc.err != nil {
			// Aggregate needs the full set; a missing document fails
			// the invocation.
			return nil, doc.err
		}
		attachments = append(attachments, provider.Attachment{Name: doc.name, Data: doc.data})
		names = append(names, doc.name)
	}

	prompt, system := buildPrompt(prof, true)
	return invoke(ctx, req.Provider, prompt, system, sch, opts, attachments, strings.Join(names, ", "), "aggregate", prof)
}

// invoke performs exactly one provider call followed by validation and
// normalization. The engine never retries; retry policy belongs to the
// provider implementation.
func invoke(ctx context.Context, p provider.Provider, prompt, system string, sch *schema.InternalSchema, opts provider.Options, attachments []provider.Attachment, sourceName, mode string, prof *profile.Profile) (*Result, error) {
	res, err := p.GenerateStructured(ctx, provider.Request{
		Prompt:            prompt,
		SystemInstruction: system,
		Schema:            sch,
		Attachments:       attachments,
		Options:           opts,
	})
	if err != nil {
		return nil, err
	}

	data := res.Data
	if sch != nil {
		if err := sch.Validate(data); err != nil {
			return nil, err
		}
		data = sch.Normalize(data)
	}

	model := res.Model
	if model == "" {
		model = opts.ModelName
	}
	meta := Meta{
		Model:      model,
		Usage:      res.Usage,
		SourceName: sourceName,
		Mode:       mode,
	}
	if prof != nil {
		meta.Profile = prof.ID
	}
	return &Result{Data: data, Meta: meta}, nil
}

// buildPrompt composes the prompt and system instruction from the profile.
// Profile values are used verbatim; the schema is never rendered into prompt
// text, it travels through the provider's structured-output channel.
func buildPrompt(prof *profile.Profile, aggregate bool) (string, string) {
	system := defaultSystemPrompt
	if prof != nil && prof.SystemInstruction != "" {
		system = prof.SystemInstruction
	}

	var lines []string
	switch {
	case prof != nil && prof.Prompt != "":
		lines = append(lines, prof.Prompt)
	case prof != nil && prof.Mode == profile.ModeDescribe:
		lines = append(lines, "Provide a concise description of the document content.")
	case prof != nil && prof.Mode == profile.ModeClassify:
		lines = append(lines, "Classify the document and return the requested classification fields.")
	default:
		lines = append(lines, "Extract the requested structured fields. Use null for missing values.")
	}
	if aggregate {
		lines = append(lines, "Multiple documents provided.")
	}
	return strings.Join(lines, "\n\n"), system
}

func allFailed(results []FileResult) bool {
	for _, r := range results {
		if !r.Failed() {
			return false
		}
	}
	return len(results) > 0
}

func firstError(results []FileResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
