package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/dsxmeta/internal/dsx"
	"github.com/kiranshivaraju/dsxmeta/pkg/models"
	"golang.org/x/sync/errgroup"
)

// DefaultArchiveEstimate is the member count assumed for an archive before it is opened.
const DefaultArchiveEstimate = 5

// Result is the outcome for one sub-document. Exactly one of Parsed and Err is set.
type Result struct {
	DocumentName string
	State        string
	Parsed       *models.ParsedDocument
	Err          error
	Cached       bool
}

// BatchResult collects the per-document outcomes of one run.
type BatchResult struct {
	Results   []Result
	Succeeded int
	Failed    int
}

func (b *BatchResult) add(r Result) {
	b.Results = append(b.Results, r)
	if r.Err != nil {
		b.Failed++
	} else {
		b.Succeeded++
	}
}

// Progress is reported after every processed sub-document. Total is an
// estimate until every archive has been opened.
type Progress struct {
	Total           int
	Processed       int
	CurrentDocument string
}

// ProgressFunc receives progress updates. It is called synchronously.
type ProgressFunc func(Progress)

// Orchestrator runs the parser over batches of documents.
type Orchestrator struct {
	parser          *dsx.Parser
	cache           *ResultCache
	archiveEstimate int
	logger          *slog.Logger
}

// NewOrchestrator creates an Orchestrator. rc may be nil to disable caching.
func NewOrchestrator(parser *dsx.Parser, rc *ResultCache, archiveEstimate int, logger *slog.Logger) *Orchestrator {
	if archiveEstimate < 1 {
		archiveEstimate = DefaultArchiveEstimate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		parser:          parser,
		cache:           rc,
		archiveEstimate: archiveEstimate,
		logger:          logger,
	}
}

// RunSequential processes docs one at a time in input order. Archive members
// keep their archive order. progress may be nil.
func (o *Orchestrator) RunSequential(ctx context.Context, docs []Document, progress ProgressFunc) (*BatchResult, error) {
	out := &BatchResult{Results: make([]Result, 0, len(docs))}

	p := Progress{Total: o.estimate(docs)}
	report := func(name string) {
		p.Processed++
		p.CurrentDocument = name
		if progress != nil {
			progress(p)
		}
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		if !doc.IsArchive() {
			r := o.processDocument(ctx, doc)
			out.add(r)
			report(doc.Name)
			continue
		}

		members, err := expandArchive(ctx, doc)
		if err != nil {
			p.Total += 1 - o.archiveEstimate
			out.add(o.failure(doc.Name, err))
			report(doc.Name)
			continue
		}
		p.Total += len(members) - o.archiveEstimate
		for _, m := range members {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			out.add(o.processDocument(ctx, m))
			report(m.Name)
		}
	}
	return out, nil
}

// RunParallel processes docs with at most concurrency workers pulling from one
// shared queue. A worker finishes a whole archive before taking the next
// document. Results are returned in input order, archive members in archive
// order, regardless of completion order.
func (o *Orchestrator) RunParallel(ctx context.Context, docs []Document, concurrency int) (*BatchResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(docs) {
		concurrency = len(docs)
	}

	type job struct {
		pos int
		doc Document
	}
	queue := make(chan job)
	// Each slot is written only by the worker that took that position.
	slots := make([][]Result, len(docs))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for i, doc := range docs {
			select {
			case queue <- job{pos: i, doc: doc}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range concurrency {
		g.Go(func() error {
			for j := range queue {
				if !j.doc.IsArchive() {
					slots[j.pos] = []Result{o.processDocument(gctx, j.doc)}
					continue
				}
				members, err := expandArchive(gctx, j.doc)
				if err != nil {
					slots[j.pos] = []Result{o.failure(j.doc.Name, err)}
					continue
				}
				results := make([]Result, 0, len(members))
				for _, m := range members {
					results = append(results, o.processDocument(gctx, m))
				}
				slots[j.pos] = results
			}
			return nil
		})
	}

	err := g.Wait()

	out := &BatchResult{Results: make([]Result, 0, len(docs))}
	for _, rs := range slots {
		for _, r := range rs {
			out.add(r)
		}
	}
	return out, err
}

// estimate counts one per document and the archive estimate per archive.
func (o *Orchestrator) estimate(docs []Document) int {
	total := 0
	for _, d := range docs {
		if d.IsArchive() {
			total += o.archiveEstimate
		} else {
			total++
		}
	}
	return total
}

// processDocument runs one sub-document through queued -> extracting ->
// parsing -> cached|failed. Failures are isolated to the result.
func (o *Orchestrator) processDocument(ctx context.Context, doc Document) (res Result) {
	res = Result{DocumentName: doc.Name, State: models.DocumentQueued}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic while parsing document", "document", doc.Name, "error", r)
			res = o.failure(doc.Name, fmt.Errorf("parser panic: %v", r))
		}
	}()

	if !doc.IsDSX() {
		return o.failure(doc.Name, ErrUnsupportedDocument)
	}

	res.State = models.DocumentExtracting
	parse := func() (*models.ParsedDocument, error) {
		data, err := doc.read(ctx)
		if err != nil {
			return nil, err
		}
		res.State = models.DocumentParsing
		return o.parser.ParseDocument(doc.Name, data)
	}

	var (
		parsed *models.ParsedDocument
		hit    bool
		err    error
	)
	if o.cache != nil {
		parsed, hit, err = o.cache.GetOrParse(ctx, doc.Name, doc.ModTime, parse)
	} else {
		parsed, err = parse()
	}
	if err != nil {
		return o.failure(doc.Name, err)
	}
	if hit {
		o.logger.Debug("using cached result", "document", doc.Name)
	}

	return Result{
		DocumentName: doc.Name,
		State:        models.DocumentCached,
		Parsed:       parsed,
		Cached:       hit,
	}
}

func (o *Orchestrator) failure(name string, err error) Result {
	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) {
		level = slog.LevelDebug
	}
	o.logger.Log(context.Background(), level, "document failed", "document", name, "error", err)
	return Result{DocumentName: name, State: models.DocumentFailed, Err: err}
}
