// Package backup turns the resources of one n8n server into an ordered set
// of JSON files plus a manifest.
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
	"github.com/chazuruo/n8n-backup/internal/n8n"
	"github.com/chazuruo/n8n-backup/internal/resource"
)

// opRender is the WorkflowError op of a detail record that is not valid
// JSON.
const opRender = "render"

// Source is the part of the n8n client the exporter needs.
type Source interface {
	List(ctx context.Context, kind resource.Kind) (n8n.Listing, error)
	Resolve(ctx context.Context, summary n8n.Record) (n8n.Record, error)
}

// ProgressHook is called after each workflow summary has been handled,
// whether it was exported or skipped.
type ProgressHook func(done, total int)

// Options configures an Exporter.
type Options struct {
	// BaseURL of the server. One trailing slash is dropped.
	BaseURL string
	// APIKey is sent with every request.
	APIKey string
	// Insecure skips TLS certificate validation.
	Insecure bool
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// UserAgent is sent with every request. Optional.
	UserAgent string

	Selection resource.Selection
	// Pretty indents workflow files. Aggregates and the manifest are
	// always indented.
	Pretty bool

	// Source overrides the HTTP client built from the fields above.
	Source   Source
	Clock    clockwork.Clock
	Logger   *zap.SugaredLogger
	Progress ProgressHook
}

// Result is the outcome of a run.
type Result struct {
	Files    FileSet
	Manifest Manifest
	// Skipped holds the error of every selected aggregate kind that could
	// not be fetched. Its file is absent and its count is zero.
	Skipped map[resource.Kind]error
	// Failed holds the error of every workflow that was listed but could
	// not be resolved.
	Failed []error
	// ListErr is set when the workflow list itself could not be fetched.
	ListErr error
}

// Exporter runs one backup.
type Exporter struct {
	source   Source
	baseURL  string
	opts     Options
	clock    clockwork.Clock
	logger   *zap.SugaredLogger
	progress ProgressHook
}

// New validates opts and creates an Exporter.
func New(opts Options) (*Exporter, error) {
	baseURL := n8n.NormalizeBaseURL(opts.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", backuperrors.ErrInvalid)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	source := opts.Source
	if source == nil {
		if opts.APIKey == "" {
			return nil, fmt.Errorf("%w: API key is required", backuperrors.ErrInvalid)
		}
		transport := n8n.NewTransport(n8n.TransportOptions{
			Insecure:  opts.Insecure,
			Timeout:   opts.Timeout,
			UserAgent: opts.UserAgent,
			Logger:    logger,
		})
		source = n8n.NewClient(transport, baseURL, opts.APIKey)
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	progress := opts.Progress
	if progress == nil {
		progress = func(int, int) {}
	}

	return &Exporter{
		source:   source,
		baseURL:  baseURL,
		opts:     opts,
		clock:    clock,
		logger:   logger,
		progress: progress,
	}, nil
}

// BaseURL returns the normalized base URL recorded in the manifest.
func (e *Exporter) BaseURL() string { return e.baseURL }

// Run fetches every selected kind and assembles the file set. Fetch
// failures never abort the run; they are logged and reported in the
// Result. The only error Run returns is cancellation of ctx.
func (e *Exporter) Run(ctx context.Context) (*Result, error) {
	res := &Result{Skipped: make(map[resource.Kind]error)}
	sel := e.opts.Selection

	var workflowFiles []File
	var workflows []WorkflowResult
	if sel.Includes(resource.Workflows) {
		workflowFiles, workflows = e.exportWorkflows(ctx, res)
	}
	if err := ctx.Err(); err != nil {
		return nil, backuperrors.Wrapf(backuperrors.ErrCanceled, err, "export workflows")
	}

	aggregates := e.fetchAggregates(ctx, sel)
	if err := ctx.Err(); err != nil {
		return nil, backuperrors.Wrapf(backuperrors.ErrCanceled, err, "export resources")
	}

	manifest := NewManifest(e.baseURL, e.clock.Now())
	manifest.Workflows = workflows
	manifest.Counts.Workflows = len(workflows)

	files := make(FileSet, 0, len(workflowFiles)+len(aggregates)+1)
	files = append(files, workflowFiles...)

	for _, slot := range aggregates {
		if slot.err != nil {
			res.Skipped[slot.kind] = slot.err
			continue
		}
		content, err := Render(slot.listing.Body, true)
		if err != nil {
			e.logger.Warnf("Skipped %s: %v", slot.kind, err)
			res.Skipped[slot.kind] = err
			continue
		}
		manifest.Counts.Set(slot.kind, slot.listing.Count())
		files = append(files, File{Name: slot.kind.FileName(), Content: content})
	}

	index, err := manifest.Encode()
	if err != nil {
		return nil, err
	}
	files = append(files, File{Name: IndexFile, Content: index})

	res.Files = files
	res.Manifest = manifest
	return res, nil
}

// exportWorkflows lists the workflows and resolves them one by one in list
// order.
func (e *Exporter) exportWorkflows(ctx context.Context, res *Result) ([]File, []WorkflowResult) {
	listing, err := e.source.List(ctx, resource.Workflows)
	if err != nil {
		// A failed workflow list is reported but the run goes on with no
		// workflows.
		e.logger.Errorf("Failed to list workflows: %v", err)
		res.ListErr = err
		return nil, []WorkflowResult{}
	}

	total := listing.Count()
	if total == 0 {
		e.logger.Info("No workflows found.")
	} else {
		e.logger.Infof("Found %d workflows.", total)
	}

	files := make([]File, 0, total)
	results := make([]WorkflowResult, 0, total)
	for i, summary := range listing.Items {
		if ctx.Err() != nil {
			break
		}

		file, result, err := e.exportWorkflow(ctx, summary)
		if err != nil {
			e.logger.Errorf("  %s (%s): %s: %v", summary.Name(), summary.ID(), failureReason(err), err)
			res.Failed = append(res.Failed, err)
		} else {
			e.logger.Debugf("  %s (%s) -> %s", result.Name, result.ID, file.Name)
			files = append(files, file)
			results = append(results, result)
		}
		e.progress(i+1, total)
	}
	return files, results
}

// failureReason names the step a workflow failed in.
func failureReason(err error) string {
	if we, ok := backuperrors.AsWorkflowError(err); ok && we.Op == opRender {
		return "invalid workflow JSON"
	}
	return "failed to fetch details"
}

func (e *Exporter) exportWorkflow(ctx context.Context, summary n8n.Record) (File, WorkflowResult, error) {
	full, err := e.source.Resolve(ctx, summary)
	if err != nil {
		return File{}, WorkflowResult{}, err
	}

	// Identity comes from the summary; the detail record only supplies
	// content and state.
	id := summary.ID()
	name := summary.Name()

	content, err := Render(full, e.opts.Pretty)
	if err != nil {
		return File{}, WorkflowResult{}, &backuperrors.WorkflowError{Op: opRender, ID: id, Name: name, Err: err}
	}

	fileName := WorkflowFileName(id, name)
	file := File{Name: WorkflowPath(fileName), Content: content}
	result := WorkflowResult{
		ID:        summary.RawID(),
		Name:      name,
		File:      fileName,
		Active:    full.Active(),
		UpdatedAt: full.UpdatedAt(),
	}
	return file, result, nil
}

type aggregateSlot struct {
	kind    resource.Kind
	listing n8n.Listing
	err     error
}

// fetchAggregates fetches the selected aggregate kinds concurrently. Each
// goroutine writes only its own slot and a failure never cancels the
// others. Slots are returned in canonical kind order.
func (e *Exporter) fetchAggregates(ctx context.Context, sel resource.Selection) []*aggregateSlot {
	var slots []*aggregateSlot
	for _, kind := range resource.Aggregates {
		if sel.Includes(kind) {
			slots = append(slots, &aggregateSlot{kind: kind})
		}
	}

	grp := &errgroup.Group{}
	for _, slot := range slots {
		slot := slot
		grp.Go(func() error {
			slot.listing, slot.err = e.source.List(ctx, slot.kind)
			return nil
		})
	}
	_ = grp.Wait()

	for _, slot := range slots {
		if slot.err != nil {
			e.logger.Warnf("Skipped %s: %v", slot.kind, slot.err)
		}
	}
	return slots
}
