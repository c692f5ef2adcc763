package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/versekit/versekit/core/cas"
	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/internal/docio"
	"github.com/versekit/versekit/internal/logging"
)

// StateDir is the directory under the workdir holding snapshots and run
// manifests.
const StateDir = ".versekit"

// Selection restricts a run to the named passes. Empty runs every pass.
type Selection struct {
	Passes []string
}

func (s Selection) includes(name string) bool {
	if len(s.Passes) == 0 {
		return true
	}
	for _, p := range s.Passes {
		if p == name {
			return true
		}
	}
	return false
}

// RunManifest records one pipeline run.
type RunManifest struct {
	RunID    string       `json:"run_id"`
	Pipeline string       `json:"pipeline"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Status   string       `json:"status"`
	Error    string       `json:"error,omitempty"`
	Passes   []PassRecord `json:"passes"`
}

// PassRecord records one executed pass.
type PassRecord struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Output     string   `json:"output"`
	Path       string   `json:"path,omitempty"`
	Size       int      `json:"size,omitempty"`
	SHA256     string   `json:"sha256,omitempty"`
	BLAKE3     string   `json:"blake3,omitempty"`
	Matched    *int     `json:"matched,omitempty"`
	Unmatched  []string `json:"unmatched,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// Runner executes descriptors.
type Runner struct {
	Registry *Registry
	Fetcher  Fetcher

	now   func() time.Time
	newID func() string
}

// NewRunner returns a runner over the default registry.
func NewRunner(f Fetcher) *Runner {
	return &Runner{
		Registry: DefaultRegistry(),
		Fetcher:  f,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

type runState struct {
	desc   *Descriptor
	docs   map[string]producer
	values map[string]any
}

// Run validates d and executes the selected passes in order. Each output
// with a path is written atomically once its pass has succeeded, and
// snapshotted into the content store. A run manifest is written under
// StateDir whether or not the run succeeds.
func (r *Runner) Run(ctx context.Context, d *Descriptor, sel Selection) (*RunManifest, error) {
	docs, err := d.plan(r.Registry)
	if err != nil {
		return nil, err
	}
	for _, name := range sel.Passes {
		if _, _, ok := d.PassByName(name); !ok {
			return nil, errors.NewNotFound("pass", name)
		}
	}

	store, err := cas.Open(filepath.Join(d.Dir(), StateDir))
	if err != nil {
		return nil, err
	}

	m := &RunManifest{
		RunID:    r.newID(),
		Pipeline: d.Name,
		Started:  r.now().UTC(),
		Status:   "ok",
	}
	ctx = logging.WithRunID(ctx, m.RunID)
	logging.InfoContext(ctx, "run_started", "pipeline", d.Name, "workdir", d.Dir())

	st := &runState{desc: d, docs: docs, values: make(map[string]any)}
	env := &Env{Descriptor: d, Fetcher: r.Fetcher}

	runErr := r.runPasses(ctx, st, env, store, sel, m)

	m.Finished = r.now().UTC()
	if runErr != nil {
		m.Status = "failed"
		m.Error = runErr.Error()
	}
	manifestPath := filepath.Join(store.Root(), "runs", m.RunID+".json")
	if _, err := docio.WriteJSON(manifestPath, m); err != nil && runErr == nil {
		runErr = err
	}
	return m, runErr
}

func (r *Runner) runPasses(ctx context.Context, st *runState, env *Env, store *cas.Store, sel Selection, m *RunManifest) error {
	for i := range st.desc.Passes {
		p := &st.desc.Passes[i]
		if !sel.includes(p.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.runPass(ctx, st, env, store, p)
		if err != nil {
			return errors.Wrapf(err, "pass %s", p.Name)
		}
		m.Passes = append(m.Passes, rec)
	}
	return nil
}

func (r *Runner) runPass(ctx context.Context, st *runState, env *Env, store *cas.Store, p *Pass) (PassRecord, error) {
	rec := PassRecord{Name: p.Name, Kind: p.Kind, Output: p.Output.Name}
	start := r.now()
	logging.PassStarted(ctx, p.Name, p.Kind)

	res, err := r.execute(ctx, st, env, p)
	if err == nil {
		err = r.store(ctx, st, store, p, res, &rec)
	}
	if res.Report != nil {
		rec.Matched = &res.Report.Matched
		for _, k := range res.Report.Unmatched {
			rec.Unmatched = append(rec.Unmatched, k.String())
		}
	}

	elapsed := r.now().Sub(start)
	rec.DurationMS = elapsed.Milliseconds()
	var extra []any
	if rec.Matched != nil {
		extra = append(extra, "matched", *rec.Matched, "unmatched", len(rec.Unmatched))
	}
	logging.PassFinished(ctx, p.Name, p.Kind, elapsed, err, extra...)
	return rec, err
}

func (r *Runner) execute(ctx context.Context, st *runState, env *Env, p *Pass) (Result, error) {
	spec, err := r.Registry.Lookup(p.Kind)
	if err != nil {
		return Result{}, err
	}
	opts, err := spec.decodeOptions(&p.Options, st.desc)
	if err != nil {
		return Result{}, err
	}

	in := make(Inputs, len(spec.Inputs))
	for _, role := range spec.Inputs {
		for _, name := range p.Inputs[role.Name] {
			v, err := st.value(name)
			if err != nil {
				return Result{}, errors.Wrapf(err, "input %s", role.Name)
			}
			in[role.Name] = append(in[role.Name], v)
		}
	}
	return spec.run(ctx, env, in, opts)
}

// value returns the named document: from memory if produced during this run,
// otherwise from its file.
func (st *runState) value(name string) (any, error) {
	if v, ok := st.values[name]; ok {
		return v, nil
	}
	prod := st.docs[name]
	if prod.path == "" {
		p := st.desc.Passes[prod.pass]
		return nil, errors.NewValidation(name, fmt.Sprintf("output of pass %s is not written to disk; select that pass too", p.Name))
	}
	v, err := ReadFile(prod.kind, prod.path)
	if err != nil {
		return nil, err
	}
	st.values[name] = v
	return v, nil
}

func (r *Runner) store(ctx context.Context, st *runState, store *cas.Store, p *Pass, res Result, rec *PassRecord) error {
	st.values[p.Output.Name] = res.Value
	prod := st.docs[p.Output.Name]
	if prod.path == "" {
		return nil
	}

	data, err := Encode(prod.kind, res.Value)
	if err != nil {
		return err
	}
	digest, err := store.Put(data)
	if err != nil {
		return err
	}
	// Put keeps an existing blob as is.
	if err := store.Verify(digest); err != nil {
		return err
	}
	if err := docio.WriteFileAtomic(prod.path, data); err != nil {
		return err
	}

	rec.Path = p.Output.Path
	rec.Size = len(data)
	rec.SHA256 = digest.SHA256
	rec.BLAKE3 = digest.BLAKE3
	logging.OutputWritten(ctx, p.Output.Name, prod.path, len(data), "sha256", digest.SHA256)
	return nil
}
