package cli

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/pipeline"
	"github.com/matzehuels/tabledraw/pkg/table"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	configPath string // geometry config; empty resolves config.toml or defaults
	output     string // output file (single input) or directory
	seed       string // id seed for reproducible output
	preview    bool   // also write an SVG hierarchy preview per header
	watch      bool   // regenerate when inputs change
	noCache    bool   // bypass the page cache
}

// generateJob is one input file and where its document goes.
type generateJob struct {
	input  string
	output string
}

// generateResult summarizes one finished job.
type generateResult struct {
	job      generateJob
	result   *pipeline.Result
	previews []string
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate <table.csv>...",
		Short: "Convert CSV tables into draw.io documents",
		Long: `Convert CSV tables into draw.io documents.

Each CSV needs Header, Sub-Header and Item columns and may carry a Status
column (Red, Amber, Green). Every distinct Header becomes one diagram page.

The geometry config is read from --config, else from ./config.toml when it
exists, else the built-in defaults are used.

With a single input, --output names the document (or a directory to put it
in). With several inputs, --output must be a directory. Inputs are converted
concurrently.

With --seed the cell ids are reproducible and encoded pages are cached
locally for faster subsequent runs.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeFiles(tableExts),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "geometry config (.toml, .yaml, .json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single input) or directory")
	cmd.Flags().StringVar(&opts.seed, "seed", "", "seed for reproducible cell ids")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "also write an SVG preview per header")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "regenerate when the inputs or config change")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	_ = cmd.MarkFlagFilename("config", configExts...)

	return cmd
}

// runGenerate converts every input once and, with --watch, keeps converting
// on change until ctx is cancelled.
func (c *CLI) runGenerate(ctx context.Context, inputs []string, opts generateOpts) error {
	jobs, err := planJobs(inputs, opts.output)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	cfgSource, err := c.generateOnce(ctx, runner, jobs, opts)
	if !opts.watch {
		return err
	}
	if err != nil {
		c.failure("%v", err)
	}

	paths := make([]string, 0, len(jobs)+1)
	for _, j := range jobs {
		paths = append(paths, j.input)
	}
	if cfgSource == "" {
		cfgSource = opts.configPath
	}
	if cfgSource != "" {
		paths = append(paths, cfgSource)
	}

	fmt.Fprintln(c.out)
	c.info("Watching %d file(s), press Ctrl+C to stop", len(paths))
	err = watchFiles(ctx, loggerFromContext(ctx), paths, watchDebounce, func(changed string) {
		c.info("%s changed", changed)
		if _, err := c.generateOnce(ctx, runner, jobs, opts); err != nil {
			c.failure("%v", err)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// generateOnce resolves the config and converts all jobs concurrently. It
// returns the config file that was used.
func (c *CLI) generateOnce(ctx context.Context, runner *pipeline.Runner, jobs []generateJob, opts generateOpts) (string, error) {
	cfg, source, err := pipeline.ResolveConfig(opts.configPath)
	if err != nil {
		return "", err
	}
	if source != "" {
		c.Logger.Debug("loaded config", "path", source)
	}

	prog := newProgress(c.Logger)
	results := make([]generateResult, len(jobs))
	spin := c.startSpinner(ctx, "Converting %d table(s)...", len(jobs))
	var converted atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, job := range jobs {
		g.Go(func() error {
			res, err := c.generateFile(gctx, runner, cfg, job, opts)
			if err != nil {
				return err
			}
			results[i] = res
			spin.SetMessage("Converted %d/%d table(s)...", converted.Add(1), len(jobs))
			return nil
		})
	}
	err = g.Wait()
	spin.Stop()
	if err != nil {
		return source, err
	}

	for _, res := range results {
		stats := res.result.Stats
		c.success("Generated %s", res.job.output)
		c.file(res.job.output)
		for _, p := range res.previews {
			c.file(p)
		}
		c.docStats(len(res.result.Pages), stats.Vertices, stats.Edges, res.result.CacheHit)
	}
	prog.done("converted tables", "count", len(jobs), "config", cmp.Or(source, "defaults"))
	if len(jobs) == 1 && !opts.watch {
		c.nextStep("Inspect", appName+" inspect "+jobs[0].output)
	}
	return source, nil
}

// generateFile converts one CSV file and writes its document and previews.
func (c *CLI) generateFile(ctx context.Context, runner *pipeline.Runner, cfg config.Config, job generateJob, opts generateOpts) (generateResult, error) {
	t, err := table.ReadCSVFile(job.input)
	if err != nil {
		return generateResult{}, err
	}

	result, err := runner.Convert(ctx, t, pipeline.Options{
		Config: cfg,
		Seed:   opts.seed,
		Logger: c.Logger.With("input", filepath.Base(job.input)),
	})
	if err != nil {
		return generateResult{}, fmt.Errorf("%s: %w", job.input, err)
	}

	if err := writeOutput(job.output, result.Document); err != nil {
		return generateResult{}, err
	}

	res := generateResult{job: job, result: result}
	if !opts.preview {
		return res, nil
	}
	base := strings.TrimSuffix(job.output, filepath.Ext(job.output))
	used := make(map[string]int)
	for _, header := range t.Headers() {
		svg, err := runner.Preview(ctx, t, header, pipeline.PreviewOptions{})
		if err != nil {
			return generateResult{}, fmt.Errorf("preview %q: %w", header, err)
		}
		name := slug(header)
		if used[name]++; used[name] > 1 {
			name = fmt.Sprintf("%s-%d", name, used[name])
		}
		path := base + "." + name + ".svg"
		if err := writeOutput(path, svg); err != nil {
			return generateResult{}, err
		}
		res.previews = append(res.previews, path)
	}
	return res, nil
}

// planJobs maps inputs to output paths. A single input may name its output
// file directly; several inputs need --output to be a directory.
func planJobs(inputs []string, output string) ([]generateJob, error) {
	outDir := ""
	switch {
	case output == "":
	case len(inputs) > 1 || isDir(output):
		outDir = output
	default:
		return []generateJob{{input: inputs[0], output: output}}, nil
	}

	if outDir != "" {
		if info, err := os.Stat(outDir); err == nil && !info.IsDir() {
			return nil, fmt.Errorf("output %s must be a directory for %d inputs", outDir, len(inputs))
		}
	}

	jobs := make([]generateJob, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i, in := range inputs {
		out := strings.TrimSuffix(in, filepath.Ext(in)) + outputExt
		if outDir != "" {
			out = filepath.Join(outDir, filepath.Base(out))
		}
		if prev, dup := seen[out]; dup {
			return nil, fmt.Errorf("inputs %s and %s both write %s", prev, in, out)
		}
		seen[out] = in
		jobs[i] = generateJob{input: in, output: out}
	}
	return jobs, nil
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

func isDir(path string) bool {
	if strings.HasSuffix(path, string(os.PathSeparator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slug turns a header into a file name fragment.
func slug(s string) string {
	s = strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if s == "" {
		return "page"
	}
	return s
}
