// Command redline applies suggested changes to a rich-text document and shows
// them as tracked changes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZaguanLabs/redline"
	"github.com/ZaguanLabs/redline/processor"
	"github.com/ZaguanLabs/redline/provider"
	"github.com/ZaguanLabs/redline/store"
	"github.com/hashicorp/go-multierror"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = redline.Version
	commit    = redline.GitCommit
	buildDate = redline.BuildDate
)

// errValidation is returned when --validate finds section length violations.
var errValidation = errors.New("validation failed")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	inFormat    string
	outFormat   string
	output      string
	unit        string
	content     string
	suggestions string
	mock        bool
	accept      bool
	discard     bool
	sections    bool
	validate    bool
	jsonOut     bool
	quiet       bool
	verbose     bool
	dump        string
	input       string
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("redline", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.inFormat, "in", "", "Input format: html, delta, prosemirror, json (default: from extension, else html)")
	fs.StringVar(&o.outFormat, "format", "", "Output format: html, delta, prosemirror, markdown, json (default: input format)")
	fs.StringVar(&o.output, "output", "", "Output file (default: stdout)")
	fs.StringVar(&o.output, "o", "", "Output file (short for --output)")
	fs.StringVar(&o.unit, "unit", "", "Unit name (default: input file name)")
	fs.StringVar(&o.content, "content", "", "Plain text file with new content to diff against the document")
	fs.StringVar(&o.suggestions, "suggestions", "", "JSON file with anchored suggestions")
	fs.BoolVar(&o.mock, "mock", false, "Ask the mock suggestion source for changes")
	fs.BoolVar(&o.accept, "accept", false, "Accept all pending changes")
	fs.BoolVar(&o.discard, "discard", false, "Discard all pending changes")
	fs.BoolVar(&o.sections, "sections", false, "Print the document's sections instead of the document")
	fs.BoolVar(&o.validate, "validate", false, "Validate section lengths instead of printing the document")
	fs.BoolVar(&o.jsonOut, "json", false, "Output a JSON summary")
	fs.BoolVar(&o.quiet, "quiet", false, "Only log errors")
	fs.BoolVar(&o.verbose, "verbose", false, "Log debug output")
	fs.StringVar(&o.dump, "dump", "", "Write the unit review states to a JSON file")
	configPath := fs.String("config", "", "YAML config file")
	style := fs.String("style", "", "Pending change style: yellow or pink (env REDLINE_STYLE)")
	author := fs.String("author", "", "Author recorded on suggestions without one (env REDLINE_AUTHOR)")
	minLen := fs.Int("min", 0, "Minimum section length (env REDLINE_MIN_SECTION_LENGTH)")
	maxLen := fs.Int("max", 0, "Maximum section length (env REDLINE_MAX_SECTION_LENGTH)")
	redisURL := fs.String("redis", "", "Redis URL for unit states (env REDLINE_REDIS_URL)")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", redline.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	if o.accept && o.discard {
		return fmt.Errorf("--accept and --discard are mutually exclusive")
	}
	if o.content != "" && o.suggestions != "" {
		return fmt.Errorf("--content and --suggestions are mutually exclusive")
	}

	logger := newLogger(stderr, o.quiet, o.verbose)

	// Config: defaults, then file, then environment, then flags.
	cfg := redline.DefaultConfig()
	if *configPath != "" {
		loaded, err := redline.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := applyEnv(cfg); err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["style"] {
		mode, err := redline.ParseStyle(*style)
		if err != nil {
			return err
		}
		cfg.Style = mode
	}
	if set["author"] {
		cfg.Author = *author
	}
	if set["min"] {
		cfg.Min = *minLen
	}
	if set["max"] {
		cfg.Max = *maxLen
	}
	if set["redis"] {
		cfg.Redis.URL = *redisURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Input
	var data []byte
	var err error
	inputName := "stdin"
	if fs.NArg() == 0 {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		o.input = fs.Arg(0)
		data, err = os.ReadFile(o.input) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		inputName = filepath.Base(o.input)
	}
	if o.inFormat == "" {
		o.inFormat = formatFromExt(o.input)
	}
	if o.outFormat == "" {
		o.outFormat = o.inFormat
	}
	if o.unit == "" {
		o.unit = inputName
	}

	in, err := processor.New(o.inFormat)
	if err != nil {
		return err
	}
	out, err := processor.New(o.outFormat)
	if err != nil {
		return err
	}
	doc, err := in.Decode(string(data))
	if err != nil {
		return err
	}

	ctx := context.Background()

	// State store
	var states redline.StateStore
	var memory *store.InMemoryStore
	if cfg.Redis.URL != "" {
		rs, err := store.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rs.Close()
		states = rs
	} else {
		memory = store.NewInMemoryStore(cfg.Redis.TTLSeconds)
		states = memory
	}

	ws := redline.NewWorkspace(
		redline.WithConfig(cfg),
		redline.WithLogger(logger),
		redline.WithStore(states),
	)
	sess, err := ws.Open(ctx, o.unit, doc)
	if err != nil {
		return err
	}
	if set["style"] && sess.Style() != cfg.Style {
		if err := sess.Restyle(ctx, cfg.Style); err != nil {
			return err
		}
	}

	// Changes
	var batch redline.BatchResult
	switch {
	case o.content != "":
		text, err := os.ReadFile(o.content) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return fmt.Errorf("reading content: %w", err)
		}
		if _, err := sess.ApplyExternalContent(ctx, string(text)); err != nil {
			return err
		}
	case o.suggestions != "":
		f, err := os.Open(o.suggestions) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return fmt.Errorf("reading suggestions: %w", err)
		}
		list, err := redline.DecodeSuggestions(f)
		_ = f.Close()
		if err != nil {
			return err
		}
		batch = sess.ApplySuggestions(ctx, list)
	}
	if o.mock {
		res, err := ws.Generate(ctx, provider.NewMockProvider())
		if err != nil {
			return err
		}
		batch.Applied = append(batch.Applied, res.Batch.Applied...)
		batch.Failed = append(batch.Failed, res.Batch.Failed...)
		if res.Batch.Err != nil {
			batch.Err = multierror.Append(batch.Err, res.Batch.Err)
		}
	}
	if batch.Err != nil {
		logger.Warn("some suggestions were not applied", "failed", len(batch.Failed), "error", batch.Err)
	}

	pending := sess.Pending()
	switch {
	case o.accept:
		err = sess.Accept(ctx)
	case o.discard:
		err = sess.Discard(ctx)
	}
	if err != nil {
		return err
	}

	if err := ws.Save(ctx); err != nil {
		return err
	}
	if o.dump != "" {
		if memory == nil {
			return fmt.Errorf("--dump needs the in-memory store")
		}
		meta := map[string]string{"tool": redline.Name, "version": version}
		if err := store.NewExporter(memory).ExportToFile(o.dump, meta); err != nil {
			return fmt.Errorf("writing state dump: %w", err)
		}
	}

	// Output
	var w io.Writer = stdout
	if o.output != "" {
		f, err := os.Create(o.output) // #nosec G304 - CLI tool writes user-specified files
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch {
	case o.validate:
		res, err := ws.Validate()
		if err != nil {
			return err
		}
		if err := writeValidation(w, res, o.jsonOut); err != nil {
			return err
		}
		if !res.Valid {
			return errValidation
		}
		return nil
	case o.sections:
		return writeSections(w, sess.Sections(), o.jsonOut)
	}

	encoded, err := out.Encode(sess.Document())
	if err != nil {
		return err
	}
	if o.jsonOut {
		return writeSummary(w, summary{
			Unit:            sess.Unit(),
			Format:          out.ContentType(),
			State:           sess.State(),
			HasPendingEdits: sess.HasPendingEdits(),
			Applied:         len(batch.Applied),
			Failed:          failedTexts(batch.Failed),
			Stats:           pendingStats(pending),
			Content:         encoded,
		})
	}

	fmt.Fprint(w, encoded)
	if !strings.HasSuffix(encoded, "\n") {
		fmt.Fprintln(w)
	}
	if !o.quiet && len(batch.Failed) > 0 {
		fmt.Fprintf(stderr, "%d suggestion(s) could not be applied\n", len(batch.Failed))
	}
	return nil
}

// newLogger returns a text logger on stderr. Warnings are shown by default.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// applyEnv layers REDLINE_* environment variables onto cfg.
func applyEnv(cfg *redline.Config) error {
	if v := getenv("REDLINE_STYLE", ""); v != "" {
		mode, err := redline.ParseStyle(v)
		if err != nil {
			return fmt.Errorf("REDLINE_STYLE: %w", err)
		}
		cfg.Style = mode
	}
	cfg.Author = getenv("REDLINE_AUTHOR", cfg.Author)
	cfg.Redis.URL = getenv("REDLINE_REDIS_URL", cfg.Redis.URL)

	var err error
	if cfg.Min, err = getenvInt("REDLINE_MIN_SECTION_LENGTH", cfg.Min); err != nil {
		return err
	}
	if cfg.Max, err = getenvInt("REDLINE_MAX_SECTION_LENGTH", cfg.Max); err != nil {
		return err
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// formatFromExt guesses the input format from a file name.
func formatFromExt(path string) string {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".delta.json") || strings.HasSuffix(name, ".delta"):
		return "delta"
	case strings.HasSuffix(name, ".pm.json") || strings.HasSuffix(name, ".prosemirror.json"):
		return "prosemirror"
	case strings.HasSuffix(name, ".json"):
		return "json"
	}
	return "html"
}

// summary is the --json output for documents.
type summary struct {
	Unit            string            `json:"unit"`
	Format          string            `json:"format"`
	State           string            `json:"state"`
	HasPendingEdits bool              `json:"has_pending_edits"`
	Applied         int               `json:"applied"`
	Failed          []string          `json:"failed,omitempty"`
	Stats           redline.DiffStats `json:"stats"`
	Content         string            `json:"content"`
}

func writeSummary(w io.Writer, s summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func pendingStats(p *redline.PendingEditState) redline.DiffStats {
	var st redline.DiffStats
	if p == nil {
		return st
	}
	for _, e := range p.Edits {
		s := redline.Stats(e.Ops)
		st.Equal += s.Equal
		st.Inserted += s.Inserted
		st.Deleted += s.Deleted
	}
	return st
}

func failedTexts(failed []redline.Suggestion) []string {
	out := make([]string, 0, len(failed))
	for _, s := range failed {
		out = append(out, s.TextToReplace)
	}
	return out
}

func writeSections(w io.Writer, sections []redline.Section, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sections)
	}
	for _, s := range sections {
		fmt.Fprintf(w, "%s: %s\n", s.Title, s.Text)
	}
	return nil
}

func writeValidation(w io.Writer, res redline.ValidationResult, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if res.Valid {
		fmt.Fprintln(w, "All sections are valid.")
		return nil
	}
	for _, msg := range res.Errors {
		fmt.Fprintln(w, msg)
	}
	return nil
}
