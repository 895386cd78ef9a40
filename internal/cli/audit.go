package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mektycoon/mekforge"
	"github.com/mektycoon/mekforge/internal/catalog"
	"github.com/mektycoon/mekforge/pkg/audit"
)

// Report formats accepted by --format.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ReportOptions select how an audit result is emitted.
type ReportOptions struct {
	Format string
	// Out writes the report to a file instead of stdout.
	Out string
	// Strict turns an unbalanced result into an error (non-zero exit).
	Strict bool
}

// ErrAuditMismatch is returned in strict mode when an audit finds differences.
var ErrAuditMismatch = errors.New("audit found differences")

type report interface {
	Markdown() string
}

// RunAuditDirs compares the keys of two asset folders.
func RunAuditDirs(env *Env, a, b string, dirOpts audit.DirOptions, o ReportOptions) error {
	res, err := audit.CompareDirs(a, b, dirOpts)
	if err != nil {
		return err
	}
	if err := emit(env, res, o); err != nil {
		return err
	}
	if o.Strict && !res.Balanced() {
		return ErrAuditMismatch
	}
	return nil
}

// RunAuditManifest checks a folder against a JSON manifest.
func RunAuditManifest(env *Env, dir, manifest string, mo audit.ManifestOptions, o ReportOptions) error {
	res, err := audit.CheckManifest(dir, manifest, mo)
	if err != nil {
		return err
	}
	if err := emit(env, res, o); err != nil {
		return err
	}
	if o.Strict && !res.Complete() {
		return ErrAuditMismatch
	}
	return nil
}

// RunSourceKeys matches the catalog source keys against a frequency table.
// The full analysis goes to o.Out as JSON; the summary is printed.
func RunSourceKeys(env *Env, freqPath, catalogPath string, o ReportOptions) error {
	vars, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}
	kit, err := mekforge.New(mekforge.WithLogger(env.Logger), mekforge.WithVariations(vars))
	if err != nil {
		return err
	}
	res, err := kit.AnalyzeSourceKeys(freqPath)
	if err != nil {
		return err
	}
	env.Logger.Info("source keys analysed", "total", res.Summary.Total, "review", res.Summary.NeedsReview())

	if o.Out != "" && o.Format == "" {
		o.Format = FormatJSON
	}
	if err := emit(env, res, o); err != nil {
		return err
	}
	if o.Out != "" && o.Format == FormatJSON && !env.Quiet {
		if err := env.Printer.Markdown(res.Markdown()); err != nil {
			return err
		}
	}
	if o.Strict && (res.Summary.NeedsReview() > 0 || res.Summary.NoMatch > 0) {
		return ErrAuditMismatch
	}
	return nil
}

// emit writes r as markdown or JSON, to o.Out or the printer.
func emit(env *Env, r report, o ReportOptions) error {
	format := strings.ToLower(o.Format)
	if format == "" {
		format = FormatMarkdown
		if strings.EqualFold(filepath.Ext(o.Out), ".json") {
			format = FormatJSON
		}
	}

	var body []byte
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		body = append(data, '\n')
	case FormatMarkdown, "md":
		body = []byte(r.Markdown())
	default:
		return fmt.Errorf("unknown report format %q", o.Format)
	}

	if o.Out == "" {
		if format == FormatJSON {
			env.Printer.Printf("%s", body)
			return nil
		}
		return env.Printer.Markdown(string(body))
	}
	if err := writeFile(o.Out, body); err != nil {
		return err
	}
	env.printSystemMessage("Report written to %s", o.Out)
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
