// Command railplot generates a pair of rails and writes their profile
// plots, either locally or by asking a running railwear server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/railwear/internal/charts"
	"github.com/banshee-data/railwear/internal/config"
	"github.com/banshee-data/railwear/internal/fsutil"
	"github.com/banshee-data/railwear/internal/httputil"
	"github.com/banshee-data/railwear/internal/profile"
	"github.com/banshee-data/railwear/internal/report"
	"github.com/banshee-data/railwear/internal/security"
	"github.com/banshee-data/railwear/internal/version"
)

type options struct {
	Params     profile.Params
	Seed       string
	Out        string
	Format     string
	Prefix     string
	WriteJSON  bool
	Defects    bool
	Server     string
	ConfigPath string
	Version    bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	defaults := profile.DefaultParams()
	var o options
	fs.IntVar(&o.Params.Length, "length", defaults.Length, "Rail length in samples (cm)")
	fs.Float64Var(&o.Params.Amplitude, "amplitude", defaults.Amplitude, "Defect amplitude (mm)")
	fs.Float64Var(&o.Params.Frequency, "frequency", defaults.Frequency, "Defect frequency")
	fs.StringVar(&o.Seed, "seed", "", "Random seed (random when empty)")
	fs.StringVar(&o.Out, "out", ".", "Output directory")
	fs.StringVar(&o.Format, "format", charts.FormatPNG, "Image format: png or svg")
	fs.StringVar(&o.Prefix, "prefix", "", "File name prefix for every output")
	fs.BoolVar(&o.WriteJSON, "json", false, "Also write report.json")
	fs.BoolVar(&o.Defects, "defects", false, "Also write per-rail defect plots")
	fs.StringVar(&o.Server, "server", "", "Fetch the report from a railwear server (e.g. http://localhost:8080)")
	fs.StringVar(&o.ConfigPath, "config", "", "Path to a JSON or YAML rail configuration")
	fs.BoolVar(&o.Version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	format, err := charts.ParseFormat(o.Format)
	if err != nil {
		return o, err
	}
	o.Format = format
	if o.Prefix != "" {
		o.Prefix = security.SanitizeFilename(o.Prefix) + "-"
	}
	return o, nil
}

func (o options) seed() (uint64, error) {
	if o.Seed == "" {
		return report.RandomSeed(), nil
	}
	s, err := strconv.ParseUint(o.Seed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: seed=%q: %v", profile.ErrInvalidParameter, o.Seed, err)
	}
	return s, nil
}

func loadConfig(path string) (*config.RailConfig, error) {
	if path == "" {
		return config.DefaultRailConfig(), nil
	}
	return config.LoadRailConfig(path)
}

// fetchReport asks a railwear server to generate the report.
func fetchReport(ctx context.Context, client httputil.HTTPClient, server string, o options) (*report.Report, error) {
	q := url.Values{}
	q.Set("length", strconv.Itoa(o.Params.Length))
	q.Set("amplitude", strconv.FormatFloat(o.Params.Amplitude, 'g', -1, 64))
	q.Set("frequency", strconv.FormatFloat(o.Params.Frequency, 'g', -1, 64))
	if o.Seed != "" {
		q.Set("seed", o.Seed)
	}
	var rep report.Report
	if err := httputil.GetJSON(ctx, client, strings.TrimRight(server, "/")+"/api/rails?"+q.Encode(), &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func writeOutput(fsys fsutil.FileSystem, path string, write func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// run generates (or fetches) a report and writes its plots into o.Out,
// printing one summary line per rail to stdout.
func run(ctx context.Context, o options, fsys fsutil.FileSystem, client httputil.HTTPClient, stdout io.Writer) error {
	cfg, err := loadConfig(o.ConfigPath)
	if err != nil {
		return err
	}
	builder := report.NewBuilder(cfg)

	var rep *report.Report
	if o.Server != "" {
		rep, err = fetchReport(ctx, client, o.Server, o)
	} else {
		var seed uint64
		if seed, err = o.seed(); err == nil {
			rep, err = builder.Build(o.Params, seed)
		}
	}
	if err != nil {
		return err
	}
	sess := builder.NewSession(rep)

	if err := fsys.MkdirAll(o.Out, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for n := 1; n <= 2; n++ {
		path := filepath.Join(o.Out, fmt.Sprintf("%srail%d.%s", o.Prefix, n, o.Format))
		if err := writeOutput(fsys, path, func(w io.Writer) error {
			return charts.PlotRail(w, sess, n, o.Format)
		}); err != nil {
			return err
		}
		written = append(written, path)

		if o.Defects {
			path := filepath.Join(o.Out, fmt.Sprintf("%srail%d-defects.%s", o.Prefix, n, o.Format))
			if err := writeOutput(fsys, path, func(w io.Writer) error {
				return charts.PlotDefects(w, sess, n, o.Format)
			}); err != nil {
				return err
			}
			written = append(written, path)
		}
	}

	if o.WriteJSON {
		path := filepath.Join(o.Out, o.Prefix+"report.json")
		if err := writeOutput(fsys, path, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}); err != nil {
			return err
		}
		written = append(written, path)
	}

	fmt.Fprintf(stdout, "report %s seed=%d length=%d\n", rep.ID, rep.Seed, rep.Params.Length)
	for n := 1; n <= 2; n++ {
		r := rep.Rail(n)
		fmt.Fprintf(stdout, "rail %d: %s (total %.2f mm², top %.2f, bottom %.2f)\n",
			n, r.Assessment.Label, r.TotalIntegral, r.IntegralTop, r.IntegralBottom)
	}
	for _, p := range written {
		fmt.Fprintf(stdout, "wrote %s\n", p)
	}
	return nil
}

func main() {
	log.SetFlags(0)
	o, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if o.Version {
		fmt.Println("railplot", version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 30 * time.Second}
	if err := run(ctx, o, fsutil.OSFileSystem{}, client, os.Stdout); err != nil {
		log.Fatalf("railplot: %v", err)
	}
}
