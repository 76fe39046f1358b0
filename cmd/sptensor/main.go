// Command sptensor loads, converts and queries sparse tensor files.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/natefinch/lumberjack"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/thepudds/sptensor"
	"github.com/thepudds/sptensor/tensorio"
)

var log = logging.MustGetLogger("main")

var stdoutLogFormat = logging.MustStringFormatter(
	`%{color:reset}%{color}%{time:15:04:05.000} [%{shortfunc}] [%{level}] %{message}`,
)

var fileLogFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} [%{module}] [%{shortfunc}] [%{level}] %{message}`,
)

// stdout receives command output. Logs go to stderr.
var stdout io.Writer = os.Stdout

type Options struct {
	LogLevel string `short:"l" long:"loglevel" default:"info" description:"set the logging level [debug, info, notice, warning, error, critical]"`
	LogFile  string `long:"logfile" description:"also write logs to this file, rotated at 10MB"`
}

type Input struct {
	Header   bool `long:"header" description:"input starts with a rank and shape header line, as written by convert"`
	Capacity int  `short:"c" long:"capacity" default:"128" description:"initial bucket count"`
}

func (in Input) read(path string) (*sptensor.Tensor, error) {
	opts := []tensorio.ReadOption{
		tensorio.WithTensorOptions(sptensor.WithCapacity(in.Capacity)),
	}
	if in.Header {
		opts = append(opts, tensorio.WithHeader())
	}
	return tensorio.ReadFile(path, opts...)
}

type Load struct {
	Input
	Args struct {
		Files []string `positional-arg-name:"FILE" required:"1"`
	} `positional-args:"yes"`
}

type Convert struct {
	Input
	Args struct {
		In  string `positional-arg-name:"IN"`
		Out string `positional-arg-name:"OUT"`
	} `positional-args:"yes" required:"yes"`
}

type Get struct {
	Input
	Args struct {
		File  string   `positional-arg-name:"FILE"`
		Coord []string `positional-arg-name:"COORD" required:"1"`
	} `positional-args:"yes" required:"yes"`
}

type Slice struct {
	Input
	Args struct {
		File      string   `positional-arg-name:"FILE"`
		Selectors []string `positional-arg-name:"SELECTOR" required:"1"`
	} `positional-args:"yes" required:"yes"`
}

// Execute reads every file concurrently, one tensor per file, and reports
// timing and table statistics for each.
func (x *Load) Execute(args []string) error {
	type result struct {
		elapsed time.Duration
		stats   sptensor.Stats
		shape   []int
	}
	results := make([]result, len(x.Args.Files))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range x.Args.Files {
		g.Go(func() error {
			start := time.Now()
			tns, err := x.read(path)
			if err != nil {
				return err
			}
			results[i] = result{elapsed: time.Since(start), stats: tns.Stats(), shape: tns.Shape()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range x.Args.Files {
		r := results[i]
		fmt.Fprintf(stdout, "%s: nnz %d shape %v buckets %d load %.3f rehashes %d collisions %d probes %d\n",
			path, r.stats.Len, r.shape, r.stats.Buckets, r.stats.LoadFactor(), r.stats.Rehashes, r.stats.Collisions, r.stats.Probes)
		fmt.Fprintf(stdout, "--- %.6f seconds ---\n", r.elapsed.Seconds())
	}
	return nil
}

// Execute reads IN and writes it to OUT with a header line, compressing by
// OUT's extension.
func (x *Convert) Execute(args []string) error {
	tns, err := x.read(x.Args.In)
	if err != nil {
		return err
	}
	return tensorio.WriteFile(x.Args.Out, tns)
}

func (x *Get) Execute(args []string) error {
	coord := make([]int, len(x.Args.Coord))
	for i, s := range x.Args.Coord {
		c, err := strconv.Atoi(s)
		if err != nil {
			return errors.Errorf("coordinate %d: %q is not an integer", i, s)
		}
		coord[i] = c
	}
	tns, err := x.read(x.Args.File)
	if err != nil {
		return err
	}
	v, err := tns.Get(coord)
	if err != nil {
		return errors.Wrapf(err, "get %v", coord)
	}
	fmt.Fprintln(stdout, strconv.FormatFloat(v, 'g', -1, 64))
	return nil
}

// Execute prints the selected entries in the same format convert writes.
func (x *Slice) Execute(args []string) error {
	sel := make([]sptensor.Selector, len(x.Args.Selectors))
	for i, s := range x.Args.Selectors {
		var err error
		if sel[i], err = sptensor.ParseSelector(s); err != nil {
			return errors.Wrapf(err, "axis %d", i)
		}
	}
	tns, err := x.read(x.Args.File)
	if err != nil {
		return err
	}
	res, err := tns.Slice(sel...)
	if err != nil {
		return errors.Wrap(err, "slice")
	}
	log.Debugf("slice %v: %d of %d entries", sel, res.Len(), tns.Len())
	return tensorio.Write(stdout, res)
}

func setupLogging(opts *Options) error {
	level, err := logging.LogLevel(opts.LogLevel)
	if err != nil {
		return errors.Wrap(err, "loglevel")
	}
	backendStderr := logging.NewLogBackend(os.Stderr, "", 0)
	backends := []logging.Backend{logging.NewBackendFormatter(backendStderr, stdoutLogFormat)}
	if opts.LogFile != "" {
		w := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, //days
		}
		backendFile := logging.NewLogBackend(w, "", 0)
		backends = append(backends, logging.NewBackendFormatter(backendFile, fileLogFormat))
	}
	logging.SetBackend(backends...)
	logging.SetLevel(level, "")
	return nil
}

func newParser() *flags.Parser {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		if err := setupLogging(&opts); err != nil {
			return err
		}
		return command.Execute(args)
	}

	parser.AddCommand("load",
		"read tensor files and report timing",
		"The load command reads each file into its own tensor, concurrently, and reports elapsed time and hash table statistics.",
		&Load{})
	parser.AddCommand("convert",
		"rewrite a tensor file",
		"The convert command reads IN and writes OUT with a rank and shape header. Files ending in .gz, .zst or .lz4 are compressed.",
		&Convert{})
	parser.AddCommand("get",
		"print the value at a coordinate",
		"The get command prints the value stored at COORD, or 0.",
		&Get{})
	parser.AddCommand("slice",
		"print part of a tensor",
		"The slice command prints the entries selected by one SELECTOR per axis: an index i, or a range start:stop[:step] with any part optional. "+
			"Put -- before the selectors when any starts with a minus sign, as in: slice FILE -- -1 :",
		&Slice{})
	return parser
}

func run(args []string) error {
	_, err := newParser().ParseArgs(args)
	return err
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Error(err)
		os.Exit(1)
	}
}
