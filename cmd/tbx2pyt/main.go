package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/i2y/tbx2pyt/internal/usecase"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{
		name:  "convert",
		short: "Convert a .tbx archive into a .pyt toolbox",
		usage: "tbx2pyt convert [-stdout] <input.tbx> [output.pyt]",
		long: `Convert a toolbox archive into a Python toolbox source file.

The output path defaults to the input path with a .pyt extension.
Nothing is written when the archive is broken.

Flags:
  -stdout   print the generated source instead of writing a file
`,
		run: runConvert,
	},
	{
		name:  "batch",
		short: "Convert every source listed in the config file",
		usage: "tbx2pyt batch",
		long: `Convert every archive listed under "sources" in the config file
(TBX2PYT_CONFIG_FILE, default configs/tbx2pyt.yaml).

Each source is converted independently; failures are reported together.
`,
		run: runBatch,
	},
	{
		name:  "serve",
		short: "Serve the conversion tools over MCP",
		usage: "tbx2pyt serve [-transport stdio|sse]",
		long: `Expose convert_toolbox and preview_toolbox as MCP tools.

In sse mode the admin HTTP server (POST /admin/convert, POST /admin/convert-all)
is started on TBX2PYT_ADMIN_ADDR as well. In stdio mode logs go to TBX2PYT_LOG_FILE.

Flags:
  -transport   stdio or sse (default sse)
`,
		run: runServe,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "tbx2pyt converts legacy toolbox archives into Python toolboxes\n\n")
	fmt.Fprintf(w, "Usage:\n  tbx2pyt <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'tbx2pyt help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "tbx2pyt: unknown command %q\n\nRun 'tbx2pyt help' for usage.\n", name)
}

func dispatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(stdout, args[1])
		} else {
			printUsage(stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(ctx, args[1:], stdout, stderr)
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'tbx2pyt help' for usage.", args[0])
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "tbx2pyt: %v\n", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// convert
// ---------------------------------------------------------------------------

func runConvert(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	toStdout := fs.Bool("stdout", false, "print the generated source instead of writing a file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return fmt.Errorf("usage: tbx2pyt convert [-stdout] <input.tbx> [output.pyt]")
	}
	req := usecase.ConversionRequest{InputPath: fs.Arg(0), OutputPath: fs.Arg(1)}

	a, err := newApp(stderr, false)
	if err != nil {
		return err
	}
	defer a.close()

	// With -stdout the source owns stdout, so progress moves to stderr.
	progressOut := stdout
	if *toStdout {
		progressOut = stderr
	}
	progress := usecase.ProgressFunc(func(m string) { fmt.Fprintln(progressOut, m) })

	if !*toStdout {
		_, err := a.convert.Execute(ctx, req, progress)
		return err
	}
	res, err := a.preview.Execute(ctx, req, progress)
	if err != nil {
		return err
	}
	source, ok := a.store.Take(res.OutputPath)
	if !ok {
		return errors.New("no source was generated")
	}
	_, err = stdout.Write(source)
	return err
}

// ---------------------------------------------------------------------------
// batch
// ---------------------------------------------------------------------------

func runBatch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: tbx2pyt batch")
	}
	a, err := newApp(stderr, false)
	if err != nil {
		return err
	}
	defer a.close()

	results, err := a.batch.ConvertAllConfiguredSources(ctx, usecase.ProgressFunc(func(m string) {
		fmt.Fprintln(stdout, m)
	}))
	a.logger.Info("Batch finished", slog.Int("converted", len(results)))
	return err
}
