/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"proposalwriter/internal/config"
	"proposalwriter/internal/crash"
	applog "proposalwriter/internal/log"
	"proposalwriter/internal/storage"
	"proposalwriter/internal/version"
)

// errUsage makes main print the usage and exit with code 2.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintln(w, "Proposal Writer")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  proposalwriter version                                Show version")
	fmt.Fprintln(w, "  proposalwriter init <dir> <name> [flags]              Create a proposal at <dir>")
	fmt.Fprintln(w, "  proposalwriter open <dir>                             Print a summary and check the index")
	fmt.Fprintln(w, "  proposalwriter page <dir> add|dup|rm|mv <args>        Manage pages")
	fmt.Fprintln(w, "  proposalwriter add-text <dir> <page> <text>           Add a text box to page number <page>")
	fmt.Fprintln(w, "  proposalwriter captures <dir>                         Place queued 3D captures on the first page")
	fmt.Fprintln(w, "  proposalwriter import-bom <dir> <table.json>          Replace the bill of materials pages")
	fmt.Fprintln(w, "  proposalwriter export-pdf <dir> [flags]               Write proposal-<timestamp>.pdf")
	fmt.Fprintln(w, "  proposalwriter export-png <dir> [flags]               Batch export page images")
	fmt.Fprintln(w, "  proposalwriter thumbs <dir>                           Build cached page thumbnails")
	fmt.Fprintln(w, "  proposalwriter history <dir> <page> [-restore N]      List or restore page snapshots")
	fmt.Fprintln(w, "  proposalwriter pack <dir> <out.zip>                   Bundle a proposal for hand-off")
	fmt.Fprintln(w, "  proposalwriter unpack <bundle.zip> <dir>              Restore a bundle into a new folder")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No config location; log settings come from PRW_LOG_* alone.
		fmt.Fprintln(os.Stderr, "config:", err)
		applog.Init(applog.FromEnv())
	} else {
		applog.Init(applog.Options{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.Source,
			File:      cfg.Logging.File,
		})
	}
	l := applog.WithComponent("cli")

	a := &app{cfg: cfg, out: os.Stdout}
	defer crash.RecoverWith(func() *storage.ProjectHandle { return a.ph })

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	l.Debug("start", slog.Int("args", len(os.Args)))
	err = a.run(ctx, os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		usage(os.Stderr)
		stop()
		os.Exit(2)
	default:
		l.Error("command failed", slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(a.out)
		return nil
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version", "--version", "-v":
		fmt.Fprintln(a.out, "Proposal Writer")
		fmt.Fprintln(a.out, version.String())
		return nil
	case "help", "-h", "--help":
		usage(a.out)
		return nil
	case "init":
		return a.cmdInit(rest)
	case "open":
		return a.cmdOpen(ctx, rest)
	case "page":
		return a.cmdPage(ctx, rest)
	case "add-text":
		return a.cmdAddText(ctx, rest)
	case "captures":
		return a.cmdCaptures(ctx, rest)
	case "import-bom":
		return a.cmdImportBOM(ctx, rest)
	case "export-pdf":
		return a.cmdExportPDF(ctx, rest)
	case "export-png":
		return a.cmdExportPNG(ctx, rest)
	case "thumbs":
		return a.cmdThumbs(ctx, rest)
	case "history":
		return a.cmdHistory(ctx, rest)
	case "pack":
		return a.cmdPack(ctx, rest)
	case "unpack":
		return a.cmdUnpack(ctx, rest)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}
