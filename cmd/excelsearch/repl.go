// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive console for issuing operations",
	Long: `Starts an interactive console. Each line is an operation name
optionally followed by a JSON arguments object:

  list_files {"recursive": true}
  get_summary {"file_path": "reports/q3.xlsx"}

Type "help" for the operation catalog, "exit" to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !term.IsTerminal(int(os.Stdin.Fd())) {
			// Piped input: behave like serve but with repl line syntax.
			return runPlainRepl(ctx, application, os.Stdin, os.Stdout)
		}
		return runRepl(ctx, application)
	},
}

func runRepl(ctx context.Context, application *app) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "excelsearch> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("cannot start console: %w", err)
	}
	defer rl.Close()

	fmt.Printf("Work directory: %s\n", application.cfg.WorkDirectory)
	fmt.Println(`Type "help" for operations, "exit" to quit.`)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help":
			printCatalog(application)
			continue
		}

		printEnvelope(evalLine(ctx, application, line))
	}
}

func runPlainRepl(ctx context.Context, application *app, in io.Reader, out io.Writer) error {
	scan := bufio.NewScanner(in)
	for scan.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}
		fmt.Fprintln(out, string(evalLine(ctx, application, line)))
	}
	return scan.Err()
}

// splitLine separates the operation name from its optional JSON arguments.
func splitLine(line string) (string, map[string]any, error) {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	args := map[string]any{}
	if rest != "" {
		if err := json.Unmarshal([]byte(rest), &args); err != nil {
			return "", nil, fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}
	return name, args, nil
}

func evalLine(ctx context.Context, application *app, line string) []byte {
	name, args, err := splitLine(line)
	if err != nil {
		return []byte(fmt.Sprintf("error: %v", err))
	}

	envelope := application.registry.Dispatch(ctx, name, args)
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return []byte(fmt.Sprintf("error: %v", err))
	}
	return data
}

func printEnvelope(data []byte) {
	fmt.Println(string(data))
}

func printCatalog(application *app) {
	for _, op := range application.registry.Catalog() {
		fmt.Printf("  %-20s %s\n", op.Name, op.Description)
	}
}

func init() {
	rootCmd.AddCommand(replCmd)
}
