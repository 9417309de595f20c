// Command pinec compiles Pine source files to RISC-V assembly.
//
// The produced assembly targets the Venus simulator's syscall conventions,
// so the output of `pinec program.pine` can be pasted straight into Venus
// and run.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/Pineapple-Pineapple/pine-rv/pkg/compiler"
)

var (
	outputPath     string
	printAsm       bool
	dumpTokensPath string
	dumpASTPath    string
	verbose        bool
	noColor        bool
)

func main() {
	app := cli.NewApp()
	app.Name = "pinec"
	app.Usage = "compile Pine source files to RISC-V assembly"
	app.Version = "0.1.0"
	app.ArgsUsage = "<file.pine>"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "output, o",
			Usage:       "write assembly to `FILE` instead of <file>.s",
			Destination: &outputPath,
		},
		cli.BoolFlag{
			Name:        "print, p",
			Usage:       "print assembly to stdout instead of writing a file",
			Destination: &printAsm,
		},
		cli.StringFlag{
			Name:        "dump-tokens",
			Usage:       "write the token stream to `FILE`",
			Destination: &dumpTokensPath,
		},
		cli.StringFlag{
			Name:        "dump-ast",
			Usage:       "write the parsed statements to `FILE`",
			Destination: &dumpASTPath,
		},
		cli.BoolFlag{
			Name:        "verbose, v",
			Usage:       "report what was compiled and the variables it declared",
			Destination: &verbose,
		},
		cli.BoolFlag{
			Name:        "no-color",
			Usage:       "hide colors in error messages",
			Destination: &noColor,
		},
	}

	app.Action = compileAction

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func compileAction(c *cli.Context) error {
	if noColor {
		color.NoColor = true
	}

	if c.NArg() != 1 {
		cli.ShowAppHelp(c)
		return cli.NewExitError("pinec: expected exactly one source file", 1)
	}

	filename := c.Args().First()
	if filepath.Ext(filename) != ".pine" {
		return cli.NewExitError(fmt.Sprintf("pinec: %s does not have the .pine extension", filename), 1)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("pinec: %v", err), 1)
	}
	src := string(data)

	tokens, err := compiler.Lex(src)
	if err != nil {
		return compileFailure(err, src)
	}
	if dumpTokensPath != "" {
		if err := writeTokenDump(dumpTokensPath, tokens); err != nil {
			return cli.NewExitError(fmt.Sprintf("pinec: %v", err), 1)
		}
	}

	prog, err := compiler.Parse(tokens)
	if err != nil {
		return compileFailure(err, src)
	}
	if dumpASTPath != "" {
		if err := writeASTDump(dumpASTPath, prog); err != nil {
			return cli.NewExitError(fmt.Sprintf("pinec: %v", err), 1)
		}
	}

	asm := compiler.Generate(prog)

	if printAsm {
		fmt.Print(asm)
		return nil
	}

	out := outputPath
	if out == "" {
		out = strings.TrimSuffix(filename, ".pine") + ".s"
	}
	if err := os.WriteFile(out, []byte(asm), 0o644); err != nil {
		return cli.NewExitError(fmt.Sprintf("pinec: %v", err), 1)
	}
	if verbose {
		reportSuccess(filename, out, prog)
	}
	return nil
}

// writeTokenDump records one token per line in scan order, mirroring what
// the lexer handed to the parser.
func writeTokenDump(path string, tokens []compiler.Token) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Fprintln(&b, " ", tok)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeASTDump(path string, prog *compiler.Program) error {
	var b strings.Builder
	fmt.Fprintln(&b, "AST")
	for _, s := range prog.Stmts {
		fmt.Fprintln(&b, " ", s)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// compileFailure prints a compile error rendered against its source and
// converts it into a bare exit status of 1.
func compileFailure(err error, src string) error {
	var cerr *compiler.CompileError
	if errors.As(err, &cerr) {
		fmt.Fprintln(os.Stderr, renderError(cerr, src))
		return cli.NewExitError("", 1)
	}
	return cli.NewExitError(fmt.Sprintf("pinec: %v", err), 1)
}

// renderError colors the formatted error report: the position header in
// bold red and the caret marker in red, with the quoted source line left
// untouched between them.
func renderError(cerr *compiler.CompileError, src string) string {
	redBold := color.New(color.FgRed, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	formatted := cerr.FormatWithSource(src)
	lines := strings.Split(formatted, "\n")
	if len(lines) < 3 {
		// No source excerpt to point at, color the whole message.
		return redBold(formatted)
	}

	out := []string{redBold(lines[0])}
	out = append(out, lines[1:len(lines)-1]...)
	out = append(out, red(lines[len(lines)-1]))
	return strings.Join(out, "\n")
}

func reportSuccess(filename, out string, prog *compiler.Program) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s %s -> %s\n", green("compiled"), filename, out)

	if len(prog.Types) == 0 {
		return
	}
	names := make([]string, 0, len(prog.Types))
	for name := range prog.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("Variables")
	for _, name := range names {
		fmt.Printf("  %-20s %s\n", name, prog.Types[name])
	}
}
