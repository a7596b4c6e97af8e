// Command simpleschema parses schema description files, validates documents
// against them, and emits template documents.
//
// Usage:
//
//	simpleschema check <schema-file>
//	simpleschema validate -schema <schema-file> [-exists] [-unknown] <doc.json|doc.yaml>
//	simpleschema template -schema <schema-file> [-format json|yaml]
//
// Exit codes: 0 ok, 1 validation violations, 2 usage or parse errors.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	gojson "github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	simpleschema "github.com/commonenv/simpleschema"
)

func main() {
	color.NoColor = color.NoColor || !isatty.IsTerminal(os.Stdout.Fd())
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "check":
		checkCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	case "template":
		templateCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `simpleschema CLI

Usage:
  simpleschema check <schema-file>
  simpleschema validate -schema <schema-file> [-exists] [-unknown] <doc.json|doc.yaml>
  simpleschema template -schema <schema-file> [-format json|yaml]`)
}

func checkCmd(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	m := loadSchema(fs.Arg(0))
	fmt.Printf("ok: %d top-level element(s), %d named type(s)\n", len(m.Roots()), len(m.NamedTypes()))
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var schemaPath string
	var checkExists, reportUnknown bool
	fs.StringVar(&schemaPath, "schema", "", "schema description file")
	fs.BoolVar(&checkExists, "exists", false, "check ensure_exists constraints against the filesystem, relative to the document")
	fs.BoolVar(&reportUnknown, "unknown", false, "report document keys the schema does not declare")
	_ = fs.Parse(args)
	if schemaPath == "" || fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	docPath := fs.Arg(0)

	m := loadSchema(schemaPath)
	doc := loadDocument(docPath)

	var opts []simpleschema.ValidateOption
	if checkExists {
		base := filepath.Dir(docPath)
		opts = append(opts, simpleschema.WithOracle(simpleschema.OracleFunc(
			func(_ context.Context, name string) bool {
				if !filepath.IsAbs(name) {
					name = filepath.Join(base, name)
				}
				_, err := os.Stat(name)
				return err == nil
			})))
	}
	if reportUnknown {
		opts = append(opts, simpleschema.WithUnknownKeys(simpleschema.UnknownReport))
	}

	err := simpleschema.Validate(context.Background(), doc, m, opts...)
	if err == nil {
		fmt.Println(color.GreenString("ok"))
		return
	}
	vs, ok := simpleschema.AsViolations(err)
	if !ok {
		fatalf("validate: %v", err)
	}
	for _, v := range vs {
		fmt.Printf("%s  %s: %s\n", color.New(color.Bold).Sprint(v.Path), color.RedString(v.Constraint), v.Message)
	}
	fmt.Fprintf(os.Stderr, "%d violation(s)\n", len(vs))
	os.Exit(1)
}

func templateCmd(args []string) {
	fs := flag.NewFlagSet("template", flag.ExitOnError)
	var schemaPath, format string
	fs.StringVar(&schemaPath, "schema", "", "schema description file")
	fs.StringVar(&format, "format", "json", "output format: json or yaml")
	_ = fs.Parse(args)
	if schemaPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	doc := simpleschema.Generate(loadSchema(schemaPath))
	switch format {
	case "json":
		out, err := gojson.MarshalIndent(doc, "", "  ")
		if err != nil {
			fatalf("encode template: %v", err)
		}
		fmt.Println(string(out))
	case "yaml":
		out, err := yaml.Marshal(doc)
		if err != nil {
			fatalf("encode template: %v", err)
		}
		fmt.Print(string(out))
	default:
		fatalf("unknown format %q", format)
	}
}

func loadSchema(path string) *simpleschema.Model {
	text, err := os.ReadFile(path)
	if err != nil {
		fatalf("read schema: %v", err)
	}
	m, err := simpleschema.Parse(string(text))
	if err != nil {
		fatalf("%v", err)
	}
	return m
}

func loadDocument(path string) map[string]any {
	b, err := os.ReadFile(path)
	if err != nil {
		fatalf("read document: %v", err)
	}
	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = simpleschema.YAMLBytes(b)
	default:
		doc, err = simpleschema.JSONBytes(b)
	}
	if err != nil {
		fatalf("%v", err)
	}
	return doc
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(2)
}
