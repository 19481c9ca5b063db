// Command docshape converts a single document from the command line,
// running the same extraction and transformation pipeline as the server.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/docshape/docshape/internal/extract"
	"github.com/docshape/docshape/internal/pipeline"
	"github.com/docshape/docshape/internal/sink"
)

func main() {
	var (
		input        string
		output       string
		format       string
		pipelineFile string
		pdfFallback  bool
	)

	pflag.StringVarP(&input, "input", "i", "", "input document (.html, .md, .docx, .pdf)")
	pflag.StringVarP(&output, "output", "o", "", "output file (default stdout)")
	pflag.StringVarP(&format, "format", "f", "json", "output format: "+strings.Join(sink.Formats, ", "))
	pflag.StringVarP(&pipelineFile, "pipeline", "p", "", "pipeline YAML file (default built-in normalization)")
	pflag.BoolVar(&pdfFallback, "pdftotext-fallback", false, "fall back to the pdftotext binary for unreadable PDFs")
	pflag.Parse()

	if input == "" {
		fmt.Fprintln(os.Stderr, "error: --input is required")
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(input, output, format, pipelineFile, pdfFallback); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(input, output, format, pipelineFile string, pdfFallback bool) error {
	if !sink.IsSupportedFormat(format) {
		return fmt.Errorf("unsupported output format %q (supported: %s)", format, strings.Join(sink.Formats, ", "))
	}
	s, err := sink.ForFormat(format)
	if err != nil {
		return err
	}

	specs := pipeline.DefaultStages()
	if pipelineFile != "" {
		f, err := os.Open(pipelineFile)
		if err != nil {
			return fmt.Errorf("open pipeline: %w", err)
		}
		pc, err := pipeline.LoadPipeline(f)
		f.Close()
		if err != nil {
			return err
		}
		specs = pc.Stages
	}
	stages, err := pipeline.BuildStages(specs)
	if err != nil {
		return err
	}

	ex, err := extract.ForFile(input)
	if err != nil {
		return err
	}
	if pdfEx, ok := ex.(*extract.PDFExtractor); ok {
		pdfEx.FallbackPdftotext = pdfFallback
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	doc, err := ex.Extract(in, input)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	doc, err = pipeline.Compose(stages)(doc)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}

	out, err := s.Render(doc)
	if err != nil {
		return err
	}

	if output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(output, out, 0o644)
}
