package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/ivanvanderbyl/pdfregion"
)

func main() {
	cmd := &cli.Command{
		Name:  "pdfregion",
		Usage: "Extract the text inside polygon regions of a PDF",
		Commands: []*cli.Command{
			{
				Name:  "extract",
				Usage: "Extract text inside the regions of a region script",
				Flags: append(commonFlags(),
					&cli.StringFlag{
						Name:     "regions",
						Aliases:  []string{"r"},
						Usage:    "Region script (YAML)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, json, yaml or markdown",
						Value:   "text",
					},
					&cli.BoolFlag{
						Name:  "all-pages",
						Usage: "Apply the reference region to every page",
					},
					&cli.StringFlag{
						Name:  "reference",
						Usage: "Id of the reference region for --all-pages (default: first region)",
					},
					&cli.BoolFlag{
						Name:  "metrics",
						Usage: "Log per-page timing",
					},
				),
				Action: extractRegions,
			},
			{
				Name:   "info",
				Usage:  "Show page count and which pages carry text",
				Flags:  commonFlags(),
				Action: showInfo,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("pdfregion failed")
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "Input PDF file path",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error",
			Value: "warn",
		},
	}
}

func newLogger(level string) *log.Logger {
	return &log.Logger{
		Level: log.ParseLevel(level),
		Writer: &log.ConsoleWriter{
			ColorOutput:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		},
	}
}

func extractRegions(_ context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd.String("log-level"))

	config := pdfregion.DefaultConfig()
	config.Logger = logger
	config.EnableMetricsLogging = cmd.Bool("metrics")
	if cmd.String("reference") != "" {
		config.Reference = pdfregion.ReferenceExplicit
	}

	model, err := pdfregion.NewModelWithConfig(config)
	if err != nil {
		return err
	}

	regionFile, err := os.Open(cmd.String("regions"))
	if err != nil {
		return errors.Wrap(err, "failed to open region script")
	}
	created, err := loadRegions(regionFile, model)
	regionFile.Close()
	if err != nil {
		return err
	}
	logger.Info().Int("regions", created).Float64("scale", model.Scale()).Msg("regions loaded")

	pool, instance, err := pdfregion.InitWorker(time.Second * 30)
	if err != nil {
		return err
	}
	defer pool.Close()

	source, err := pdfregion.OpenFile(instance, cmd.String("input"))
	if err != nil {
		return err
	}
	defer source.Close()

	extractor, err := pdfregion.NewExtractorWithConfig(source, config)
	if err != nil {
		return err
	}
	extractor.ReferenceID = cmd.String("reference")

	var results []pdfregion.ExtractedResult
	if cmd.Bool("all-pages") {
		results, err = model.ExtractAllPages(extractor)
	} else {
		results, err = model.Extract(extractor)
	}
	if err != nil {
		return errors.Wrap(err, "extraction failed")
	}

	out := io.Writer(os.Stdout)
	if outputPath := cmd.String("output"); outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}
		defer f.Close()
		out = f
	}

	return writeResults(out, results, cmd.String("format"))
}

func showInfo(_ context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd.String("log-level"))

	pool, instance, err := pdfregion.InitWorker(time.Second * 30)
	if err != nil {
		return err
	}
	defer pool.Close()

	source, err := pdfregion.OpenFile(instance, cmd.String("input"))
	if err != nil {
		return err
	}
	defer source.Close()

	config := pdfregion.DefaultConfig()
	config.Logger = logger
	extractor, err := pdfregion.NewExtractorWithConfig(source, config)
	if err != nil {
		return err
	}

	pageCount, err := source.PageCount()
	if err != nil {
		return err
	}

	fmt.Printf("Pages: %d\n", pageCount)
	for page := 1; page <= pageCount; page++ {
		hasText, err := extractor.PageHasText(page, config.DefaultScale)
		if err != nil {
			return err
		}
		status := "no text"
		if hasText {
			status = "text"
		}
		fmt.Printf("  Page %d: %s\n", page, status)
	}
	return nil
}

func writeResults(w io.Writer, results []pdfregion.ExtractedResult, format string) error {
	switch strings.ToLower(format) {
	case "text", "":
		for _, r := range results {
			if _, err := fmt.Fprintf(w, "[page %d] %s\n%s\n\n", r.PageNumber, r.SourcePolygonID, r.Text); err != nil {
				return err
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(results)
	case "markdown", "md":
		_, err := io.WriteString(w, pdfregion.ResultsToMarkdown(results))
		return err
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}
