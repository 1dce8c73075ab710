package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"epubpages/internal/epub"
	"epubpages/internal/paginate"
)

const defaultWordsPerPage = 250

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epubpages <book.epub>",
		Short: "Paginate an EPUB ebook by word count",
		Long: `epubpages computes synthetic page boundaries for an EPUB from word
counts across its reading order, inserts page-break markers into the
content documents, and regenerates the NCX pageList and the EPUB 3
page-list navigation so both stay consistent with the markers.

Without --commit the run is a pure read that reports the projected
totals. With --commit a new file named <stem>.paginated.epub is written
alongside the original, which is left untouched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	cmd.Flags().IntP("words-per-page", "w", defaultWordsPerPage, "Number of words per synthetic page")
	cmd.Flags().BoolP("commit", "c", false, "Write the paginated package (default: report only)")
	cmd.Flags().StringP("output", "o", "", "Output file path (default: input with .paginated.epub extension)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	wordsPerPage, _ := cmd.Flags().GetInt("words-per-page")
	commit, _ := cmd.Flags().GetBool("commit")
	outputPath, _ := cmd.Flags().GetString("output")

	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".paginated.epub"
	}

	p := paginate.NewPipeline(paginate.Options{
		InputPath:    inputPath,
		OutputPath:   outputPath,
		WordsPerPage: wordsPerPage,
		Commit:       commit,
	})

	result, err := p.Run()
	if err != nil {
		return err
	}

	fmt.Printf("%d words, %d pages at %d words per page\n", result.Words, result.Pages, wordsPerPage)
	if result.OutputPath != "" {
		fmt.Printf("Wrote %s\n", result.OutputPath)
	}
	return nil
}

// exitCode maps run failures to the documented exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return 1
	case errors.Is(err, epub.ErrContainerNotFound),
		errors.Is(err, epub.ErrMimetypeNotFound),
		errors.Is(err, epub.ErrMimetypeCompressed),
		errors.Is(err, epub.ErrInvalidMimetype):
		return 2
	case errors.Is(err, epub.ErrNoRootfile):
		return 3
	case errors.Is(err, epub.ErrOPFNotFound):
		return 4
	default:
		return 1
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
