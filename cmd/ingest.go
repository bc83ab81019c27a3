package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/extractor"
	"github.com/facetrace/facetrace/internal/recognition"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <folder-path> [folder-path...]",
	Short: "Bulk-load reference images from folders",
	Long: `Scan one or more folders for reference images, extract face embeddings
and add them to the reference corpus.

The person label is taken from the leading alphabetic part of each
filename: Alice_01.jpg and alice-beach.png both label "alice". Files
whose names carry no alphabetic prefix are skipped.

By default, only files directly in the specified folders are ingested.
Use -r to search recursively in subdirectories.

Example:
  facetrace ingest /path/to/references
  facetrace ingest -r /path/to/folder1 /path/to/folder2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolP("recursive", "r", false, "Search for images recursively in subdirectories")
	ingestCmd.Flags().Bool("json", false, "Print the summary as JSON")
}

// isDecodableImage reports whether the file starts with a header one of
// the registered image codecs understands. Extension checks alone let
// renamed non-images through to the extractor.
func isDecodableImage(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	_, _, err = image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

// collectImageFiles gathers decodable image files from the given folders.
func collectImageFiles(folderPaths []string, recursive bool) ([]string, error) {
	var filePaths []string
	for _, folderPath := range folderPaths {
		info, err := os.Stat(folderPath)
		if err != nil {
			return nil, fmt.Errorf("cannot access folder %s: %w", folderPath, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", folderPath)
		}

		if recursive {
			err := filepath.WalkDir(folderPath, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isDecodableImage(path) {
					filePaths = append(filePaths, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("cannot walk folder %s: %w", folderPath, err)
			}
		} else {
			entries, err := os.ReadDir(folderPath)
			if err != nil {
				return nil, fmt.Errorf("cannot read folder %s: %w", folderPath, err)
			}
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				path := filepath.Join(folderPath, entry.Name())
				if isDecodableImage(path) {
					filePaths = append(filePaths, path)
				}
			}
		}
	}
	return filePaths, nil
}

type ingestSummary struct {
	Files    int      `json:"files"`
	Faces    int      `json:"faces"`
	Skipped  int      `json:"skipped"`
	Failures []string `json:"failures,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	recursive := mustGetBool(cmd, "recursive")
	asJSON := mustGetBool(cmd, "json")

	cfg := config.Load()
	if cfg.Extractor.URL == "" {
		return errors.New("EXTRACTOR_URL environment variable is required")
	}

	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	filePaths, err := collectImageFiles(args, recursive)
	if err != nil {
		return err
	}
	if len(filePaths) == 0 {
		fmt.Println("No image files found in the specified folders.")
		return nil
	}
	if !asJSON {
		fmt.Printf("Found %d image(s) in %d folder(s)\n", len(filePaths), len(args))
	}

	client := extractor.NewHandle(cfg.Extractor.URL).Client()
	ingestor := recognition.NewIngestor(db.References, cfg.Recognition.Dim)
	ctx := context.Background()

	var bar *progressbar.ProgressBar
	if !asJSON {
		bar = progressbar.NewOptions(len(filePaths),
			progressbar.OptionSetDescription("Extracting"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	summary := ingestSummary{}
	var batch []recognition.LabeledEmbeddings
	for _, filePath := range filePaths {
		fileName := filepath.Base(filePath)

		if _, ok := recognition.PersonLabel(fileName); !ok {
			summary.Skipped++
			if bar != nil {
				bar.Add(1)
			}
			continue
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %v", fileName, err))
			if bar != nil {
				bar.Add(1)
			}
			continue
		}

		faces, err := client.ExtractFaces(ctx, data)
		if err != nil {
			summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %v", fileName, err))
			if bar != nil {
				bar.Add(1)
			}
			continue
		}

		embeddings := make([][]float32, 0, len(faces))
		for _, face := range faces {
			embeddings = append(embeddings, face.Embedding)
		}
		batch = append(batch, recognition.LabeledEmbeddings{
			Source:     fileName,
			Embeddings: embeddings,
		})
		summary.Files++
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		fmt.Println()
	}

	added, err := ingestor.IngestBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to ingest batch: %w", err)
	}
	summary.Faces = added

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	for _, msg := range summary.Failures {
		fmt.Printf("Failed: %s\n", msg)
	}
	fmt.Printf("\nDone! Ingested %d face(s) from %d file(s), skipped %d unlabeled file(s)\n",
		summary.Faces, summary.Files, summary.Skipped)
	return nil
}
