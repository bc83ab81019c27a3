package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/facetrace/facetrace/internal/config"
)

var detectionsCmd = &cobra.Command{
	Use:   "detections",
	Short: "List logged detection events",
	Long: `List detection events from the audit log, newest first.

By default only recognized detections are shown. Use --unknown to list
the faces that scored below the similarity threshold instead.`,
	RunE: runDetections,
}

func init() {
	rootCmd.AddCommand(detectionsCmd)
	detectionsCmd.Flags().Bool("unknown", false, "List unrecognized detections instead of recognized ones")
	detectionsCmd.Flags().Bool("json", false, "Print events as JSON")
}

type detectionRow struct {
	ID         int64    `json:"id"`
	Person     string   `json:"person"`
	Filename   string   `json:"filename"`
	Similarity float64  `json:"similarity"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

func runDetections(cmd *cobra.Command, args []string) error {
	unknown := mustGetBool(cmd, "unknown")
	asJSON := mustGetBool(cmd, "json")

	cfg := config.Load()
	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := db.Detections.ListByRecognized(context.Background(), !unknown)
	if err != nil {
		return fmt.Errorf("failed to list detections: %w", err)
	}

	rows := make([]detectionRow, 0, len(events))
	for _, event := range events {
		rows = append(rows, detectionRow{
			ID:         event.ID,
			Person:     event.PersonName(),
			Filename:   event.ImageRef,
			Similarity: event.Similarity,
			Latitude:   event.Latitude,
			Longitude:  event.Longitude,
			CreatedAt:  event.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No detections found.")
		return nil
	}

	for _, row := range rows {
		loc := ""
		if row.Latitude != nil && row.Longitude != nil {
			loc = fmt.Sprintf(" @ %.5f,%.5f", *row.Latitude, *row.Longitude)
		}
		fmt.Printf("#%d  %-20s %.3f  %s%s  (%s)\n",
			row.ID, row.Person, row.Similarity, row.Filename, loc, row.CreatedAt)
	}
	fmt.Printf("\nTotal: %d detection(s)\n", len(rows))
	return nil
}
