package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/facetrace/facetrace/internal/config"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Show reference corpus statistics",
	Long: `Show statistics about the reference corpus: how many embeddings are
stored, how many distinct people they cover, and the per-person counts.`,
	RunE: runCorpus,
}

func init() {
	rootCmd.AddCommand(corpusCmd)
	corpusCmd.Flags().Bool("json", false, "Print statistics as JSON")
}

type corpusStats struct {
	Embeddings int            `json:"embeddings"`
	People     int            `json:"people"`
	Detections int            `json:"detections"`
	PerPerson  map[string]int `json:"per_person"`
}

func runCorpus(cmd *cobra.Command, args []string) error {
	asJSON := mustGetBool(cmd, "json")

	cfg := config.Load()
	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	refs, err := db.References.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reference corpus: %w", err)
	}
	detectionCount, err := db.Detections.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count detections: %w", err)
	}

	stats := corpusStats{
		Embeddings: len(refs),
		Detections: detectionCount,
		PerPerson:  make(map[string]int),
	}
	for _, ref := range refs {
		stats.PerPerson[ref.Person]++
	}
	stats.People = len(stats.PerPerson)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Reference embeddings: %d\n", stats.Embeddings)
	fmt.Printf("People: %d\n", stats.People)
	fmt.Printf("Detection events: %d\n", stats.Detections)

	if len(stats.PerPerson) > 0 {
		people := make([]string, 0, len(stats.PerPerson))
		for person := range stats.PerPerson {
			people = append(people, person)
		}
		sort.Strings(people)

		fmt.Println()
		for _, person := range people {
			fmt.Printf("  %-20s %d\n", person, stats.PerPerson[person])
		}
	}
	return nil
}
