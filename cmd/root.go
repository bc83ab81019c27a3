package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facetrace",
	Short: "A face identification service with a geolocated detection log",
	Long: `FaceTrace identifies people in photographs by comparing face embeddings
against a labeled reference corpus. Every identification attempt is
logged together with its similarity score and optional geolocation.

Face detection and embedding extraction run in a separate embedding
server (see EXTRACTOR_URL); this binary owns the corpus, the matching
decision, and the detection log.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
