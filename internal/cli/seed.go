package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"concierge/internal/models"
)

var (
	seedRestaurantsFile string
	seedEventsFile      string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load restaurant and event documents into the catalog",
	Long: `Reads JSON arrays of restaurant and event documents and upserts them
into the local catalog. Restaurants are keyed by name and address; events by
event_id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if seedRestaurantsFile == "" && seedEventsFile == "" {
			return fmt.Errorf("nothing to do: pass --restaurants and/or --events")
		}

		if seedRestaurantsFile != "" {
			var docs []models.Restaurant
			if err := readJSONFile(seedRestaurantsFile, &docs); err != nil {
				return err
			}
			n, err := dbStore.UpsertRestaurants(ctx, docs)
			if err != nil {
				return fmt.Errorf("seed restaurants: %w", err)
			}
			fmt.Printf("Upserted %d restaurants\n", n)
		}

		if seedEventsFile != "" {
			var docs []models.Event
			if err := readJSONFile(seedEventsFile, &docs); err != nil {
				return err
			}
			n, err := dbStore.UpsertEvents(ctx, docs)
			if err != nil {
				return fmt.Errorf("seed events: %w", err)
			}
			fmt.Printf("Upserted %d events\n", n)
		}
		return nil
	},
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedRestaurantsFile, "restaurants", "", "JSON file of restaurant documents")
	seedCmd.Flags().StringVar(&seedEventsFile, "events", "", "JSON file of event documents")
}
