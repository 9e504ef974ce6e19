package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"CapStore/internal/events"
)

func newInvalidateCmd() *cobra.Command {
	var (
		brokers string
		topic   string
	)

	cmd := &cobra.Command{
		Use:   "invalidate [collection]",
		Short: "Publish a catalog.updated event; no collection means all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if brokers == "" {
				return errors.New("--brokers or KAFKA_BROKERS required")
			}
			var name string
			if len(args) == 1 {
				name = args[0]
			}

			p := events.NewPublisher(strings.Split(brokers, ","), topic)
			defer func() { _ = p.Close() }()

			if err := p.CatalogUpdated(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "published")
			return nil
		},
	}

	cmd.Flags().StringVar(&brokers, "brokers", os.Getenv("KAFKA_BROKERS"), "comma separated kafka brokers")
	cmd.Flags().StringVar(&topic, "topic", "catalog.updated", "topic")
	return cmd
}
