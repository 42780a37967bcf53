package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/squadracorsepolito/bmsmon/catalog"
	"github.com/squadracorsepolito/bmsmon/consumer"
	"github.com/squadracorsepolito/bmsmon/frame"
)

// signalsCmd lists the signals of the DBC file
func signalsCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "signals",
		Short: "List the signals defined by the DBC file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			cat, err := catalog.Load(cfg.Catalog.Path)
			if err != nil {
				return err
			}

			registry := consumer.NewRegistry()

			signals := cat.Signals()
			slices.SortFunc(signals, func(a, b catalog.SignalDef) int {
				return strings.Compare(a.Name, b.Name)
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tUNIT\tMESSAGE\tCONSUMER\tDESCRIPTION")

			for _, sig := range signals {
				if filter != "" && !strings.Contains(sig.Name, filter) {
					continue
				}

				consumerKey := "-"
				if c, ok := registry.Lookup(sig.Name); ok {
					consumerKey = c.Key()
				}

				unit := sig.Unit
				if unit == "" {
					unit = "-"
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					sig.Name, unit, frame.FormatID(sig.MessageID), consumerKey, catalog.Describe(sig.Name))
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only list the signals containing this string")
	return cmd
}
