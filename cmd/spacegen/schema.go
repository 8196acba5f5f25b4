package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/space-operator/space-go/envelope"
	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [type]",
		Short: "Print the JSON Schemas of the host call envelopes",
		Long: `Print the JSON Schema of one envelope type (RequestData, SendBytes,
SendString, SendForm, SendJSON), or of all of them keyed by name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSchema,
	}
	return cmd
}

func runSchema(cmd *cobra.Command, args []string) error {
	schemas, err := envelope.WireSchemas()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		schema, ok := schemas[args[0]]
		if !ok {
			names := make([]string, 0, len(schemas))
			for name := range schemas {
				names = append(names, name)
			}
			sort.Strings(names)
			return fmt.Errorf("unknown envelope type %q (known: %v)", args[0], names)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(schema))
		return err
	}

	all := make(map[string]json.RawMessage, len(schemas))
	for name, schema := range schemas {
		all[name] = schema
	}
	out, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
