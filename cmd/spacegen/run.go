package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/host"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <module.wasm>",
		Short: "Invoke an export of a guest module",
		Long: `Instantiate a guest module against the reference HTTP host and invoke
one of its exports. Input and output are JSON; they are converted to and
from the configured envelope codec at the boundary.

Input can be provided via:
  - Inline flag: spacegen run guest.wasm -e double -i '21'
  - Stdin:       echo '{"amount": 5}' | spacegen run guest.wasm -e quote`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}
	cmd.Flags().StringP("config", "c", "", "Host config file (YAML)")
	cmd.Flags().StringP("export", "e", "", "Export to invoke")
	cmd.Flags().StringP("input", "i", "", "JSON input (default: stdin, or none for --list)")
	cmd.Flags().String("codec", "", "Envelope codec: cbor, msgpack (overrides config)")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	cmd.Flags().Bool("list", false, "List the module's exports and exit")
	return cmd
}

func loadRunConfig(cmd *cobra.Command, args []string) (*host.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg := &host.Config{}
	if path != "" {
		loaded, err := host.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if len(args) > 0 {
		cfg.Module = args[0]
	}
	if codec, _ := cmd.Flags().GetString("codec"); codec != "" {
		cfg.Codec = codec
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	if err := envelope.Validator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid run configuration: %w", err)
	}
	return cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
	opts, err := cfg.Options(logger)
	if err != nil {
		return err
	}

	wasm, err := os.ReadFile(cfg.Module)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	ctx := cmd.Context()
	executor, err := host.NewExecutor(ctx, opts...)
	if err != nil {
		return err
	}
	defer executor.Close(ctx)

	inst, err := executor.LoadModule(ctx, wasm)
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	if list, _ := cmd.Flags().GetBool("list"); list {
		exports := inst.Exports()
		sort.Strings(exports)
		for _, name := range exports {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	name, _ := cmd.Flags().GetString("export")
	if name == "" {
		return errors.New("--export is required (use --list to see exports)")
	}

	codec, err := cfg.CodecValue()
	if err != nil {
		return err
	}

	inputFlag, _ := cmd.Flags().GetString("input")
	rawInput := []byte(inputFlag)
	if inputFlag == "" {
		if rawInput, err = io.ReadAll(cmd.InOrStdin()); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	input, err := jsonToEnvelope(codec, rawInput)
	if err != nil {
		return err
	}

	output, err := inst.Invoke(ctx, name, input)
	if err != nil {
		return err
	}

	doc, err := envelopeToJSON(codec, output)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(doc))
	return err
}

// jsonToEnvelope re-encodes a JSON document with codec. Integral numbers
// stay integers so that guests decoding into integer types accept them.
// Empty input encodes as null.
func jsonToEnvelope(codec envelope.Codec, doc []byte) ([]byte, error) {
	var v any
	if len(bytes.TrimSpace(doc)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(doc))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("parse input JSON: %w", err)
		}
	}
	return codec.Marshal(normalizeNumbers(v))
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := t.Int64(); err == nil {
				return i
			}
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	default:
		return v
	}
}

// envelopeToJSON decodes an envelope into generic values and renders them
// as indented JSON.
func envelopeToJSON(codec envelope.Codec, data []byte) ([]byte, error) {
	var v any
	if err := codec.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render output as JSON: %w", err)
	}
	return out, nil
}
