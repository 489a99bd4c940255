package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/specialistvlad/defigrid/internal/app"
	"github.com/specialistvlad/defigrid/internal/engine"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const envPrefix = "DEFIGRID"

var replacer = strings.NewReplacer("-", "_")

// Execute runs the command line described by args, writing results and
// logs to outW.
func Execute(ctx context.Context, outW io.Writer, args []string) error {
	cmd := NewRootCommand(outW)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand builds the defigrid command tree. Settings are read from
// flags, DEFIGRID_* environment variables and an optional config file, in
// that order of precedence.
func NewRootCommand(outW io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "defigrid",
		Short: "defigrid runs DeFi workflows as dependency graphs of nodes.",
		Long: `defigrid runs DeFi workflows as dependency graphs of nodes.

Workflows are .hcl or .json files. Independent nodes run concurrently; a
failed node skips only its own descendants. Nodes that need a wallet
signature pause until the signer answers or the signing deadline passes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return readConfigFile(v)
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	setupFlags(root.PersistentFlags())
	// Binding only fails on a nil flag, which setupFlags never produces.
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(newRunCommand(v, outW), newValidateCommand(v, outW), newServeCommand(v, outW))
	return root
}

func setupFlags(fs *pflag.FlagSet) {
	fs.String("config-file", "", "Path to a config file (yaml, json or toml).")
	fs.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.Int("workers", 10, "Maximum number of nodes executing at once.")
	fs.Duration("node-timeout", 0, "Upper bound on a single node execution. 0 uses twice the signing timeout.")
	fs.Duration("signing-timeout", 0, "Default wait for an external signature. 0 uses the built-in default.")
	fs.Duration("record-ttl", 0, "How long finished executions stay queryable. 0 uses the built-in default.")
	fs.String("listen-addr", ":8080", "Address the HTTP API listens on.")
	fs.String("dex-url", "", "Base URL of the DEX aggregator API.")
	fs.String("dex-api-key", "", "API key for the DEX aggregator.")
	fs.StringSlice("rpc", nil, "Chain RPC endpoint as CHAIN_ID=URL. Repeatable.")
	fs.Uint64("rpc-retries", 3, "Retries for transient chain RPC read failures.")
	fs.Duration("poll-interval", 0, "Receipt polling interval of transaction monitors.")
	fs.String("signer-url", "", "Socket.IO signer bridge URL.")
	fs.String("signer-namespace", "/", "Socket.IO namespace of the signer bridge.")
	fs.Bool("signer-insecure", false, "Skip TLS verification when connecting to the signer.")
}

func readConfigFile(v *viper.Viper) error {
	path := v.GetString("config-file")
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return &ExitError{Code: 2, Message: fmt.Sprintf("failed to read config file: %v", err)}
	}
	return nil
}

func loadConfig(v *viper.Viper) (*app.Config, error) {
	endpoints, err := parseEndpoints(v.GetStringSlice("rpc"))
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	cfg, err := app.NewConfig(app.Config{
		LogLevel:        strings.ToLower(v.GetString("log-level")),
		LogFormat:       strings.ToLower(v.GetString("log-format")),
		Workers:         v.GetInt("workers"),
		NodeTimeout:     v.GetDuration("node-timeout"),
		SigningTimeout:  v.GetDuration("signing-timeout"),
		RecordTTL:       v.GetDuration("record-ttl"),
		ListenAddr:      v.GetString("listen-addr"),
		DEXURL:          v.GetString("dex-url"),
		DEXAPIKey:       v.GetString("dex-api-key"),
		RPCEndpoints:    endpoints,
		RPCRetries:      v.GetUint64("rpc-retries"),
		PollInterval:    v.GetDuration("poll-interval"),
		SignerURL:       v.GetString("signer-url"),
		SignerNamespace: v.GetString("signer-namespace"),
		SignerInsecure:  v.GetBool("signer-insecure"),
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, nil
}

// parseEndpoints reads CHAIN_ID=URL pairs.
func parseEndpoints(pairs []string) (map[int64]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[int64]string, len(pairs))
	for _, p := range pairs {
		id, url, ok := strings.Cut(p, "=")
		if !ok || url == "" {
			return nil, fmt.Errorf("invalid rpc endpoint %q: expected CHAIN_ID=URL", p)
		}
		chainID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id in rpc endpoint %q", p)
		}
		out[chainID] = strings.TrimSpace(url)
	}
	return out, nil
}

// parseVars reads KEY=VALUE pairs. Values that parse as JSON keep their
// type; anything else is a string.
func parseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, raw, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid variable %q: expected KEY=VALUE", p)
		}
		var val any
		if err := json.Unmarshal([]byte(raw), &val); err != nil {
			val = raw
		}
		out[k] = val
	}
	return out, nil
}

func newApp(ctx context.Context, v *viper.Viper, outW io.Writer) (*app.App, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	return app.NewApp(ctx, outW, cfg)
}

func newRunCommand(v *viper.Viper, outW io.Writer) *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "run PATH",
		Short: "Execute every workflow in a file or directory and print the results as JSON.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variables, err := parseVars(vars)
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			a, err := newApp(cmd.Context(), v, outW)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(cmd.Context()))

			err = a.Run(cmd.Context(), args[0], engine.Request{Variables: variables})
			if errors.Is(err, app.ErrRunFailed) {
				return &ExitError{Code: 1, Message: err.Error()}
			}
			return err
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Workflow variable as KEY=VALUE. Repeatable.")
	return cmd
}

func newValidateCommand(v *viper.Viper, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH",
		Short: "Check the structure of every workflow in a file or directory without running it.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v, outW)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(cmd.Context()))
			return a.Validate(cmd.Context(), args[0])
		},
	}
}

func newServeCommand(v *viper.Viper, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, v, outW)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))
			return a.Serve(ctx)
		},
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
		return nil
	}
}
