// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package consolecmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lachlanorr/consolerw/pkg/console"
	"github.com/lachlanorr/consolerw/pkg/stream"
	"github.com/lachlanorr/consolerw/pkg/stream/offline"
	"github.com/lachlanorr/consolerw/pkg/telem"
)

const (
	BACKEND_KAFKA   = "kafka"
	BACKEND_OFFLINE = "offline"
)

// Settings holds flag values. Environment variables provide the
// defaults and flags override them.
type Settings struct {
	Scope           string `env:"CONSOLERW_SCOPE" envDefault:"examples"`
	Stream          string `env:"CONSOLERW_STREAM" envDefault:"someStream"`
	Uri             string `env:"CONSOLERW_URI" envDefault:"tcp://127.0.0.1:9092"`
	Backend         string `env:"CONSOLERW_BACKEND" envDefault:"kafka"`
	Partitions      int    `env:"CONSOLERW_PARTITIONS" envDefault:"1"`
	OtelcolEndpoint string `env:"CONSOLERW_OTELCOL_ENDPOINT"`
	LogLevel        string `env:"CONSOLERW_LOG_LEVEL" envDefault:"warn"`
}

type ConsoleCmd struct {
	settings Settings

	in       io.Reader
	out      io.Writer
	strmprov stream.StreamProvider
}

type Option func(*ConsoleCmd)

// WithInput reads commands from in instead of the terminal.
func WithInput(in io.Reader) Option {
	return func(consoleCmd *ConsoleCmd) {
		consoleCmd.in = in
	}
}

func WithOutput(out io.Writer) Option {
	return func(consoleCmd *ConsoleCmd) {
		consoleCmd.out = out
	}
}

// WithStreamProvider bypasses backend selection.
func WithStreamProvider(strmprov stream.StreamProvider) Option {
	return func(consoleCmd *ConsoleCmd) {
		consoleCmd.strmprov = strmprov
	}
}

func NewConsoleCmd(opts ...Option) (*ConsoleCmd, error) {
	consoleCmd := &ConsoleCmd{
		out: os.Stdout,
	}
	if err := env.Parse(&consoleCmd.settings); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	for _, opt := range opts {
		opt(consoleCmd)
	}
	return consoleCmd, nil
}

func (consoleCmd *ConsoleCmd) Settings() Settings {
	return consoleCmd.settings
}

// Start runs the console against os.Args and exits non-zero on failure.
func (consoleCmd *ConsoleCmd) Start() {
	prepLogging(consoleCmd.settings.LogLevel)
	err := consoleCmd.Execute(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}
}

func prepLogging(logLevel string) {
	if logLevel == "" {
		logLevel = "info"
	}

	badParse := false
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
		badParse = true
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02T15:04:05.999"})

	if badParse {
		log.Error().
			Msgf("Bad value for CONSOLERW_LOG_LEVEL: %s", logLevel)
	}
}

// BrokersFromUri turns a tcp://host:port[,host:port...] uri into a
// librdkafka bootstrap list. Bare host:port lists pass through.
func BrokersFromUri(uri string) (string, error) {
	brokers := uri
	if idx := strings.Index(uri, "://"); idx != -1 {
		scheme := uri[:idx]
		if scheme != "tcp" {
			return "", fmt.Errorf("Unsupported uri scheme '%s' in %s", scheme, uri)
		}
		brokers = uri[idx+3:]
	}
	brokers = strings.TrimRight(brokers, "/")
	if brokers == "" {
		return "", fmt.Errorf("No brokers in uri '%s'", uri)
	}
	return brokers, nil
}

func (consoleCmd *ConsoleCmd) streamProvider(brokers string) (stream.StreamProvider, error) {
	if consoleCmd.strmprov != nil {
		return consoleCmd.strmprov, nil
	}
	switch consoleCmd.settings.Backend {
	case BACKEND_KAFKA:
		return stream.NewKafkaStreamProvider(), nil
	case BACKEND_OFFLINE:
		return offline.NewOfflineStreamProvider(brokers)
	default:
		return nil, fmt.Errorf("Unknown backend '%s', expecting %s or %s", consoleCmd.settings.Backend, BACKEND_KAFKA, BACKEND_OFFLINE)
	}
}

func (consoleCmd *ConsoleCmd) prerunCobra(cmd *cobra.Command, args []string) error {
	if consoleCmd.settings.OtelcolEndpoint != "" {
		err := telem.Initialize(cmd.Context(), consoleCmd.settings.OtelcolEndpoint)
		if err != nil {
			return err
		}
	}
	return nil
}

func (consoleCmd *ConsoleCmd) postrunCobra(cmd *cobra.Command, args []string) {
	telem.Shutdown(context.Background())
}

func (consoleCmd *ConsoleCmd) runConsole(cmd *cobra.Command, args []string) error {
	// flags parsed fine, failures from here on are not usage errors
	cmd.SilenceUsage = true
	ctx := cmd.Context()

	brokers, err := BrokersFromUri(consoleCmd.settings.Uri)
	if err != nil {
		return err
	}
	strmprov, err := consoleCmd.streamProvider(brokers)
	if err != nil {
		return err
	}

	writer, err := stream.NewEventWriter(
		ctx,
		strmprov,
		brokers,
		consoleCmd.settings.Scope,
		consoleCmd.settings.Stream,
		consoleCmd.settings.Partitions,
	)
	if err != nil {
		log.Error().
			Err(err).
			Str("Brokers", brokers).
			Msg("Failed to connect to stream")
		return err
	}
	defer writer.Close()

	var rdr *console.LineEditor
	if consoleCmd.in != nil {
		rdr = console.NewPipedLineEditor(consoleCmd.in, consoleCmd.out)
	} else {
		rdr = console.NewLineEditor()
	}
	defer rdr.Close()

	sess := console.NewSession(
		consoleCmd.settings.Scope,
		consoleCmd.settings.Stream,
		console.NewStreamClient(writer),
		console.NewOutput(consoleCmd.out),
	)
	return sess.Run(ctx, rdr)
}

func (consoleCmd *ConsoleCmd) cobraCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "consolerw",
		Short:             "Interactive console for writing events to a stream",
		Args:              cobra.NoArgs,
		PersistentPreRunE: consoleCmd.prerunCobra,
		PersistentPostRun: consoleCmd.postrunCobra,
		RunE:              consoleCmd.runConsole,
	}
	rootCmd.SetOut(consoleCmd.out)

	settings := &consoleCmd.settings
	rootCmd.PersistentFlags().StringVarP(&settings.Scope, "scope", "s", settings.Scope, "Scope of the stream")
	rootCmd.PersistentFlags().StringVarP(&settings.Stream, "name", "n", settings.Stream, "Name of the stream")
	rootCmd.PersistentFlags().StringVarP(&settings.Uri, "uri", "u", settings.Uri, "Uri of the stream service")
	rootCmd.PersistentFlags().StringVar(&settings.Backend, "backend", settings.Backend, "Stream backend, kafka or offline")
	rootCmd.PersistentFlags().IntVar(&settings.Partitions, "partitions", settings.Partitions, "Partition count used when creating the stream")
	rootCmd.PersistentFlags().StringVar(&settings.OtelcolEndpoint, "otelcol_endpoint", settings.OtelcolEndpoint, "OpenTelemetry collector address, empty disables tracing")

	return rootCmd
}

// Execute parses args and runs the console until QUIT or end of input.
func (consoleCmd *ConsoleCmd) Execute(args []string) error {
	rootCmd := consoleCmd.cobraCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}
