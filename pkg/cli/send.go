package cli

import (
	"errors"

	"github.com/getmockd/ewsoap/pkg/cli/internal/output"
	"github.com/getmockd/ewsoap/pkg/cli/internal/parse"
	"github.com/getmockd/ewsoap/pkg/config"
	"github.com/getmockd/ewsoap/pkg/soap"
	"github.com/getmockd/ewsoap/pkg/transport"
	"github.com/spf13/cobra"
)

type sendFlags struct {
	endpoint     string
	username     string
	availability bool
	headers      []string
	retries      int
	timeout      int
	encoding     string
	mapPath      string
	pretty       bool
}

func newSendCommand(g *globalFlags) *cobra.Command {
	f := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "send <body-file|->",
		Short: "Send a request body to an Exchange endpoint",
		Long: `Wrap a request body in a SOAP envelope, send it and print the response.

With --map the response is run through a field map file and the extracted
fields are printed instead of the XML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, g, f, args[0])
		},
	}

	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "EWS endpoint URL (overrides config)")
	cmd.Flags().StringVarP(&f.username, "user", "u", "", "Basic auth user (overrides config)")
	cmd.Flags().BoolVar(&f.availability, "availability", false, "Include the TimeZoneContext availability header")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "Additional header (key:value), repeatable")
	cmd.Flags().IntVar(&f.retries, "retries", 0, "Attempts made by the transport (default from config, 4)")
	cmd.Flags().IntVar(&f.timeout, "timeout", 0, "Per-attempt timeout in seconds (default from config, 30)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "Text encoding of request and response (default from config, utf-8)")
	cmd.Flags().StringVarP(&f.mapPath, "map", "m", "", "Field map file to extract from the response")
	cmd.Flags().BoolVar(&f.pretty, "pretty", true, "Pretty print XML output")
	return cmd
}

func runSend(cmd *cobra.Command, g *globalFlags, f *sendFlags, bodyPath string) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if f.endpoint != "" {
		cfg.Endpoint = f.endpoint
	}
	if f.username != "" {
		cfg.Username = f.username
	}
	if f.retries > 0 {
		cfg.Retries = f.retries
	}
	if f.timeout > 0 {
		cfg.TimeoutSeconds = f.timeout
	}
	if f.encoding != "" {
		cfg.Encoding = f.encoding
	}
	if cfg.Endpoint == "" {
		return errors.New("an endpoint is required (--endpoint or endpoint in config)")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	headers, err := parse.Headers(f.headers)
	if err != nil {
		return err
	}

	var fm *config.FieldMap
	if f.mapPath != "" {
		if fm, err = config.LoadFieldMap(f.mapPath); err != nil {
			return err
		}
	}

	body, err := readBody(cmd, bodyPath)
	if err != nil {
		return err
	}

	logger := g.logger(cfg, cmd.ErrOrStderr())
	tc := cfg.TransportConfig()
	tc.Logger = logger
	client := soap.NewClient(transport.NewHTTP(tc),
		soap.WithLogger(logger),
		soap.WithEnvelopeBuilder(cfg.EnvelopeBuilder()),
	)

	opts := cfg.SendOptions()
	if headers != nil {
		opts = append(opts, soap.WithHeaders(headers))
	}
	if f.availability {
		opts = append(opts, soap.WithAvailabilityHeader())
	}

	doc, err := client.Send(cmd.Context(), body, opts...)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if fm != nil {
		results, err := extractFields(soap.NewExtractor(logger), doc, fm, client.Namespaces())
		if err != nil {
			return err
		}
		return g.printResult(w, results, func() error {
			return writeResults(w, results)
		})
	}

	if g.jsonOutput {
		text, err := doc.WriteToString()
		if err != nil {
			return err
		}
		return output.JSON(w, map[string]any{"response": text})
	}
	return output.XML(w, doc, f.pretty)
}
