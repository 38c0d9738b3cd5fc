package cli

import (
	"github.com/getmockd/ewsoap/pkg/config"
	"github.com/getmockd/ewsoap/pkg/soap"
	"github.com/spf13/cobra"
)

func newExtractCommand(g *globalFlags) *cobra.Command {
	var (
		mapPath  string
		encoding string
	)

	cmd := &cobra.Command{
		Use:   "extract <response-file|->",
		Short: "Extract fields from a saved SOAP response",
		Long: `Parse a saved SOAP response, fail if it contains a SOAP fault, and run a
field map file against it. No request is sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if encoding == "" {
				encoding = cfg.Encoding
			}

			fm, err := config.LoadFieldMap(mapPath)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			logger := g.logger(cfg, cmd.ErrOrStderr())
			doc, err := soap.NewParser(logger).Parse(raw, encoding)
			if err != nil {
				return err
			}

			results, err := extractFields(soap.NewExtractor(logger), doc, fm, cfg.EnvelopeBuilder().Namespaces())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			return g.printResult(w, results, func() error {
				return writeResults(w, results)
			})
		},
	}

	cmd.Flags().StringVarP(&mapPath, "map", "m", "", "Field map file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Text encoding of the response (default from config, utf-8)")
	_ = cmd.MarkFlagRequired("map")
	return cmd
}
