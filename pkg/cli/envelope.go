package cli

import (
	"github.com/getmockd/ewsoap/pkg/cli/internal/output"
	"github.com/spf13/cobra"
)

func newEnvelopeCommand(g *globalFlags) *cobra.Command {
	var (
		availability bool
		pretty       bool
	)

	cmd := &cobra.Command{
		Use:   "envelope <body-file|->",
		Short: "Print the SOAP envelope a request body would be sent in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			body, err := readBody(cmd, args[0])
			if err != nil {
				return err
			}

			doc := cfg.EnvelopeBuilder().Wrap(body, availability)
			w := cmd.OutOrStdout()

			if g.jsonOutput {
				text, err := doc.WriteToString()
				if err != nil {
					return err
				}
				return output.JSON(w, map[string]any{
					"availability": availability,
					"envelope":     text,
				})
			}
			return output.XML(w, doc, pretty)
		},
	}

	cmd.Flags().BoolVar(&availability, "availability", false, "Include the TimeZoneContext availability header")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "Pretty print output")
	return cmd
}
