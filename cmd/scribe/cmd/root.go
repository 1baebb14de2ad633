package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"whisper-scribe/cmd/scribe/cmd/estimate"
	"whisper-scribe/cmd/scribe/cmd/history"
	"whisper-scribe/cmd/scribe/cmd/serve"
	"whisper-scribe/cmd/scribe/cmd/shared"
	"whisper-scribe/cmd/scribe/cmd/transcribe"
	"whisper-scribe/cmd/scribe/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Transcribe audio files with the OpenAI Whisper API",
	Long: `Transcribe audio files with the OpenAI Whisper API.
- Files over the 25 MiB upload limit are split into chunks and sent in order
- The transcript is written as PDF and plain text with a short statistics readout
- Run "scribe serve" for the HTTP front end`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == version.Cmd.Name() {
			return nil
		}
		return shared.Init()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shared.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(estimate.Cmd)
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(history.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&shared.Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&shared.ConfigPath, "config", "c", "", "YAML config file overriding the defaults")
}
