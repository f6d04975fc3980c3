package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	envFile         = ".env"
	envFileTemplate = "OPENAI_API_KEY=your_api_key_here\n"
)

func uploadCMD(newClient func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file_path>",
		Short: "Upload a document for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", args[0])
			}

			resp, err := newClient().Upload(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.pretty())
			return resp.err()
		},
	}
}

func queryCMD(newClient func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "query <question>",
		Short: "Query the uploaded documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().Query(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.pretty())
			return resp.err()
		},
	}
}

func setupCMD() *cobra.Command {
	var dataDir string

	setup := &cobra.Command{
		Use:   "setup",
		Short: "Set up the project environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return err
			}

			_, err := os.Stat(envFile)
			switch {
			case errors.Is(err, os.ErrNotExist):
				if err := os.WriteFile(envFile, []byte(envFileTemplate), 0o600); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Created .env file. Please update with your OpenAI API key.")
			case err != nil:
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Setup complete!")
			return nil
		},
	}
	setup.Flags().StringVar(&dataDir, "data-dir", "data", "directory uploaded documents are stored in")
	return setup
}
