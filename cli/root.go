// Package cli wires the docquery commands: the API server and a thin HTTP client for it.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envServer     = "DOCQUERY_SERVER"
	defaultServer = "http://localhost:8000"
)

func NewRootCommand() *cobra.Command {
	var (
		serverURL string
		environ   = os.Environ()
	)

	root := &cobra.Command{
		Use:           "docquery",
		Short:         "Upload documents and ask questions about them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			environ = loadDotEnv()
		},
	}
	root.PersistentFlags().StringVar(&serverURL, "server", getenv(envServer, defaultServer), "base URL of a running docquery server")

	newClient := func() *client {
		return newHTTPClient(serverURL)
	}

	root.AddCommand(
		serveCMD(func() []string { return environ }),
		uploadCMD(newClient),
		queryCMD(newClient),
		setupCMD(),
	)
	return root
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// loadDotEnv applies .env to the process and returns the environment as it was before, which
// dev mode children start from so they pick up .env edits.
func loadDotEnv() []string {
	environ := os.Environ()
	// A missing .env is fine; the environment may already carry everything.
	_ = godotenv.Load(envFile)
	return environ
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
