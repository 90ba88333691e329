// gatectl — консольный клиент проверки доступа: вход, онлайн-проверка
// с офлайн-резервом и активация лицензии.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/17marcomoreira-hue/sportswissapp/internal/client"
	"github.com/17marcomoreira-hue/sportswissapp/internal/offline"
)

var now = time.Now

type options struct {
	server    string
	statePath string
	timeout   time.Duration
}

func (o *options) store() (*offline.Store, error) {
	path := o.statePath
	if path == "" {
		var err error
		if path, err = offline.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return offline.Open(path), nil
}

func (o *options) client() *client.Client {
	return client.New(o.server, o.timeout)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "gatectl",
		Short:         "SportSwiss access client",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr("GATECTL_SERVER", "http://localhost:8080"),
		"API server URL")
	rootCmd.PersistentFlags().StringVar(&opts.statePath, "state", os.Getenv("GATECTL_STATE"),
		"local state file (default: user config dir)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	rootCmd.AddCommand(newRegisterCmd(opts))
	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newLogoutCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newActivateCmd(opts))
	rootCmd.AddCommand(newDeviceCmd(opts))

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
