package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kirillkom/document-router/internal/bootstrap"
	"github.com/kirillkom/document-router/internal/config"
	"github.com/kirillkom/document-router/internal/observability/logging"
)

// cli carries the viper instance shared by every subcommand. Flags win over the
// environment, which wins over the service defaults from config.Load.
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	root := &cobra.Command{
		Use:           "docctl",
		Short:         "Classify, validate and route documents offline",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("classifier-rules", "", "keyword rules YAML (default: embedded rules)")
	flags.String("routing-rules", "", "routing table YAML (default: embedded table)")
	flags.Int64("max-bytes", 0, "maximum file size in bytes (default: MAX_UPLOAD_BYTES)")
	flags.String("log-level", "warn", "log level for diagnostics on stderr")

	_ = c.v.BindPFlag("classifier_rules", flags.Lookup("classifier-rules"))
	_ = c.v.BindPFlag("routing_rules", flags.Lookup("routing-rules"))
	_ = c.v.BindPFlag("max_bytes", flags.Lookup("max-bytes"))
	_ = c.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = c.v.BindEnv("classifier_rules", "CLASSIFIER_RULES_PATH")
	_ = c.v.BindEnv("routing_rules", "ROUTING_RULES_PATH")
	_ = c.v.BindEnv("max_bytes", "MAX_UPLOAD_BYTES")

	root.AddCommand(c.classifyCmd())
	root.AddCommand(c.validateCmd())
	root.AddCommand(c.routeCmd())
	return root
}

func (c *cli) config() config.Config {
	cfg := config.Load()
	cfg.ClassifierRulesPath = c.v.GetString("classifier_rules")
	cfg.RoutingRulesPath = c.v.GetString("routing_rules")
	if n := c.v.GetInt64("max_bytes"); n > 0 {
		cfg.MaxUploadBytes = n
	}
	cfg.ClassifierLLMEnabled = false
	return cfg
}

func (c *cli) classification() (*bootstrap.Classification, error) {
	logger := logging.NewJSONLoggerTo(os.Stderr, "docctl", c.v.GetString("log_level"))
	return bootstrap.NewClassification(c.config(), logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
