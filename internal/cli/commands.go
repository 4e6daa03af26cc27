package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/charliek/logdesk/internal/domain"
	"github.com/charliek/logdesk/internal/present"
	"github.com/charliek/logdesk/internal/remote"
)

// Command flags
var (
	jsonOutput   bool
	logsQuery    queryFlags
	logsSave     bool
	indexQuery   queryFlags
	outputDir    string
	indexSetFile string
)

// namespacesCmd lists the namespaces of a tenant
var namespacesCmd = &cobra.Command{
	Use:   "namespaces <tenant>",
	Short: "List the namespaces of a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runNamespaces,
}

// loadBalancersCmd lists the load balancers of a namespace
var loadBalancersCmd = &cobra.Command{
	Use:     "loadbalancers <tenant> <namespace>",
	Aliases: []string{"lbs"},
	Short:   "List the load balancers of a namespace",
	Args:    cobra.ExactArgs(2),
	RunE:    runLoadBalancers,
}

// diagnoseCmd diagnoses one load balancer
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <tenant> <namespace> <loadbalancer>",
	Short: "Check whether a load balancer produces logs",
	Args:  cobra.ExactArgs(3),
	RunE:  runDiagnose,
}

// logsCmd exports logs to a CSV file on the API side
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Export logs for a tenant and namespace",
	Long: `Export logs for a tenant and namespace. The API writes a CSV file and
reports its name; --save downloads it right away.

Examples:
  logdesk logs -t acme -n prod -l lb1             # Access logs of the last 24 hours
  logdesk logs -t acme -n prod --log-type audit   # Audit logs need no load balancer
  logdesk logs -t acme -n prod -l lb1 --hours 72 --save -o ./exports`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

// indexCmd sends access logs to the search index
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Send access logs to the search index",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

// indexCheckCmd tests the search index connection
var indexCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the search index connection",
	Args:  cobra.NoArgs,
	RunE:  runIndexCheck,
}

// indexConfigCmd reads or replaces the search index configuration
var indexConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update the search index configuration",
	Long: `Show the search index configuration, or replace it with --set.

Examples:
  logdesk index config                    # Print the configuration
  logdesk index config --set index.json   # Replace it from a file
  logdesk index config --set -            # Replace it from stdin`,
	Args: cobra.NoArgs,
	RunE: runIndexConfig,
}

// downloadCmd saves an exported file
var downloadCmd = &cobra.Command{
	Use:   "download <file>",
	Short: "Download an exported log file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

func init() {
	// Register commands
	rootCmd.AddCommand(namespacesCmd, loadBalancersCmd, diagnoseCmd, logsCmd, indexCmd, downloadCmd)
	indexCmd.AddCommand(indexCheckCmd, indexConfigCmd)

	for _, cmd := range []*cobra.Command{namespacesCmd, loadBalancersCmd, diagnoseCmd, logsCmd, indexCmd} {
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	}

	// Logs command flags
	bindQueryFlags(logsCmd, &logsQuery)
	logsCmd.Flags().BoolVar(&logsSave, "save", false, "Download the exported file")
	logsCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory for downloaded files")

	// Index command flags
	bindQueryFlags(indexCmd, &indexQuery)
	indexConfigCmd.Flags().StringVar(&indexSetFile, "set", "", "Replace the configuration with this JSON file (- for stdin)")

	// Download command flags
	downloadCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory for downloaded files")
}

func runNamespaces(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	client := newRemoteClient(cfg, logger)

	res := client.ListNamespaces(cmd.Context(), args[0])
	if !res.OK() {
		return remoteError("listing namespaces", res.Failure, cfg.Remote.BaseURL)
	}
	return newPrinter(cmd).list(res.Value)
}

func runLoadBalancers(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	client := newRemoteClient(cfg, logger)

	res := client.ListLoadBalancers(cmd.Context(), args[0], args[1])
	if !res.OK() {
		return remoteError("listing load balancers", res.Failure, cfg.Remote.BaseURL)
	}
	return newPrinter(cmd).list(res.Value)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	client := newRemoteClient(cfg, logger)

	tenant, namespace, lb := args[0], args[1], args[2]
	res := client.Diagnose(cmd.Context(), tenant, namespace, lb)
	if !res.OK() {
		return remoteError("diagnosing "+lb, res.Failure, cfg.Remote.BaseURL)
	}
	return newPrinter(cmd).message(present.Diagnosis(lb, res.Value), res.Value)
}

func runLogs(cmd *cobra.Command, args []string) error {
	q, err := logsQuery.query()
	if err != nil {
		return err
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	client := newRemoteClient(cfg, logger)

	logger.Debug("fetching logs", "tenant", q.Tenant, "namespace", q.Namespace, "log_type", q.LogType, "hours", q.Hours)
	res := client.FetchLogs(cmd.Context(), q)
	if !res.OK() {
		return remoteError("fetching logs", res.Failure, cfg.Remote.BaseURL)
	}
	export := res.Value

	out := newPrinter(cmd)
	if err := out.message(present.LogsReady(export, client.DownloadURL(export.File)), export); err != nil {
		return err
	}
	if !logsSave {
		return nil
	}
	if export.File == "" {
		return fmt.Errorf("the API did not name an export file")
	}
	return download(cmd, client, export.File, cfg.Remote.BaseURL)
}

func runIndex(cmd *cobra.Command, args []string) error {
	q, err := indexQuery.query()
	if err != nil {
		return err
	}
	if !q.LogType.SupportsIndex() {
		return domain.ErrIndexUnsupported
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	client := newRemoteClient(cfg, logger)

	res := client.SendToIndex(cmd.Context(), q)
	if !res.OK() {
		return remoteError("sending logs to the search index", res.Failure, cfg.Remote.BaseURL)
	}
	return newPrinter(cmd).message(present.IndexSent(res.Value), res.Value)
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	client := newRemoteClient(cfg, logger)

	res := client.TestIndex(cmd.Context())
	if !res.OK() {
		return remoteError("testing the search index", res.Failure, cfg.Remote.BaseURL)
	}
	return newPrinter(cmd).raw(res.Value)
}

func runIndexConfig(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	client := newRemoteClient(cfg, logger)

	if indexSetFile == "" {
		res := client.IndexConfig(cmd.Context())
		if !res.OK() {
			return remoteError("reading the search index configuration", res.Failure, cfg.Remote.BaseURL)
		}
		return newPrinter(cmd).raw(res.Value)
	}

	var body []byte
	if indexSetFile == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(indexSetFile)
	}
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}

	res := client.UpdateIndexConfig(cmd.Context(), body)
	if !res.OK() {
		return remoteError("updating the search index configuration", res.Failure, cfg.Remote.BaseURL)
	}
	return newPrinter(cmd).raw(res.Value)
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	return download(cmd, newRemoteClient(cfg, logger), args[0], cfg.Remote.BaseURL)
}

// download saves file into outputDir and reports its size
func download(cmd *cobra.Command, client *remote.Client, file, baseURL string) error {
	res := client.Download(cmd.Context(), file)
	if !res.OK() {
		return remoteError("downloading "+file, res.Failure, baseURL)
	}
	dl := res.Value
	defer dl.Body.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(outputDir, filepath.Base(dl.Filename))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	n, err := io.Copy(f, dl.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s (%s)\n", path, humanize.Bytes(uint64(n)))
	return nil
}
