package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gitsecureops/access-reconciler/internal/audit"
	"github.com/gitsecureops/access-reconciler/internal/config"
	"github.com/gitsecureops/access-reconciler/internal/domain"
	"github.com/gitsecureops/access-reconciler/internal/githubapi"
	"github.com/gitsecureops/access-reconciler/internal/notify"
	"github.com/gitsecureops/access-reconciler/internal/reconcile"
	"github.com/gitsecureops/access-reconciler/internal/storage"
	"github.com/gitsecureops/access-reconciler/internal/storage/postgres"
	"github.com/gitsecureops/access-reconciler/internal/storage/sqlite"
)

var (
	outputJSON bool
	scopeOrg   string
	scopeOrgs  []string
	personal   bool
	everything bool
	skipPrompt bool
	auditLimit int
)

var rootCmd = &cobra.Command{
	Use:   "gitsecureops",
	Short: "GitHub organization access management tool",
	Long: `A CLI tool for auditing and reconciling GitHub collaborator access.

This tool scans repositories for direct collaborator grants held by target
users, removes unwanted grants, audits organization two-factor compliance,
and keeps a local audit log of every administrative action.`,
}

var scanCmd = &cobra.Command{
	Use:   "scan [username...]",
	Short: "Scan repositories for collaborator access",
	Long:  `Search the selected scope for repositories where the target users hold direct collaborator access.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

var removeCmd = &cobra.Command{
	Use:   "remove [username...]",
	Short: "Remove collaborator access",
	Long:  `Scan the selected scope and remove every direct collaborator grant held by the target users.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRemove,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit commands",
}

var auditTwoFactorCmd = &cobra.Command{
	Use:   "two-factor [org]",
	Short: "Audit two-factor compliance for an organization",
	Args:  cobra.ExactArgs(1),
	RunE:  runTwoFactorAudit,
}

var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the local audit log",
	Args:  cobra.NoArgs,
	RunE:  runAuditLog,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	for _, cmd := range []*cobra.Command{scanCmd, removeCmd} {
		cmd.Flags().StringVar(&scopeOrg, "org", "", "scan a single organization")
		cmd.Flags().StringSliceVar(&scopeOrgs, "orgs", nil, "scan multiple organizations (comma-separated)")
		cmd.Flags().BoolVar(&personal, "personal", false, "scan personal repositories only")
		cmd.Flags().BoolVar(&everything, "everything", false, "scan everything accessible")
	}
	removeCmd.Flags().BoolVar(&skipPrompt, "yes", false, "skip the confirmation prompt")
	auditLogCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum number of entries to show")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(removeCmd)
	auditCmd.AddCommand(auditTwoFactorCmd)
	auditCmd.AddCommand(auditLogCmd)
	rootCmd.AddCommand(auditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	}
}

func buildScope() (domain.ScopeSelector, error) {
	selected := 0
	scope := domain.PersonalScope()

	if personal {
		selected++
	}
	if everything {
		selected++
		scope = domain.EverythingScope()
	}
	if scopeOrg != "" {
		selected++
		scope = domain.SingleOrgScope(scopeOrg)
	}
	if len(scopeOrgs) > 0 {
		selected++
		scope = domain.MultiOrgScope(scopeOrgs)
	}

	if selected == 0 {
		return scope, fmt.Errorf("select a scope: --org, --orgs, --personal or --everything")
	}
	if selected > 1 {
		return scope, fmt.Errorf("select exactly one scope flag")
	}
	return scope, nil
}

// progressPrinter renders progress snapshots on a single terminal line
func progressPrinter() domain.ProgressSink {
	return domain.ProgressFunc(func(p domain.BatchProgress) {
		fmt.Printf("\rProgress: %.1f%% (%s)", p.Percent, p.Label)
		if p.Phase == domain.PhaseCompleted || p.Phase == domain.PhaseFailed {
			fmt.Println()
		}
	})
}

func setup() (*config.Config, githubapi.Service, audit.Recorder, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	gh := githubapi.NewService(cfg.GitHubToken)
	recorder := audit.NewRecorder(store, notify.NewWebhookNotifier(cfg.WebhookURL))
	cleanup := func() { _ = store.Close() }
	return cfg, gh, recorder, cleanup, nil
}

func scanAccess(ctx context.Context, gh githubapi.Service, recorder audit.Recorder, targets []string) (*domain.ScanResult, error) {
	scope, err := buildScope()
	if err != nil {
		return nil, err
	}

	fmt.Printf("Scanning for access held by: %s\n", strings.Join(targets, ", "))
	scanner := reconcile.NewScanner(gh, gh, gh, progressPrinter())

	result, err := scanner.Scan(ctx, scope, targets)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	actor := resolveActor(ctx, gh)
	recorder.RecordScan(ctx, actor, scope, targets, result)
	return result, nil
}

func resolveActor(ctx context.Context, gh githubapi.Service) string {
	actor, err := gh.AuthenticatedUser(ctx)
	if err != nil {
		return "unknown"
	}
	return actor
}

func runScan(cmd *cobra.Command, args []string) error {
	_, gh, recorder, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	result, err := scanAccess(ctx, gh, recorder, args)
	if err != nil {
		return err
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	printScanResult(result)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	_, gh, recorder, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	result, err := scanAccess(ctx, gh, recorder, args)
	if err != nil {
		return err
	}

	if len(result.Records) == 0 {
		fmt.Println("No access found, nothing to remove.")
		return nil
	}

	printScanResult(result)

	if !skipPrompt {
		fmt.Printf("Remove %d grant(s)? [y/N]: ", len(result.Records))
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	remover := reconcile.NewRemover(gh, progressPrinter())
	summary, err := remover.Remove(ctx, result.Records)
	if err != nil {
		return fmt.Errorf("removal failed: %w", err)
	}

	recorder.RecordRemoval(ctx, resolveActor(ctx, gh), args, summary)

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	fmt.Printf("\nRemoved: %d  Failed: %d\n", summary.SuccessCount, summary.FailureCount)
	if len(summary.Failures) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Repository", "User", "Error"})
		for _, f := range summary.Failures {
			table.Append([]string{f.Record.Repository.FullName, f.Record.Username, f.Error})
		}
		table.Render()
	}
	return nil
}

func runTwoFactorAudit(cmd *cobra.Command, args []string) error {
	org := args[0]

	_, gh, recorder, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	report, err := gh.TwoFactorAudit(ctx, org)
	if err != nil {
		return fmt.Errorf("two-factor audit failed: %w", err)
	}

	recorder.RecordTwoFactorAudit(ctx, resolveActor(ctx, gh), report)

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	fmt.Printf("\nTwo-Factor Compliance: %s\n", org)
	fmt.Printf("Members: %d  Compliant: %d (%.1f%%)\n\n", report.TotalMembers, report.CompliantCount, report.CompliancePct)

	if len(report.NonCompliant) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Non-Compliant Member"})
		for _, login := range report.NonCompliant {
			table.Append([]string{login})
		}
		table.Render()
	}
	return nil
}

func runAuditLog(cmd *cobra.Command, args []string) error {
	_, _, recorder, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := recorder.List(context.Background(), "", auditLimit)
	if err != nil {
		return fmt.Errorf("failed to list audit entries: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Action", "Scope", "Actor", "Users", "OK", "Failed", "Details"})
	for _, e := range entries {
		table.Append([]string{
			e.CreatedAt.Format("2006-01-02 15:04"),
			string(e.Action),
			e.Scope,
			e.Actor,
			strings.Join(e.TargetUsers, ","),
			fmt.Sprintf("%d", e.SuccessCount),
			fmt.Sprintf("%d", e.FailureCount),
			e.Details,
		})
	}
	table.Render()
	return nil
}

func printScanResult(result *domain.ScanResult) {
	fmt.Printf("\nFound %d grant(s)\n", len(result.Records))

	if len(result.Records) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Repository", "User", "Permission"})
		for _, r := range result.Records {
			table.Append([]string{r.Repository.FullName, r.Username, string(r.Permission)})
		}
		table.Render()
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\n%d source(s) could not be fully scanned:\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  %s: %s\n", w.Source, w.Message)
		}
	}
}
