// Command paystream replays payment stream scenarios against an in-memory
// engine and prints the resulting streams and balances.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/xraph/paystream/id"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

var exampleUsage = strings.TrimSpace(`
  paystream run scenario.toml
  paystream run scenario.toml --fee-rate-bps 25 --log-level debug
  paystream validate scenario.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// overrides are flag values applied on top of the scenario file.
type overrides struct {
	feeRateBps uint32
	escrow     string
	token      string
}

// apply copies explicitly set flags into sc.
func (o overrides) apply(sc *Scenario, flags *pflag.FlagSet) {
	changed := map[string]bool{}
	flags.Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if changed["fee-rate-bps"] {
		sc.FeeRateBps = o.feeRateBps
	}
	if changed["escrow"] {
		sc.Escrow = o.escrow
	}
	if changed["token"] {
		sc.Token = o.token
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func newRootCommand() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "paystream",
		Short:         "Replay linear-vesting payment stream scenarios",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "engine log level (debug, info, warn, error)")

	var o overrides
	run := &cobra.Command{
		Use:   "run <scenario.toml>",
		Short: "Run a scenario and print the final state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), logLevel)
			if err != nil {
				return err
			}
			sc, err := LoadScenario(args[0])
			if err != nil {
				return fmt.Errorf("load scenario: %w", err)
			}
			o.apply(sc, cmd.Flags())

			report, runErr := Run(cmd.Context(), sc, logger)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return runErr
		},
	}
	run.Flags().Uint32Var(&o.feeRateBps, "fee-rate-bps", 0, "override the protocol fee rate")
	run.Flags().StringVar(&o.escrow, "escrow", "", "override the escrow account")
	run.Flags().StringVar(&o.token, "token", "", "override the token asset")

	validate := &cobra.Command{
		Use:   "validate <scenario.toml>",
		Short: "Parse a scenario without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d mints, %d steps\n", len(sc.Mints), len(sc.Steps))
			return nil
		},
	}

	root.AddCommand(run, validate)
	return root
}

func printReport(w io.Writer, r *Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "STEP\tAT\tOP\tCALLER\tSTREAM\tDETAIL\tRESULT")
	for _, s := range r.Steps {
		result := "ok"
		if s.Err != nil {
			result = s.Err.Error()
		}
		if !s.OK {
			result = "FAIL: " + result
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%s\t%s\n",
			s.Index, s.Step.At, s.Step.Op, s.Step.Caller, s.Step.Stream, s.Detail, result)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "ID\tSTATUS\tTOTAL\tBALANCE\tWITHDRAWN\tWITHDRAWABLE\tDELEGATE")
	for _, s := range r.Streams {
		delegate := "-"
		if s.Delegate != nil {
			delegate = string(*s.Delegate)
		}
		status := string(s.Status)
		if s.Completed(r.Now) {
			status += " (completed)"
		}
		var withdrawable int64
		if stream.CanMutate(s.Status) {
			withdrawable = stream.WithdrawableAmount(s, r.Now)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			id.FormatStream(s.ID), status, s.TotalAmount, s.Balance, s.WithdrawnAmount,
			withdrawable, delegate)
	}
	fmt.Fprintln(tw)

	accounts := make([]types.Address, 0, len(r.Balances))
	for a := range r.Balances {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })

	fmt.Fprintln(tw, "ACCOUNT\tBALANCE")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%d\n", a, r.Balances[a])
	}
	_ = tw.Flush()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "paystream:", err)
		os.Exit(1)
	}
}
