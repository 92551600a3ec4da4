// Package main is the rowql command-line entry point: an interactive
// REPL when stdin is a terminal, or a single piped-query runner
// otherwise, mirroring the donor binary's tty-detection behavior.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Chahine-tech/rowql/pkg/config"
	"github.com/Chahine-tech/rowql/pkg/monitor"
	"github.com/Chahine-tech/rowql/pkg/session"
	"github.com/Chahine-tech/rowql/pkg/storage"
)

const banner = `rowql - embeddable SQL engine
Type SQL statements terminated by a newline; "exit" to quit.`

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "rowql",
		Short: "An embeddable single-process SQL engine",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runREPL(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(queryCmd(&configPath))
	rootCmd.AddCommand(monitorCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func queryCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a single SQL statement and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			sess, cleanup, err := newSession(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := sess.ProcessQuery(args[0])
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

func monitorCmd(configPath *string) *cobra.Command {
	var tailLines int
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Tail the audit log and print alerts for slow or unsafe queries",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMonitor(*configPath, tailLines)
		},
	}
	cmd.Flags().IntVar(&tailLines, "tail", 20, "Number of existing audit log lines to replay before following new ones")
	return cmd
}

// runMonitor tails the configured audit log, re-parses each entry and
// checks it against the alert rules, printing anything that fires to
// the console until interrupted.
func runMonitor(configPath string, tailLines int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Audit.Path == "" {
		return fmt.Errorf("rowql monitor: no audit log configured (set audit.path in the config file)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := monitor.NewLogWatcher(cfg.Audit.Path)
	// Buffered for the replayed tail: StartWithTail sends those lines
	// before the processor below starts receiving.
	lines := make(chan string, max(tailLines, 0))
	if err := watcher.StartWithTail(ctx, lines, tailLines); err != nil {
		return fmt.Errorf("rowql monitor: %w", err)
	}

	slowThreshold := time.Duration(cfg.Audit.SlowQueryThreshold)

	manager := monitor.NewAlertManager()
	manager.AddRule(&monitor.SlowQueryRule{Threshold: slowThreshold.Seconds()})
	manager.AddRule(&monitor.ParseErrorRule{})
	manager.AddRule(&monitor.FullTableScanRule{})
	manager.AddRule(&monitor.RepeatedViolationRule{
		Window: time.Duration(cfg.Audit.RepeatedViolationWindow),
		Limit:  cfg.Audit.RepeatedViolationLimit,
	})
	manager.AddHandler(monitor.ConsoleAlertHandler)

	processor := monitor.NewLogProcessor()
	processor.GetStatistics().SetSlowThreshold(slowThreshold.Seconds())
	processor.SetQueryHandler(manager.Check)

	fmt.Printf("rowql monitor: watching %s (ctrl-C to stop)\n", cfg.Audit.Path)
	processor.Start(ctx, lines)
	return nil
}

func newSession(configPath string) (*session.Session, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	var store storage.Engine
	if cfg.Storage.Path != "" {
		store = storage.NewJSONFileEngine(cfg.Storage.Path)
	}

	var audit *monitor.FileAuditLogger
	var auditLogger session.AuditLogger
	if cfg.Audit.Path != "" {
		audit, err = monitor.NewFileAuditLogger(cfg.Audit.Path)
		if err != nil {
			return nil, nil, err
		}
		auditLogger = audit
	}

	sess, err := session.New(store, auditLogger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if audit != nil {
			_ = audit.Close()
		}
	}
	return sess, cleanup, nil
}

func runREPL(configPath string) error {
	sess, cleanup, err := newSession(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	stat, err := os.Stdin.Stat()
	if err != nil {
		return fmt.Errorf("rowql: stat stdin: %w", err)
	}
	interactive := (stat.Mode() & os.ModeCharDevice) != 0

	if interactive {
		return runInteractive(sess)
	}
	return runPiped(sess)
}

func runInteractive(sess *session.Session) error {
	fmt.Println(banner)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("rowql> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			fmt.Println("Goodbye!")
			return nil
		}

		out, err := sess.ProcessQuery(line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Print(out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Println()
		}
	}
}

func runPiped(sess *session.Session) error {
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return scanner.Err()
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return nil
	}

	out, err := sess.ProcessQuery(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Println()
	}
	return nil
}
