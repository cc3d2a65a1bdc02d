package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/sleepsafe/internal/config"
	"github.com/verte-zerg/sleepsafe/internal/elevenlabs"
	"github.com/verte-zerg/sleepsafe/internal/journalui"
	"github.com/verte-zerg/sleepsafe/internal/pipeline"
	"github.com/verte-zerg/sleepsafe/internal/stats"
	"github.com/verte-zerg/sleepsafe/internal/store"
)

const defaultTrendWindow = 3

var (
	journalLast   int
	journalWindow int
	journalPlain  bool

	exportOut string
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show the session journal, load trend and hotspots",
		Args:  cobra.NoArgs,
		RunE:  runJournalCmd,
	}
	cmd.Flags().IntVar(&journalLast, "last", 0, "limit to last N analyses")
	cmd.Flags().IntVar(&journalWindow, "window", defaultTrendWindow, "moving average window")
	cmd.Flags().BoolVar(&journalPlain, "plain", false, "print instead of opening the viewer")
	return cmd
}

func runJournalCmd(cmd *cobra.Command, _ []string) error {
	if journalLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if journalWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if journalPlain {
		report, err := stats.BuildReport(cmd.Context(), st, journalLast)
		if err != nil {
			return fmt.Errorf("failed to load journal: %w", err)
		}
		return printReport(cmd.OutOrStdout(), report, journalWindow)
	}

	m := journalui.NewModel(st, journalui.Config{Last: journalLast, Window: journalWindow})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run journal TUI: %w", err)
	}
	return nil
}

func printReport(w io.Writer, report stats.Report, window int) error {
	if err := stats.RenderSummary(w, report.History); err != nil {
		return err
	}
	if err := stats.RenderJournal(w, report.History); err != nil {
		return err
	}
	if err := stats.RenderHotspots(w, report.Hotspots); err != nil {
		return err
	}
	return stats.RenderTrend(w, report.History, window, 0, 10, false)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the session export file",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path, - for stdout (default: sleepsafe-session-<date>.txt)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(ctx context.Context, e *pipeline.Engine) error {
		exp := e.Export()
		if exportOut == "-" {
			return stats.WriteExport(cmd.OutOrStdout(), exp)
		}
		path := exportOut
		if path == "" {
			path = stats.ExportFileName(exp.Date)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create export: %w", err)
		}
		if err := stats.WriteExport(f, exp); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write export: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		logErrf("Wrote %s\n", path)
		return nil
	})
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the conversation, journal and generated reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, e *pipeline.Engine) error {
				e.Reset(ctx)
				if w := e.Warnings(); len(w) > 0 {
					return errors.New(strings.Join(w, "; "))
				}
				logErrln("Session reset.")
				return nil
			})
		},
	}
}

func newVoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List available voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(_ context.Context, e *pipeline.Engine) error {
				selected := e.Settings().VoiceID
				for _, v := range elevenlabs.Voices {
					mark := " "
					if v.ID == selected {
						mark = "*"
					}
					if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %-8s %s  %s\n", mark, v.Name, v.ID, v.Description); err != nil {
						return fmt.Errorf("failed to write output: %w", err)
					}
				}
				return nil
			})
		},
	}
}

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview [voice]",
		Short: "Speak a short preview with the custom voice settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *pipeline.Engine) error {
				voiceID := ""
				if len(args) == 1 {
					v, err := elevenlabs.LookupVoice(args[0])
					if err != nil {
						return err
					}
					voiceID = v.ID
				}
				pb, err := e.Preview(ctx, voiceID)
				if err != nil {
					return fmt.Errorf("preview failed: %w", err)
				}
				return pb.Err()
			})
		},
	}
}

func newPresetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage custom voice presets",
		Args:  cobra.NoArgs,
		RunE:  runPresetsList,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE:  runPresetsList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "save <name>",
		Short: "Save the current custom stability and style",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *pipeline.Engine) error {
				p, err := e.SavePreset(ctx, args[0])
				if err != nil {
					return err
				}
				logErrf("Saved preset %q (stability %.2f, style %.2f)\n", p.Name, p.Stability, p.Style)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *pipeline.Engine) error {
				return e.DeletePreset(ctx, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "apply <name>",
		Short: "Copy a preset into the custom voice settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *pipeline.Engine) error {
				s, err := e.ApplyPreset(ctx, args[0])
				if err != nil {
					return err
				}
				logErrf("Custom voice set to stability %.2f, style %.2f\n", s.CustomStability, s.CustomStyle)
				return nil
			})
		},
	})
	return cmd
}

func runPresetsList(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(ctx context.Context, e *pipeline.Engine) error {
		presets, err := e.Presets(ctx)
		if err != nil {
			return err
		}
		if len(presets) == 0 {
			logErrln("No presets saved.")
			return nil
		}
		for _, p := range presets {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\tstability=%.2f\tstyle=%.2f\n", p.Name, p.Stability, p.Style); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	})
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Generate a summary of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, e *pipeline.Engine) error {
				out, err := e.Summary(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			})
		},
	}
}

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Generate the final analysis and sleep plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, e *pipeline.Engine) error {
				out, err := e.Plan(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			})
		},
	}
}

// withEngine opens the services, runs fn and closes everything again.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *pipeline.Engine) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a.engine)
}
