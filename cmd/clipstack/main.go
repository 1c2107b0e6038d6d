package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"clipstack/internal/app"
	"clipstack/internal/capture"
	"clipstack/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults under the base
// directory when it does not exist yet.
func loadConfig() (*config.Config, string, error) {
	paths, err := app.DefaultPaths()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(paths.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.NewConfig(paths.BaseDir), paths.ConfigPath, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, paths.ConfigPath, nil
}

// newApp reads the config and creates a ClipApp. The caller must defer a.Close().
func newApp(ctx context.Context, command string, stderr bool) (*app.ClipApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewClipApp(ctx, cfg, app.Options{Command: command, Stderr: stderr})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// runWithApp builds the app for command, runs fn, and records its outcome.
func runWithApp(cmd *cobra.Command, command string, fn func(context.Context, *app.ClipApp) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, command, false)
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(ctx, a)
	a.Fail(err)
	return err
}

var rootCmd = &cobra.Command{
	Use:          "clipstack",
	Short:        "Clipboard history",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(paths.BaseDir)
		if err := config.Init(paths.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", paths.ConfigPath)
		fmt.Printf("Base Dir: %s\n", paths.BaseDir)
		fmt.Printf("Storage:  %s (%s)\n", cfg.Storage.Type, cfg.Storage.SQLitePath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Log Level: %s\n", cfg.LogLevel)
		fmt.Printf("Storage:   %s\n", describeStorage(cfg.Storage))
		fmt.Printf("Capture:   enabled=%t poll=%dms max_bytes=%d ignore=%d\n",
			cfg.Capture.Enabled, cfg.Capture.PollIntervalMS, cfg.Capture.MaxBytes, len(cfg.Capture.Ignore))
		fmt.Printf("Server:    %s (rate %d/min, burst %d)\n",
			cfg.Server.Addr, cfg.Server.RatePerMinute, cfg.Server.Burst)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List clipboard history, pinned first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		asJSON, _ := cmd.Flags().GetBool("json")
		limit, _ := cmd.Flags().GetInt("limit")

		return runWithApp(cmd, "list", func(ctx context.Context, a *app.ClipApp) error {
			entries, err := a.ListEntries(ctx, query, limit)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				if query != "" {
					fmt.Println("No matches found.")
				} else {
					fmt.Println("No clipboard history yet.")
				}
				return nil
			}

			width := terminalWidth(os.Stdout)
			for _, e := range entries {
				fmt.Println(formatEntry(e, width))
			}
			return nil
		})
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add TEXT",
	Short: "Record text in the history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, "add", func(ctx context.Context, a *app.ClipApp) error {
			entry, err := a.AddEntry(ctx, args[0])
			if err != nil {
				return fmt.Errorf("adding entry: %w", err)
			}
			if entry == nil {
				fmt.Println("Nothing to add.")
				return nil
			}
			fmt.Printf("Added %s\n", shortID(entry.ID))
			return nil
		})
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, "rm", func(ctx context.Context, a *app.ClipApp) error {
			entry, err := a.RemoveEntry(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", shortID(entry.ID))
			return nil
		})
	},
}

func pinCommand(use, short string, pinned bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, use, func(ctx context.Context, a *app.ClipApp) error {
				entry, err := a.SetPinned(ctx, args[0], pinned)
				if err != nil {
					return err
				}
				state := "Unpinned"
				if entry.Pinned {
					state = "Pinned"
				}
				fmt.Printf("%s %s\n", state, shortID(entry.ID))
				return nil
			})
		},
	}
}

var pinCmd = pinCommand("pin", "Pin an entry to the top of the list", true)
var unpinCmd = pinCommand("unpin", "Unpin an entry", false)

// copy command
var copyCmd = &cobra.Command{
	Use:   "copy ID",
	Short: "Copy an entry back to the system clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, "copy", func(ctx context.Context, a *app.ClipApp) error {
			entry, err := a.CopyEntry(ctx, args[0], capture.NewSystemClipboard())
			if err != nil {
				return err
			}
			fmt.Printf("Copied %s\n", shortID(entry.ID))
			return nil
		})
	},
}

// theme command
var themeCmd = &cobra.Command{
	Use:       "theme [dark|light]",
	Short:     "Show or set the display theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"dark", "light"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, "theme", func(ctx context.Context, a *app.ClipApp) error {
			if len(args) == 0 {
				theme, err := a.Theme(ctx)
				if err != nil {
					return err
				}
				fmt.Println(theme)
				return nil
			}

			theme, err := a.SetTheme(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Theme set to %s\n", theme)
			return nil
		})
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Snapshot the history database to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, "backup", func(ctx context.Context, a *app.ClipApp) error {
			if err := a.Backup(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Backed up to %s\n", args[0])
			return nil
		})
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch the clipboard and serve the history over WebSocket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		noCapture, _ := cmd.Flags().GetBool("no-capture")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, configPath, err := loadConfig()
		if err != nil {
			return err
		}
		if _, err := os.Stat(configPath); err != nil {
			configPath = ""
		}

		a, err := app.NewClipApp(ctx, cfg, app.Options{Command: "serve", Stderr: true})
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}
		defer a.Close()

		opts := app.ServeOptions{ConfigPath: configPath}
		if !noCapture {
			opts.Clipboard = capture.NewSystemClipboard()
		}

		err = a.Serve(ctx, opts)
		a.Fail(err)
		return err
	},
}

// native-host command
var nativeHostCmd = &cobra.Command{
	Use:   "native-host [ORIGIN]",
	Short: "Run as a browser native messaging host on stdin/stdout",
	// Browsers pass the caller origin and, on Windows, a window handle.
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "native-host", false)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) > 0 {
			a.Logger().Info("native host invoked", "origin", args[0])
		}
		err = a.NativeHost(ctx, os.Stdin, os.Stdout)
		a.Fail(err)
		return err
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("query", "q", "", "Only show entries containing this text (case-insensitive)")
	listCmd.Flags().Bool("json", false, "Print entries as JSON")
	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of entries to show (0 for all)")
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(unpinCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("no-capture", false, "Serve the history without watching the clipboard")
	rootCmd.AddCommand(nativeHostCmd)
}
