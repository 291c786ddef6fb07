package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/leonardotrapani/medintake/internal/bus"
	"github.com/leonardotrapani/medintake/internal/config"
	"github.com/leonardotrapani/medintake/internal/daemon"
	"github.com/leonardotrapani/medintake/internal/deps"
	"github.com/leonardotrapani/medintake/internal/store"
	"github.com/leonardotrapani/medintake/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "medintake",
		Short:        "Voice-driven medical intake interview",
		SilenceUsage: true,
	}

	root.AddCommand(
		chatCmd(),
		toggleCmd(),
		statusCmd(),
		versionCmd(),
		stopCmd(),
		configureCmd(),
		configCmd(),
		recordsCmd(),
		doctorCmd(),
	)
	return root
}

func chatCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
		noSpeech   bool
	)

	cmd := &cobra.Command{
		Use:     "chat",
		Aliases: []string{"serve"},
		Short:   "Run an intake session in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(configPath, verbose, noSpeech)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr instead of the log file")
	cmd.Flags().BoolVar(&noSpeech, "no-speech", false, "do not read assistant messages aloud")

	return cmd
}

func runChat(configPath string, verbose, noSpeech bool) error {
	if !verbose {
		closeLog, err := redirectLog()
		if err != nil {
			return err
		}
		defer closeLog()
	}

	var (
		mgr *config.Manager
		err error
	)
	if configPath != "" {
		mgr, err = config.NewManagerAt(configPath)
	} else {
		mgr, err = config.NewManager()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w (run 'medintake configure')", err)
	}

	cfg := mgr.GetConfig()
	if noSpeech {
		cfg.Speech.Enabled = false
	}

	svc, err := daemon.BuildServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}

	d := daemon.New(daemon.Options{
		Config:   cfg,
		Manager:  mgr,
		Frontend: tui.NewTerminal(os.Stdin, os.Stdout, tui.WithClearScreen(true)),
		Notifier: cfg.Notifier(),
		Services: svc,
	})
	return d.Run()
}

// redirectLog sends the log package to a file so it does not interleave
// with the conversation.
func redirectLog() (func(), error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user cache directory: %w", err)
	}
	dir := filepath.Join(cacheDir, "medintake")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "medintake.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

func sendCmd(use, short string, code byte) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(code)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", use, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func toggleCmd() *cobra.Command {
	return sendCmd("toggle", "Start or stop voice capture in the running session", bus.CmdToggle)
}

func versionCmd() *cobra.Command {
	return sendCmd("version", "Get protocol version", bus.CmdVersion)
}

func stopCmd() *cobra.Command {
	return sendCmd("stop", "End the running session without saving", bus.CmdQuit)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the running session",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdStatus)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			fields, err := bus.ParseStatus(resp)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), fields)
			return nil
		},
	}
}

func printStatus(w io.Writer, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-13s %s\n", k+":", fields[k])
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive setup of provider API keys",
		Long: `Interactive setup for medintake.
This will ask for:
- Baidu API and secret keys (speech recognition and playback)
- The record generation provider and its API key`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts, err := tui.RunSetup(cfg)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	if err := config.WriteConfig(configPath, opts); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	fmt.Printf("Config file location: %s\n", configPath)
	fmt.Println("Start an interview: medintake chat")
	return nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", configPath)
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			if err := config.SaveDefaultConfigTo(configPath); err != nil {
				if errors.Is(err, os.ErrExist) {
					return fmt.Errorf("%s already exists", configPath)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
			return nil
		},
	})

	return cmd
}

// writeConfig prints cfg as TOML with secrets masked.
func writeConfig(w io.Writer, cfg *config.Config) error {
	masked := *cfg
	masked.Providers = make(map[string]config.ProviderConfig, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		masked.Providers[name] = config.ProviderConfig{
			APIKey:    maskSecret(pc.APIKey),
			SecretKey: maskSecret(pc.SecretKey),
		}
	}
	return toml.NewEncoder(w).Encode(masked)
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + strings.Repeat("*", 4) + s[len(s)-2:]
}

func recordsCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "records [name]",
		Short: "List saved medical records, or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				if dir, err = cfg.RecordDir(); err != nil {
					return err
				}
			}
			s, err := store.Open(dir)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				doc, err := s.ReadRecord(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), doc)
				return nil
			}
			return listRecords(cmd.OutOrStdout(), s)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "record directory (default from config)")
	return cmd
}

func listRecords(w io.Writer, s *store.Store) error {
	records, err := s.ListRecords()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(w, "no records in %s\n", s.Dir())
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s  %6d bytes  %s\n", r.ModTime.Format("2006-01-02 15:04"), r.Size, r.Name)
	}
	return nil
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external programs and provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			desktop := cfg.Notifications.Enabled && cfg.Notifications.Type == "desktop"
			results := deps.CheckAll(deps.ForSession(cfg.Speech.Enabled, desktop))
			return printDoctor(cmd.OutOrStdout(), results, cfg.Validate())
		},
	}
}

func printDoctor(w io.Writer, results []deps.Result, configErr error) error {
	missing := 0
	for _, r := range results {
		switch {
		case r.Installed:
			fmt.Fprintf(w, "[x] %-12s %s\n", r.Binary, r.Version)
		case r.Optional:
			fmt.Fprintf(w, "[ ] %-12s optional, needed for %s\n", r.Binary, r.Purpose)
		default:
			fmt.Fprintf(w, "[ ] %-12s missing, needed for %s\n", r.Binary, r.Purpose)
			missing++
		}
	}

	if configErr != nil {
		fmt.Fprintf(w, "[ ] config       %v\n", configErr)
	} else {
		fmt.Fprintln(w, "[x] config       ok")
	}

	if missing > 0 || configErr != nil {
		return fmt.Errorf("%d missing programs, config valid: %t", missing, configErr == nil)
	}
	return nil
}
