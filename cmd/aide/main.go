package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"aide/internal/app"
	"aide/internal/tui"
)

const version = "0.1.0"

const maxLoadedFileBytes = 512 * 1024

func main() {
	root := &cobra.Command{
		Use:     "aide",
		Short:   "Chat with a model about your project files and apply its edits",
		Version: version,
		RunE:    runChat,
	}
	root.Flags().String("config", "", "config file path (default: XDG config dir)")
	root.Flags().String("dir", ".", "project directory to load files from")
	root.Flags().Bool("mock", false, "use the offline mock model")
	root.Flags().String("transcript", "", "write a markdown transcript to this path on exit")

	workspaces := &cobra.Command{
		Use:   "workspaces",
		Short: "List saved workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromFlags(cmd)
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
	workspaces.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFromFlags(cmd)
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		},
	})
	workspaces.PersistentFlags().String("config", "", "config file path")
	root.AddCommand(workspaces)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func storeFromFlags(cmd *cobra.Command) (*app.Store, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return app.NewStore(cfg.StoreRoot), nil
}

func runChat(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}

	var logOut io.Writer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := app.NewLogger(logOut)

	mock, _ := cmd.Flags().GetBool("mock")
	var client app.Client
	if mock || cfg.APIKey == "" {
		client = app.NewMockClient()
	} else {
		client = app.NewModelClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.MaxTokens)
	}

	store := app.NewStore(cfg.StoreRoot)
	session := app.NewSession(cfg, client, store, logger)

	dir, _ := cmd.Flags().GetString("dir")
	files, err := loadProjectDir(dir)
	if err != nil {
		return err
	}
	session.LoadFiles(files)

	p := tea.NewProgram(tui.New(session, cfg.DiffContext), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("transcript"); path != "" {
		transcript := app.ExportTranscript(session.Entries())
		if err := os.WriteFile(path, []byte(transcript), 0o644); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
	}
	return nil
}

// loadProjectDir reads the text files under dir into the session's file set.
// Hidden entries, oversized files, and binary-looking content are skipped.
func loadProjectDir(dir string) ([]app.ProjectFile, error) {
	var files []app.ProjectFile
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if info.Size() > maxLoadedFileBytes {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		if bytes.IndexByte(data, 0) >= 0 {
			return nil
		}
		files = append(files, app.ProjectFile{
			Path:    filepath.ToSlash(rel),
			Content: string(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
