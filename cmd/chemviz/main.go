package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"chemviz/internal/api"
	"chemviz/internal/app"
	"chemviz/internal/summary"
	"chemviz/internal/tui"
)

const version = "1.0.0"

var (
	flagServer   string
	flagUser     string
	flagPassword string
)

func main() {
	// A .env next to the binary can point scripted runs at a backend.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "chemviz",
		Short:   "Terminal client for the Chemical Equipment Visualizer",
		Long:    "chemviz is an interactive terminal client for the Chemical Equipment Visualizer backend.\n\nRun without arguments for the TUI, or use the subcommands for scripted access.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()

			p := tea.NewProgram(tui.New(application), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	root.PersistentFlags().StringVar(&flagServer, "server", "", "backend base URL (default from config)")
	root.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "username (or CHEMVIZ_USER)")
	root.PersistentFlags().StringVarP(&flagPassword, "password", "p", "", "password (or CHEMVIZ_PASSWORD)")

	root.AddCommand(datasetsCmd(), uploadCmd(), exportCmd(), registerCmd())
	root.SilenceErrors = true

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", tui.UserMessage(err))
		os.Exit(1)
	}
}

func buildApp() (*app.Application, error) {
	cfg, err := app.LoadConfig(app.DefaultConfigPath())
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	return app.NewApplication(cfg), nil
}

func credentialFromFlags() (api.Credential, error) {
	user := flagUser
	if user == "" {
		user = os.Getenv("CHEMVIZ_USER")
	}
	pass := flagPassword
	if pass == "" {
		pass = os.Getenv("CHEMVIZ_PASSWORD")
	}
	if user == "" || pass == "" {
		return api.Credential{}, fmt.Errorf("credentials required: pass --user/--password or set CHEMVIZ_USER/CHEMVIZ_PASSWORD")
	}
	return api.Credential{Username: user, Password: pass}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

func datasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the datasets visible to the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()
			cred, err := credentialFromFlags()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			if err := application.Auth.Login(ctx, cred); err != nil {
				return err
			}
			items, selected, hasSel := application.Datasets.Snapshot()
			if application.Session.IsAdmin() {
				fmt.Println("All datasets (admin):")
			} else {
				fmt.Println("My uploads:")
			}
			for _, d := range items {
				marker := " "
				if hasSel && d.ID == selected {
					marker = "*"
				}
				uploader := d.UploadedBy
				if uploader == "" {
					uploader = "unknown"
				}
				fmt.Printf("%s %4d  %-30s  %s  by %s  (%d rows)\n",
					marker, d.ID, d.FileName(), d.UploadedAt.Local().Format("2006-01-02 15:04"), uploader, d.Summary.TotalCount)
			}
			if len(items) == 0 {
				fmt.Println("  (none)")
			}
			return nil
		},
	}
}

func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a CSV and print the refreshed listing position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()
			cred, err := credentialFromFlags()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			if err := application.Auth.Login(ctx, cred); err != nil {
				return err
			}
			if err := application.Uploads.Select(args[0]); err != nil {
				return err
			}
			if err := application.Uploads.Submit(ctx, &cred); err != nil {
				return err
			}
			if err := application.Uploads.RefreshAfterSuccess(ctx, cred); err != nil {
				return fmt.Errorf("uploaded, but refreshing the listing failed: %w", err)
			}
			application.Uploads.Reset()
			if d, ok := application.Datasets.Selected(); ok {
				fmt.Printf("Uploaded as dataset %d (%s, %d rows)\n", d.ID, d.FileName(), d.Summary.TotalCount)
			} else {
				fmt.Println("Uploaded.")
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	withCharts := false
	cmd := &cobra.Command{
		Use:   "export <dataset-id>",
		Short: "Download the PDF report for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("dataset id must be a number: %q", args[0])
			}
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()
			cred, err := credentialFromFlags()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			if err := application.Auth.Login(ctx, cred); err != nil {
				return err
			}
			path, err := application.Exports.ExportPDF(ctx, cred, id)
			if err != nil {
				return err
			}
			fmt.Println("Saved", path)

			if withCharts {
				if err := application.Datasets.Select(id); err != nil {
					return err
				}
				d, _ := application.Datasets.Selected()
				paths, err := application.Exports.ExportCharts(summary.Project(d.Summary), id)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Println("Saved", p)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withCharts, "charts", false, "also export chart images")
	return cmd
}

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account and verify it by logging in",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close()
			cred, err := credentialFromFlags()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			if err := application.Auth.Register(ctx, cred); err != nil {
				return err
			}
			fmt.Printf("Registered %s and logged in (%d datasets visible)\n", cred.Username, application.Datasets.Len())
			return nil
		},
	}
}
