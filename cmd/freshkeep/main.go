package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmikhr/freshkeep/internal/camera"
	"github.com/dmikhr/freshkeep/internal/classifier"
	"github.com/dmikhr/freshkeep/internal/config"
)

var composeFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "freshkeep: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "freshkeep",
		Short: "FreshKeep development CLI",
		Long: `FreshKeep CLI orchestrates common development workflows such as starting the
Docker stack, running tests, launching the binaries directly, and exercising
the capture pipeline against a directory of sample frames.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&composeFile, "compose-file", "f", "docker-compose.yml", "Compose file to use for stack commands")
	cmd.AddCommand(
		newUpCmd(),
		newDownCmd(),
		newTestCmd(),
		newRunCmd(),
		newCaptureCmd(),
	)
	return cmd
}

func newUpCmd() *cobra.Command {
	var detach bool
	cmd := &cobra.Command{
		Use:   "up [service...]",
		Short: "Start the docker-compose stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			composeArgs := []string{"compose", "-f", composeFile, "up", "--build"}
			if detach {
				composeArgs = append(composeArgs, "-d")
			}
			composeArgs = append(composeArgs, args...)
			return runCommand(cmd.Context(), "docker", composeArgs...)
		},
	}
	cmd.Flags().BoolVarP(&detach, "detached", "d", true, "Run docker compose in detached mode")
	return cmd
}

func newDownCmd() *cobra.Command {
	var removeVolumes bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop the docker-compose stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			composeArgs := []string{"compose", "-f", composeFile, "down"}
			if removeVolumes {
				composeArgs = append(composeArgs, "-v")
			}
			return runCommand(cmd.Context(), "docker", composeArgs...)
		},
	}
	cmd.Flags().BoolVarP(&removeVolumes, "volumes", "v", false, "Remove stack volumes")
	return cmd
}

func newTestCmd() *cobra.Command {
	var race bool
	cmd := &cobra.Command{
		Use:   "test [packages]",
		Short: "Run Go tests (defaults to ./...)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgs := args
			if len(pkgs) == 0 {
				pkgs = []string{"./..."}
			}
			goArgs := []string{"test"}
			if race {
				goArgs = append(goArgs, "-race")
			}
			goArgs = append(goArgs, pkgs...)
			return runCommand(cmd.Context(), "go", goArgs...)
		},
	}
	cmd.Flags().BoolVar(&race, "race", false, "Enable Go race detector")
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run individual Go binaries directly",
	}
	cmd.AddCommand(
		newServiceRunner("server", "./cmd/server"),
		newServiceRunner("api", "./cmd/api"),
		newServiceRunner("worker", "./cmd/worker"),
	)
	return cmd
}

func newServiceRunner(name, path string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("go run %s", path),
		RunE: func(cmd *cobra.Command, args []string) error {
			goArgs := []string{"run", path}
			goArgs = append(goArgs, args...)
			return runCommand(cmd.Context(), "go", goArgs...)
		},
	}
}

// newCaptureCmd drives the full capture pipeline from a directory of frame
// files: acquire the simulated camera, grab a frame, classify it, and
// optionally create the suggested item through a running API.
func newCaptureCmd() *cobra.Command {
	var framesDir string
	var apiURL string
	var save bool
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a frame from a directory of images and classify it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			session := camera.NewSession(camera.NewFileDevice(framesDir), camera.NewGuard())
			defer session.Close()
			if err := session.OpenCamera(ctx); err != nil {
				return fmt.Errorf("open camera: %w", err)
			}

			labeler := classifier.NewClient(cfg.PredictURL, cfg.PredictBase64URL, nil)
			pipeline := camera.NewPipeline(session, labeler, cfg.MinConfidence)
			result, err := pipeline.CaptureAndClassify(ctx)
			if err != nil {
				return fmt.Errorf("capture: %w", err)
			}
			fmt.Printf("captured %s (%d bytes)\n", result.Capture.Filename, len(result.Capture.Data))
			if result.ClassifyErr != nil {
				fmt.Printf("classification failed: %v\n", result.ClassifyErr)
				return nil
			}
			if result.Suggestion == nil {
				fmt.Println("no prediction returned")
				return nil
			}
			s := result.Suggestion
			fmt.Printf("suggestion: %s (category=%s confidence=%.2f accepted=%t)\n",
				s.Name, s.Category, s.Confidence, s.Accepted)
			if !save || !s.Accepted {
				return nil
			}
			return createItem(ctx, apiURL, s)
		},
	}
	cmd.Flags().StringVar(&framesDir, "frames", "./frames", "Directory of jpg/png frames acting as the camera")
	cmd.Flags().StringVar(&apiURL, "api", "http://127.0.0.1:8080", "Base URL of a running FreshKeep API")
	cmd.Flags().BoolVar(&save, "save", false, "Create the suggested item via the API when accepted")
	return cmd
}

func runCommand(ctx context.Context, name string, args ...string) error {
	execCmd := exec.CommandContext(ctx, name, args...)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	execCmd.Stdin = os.Stdin
	return execCmd.Run()
}

func createItem(ctx context.Context, apiURL string, s *classifier.Suggestion) error {
	category := s.Category
	if category == "" {
		category = "packed"
	}
	payload := map[string]any{
		"name":       s.Name,
		"category":   category,
		"expiryDate": time.Now().Add(3 * 24 * time.Hour),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/items", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("create item: status %d: %s", resp.StatusCode, msg)
	}
	fmt.Println("item created")
	return nil
}
