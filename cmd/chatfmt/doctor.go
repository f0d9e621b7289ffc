package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-chatfmt/internal/clipboard"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Model    modelInfo   `json:"model"`
	History  historyInfo `json:"history"`
	Env      envInfo     `json:"environment"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// modelInfo holds model endpoint settings.
type modelInfo struct {
	BaseURL   string `json:"base_url"`
	Name      string `json:"name"`
	APIKeySet bool   `json:"api_key_set"`
}

// historyInfo holds history file checks.
type historyInfo struct {
	Path     string `json:"path"`
	Writable bool   `json:"writable"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	Clipboard     bool   `json:"clipboard"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		return exitCodeFor(err)
	}

	result := &doctorResult{Status: "ready"}
	s, err := loadSettings(flags.common, env)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config: %v", err))
	} else {
		checkModel(result, s)
		checkHistory(result, s)
	}
	checkEnvironment(result, clipboard.Available())
	result.finalize()

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

func (r *doctorResult) finalize() {
	switch {
	case len(r.Errors) > 0:
		r.Status = "errors"
	case len(r.Warnings) > 0:
		r.Status = "warnings"
	default:
		r.Status = "ready"
	}
}

// checkModel reports the endpoint settings. The endpoint is not contacted.
func checkModel(result *doctorResult, s *settings) {
	result.Model = modelInfo{
		BaseURL:   s.cfg.Model.BaseURL,
		Name:      s.cfg.Model.Name,
		APIKeySet: s.env.APIKey != "",
	}
	if !result.Model.APIKeySet {
		result.Warnings = append(result.Warnings,
			"CHATFMT_API_KEY not set: ask and serve chat are unavailable")
	}
}

// checkHistory verifies the history directory accepts writes.
func checkHistory(result *doctorResult, s *settings) {
	path, err := s.cfg.HistoryPath()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("History: %v", err))
		return
	}
	result.History.Path = path

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("History directory not writable: %s", dir))
		return
	}
	probe, err := os.CreateTemp(dir, ".chatfmt-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("History directory not writable: %s", dir))
		return
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	result.History.Writable = true
}

// checkEnvironment detects container, CI and clipboard support.
func checkEnvironment(result *doctorResult, clipboardOK bool) {
	result.Env.OS = runtime.GOOS
	result.Env.Arch = runtime.GOARCH
	result.Env.Container, result.Env.ContainerHint = isContainer()
	result.Env.Clipboard = clipboardOK

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if !clipboardOK {
		result.Warnings = append(result.Warnings,
			"No clipboard utility found: copy and --copy will fail")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "chatfmt doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Model")
	if r.Model.BaseURL != "" {
		fmt.Fprintf(w, "  [OK] Endpoint: %s\n", r.Model.BaseURL)
		fmt.Fprintf(w, "  [OK] Model: %s\n", r.Model.Name)
	}
	if r.Model.APIKeySet {
		fmt.Fprintln(w, "  [OK] API key: set")
	} else {
		fmt.Fprintln(w, "  [WARN] API key: not set")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "History")
	if r.History.Writable {
		fmt.Fprintf(w, "  [OK] %s: writable\n", r.History.Path)
	} else {
		fmt.Fprintln(w, "  [ERROR] not writable")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	if r.Env.Clipboard {
		fmt.Fprintln(w, "  [OK] Clipboard: available")
	} else {
		fmt.Fprintln(w, "  [WARN] Clipboard: unavailable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

