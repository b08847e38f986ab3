package testsupport

import (
	"fmt"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/amonks/fileconverter/api"
	"github.com/amonks/fileconverter/internal/servicetest"
	"github.com/rogpeppe/go-internal/testscript"
)

var (
	buildOnce sync.Once
	fcPath    string
	buildErr  error
)

type serviceKey struct{}

// BuildFC builds the fc binary once and returns its path.
func BuildFC(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "fc-bin-")
		if err != nil {
			buildErr = err
			return
		}

		fcPath = filepath.Join(binDir, "fc")
		cmd := exec.Command("go", "build", "-o", fcPath, "./cmd/fc")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build fc: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return fcPath
}

// SetupScriptEnv gives every script its own home directory and its own
// fake conversion service, reachable through FC_SERVICE_URL.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("FC", BuildFC(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("NO_COLOR", "1")

	fake := servicetest.New()
	server := httptest.NewServer(fake.Handler())
	env.Defer(server.Close)
	env.Values[serviceKey{}] = fake

	env.Setenv("FC_SERVICE_URL", server.URL)
	env.Setenv("FC_POLL_INTERVAL", "10ms")
	env.Setenv("FC_LOG_LEVEL", "warn")
	return nil
}

// Commands returns the custom testscript commands.
func Commands() map[string]func(ts *testscript.TestScript, neg bool, args []string) {
	return map[string]func(ts *testscript.TestScript, neg bool, args []string){
		"envset":       CmdEnvSet,
		"mkpdf":        CmdMakePDF,
		"svcconfigure": CmdServiceConfigure,
		"svcrequests":  CmdServiceRequests,
	}
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

// CmdMakePDF writes a blank PDF with the given page count.
func CmdMakePDF(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("mkpdf does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: mkpdf FILE PAGES")
	}
	pages, err := strconv.Atoi(args[1])
	if err != nil {
		ts.Fatalf("mkpdf: invalid page count %q", args[1])
	}
	ts.Check(os.WriteFile(ts.MkAbs(args[0]), MinimalPDF(pages), 0o644))
}

// CmdServiceConfigure stores a complete configuration on the fake service.
func CmdServiceConfigure(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("svcconfigure does not support negation")
	}
	fakeService(ts).SetConfig(api.SaveConfigRequest{
		PackagerMode: "sandbox",
		TNumber:      "T123",
		APIKey:       "sk-test-abcd1234",
		Endpoint:     "https://example.openai.azure.com/",
		ModelName:    "gpt-4o",
		APIVersion:   "2024-02-01",
	})
}

// CmdServiceRequests writes the requests served by the fake to stdout,
// one per line. With "count PREFIX N" it asserts how many matched PREFIX.
func CmdServiceRequests(ts *testscript.TestScript, neg bool, args []string) {
	requests := fakeService(ts).Requests()
	if len(args) == 3 && args[0] == "count" {
		want, err := strconv.Atoi(args[2])
		if err != nil {
			ts.Fatalf("svcrequests: invalid count %q", args[2])
		}
		got := 0
		for _, request := range requests {
			if strings.HasPrefix(request, args[1]) {
				got++
			}
		}
		if (got == want) == neg {
			ts.Fatalf("svcrequests: %d requests match %q, want %d", got, args[1], want)
		}
		return
	}
	if neg {
		ts.Fatalf("svcrequests only supports negation with count")
	}
	for _, request := range requests {
		fmt.Fprintln(ts.Stdout(), request)
	}
}

func fakeService(ts *testscript.TestScript) *servicetest.Server {
	fake, ok := ts.Value(serviceKey{}).(*servicetest.Server)
	if !ok {
		ts.Fatalf("no fake service in this script; call SetupScriptEnv")
	}
	return fake
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
