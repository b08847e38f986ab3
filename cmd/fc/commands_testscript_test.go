package main

import (
	"testing"

	"github.com/amonks/fileconverter/internal/testsupport"
	"github.com/rogpeppe/go-internal/testscript"
)

func runServiceScripts(t *testing.T, dir string) {
	t.Helper()

	testscript.Run(t, testscript.Params{
		Dir: dir,
		Setup: func(env *testscript.Env) error {
			return testsupport.SetupScriptEnv(t, env)
		},
		Cmds: testsupport.Commands(),
	})
}

func TestConvertScripts(t *testing.T) {
	runServiceScripts(t, "testdata/convert")
}

func TestConfigScripts(t *testing.T) {
	runServiceScripts(t, "testdata/config")
}

func TestValidateScripts(t *testing.T) {
	runServiceScripts(t, "testdata/validate")
}

func TestStatusScripts(t *testing.T) {
	runServiceScripts(t, "testdata/status")
}

func TestDownloadScripts(t *testing.T) {
	runServiceScripts(t, "testdata/download")
}

func TestThemeScripts(t *testing.T) {
	runServiceScripts(t, "testdata/theme")
}
