package cmd

import (
	"bytes"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iksnae/darkscan/internal"
	"github.com/iksnae/darkscan/internal/stubserver"
	"github.com/iksnae/darkscan/testutil"
)

// testEnv is an isolated home, cache directory and stub service
type testEnv struct {
	stub     *stubserver.Server
	url      string
	cacheDir string
}

func newTestEnv(t *testing.T, opts ...stubserver.Option) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	home := testutil.CreateTempDir(t)
	t.Setenv("HOME", home)
	for _, key := range []string{"DARKSCAN_SERVICE_BASE_URL", "DARKSCAN_BASE_URL", "EXPO_PUBLIC_BACKEND_URL", "DARKSCAN_CACHE_DIR"} {
		t.Setenv(key, "")
	}

	internal.SetOutput(io.Discard, io.Discard)
	internal.SetLogOutput(io.Discard)
	t.Cleanup(func() {
		internal.SetOutput(os.Stdout, os.Stderr)
		internal.SetLogOutput(os.Stderr)
	})

	stub := stubserver.New(opts...)
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	return &testEnv{stub: stub, url: srv.URL, cacheDir: testutil.CreateTempDir(t)}
}

// run executes a command against the stub service and cache
func (e *testEnv) run(args ...string) (string, error) {
	return execute(append([]string{"--base-url", e.url, "--cache-dir", e.cacheDir}, args...)...)
}

// runOffline executes a command with the cache but no service URL
func (e *testEnv) runOffline(args ...string) (string, error) {
	return execute(append([]string{"--cache-dir", e.cacheDir}, args...)...)
}

func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default between executions
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
