//go:build !ci

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	dockerImage           = "chromedp/headless-shell:stable"
	chromeContainerPrefix = "chrome-e2e-lessonview-"
)

// localChromeBinaries are tried, in order, before falling back to Docker.
var localChromeBinaries = []string{
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
}

// browser is a chromedp context plus the base URL under which it reaches
// test servers on this host.
type browser struct {
	ctx     context.Context
	rewrite func(serverURL string) string
}

// setupBrowser starts a headless Chrome, locally when a binary is installed
// and otherwise in Docker. The test is skipped when neither is available.
func setupBrowser(t *testing.T, timeout time.Duration) *browser {
	t.Helper()

	for _, name := range localChromeBinaries {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.ExecPath(path),
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
		)
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
		ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(t.Logf))
		ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
		t.Cleanup(func() {
			timeoutCancel()
			ctxCancel()
			allocCancel()
		})
		return &browser{ctx: ctx, rewrite: func(u string) string { return u }}
	}

	return setupDockerChrome(t, timeout)
}

func setupDockerChrome(t *testing.T, timeout time.Duration) *browser {
	t.Helper()

	if _, err := exec.Command("docker", "version").CombinedOutput(); err != nil {
		t.Skip("neither Chrome nor Docker available, skipping browser test")
	}

	chromePort, err := getFreePort()
	if err != nil {
		t.Fatalf("Failed to allocate Chrome port: %v", err)
	}
	if err := startDockerChrome(t, chromePort); err != nil {
		t.Fatalf("Failed to start Docker Chrome: %v", err)
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), fmt.Sprintf("http://localhost:%d", chromePort))
	ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(t.Logf))
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	t.Cleanup(func() {
		timeoutCancel()
		ctxCancel()
		allocCancel()
		stopDockerChrome(t, chromePort)
	})

	return &browser{ctx: ctx, rewrite: convertURLForDockerChrome}
}

// getFreePort asks the kernel for a free open port that is ready to use.
func getFreePort() (port int, err error) {
	var a *net.TCPAddr
	if a, err = net.ResolveTCPAddr("tcp", "localhost:0"); err == nil {
		var l *net.TCPListener
		if l, err = net.ListenTCP("tcp", a); err == nil {
			defer l.Close()
			return l.Addr().(*net.TCPAddr).Port, nil
		}
	}
	return
}

// startDockerChrome starts the chromedp headless-shell container and waits
// for its debugging endpoint.
func startDockerChrome(t *testing.T, debugPort int) error {
	t.Helper()

	containerName := fmt.Sprintf("%s%d", chromeContainerPrefix, debugPort)
	exec.Command("docker", "rm", "-f", containerName).CombinedOutput()

	if _, err := exec.Command("docker", "image", "inspect", dockerImage).CombinedOutput(); err != nil {
		t.Log("Pulling chromedp/headless-shell Docker image...")
		pullCtx, pullCancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer pullCancel()
		if output, err := exec.CommandContext(pullCtx, "docker", "pull", dockerImage).CombinedOutput(); err != nil {
			t.Skipf("could not pull %s: %v\n%s", dockerImage, err, output)
		}
	}

	// On Linux the container shares the host network. Elsewhere Docker runs
	// in a VM, so the debugging port is mapped instead.
	args := []string{"run", "-d", "--rm", "--memory", "512m", "--cpus", "0.5", "--name", containerName}
	if runtime.GOOS == "linux" {
		args = append(args, "--network", "host", dockerImage, fmt.Sprintf("--remote-debugging-port=%d", debugPort))
	} else {
		args = append(args, "-p", fmt.Sprintf("%d:9222", debugPort), dockerImage)
	}
	if _, err := exec.Command("docker", args...).Output(); err != nil {
		return fmt.Errorf("failed to start Chrome Docker container: %w", err)
	}

	versionURL := fmt.Sprintf("http://localhost:%d/json/version", debugPort)
	httpClient := &http.Client{Timeout: 2 * time.Second}
	var lastErr error
	for i := 0; i < 120; i++ {
		resp, err := httpClient.Get(versionURL)
		if err == nil {
			resp.Body.Close()
			return nil
		}
		lastErr = err
		time.Sleep(500 * time.Millisecond)
	}

	if output, err := exec.Command("docker", "logs", "--tail", "50", containerName).CombinedOutput(); err == nil && len(output) > 0 {
		t.Logf("Chrome container logs:\n%s", output)
	}
	exec.Command("docker", "rm", "-f", containerName).CombinedOutput()
	return fmt.Errorf("Chrome failed to start within 60 seconds: %w", lastErr)
}

func stopDockerChrome(t *testing.T, debugPort int) {
	t.Helper()
	containerName := fmt.Sprintf("%s%d", chromeContainerPrefix, debugPort)
	if output, err := exec.Command("docker", "rm", "-f", containerName).CombinedOutput(); err != nil {
		if !strings.Contains(string(output), "No such container") {
			t.Logf("Warning: Failed to remove Docker container: %v (output: %s)", err, output)
		}
	}
}

// convertURLForDockerChrome rewrites an httptest URL so Chrome in Docker can
// reach it.
func convertURLForDockerChrome(serverURL string) string {
	host := "localhost"
	if runtime.GOOS != "linux" {
		host = "host.docker.internal"
	}
	u := strings.Replace(serverURL, "127.0.0.1", host, 1)
	return strings.Replace(u, "[::1]", host, 1)
}
