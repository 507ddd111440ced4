//go:build ignore

// build.go - OpenGeoCity Tanzania build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: build, test, check, clean, release

package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	module     = "ogctz"
	executable = "ogctz"
	sourcePath = "./cmd/ogctz"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
}

var (
	rootDir string
	distDir string

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); err != nil {
		panic(fmt.Sprintf("go.mod not found in %s; run from the repository root", rootDir))
	}
}

func main() {
	target := flag.String("target", "build", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("os", runtime.GOOS, "Target operating system for release")
	goarch := flag.String("arch", runtime.GOARCH, "Target architecture for release")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{Verbose: *verbose, GOOS: *goos, GOARCH: *goarch}

	var err error
	switch *target {
	case "build":
		err = buildExecutable(ctx)
	case "test":
		err = runTests(ctx)
	case "check":
		err = checkTemplates(ctx)
	case "clean":
		err = clean(ctx)
	case "release":
		err = buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Done in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "     OpenGeoCity Tanzania - Build System   " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

// ldflags stamps the build time and a build ID into internal/app
func ldflags() string {
	buildTime := time.Now().UTC().Format(time.RFC3339)
	sum := sha256.Sum256([]byte(buildTime + gitRevision()))
	return fmt.Sprintf("-s -w -X %s/internal/app.BuildTime=%s -X %s/internal/app.BuildID=%x",
		module, buildTime, module, sum[:6])
}

func gitRevision() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func goCmd(ctx *BuildContext, env []string, args ...string) *exec.Cmd {
	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), env...)
	cmd.Stderr = os.Stderr
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}
	return cmd
}

func buildExecutable(ctx *BuildContext) error {
	name := executable
	if ctx.GOOS == "windows" {
		name += ".exe"
	}
	outputPath := filepath.Join(distDir, ctx.GOOS+"-"+ctx.GOARCH, name)
	printInfo(fmt.Sprintf("Building %s for %s/%s...", executable, ctx.GOOS, ctx.GOARCH))

	args := []string{"build", "-trimpath", "-ldflags", ldflags(), "-o", outputPath, sourcePath}
	env := []string{"GOOS=" + ctx.GOOS, "GOARCH=" + ctx.GOARCH, "CGO_ENABLED=0"}
	if err := goCmd(ctx, env, args...).Run(); err != nil {
		return fmt.Errorf("failed to build %s: %w", executable, err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, float64(info.Size())/1024/1024))
	}
	return nil
}

func runTests(ctx *BuildContext) error {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := goCmd(ctx, nil, args...)
	cmd.Stdout = os.Stdout
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go tests failed: %w", err)
	}
	return nil
}

// checkTemplates parses and executes every page of the embedded site
func checkTemplates(ctx *BuildContext) error {
	printInfo("Checking templates...")
	cmd := goCmd(ctx, nil, "run", sourcePath, "check")
	cmd.Stdout = os.Stdout
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("template check failed: %w", err)
	}
	return nil
}

func clean(ctx *BuildContext) error {
	printInfo("Cleaning build artifacts and logs...")
	for _, dir := range []string{distDir, filepath.Join(rootDir, "logs")} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clean %s: %w", dir, err)
		}
	}
	return nil
}

func buildRelease(ctx *BuildContext) error {
	printInfo("Building release version...")
	if err := clean(ctx); err != nil {
		return err
	}
	if err := checkTemplates(ctx); err != nil {
		return err
	}
	if err := buildExecutable(ctx); err != nil {
		return err
	}

	versionFile := filepath.Join(distDir, "VERSION.txt")
	content := fmt.Sprintf("%s %s/%s\nBuilt: %s\n", executable, ctx.GOOS, ctx.GOARCH,
		time.Now().Format("2006-01-02 15:04:05"))
	return os.WriteFile(versionFile, []byte(content), 0644)
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET [-v] [-os=GOOS] [-arch=GOARCH]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  build    Build the ogctz binary into dist/")
	fmt.Println("  test     Run the Go tests with the race detector")
	fmt.Println("  check    Parse and execute every embedded page template")
	fmt.Println("  clean    Remove dist/ and logs/")
	fmt.Println("  release  clean, check, then build for -os/-arch")
}
