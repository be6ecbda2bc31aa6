package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"eduvid/internal/config"
)

// EntryScene is the scene class every generated script must define; the
// renderer invokes it and artifact discovery keys off its name.
const EntryScene = "MainScene"

const videoExt = ".mp4"

var (
	ErrNoCodeBlock         = errors.New("no python code block found in model response")
	ErrRenderTimeout       = errors.New("render timed out")
	ErrToolMissing         = errors.New("manim binary not found")
	ErrArtifactNotProduced = errors.New("render succeeded but produced no video file")
)

// RenderError reports a non-zero renderer exit along with whatever the tool
// wrote to stderr.
type RenderError struct {
	Stderr string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("manim execution failed: %s", strings.TrimSpace(e.Stderr))
}

var pythonBlockPattern = regexp.MustCompile("(?s)```python(.*?)```")

// ExtractPythonBlock returns the trimmed contents of the first fenced python
// block in raw. Absence of a block is a first-class failure, not an empty
// result.
func ExtractPythonBlock(raw string) (string, error) {
	match := pythonBlockPattern.FindStringSubmatch(raw)
	if match == nil {
		return "", ErrNoCodeBlock
	}
	return strings.TrimSpace(match[1]), nil
}

// Renderer turns animation source code into a playable artifact on disk.
// The production implementation shells out to manim; tests substitute fakes.
type Renderer interface {
	Render(ctx context.Context, sourceCode string) (string, error)
}

// AnimationService composes code synthesis, extraction and rendering into a
// single prompt-to-artifact step.
type AnimationService struct {
	llm          ChatCompleter
	systemPrompt string
	renderer     Renderer
}

func NewAnimationService(llm ChatCompleter, systemPrompt string, renderer Renderer) *AnimationService {
	return &AnimationService{llm: llm, systemPrompt: systemPrompt, renderer: renderer}
}

func (s *AnimationService) Generate(ctx context.Context, prompt string) (string, error) {
	raw, err := s.llm.Complete(ctx, s.systemPrompt, prompt, false)
	if err != nil {
		return "", err
	}

	code, err := ExtractPythonBlock(raw)
	if err != nil {
		return "", err
	}

	return s.renderer.Render(ctx, code)
}

// ManimRenderer runs manim as a subprocess. Each render gets its own
// workspace directory so concurrent renders never see each other's output
// during artifact discovery.
type ManimRenderer struct {
	binary   string
	workDir  string
	mediaDir string
	timeout  time.Duration
}

func NewManimRenderer(cfg config.Config) *ManimRenderer {
	return &ManimRenderer{
		binary:   cfg.ManimBinary,
		workDir:  filepath.Join(cfg.DataDir, "renders"),
		mediaDir: cfg.MediaDir,
		timeout:  cfg.RenderTimeout,
	}
}

func (r *ManimRenderer) Render(ctx context.Context, sourceCode string) (string, error) {
	suffix := shortID()
	workspace := filepath.Join(r.workDir, "render_"+suffix)
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return "", fmt.Errorf("create render workspace: %w", err)
	}

	scriptPath := filepath.Join(workspace, "manim_animation_"+suffix+".py")
	if err := os.WriteFile(scriptPath, []byte(sourceCode), 0o644); err != nil {
		return "", fmt.Errorf("write animation script: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, "-ql", "--media_dir", workspace, scriptPath, EntryScene)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// The tool forks workers (ffmpeg, latex) that inherit the output pipes;
	// killing only the direct child would leave them holding the pipes open
	// and Run blocked past the deadline. Kill the whole process group, and
	// let WaitDelay force Run to return even if a descendant survives.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The group is dead (or abandoned after WaitDelay); drop any
			// partial output so a later scan cannot pick it up.
			os.RemoveAll(workspace)
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return "", ErrRenderTimeout
			}
			return "", ctxErr
		}
		// A bare binary name fails LookPath with ErrNotFound; an explicit
		// path fails at start with ErrNotExist.
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return "", ErrToolMissing
		}
		return "", &RenderError{Stderr: stderr.String()}
	}

	artifact, err := newestArtifact(workspace)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.mediaDir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	dest := filepath.Join(r.mediaDir, fmt.Sprintf("%s_%s%s", EntryScene, suffix, videoExt))
	if err := moveFile(artifact, dest); err != nil {
		return "", fmt.Errorf("move rendered artifact: %w", err)
	}

	return dest, nil
}

// newestArtifact scans the workspace for rendered scene files and returns
// the most recently modified one. Modification times are unique in practice;
// the name comparison only settles exact ties deterministically.
func newestArtifact(workspace string) (string, error) {
	var (
		bestPath string
		bestName string
		bestTime time.Time
	)

	err := filepath.WalkDir(workspace, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, EntryScene) || !strings.HasSuffix(name, videoExt) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		modTime := info.ModTime()
		if bestPath == "" || modTime.After(bestTime) || (modTime.Equal(bestTime) && name > bestName) {
			bestPath = path
			bestName = name
			bestTime = modTime
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan render output: %w", err)
	}

	if bestPath == "" {
		return "", ErrArtifactNotProduced
	}
	return bestPath, nil
}

func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	// Rename fails across filesystems; fall back to copy + remove.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}

func shortID() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:4])
}
