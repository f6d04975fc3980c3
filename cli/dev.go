package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/meghashyamc/docquery/logger"
)

const (
	restartDebounce = 300 * time.Millisecond
	stopTimeout     = 10 * time.Second
)

// devSupervisor keeps one server child process running and replaces it when a watched
// file changes.
type devSupervisor struct {
	logger     logger.Logger
	newProcess func() *exec.Cmd
	watcher    *fsnotify.Watcher
	debounce   time.Duration

	// Each child gets env overlaid with the current contents of envFile.
	env     []string
	envFile string

	// Files are watched through their parent directory so editors that replace the file
	// on save keep triggering events.
	files map[string]bool
	dirs  map[string]bool

	current *process
}

type process struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func newDevSupervisor(logger logger.Logger, args []string, env []string, envFile string, paths []string) (*devSupervisor, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("could not locate the docquery executable: %w", err)
	}

	return newSupervisor(logger, func() *exec.Cmd {
		cmd := exec.Command(executable, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd
	}, env, envFile, paths)
}

func newSupervisor(logger logger.Logger, newProcess func() *exec.Cmd, env []string, envFile string, paths []string) (*devSupervisor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	s := &devSupervisor{
		logger:     logger,
		newProcess: newProcess,
		watcher:    watcher,
		debounce:   restartDebounce,
		env:        env,
		envFile:    envFile,
		files:      map[string]bool{},
		dirs:       map[string]bool{},
	}
	if envFile != "" {
		paths = append(paths, envFile)
	}
	if err := s.watch(paths); err != nil {
		watcher.Close()
		return nil, err
	}
	return s, nil
}

func (s *devSupervisor) watch(paths []string) error {
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		info, err := os.Stat(abs)
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("skipping missing watch path", "path", path)
			continue
		}
		if err != nil {
			return err
		}

		dir := abs
		if info.IsDir() {
			s.dirs[abs] = true
		} else {
			dir = filepath.Dir(abs)
			s.files[abs] = true
		}
		if err := s.watcher.Add(dir); err != nil {
			return fmt.Errorf("could not watch %s: %w", path, err)
		}
		s.logger.Debug("watching for changes", "path", abs)
	}
	return nil
}

// Run blocks until ctx is cancelled, then stops the child.
func (s *devSupervisor) Run(ctx context.Context) error {
	defer s.watcher.Close()

	if err := s.start(); err != nil {
		return err
	}
	defer s.stop()

	timer := time.NewTimer(s.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if !s.relevant(event) {
				continue
			}
			s.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(s.debounce)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("file watcher error", "err", err.Error())

		case <-timer.C:
			s.logger.Info("change detected, restarting server")
			s.stop()
			if err := s.start(); err != nil {
				return err
			}
		}
	}
}

func (s *devSupervisor) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	return s.files[name] || s.dirs[filepath.Dir(name)]
}

// environment re-reads envFile so edits reach the next child; later entries win in exec.Cmd.Env.
func (s *devSupervisor) environment() []string {
	env := append([]string{}, s.env...)
	if s.envFile == "" {
		return env
	}

	values, err := godotenv.Read(s.envFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("could not read env file", "path", s.envFile, "err", err.Error())
		}
		return env
	}
	for key, value := range values {
		env = append(env, key+"="+value)
	}
	return env
}

func (s *devSupervisor) start() error {
	cmd := s.newProcess()
	cmd.Env = s.environment()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not start server: %w", err)
	}

	p := &process{cmd: cmd, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		if err := cmd.Wait(); err != nil {
			s.logger.Debug("server process exited", "pid", cmd.Process.Pid, "err", err.Error())
		}
	}()
	s.current = p
	s.logger.Info("server process started", "pid", cmd.Process.Pid)
	return nil
}

// stop interrupts the child and kills it if it does not exit in time.
func (s *devSupervisor) stop() {
	p := s.current
	if p == nil {
		return
	}
	s.current = nil

	select {
	case <-p.done:
		return
	default:
	}

	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		s.logger.Debug("could not interrupt server process", "err", err.Error())
	}
	select {
	case <-p.done:
	case <-time.After(stopTimeout):
		s.logger.Warn("server process did not stop in time, killing it", "pid", p.cmd.Process.Pid)
		_ = p.cmd.Process.Kill()
		<-p.done
	}
}
