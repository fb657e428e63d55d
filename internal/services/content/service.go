package content

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// Default file names inside the data directory
const (
	DefaultLinkFile = "LinkLauncher.txt"
	DefaultModsFile = "modslist.txt"
)

// ErrLinkNotFound is returned when no download link has been stored
var ErrLinkNotFound = errors.New("link file not found")

// Config holds file locations for the content service
type Config struct {
	Dir      string
	LinkFile string
	ModsFile string
}

// DefaultConfig returns a Config rooted at dir with the standard file names
func DefaultConfig(dir string) Config {
	return Config{
		Dir:      dir,
		LinkFile: DefaultLinkFile,
		ModsFile: DefaultModsFile,
	}
}

// Service serves the launcher download link and the active mod list.
// Both files are read on every call so edits on disk are picked up at once.
type Service struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a content Service
func New(cfg Config, logger *slog.Logger) *Service {
	if cfg.LinkFile == "" {
		cfg.LinkFile = DefaultLinkFile
	}
	if cfg.ModsFile == "" {
		cfg.ModsFile = DefaultModsFile
	}
	return &Service{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "content")),
	}
}

// LinkPath returns the path of the download-link file
func (s *Service) LinkPath() string {
	return filepath.Join(s.cfg.Dir, s.cfg.LinkFile)
}

// ModsPath returns the path of the mod-list file
func (s *Service) ModsPath() string {
	return filepath.Join(s.cfg.Dir, s.cfg.ModsFile)
}

// Link returns the trimmed download link
func (s *Service) Link() (string, error) {
	data, err := os.ReadFile(s.LinkPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("link file not found", slog.String("path", s.LinkPath()))
			return "", ErrLinkNotFound
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Mods returns the trimmed mod list, or "" if it cannot be read
func (s *Service) Mods() string {
	data, err := os.ReadFile(s.ModsPath())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("could not read mod list", slog.String("error", err.Error()))
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetLink replaces the stored download link
func (s *Service) SetLink(link string) error {
	return s.write(s.LinkPath(), link)
}

// SetMods replaces the stored mod list (mods separated by ';')
func (s *Service) SetMods(mods string) error {
	return s.write(s.ModsPath(), mods)
}

func (s *Service) write(path, value string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, strings.NewReader(value))
}
