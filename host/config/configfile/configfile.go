// Package configfile reads ADB server profiles from an INI file
package configfile

import (
	"bytes"
	"os"
	"sync"
	"time"

	"github.com/Unknwon/goconfig"
	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config/configmap"
)

// ErrorConfigFileNotFound is returned by Load when the file is missing
var ErrorConfigFileNotFound = errors.New("config file not found")

// Storage holds the parsed config file. One section per ADB server
// profile, keys as in adb.Options.
type Storage struct {
	path      string
	mu        sync.Mutex           // protects the following variables
	gc        *goconfig.ConfigFile // config file loaded - not thread safe
	fiModTime time.Time            // mod time of the file when last loaded
	fiSize    int64                // size of the file when last loaded
}

// New makes a Storage reading from path. Nothing is read until Load,
// until then it is empty.
func New(path string) *Storage {
	gc, _ := goconfig.LoadFromReader(bytes.NewReader(nil))
	return &Storage{path: path, gc: gc}
}

// Path returns the path of the config file
func (s *Storage) Path() string {
	return s.path
}

// _check reloads the file if it changed since it was last loaded
//
// mu must be held when calling this
func (s *Storage) _check() {
	if s.path == "" {
		return
	}
	fi, err := os.Stat(s.path)
	if err != nil {
		return
	}
	if fi.ModTime().After(s.fiModTime) || fi.Size() != s.fiSize {
		host.Debugf(nil, "Config file has changed externally - reloading")
		if err := s._load(); err != nil {
			host.Errorf(nil, "Failed to read config file - using previous config: %v", err)
		}
	}
}

// _load the config file
//
// mu must be held when calling this
func (s *Storage) _load() (err error) {
	// Make sure we have a sensible default even when we error
	defer func() {
		if s.gc == nil {
			s.gc, _ = goconfig.LoadFromReader(bytes.NewReader(nil))
		}
	}()

	if s.path == "" {
		return ErrorConfigFileNotFound
	}
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrorConfigFileNotFound
		}
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	gc, err := goconfig.LoadFromReader(f)
	if err != nil {
		return errors.Wrapf(err, "failed to parse config file %q", s.path)
	}
	s.gc = gc
	s.fiModTime, s.fiSize = fi.ModTime(), fi.Size()
	return nil
}

// Load the config file. A missing file returns
// ErrorConfigFileNotFound and leaves an empty config loaded.
func (s *Storage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s._load()
}

// HasSection returns true if section exists in the config file
func (s *Storage) HasSection(section string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	_, err := s.gc.GetSection(section)
	return err == nil
}

// GetSectionList returns the names of all the server profiles
func (s *Storage) GetSectionList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	return s.gc.GetSectionList()
}

// GetKeyList returns the keys in this section
func (s *Storage) GetKeyList(section string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	return s.gc.GetKeyList(section)
}

// GetValue returns the key in section with a found flag
func (s *Storage) GetValue(section string, key string) (value string, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s._check()
	value, err := s.gc.GetValue(section, key)
	if err != nil {
		return "", false
	}
	return value, true
}

// sectionGetter reads keys from one section
type sectionGetter struct {
	s       *Storage
	section string
}

// Get implements configmap.Getter
func (g sectionGetter) Get(key string) (string, bool) {
	return g.s.GetValue(g.section, key)
}

// Section returns a configmap.Getter for the keys of section
func (s *Storage) Section(section string) configmap.Getter {
	return sectionGetter{s: s, section: section}
}
