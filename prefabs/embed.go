package prefabs

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DiskRoot is checked before the embedded copy so edited prefabs take
// effect without a rebuild.
var DiskRoot = "prefabs"

//go:embed *.yaml
var PrefabsFS embed.FS

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// Load reads a fighter or weapon prefab by name.
func Load(name string) ([]byte, error) {
	return read(PrefabsFS, prefabPath(name))
}

// LoadScript reads a predicate script. "finisher.tengo",
// "scripts/finisher.tengo" and "prefabs/scripts/finisher.tengo" all name
// the same file.
func LoadScript(name string) ([]byte, error) {
	return read(ScriptsFS, scriptPath(name))
}

func read(embedded embed.FS, rel string) ([]byte, error) {
	if rel == "" {
		return nil, fmt.Errorf("prefabs: empty name")
	}
	if data, err := os.ReadFile(onDisk(rel)); err == nil {
		return data, nil
	}
	data, err := embedded.ReadFile(rel)
	if err != nil {
		return nil, fmt.Errorf("prefabs: %w", err)
	}
	return data, nil
}

// ModTime reports when the on-disk copy of a prefab last changed. It is
// false for prefabs that only exist embedded.
func ModTime(name string) (time.Time, bool) {
	rel := prefabPath(name)
	if rel == "" {
		return time.Time{}, false
	}
	info, err := os.Stat(onDisk(rel))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Name maps a watcher path back to the prefab name accepted by Load.
func Name(p string) string {
	return filepath.ToSlash(filepath.Base(p))
}

func prefabPath(name string) string {
	s := path.Clean(filepath.ToSlash(name))
	if s == "." {
		return ""
	}
	s, _ = strings.CutPrefix(s, "prefabs/")
	return s
}

func scriptPath(name string) string {
	s := prefabPath(name)
	if s == "" {
		return ""
	}
	s, _ = strings.CutPrefix(s, "scripts/")
	return "scripts/" + s
}

func onDisk(rel string) string {
	return filepath.Join(DiskRoot, filepath.FromSlash(rel))
}
