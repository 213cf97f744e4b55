package sequencer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"lightful/midi"
)

const timestampLayout = "2006-01-02_15-04-05"

// ErrNoSaves is returned when loading the newest save of an empty project
var ErrNoSaves = errors.New("no saves found")

// ProjectsRoot overrides the projects directory when set
var ProjectsRoot string

// SaveInfo represents a saved loop file (for listing)
type SaveInfo struct {
	Filename  string    `json:"filename"`
	Name      string    `json:"name,omitempty"` // parsed from filename (empty if unnamed)
	Channel   uint8     `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
}

// ProjectsDir returns the projects directory path
func ProjectsDir() (string, error) {
	if ProjectsRoot != "" {
		return ProjectsRoot, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lightful", "projects"), nil
}

// ProjectDir returns the path to a specific project
func ProjectDir(projectName string) (string, error) {
	base, err := ProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, sanitizeFilename(projectName)), nil
}

// ListProjects returns all project folder names
func ListProjects() ([]string, error) {
	dir, err := ProjectsDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns saved loops for a project, newest first
func ListSaves(projectName string) ([]SaveInfo, error) {
	dir, err := ProjectDir(projectName)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	sort.SliceStable(saves, func(i, j int) bool {
		if !saves[i].Timestamp.Equal(saves[j].Timestamp) {
			return saves[i].Timestamp.After(saves[j].Timestamp)
		}
		return saves[i].Channel < saves[j].Channel
	})

	return saves, nil
}

// parseSaveName parses 2024-01-15_14-30-00_ch2.mid or
// 2024-01-15_14-30-00_ch2_name.mid
func parseSaveName(filename string) (SaveInfo, bool) {
	if !strings.HasSuffix(filename, ".mid") {
		return SaveInfo{}, false
	}
	baseName := strings.TrimSuffix(filename, ".mid")
	if len(baseName) < len(timestampLayout)+4 {
		return SaveInfo{}, false
	}

	ts, err := time.Parse(timestampLayout, baseName[:len(timestampLayout)])
	if err != nil {
		return SaveInfo{}, false
	}

	rest := baseName[len(timestampLayout):]
	if !strings.HasPrefix(rest, "_ch") {
		return SaveInfo{}, false
	}
	rest = rest[3:]

	chPart, name, _ := strings.Cut(rest, "_")
	ch, err := strconv.Atoi(chPart)
	if err != nil || ch < 1 || ch > 16 {
		return SaveInfo{}, false
	}

	return SaveInfo{
		Filename:  filename,
		Name:      name,
		Channel:   uint8(ch),
		Timestamp: ts,
	}, true
}

// SaveLoop writes a channel's loop into the project with a timestamp and
// returns the file name
func SaveLoop(projectName string, ch uint8, loop *midi.Loop) (string, error) {
	if projectName == "" {
		projectName = "untitled"
	}
	if loop == nil {
		return "", ErrNoLoop
	}

	dir, err := ProjectDir(projectName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s_ch%d.mid", time.Now().Format(timestampLayout), ch)
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := midi.WriteSMF(f, loop); err != nil {
		return "", fmt.Errorf("save %s: %w", filename, err)
	}
	return filename, f.Close()
}

// LoadLoop reads a saved loop (the newest one if filename is empty),
// rescaled to ticksPerBeat
func LoadLoop(projectName, filename string, ticksPerBeat int) (*midi.Loop, SaveInfo, error) {
	dir, err := ProjectDir(projectName)
	if err != nil {
		return nil, SaveInfo{}, err
	}

	if filename == "" {
		saves, err := ListSaves(projectName)
		if err != nil {
			return nil, SaveInfo{}, err
		}
		if len(saves) == 0 {
			return nil, SaveInfo{}, fmt.Errorf("%w in project %s", ErrNoSaves, projectName)
		}
		filename = saves[0].Filename
	}

	info, ok := parseSaveName(filename)
	if !ok {
		return nil, SaveInfo{}, fmt.Errorf("invalid save filename %q", filename)
	}

	f, err := os.Open(filepath.Join(dir, filename))
	if err != nil {
		return nil, SaveInfo{}, err
	}
	defer f.Close()

	loop, err := midi.ReadSMF(f, ticksPerBeat)
	if err != nil {
		return nil, SaveInfo{}, err
	}
	return loop, info, nil
}

// CreateProject creates a new empty project folder
func CreateProject(name string) error {
	dir, err := ProjectDir(name)
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// DeleteSave deletes a specific save file
func DeleteSave(projectName, filename string) error {
	dir, err := ProjectDir(projectName)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(dir, filepath.Base(filename)))
}

// RenameSave changes the name part of a save, keeping timestamp and channel
func RenameSave(projectName, oldFilename, newName string) (string, error) {
	dir, err := ProjectDir(projectName)
	if err != nil {
		return "", err
	}

	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", fmt.Errorf("invalid save filename %q", oldFilename)
	}

	newFilename := fmt.Sprintf("%s_ch%d", info.Timestamp.Format(timestampLayout), info.Channel)
	if newName != "" {
		newFilename += "_" + sanitizeFilename(newName)
	}
	newFilename += ".mid"

	return newFilename, os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename))
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	name = strings.NewReplacer(
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	).Replace(name)
	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}

// DeleteProject deletes entire project folder
func DeleteProject(name string) error {
	dir, err := ProjectDir(name)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// RenameProject renames a project folder
func RenameProject(oldName, newName string) error {
	oldDir, err := ProjectDir(oldName)
	if err != nil {
		return err
	}
	newDir, err := ProjectDir(newName)
	if err != nil {
		return err
	}
	return os.Rename(oldDir, newDir)
}
