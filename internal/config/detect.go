package config

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// manifest extracts a project name from one kind of build file.
type manifest struct {
	file string
	name func(data []byte) string
}

// manifests are consulted in order; the first non-empty name wins.
var manifests = []manifest{
	{"go.mod", goModuleName},
	{"pyproject.toml", pyprojectName},
	{"pom.xml", pomArtifactID},
	{"CMakeLists.txt", cmakeProjectName},
	{"package.json", packageJSONName},
}

// DetectProjectName names the project in dir after its build manifest,
// falling back to the directory's base name. Unreadable or malformed
// manifests are skipped.
func DetectProjectName(dir string) string {
	for _, m := range manifests {
		data, err := os.ReadFile(filepath.Join(dir, m.file))
		if err != nil {
			continue
		}
		if name := m.name(data); name != "" {
			return name
		}
	}
	return filepath.Base(dir)
}

// goModuleName returns the last element of the module path.
func goModuleName(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && fields[0] == "module" {
			return path.Base(strings.Trim(fields[1], `"`))
		}
	}
	return ""
}

func pyprojectName(data []byte) string {
	var p struct {
		Project struct {
			Name string `toml:"name"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name string `toml:"name"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.Decode(string(data), &p); err != nil {
		return ""
	}
	if p.Project.Name != "" {
		return p.Project.Name
	}
	return p.Tool.Poetry.Name
}

func pomArtifactID(data []byte) string {
	var p struct {
		ArtifactID string `xml:"artifactId"`
	}
	if err := xml.Unmarshal(data, &p); err != nil {
		return ""
	}
	return strings.TrimSpace(p.ArtifactID)
}

var cmakeProjectRe = regexp.MustCompile(`(?im)^\s*project\s*\(\s*"?([A-Za-z0-9_.+-]+)`)

func cmakeProjectName(data []byte) string {
	if m := cmakeProjectRe.FindSubmatch(data); m != nil {
		return string(m[1])
	}
	return ""
}

func packageJSONName(data []byte) string {
	var p struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return ""
	}
	return p.Name
}
