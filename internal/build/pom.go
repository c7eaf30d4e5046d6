package build

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

type pomModel struct {
	XMLName    xml.Name `xml:"project"`
	ArtifactID string   `xml:"artifactId"`
	Modules    []string `xml:"modules>module"`
}

// ReadModules returns the <module> entries of the pom.xml at path.
func ReadModules(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var model pomModel
	if err := xml.Unmarshal(content, &model); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	modules := make([]string, 0, len(model.Modules))
	for _, m := range model.Modules {
		if m = strings.TrimSpace(m); m != "" {
			modules = append(modules, m)
		}
	}
	return modules, nil
}
