package course

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/upscaleng/upscale/fs"
)

const catalogAsset = "assets/catalog.yaml"

type (
	// CourseSeed is one catalog entry as shipped in the asset file; it seeds
	// the courses/modules tables and carries the static curriculum.
	CourseSeed struct {
		Track       string      `yaml:"track"`
		Title       string      `yaml:"title"`
		Description string      `yaml:"description"`
		Modules     []ModuleSeed `yaml:"modules"`
		Curriculum  []WeekTopic  `yaml:"curriculum"`
	}

	ModuleSeed struct {
		Title   string `yaml:"title"`
		Content string `yaml:"content"`
	}

	// Catalog is the embedded course catalog, loaded once at startup.
	Catalog struct {
		Courses []CourseSeed `yaml:"courses"`
	}
)

// LoadCatalog parses the embedded catalog asset.
func LoadCatalog() (*Catalog, error) {
	raw, err := appfs.FS.ReadFile(catalogAsset)
	if err != nil {
		return nil, errors.Wrap(err, "reading catalog")
	}

	var cat Catalog
	if err = yaml.Unmarshal(raw, &cat); err != nil {
		return nil, errors.Wrap(err, "parsing catalog")
	}
	for _, c := range cat.Courses {
		if c.Track == "" || c.Title == "" {
			return nil, errors.New("catalog: course track and title are required")
		}
	}
	return &cat, nil
}

// Curriculum returns the static weekly program for a course title.
func (cat *Catalog) Curriculum(title string) []WeekTopic {
	for _, c := range cat.Courses {
		if c.Title == title {
			return c.Curriculum
		}
	}
	return nil
}
