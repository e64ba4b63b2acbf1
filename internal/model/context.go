package model

// ConfigCategory partitions collected configuration files by purpose.
type ConfigCategory string

const (
	ConfigPackageManifest ConfigCategory = "packageManifests"
	ConfigBuildTool       ConfigCategory = "buildTools"
	ConfigCodeQuality     ConfigCategory = "codeQuality"
	ConfigTesting         ConfigCategory = "testing"
	ConfigDeployment      ConfigCategory = "deployment"
	ConfigEnvironment     ConfigCategory = "environment"
	ConfigOther           ConfigCategory = "other"
)

// ConfigFile is one collected configuration file. Content may be clipped
// when formatted into a prompt.
type ConfigFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// RepositoryContext is the transient product of surveying a checked-out
// tree. It is consumed by the analysis client and never persisted.
type RepositoryContext struct {
	RepoURL string `json:"repoUrl"`

	// Languages maps a language name to the number of files classified as it.
	Languages map[string]int `json:"languages"`

	// FileStructure is a bounded, ordered list of relative paths.
	FileStructure []string `json:"fileStructure"`

	// ConfigFiles holds collected configuration files per category.
	ConfigFiles map[ConfigCategory][]ConfigFile `json:"configFiles"`

	// ReadmeContent is the truncated README text, empty if none was found.
	ReadmeContent string `json:"readmeContent,omitempty"`

	TotalFiles int `json:"totalFiles"`
	TotalLines int `json:"totalLines"`
}
