package survey

import (
	"path/filepath"
	"strings"

	"github.com/gitgauge/gitgauge/internal/model"
)

// configCatalog maps each configuration category to the filename patterns
// collected for it. Patterns are matched against base names with
// filepath.Match semantics, case-insensitively.
var configCatalog = []struct {
	category model.ConfigCategory
	patterns []string
}{
	{model.ConfigPackageManifest, []string{
		"package.json", "go.mod", "cargo.toml", "pom.xml", "build.gradle",
		"build.gradle.kts", "requirements.txt", "pyproject.toml", "setup.py",
		"pipfile", "gemfile", "composer.json", "*.csproj", "mix.exs",
	}},
	{model.ConfigBuildTool, []string{
		"webpack.config.*", "vite.config.*", "rollup.config.*", "babel.config.*",
		"tsconfig.json", "tsconfig.*.json", "makefile", "cmakelists.txt",
		"gulpfile.js", "esbuild.config.*", "turbo.json", "nx.json",
	}},
	{model.ConfigCodeQuality, []string{
		".eslintrc", ".eslintrc.*", "eslint.config.*", ".prettierrc",
		".prettierrc.*", ".golangci.yml", ".golangci.yaml", "ruff.toml",
		".rubocop.yml", ".editorconfig", ".stylelintrc*", "biome.json",
	}},
	{model.ConfigTesting, []string{
		"jest.config.*", "vitest.config.*", "pytest.ini", "karma.conf.js",
		"cypress.config.*", "playwright.config.*", "codecov.yml", ".nycrc*",
	}},
	{model.ConfigDeployment, []string{
		"dockerfile", "dockerfile.*", "docker-compose.yml", "docker-compose.yaml",
		"docker-compose.*.yml", "procfile", "vercel.json", "netlify.toml",
		"fly.toml", "app.yaml", ".gitlab-ci.yml", "jenkinsfile", "serverless.yml",
	}},
	{model.ConfigEnvironment, []string{
		".env.example", ".env.sample", ".env.template", ".nvmrc",
		".tool-versions", ".python-version", ".ruby-version", ".node-version",
	}},
	{model.ConfigOther, []string{
		".browserslistrc", "renovate.json", "dependabot.yml", "lerna.json",
		".gitattributes", "codeowners",
	}},
}

// readmeVariants is the ordered list of filenames tried for README lookup.
var readmeVariants = []string{
	"README.md", "README.MD", "readme.md", "Readme.md",
	"README", "readme", "README.txt", "README.rst",
}

// classifyConfig returns the category for a file name, or "" when the name
// matches no pattern.
func classifyConfig(name string) model.ConfigCategory {
	lower := strings.ToLower(name)
	for _, entry := range configCatalog {
		for _, pattern := range entry.patterns {
			if ok, err := filepath.Match(pattern, lower); err == nil && ok {
				return entry.category
			}
		}
	}
	return ""
}
