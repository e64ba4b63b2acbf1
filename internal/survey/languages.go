package survey

import (
	"path/filepath"
	"strings"
)

// languageByExt classifies files by extension. Unknown extensions count
// toward totals but not toward any language.
var languageByExt = map[string]string{
	".go":     "Go",
	".ts":     "TypeScript",
	".tsx":    "TypeScript",
	".js":     "JavaScript",
	".jsx":    "JavaScript",
	".mjs":    "JavaScript",
	".cjs":    "JavaScript",
	".py":     "Python",
	".rb":     "Ruby",
	".rs":     "Rust",
	".java":   "Java",
	".kt":     "Kotlin",
	".kts":    "Kotlin",
	".swift":  "Swift",
	".c":      "C",
	".h":      "C",
	".cc":     "C++",
	".cpp":    "C++",
	".cxx":    "C++",
	".hpp":    "C++",
	".cs":     "C#",
	".php":    "PHP",
	".scala":  "Scala",
	".clj":    "Clojure",
	".ex":     "Elixir",
	".exs":    "Elixir",
	".erl":    "Erlang",
	".hs":     "Haskell",
	".lua":    "Lua",
	".r":      "R",
	".dart":   "Dart",
	".zig":    "Zig",
	".sh":     "Shell",
	".bash":   "Shell",
	".ps1":    "PowerShell",
	".sql":    "SQL",
	".html":   "HTML",
	".htm":    "HTML",
	".css":    "CSS",
	".scss":   "SCSS",
	".less":   "Less",
	".vue":    "Vue",
	".svelte": "Svelte",
}

// textExts are extensions whose files get their lines counted. Anything
// else is treated as potentially binary and skipped for line counting.
var textExts = map[string]struct{}{
	".go": {}, ".ts": {}, ".tsx": {}, ".js": {}, ".jsx": {}, ".mjs": {}, ".cjs": {},
	".py": {}, ".rb": {}, ".rs": {}, ".java": {}, ".kt": {}, ".kts": {}, ".swift": {},
	".c": {}, ".h": {}, ".cc": {}, ".cpp": {}, ".cxx": {}, ".hpp": {}, ".cs": {},
	".php": {}, ".scala": {}, ".clj": {}, ".ex": {}, ".exs": {}, ".erl": {}, ".hs": {},
	".lua": {}, ".r": {}, ".dart": {}, ".zig": {}, ".sh": {}, ".bash": {}, ".ps1": {},
	".sql": {}, ".html": {}, ".htm": {}, ".css": {}, ".scss": {}, ".less": {},
	".vue": {}, ".svelte": {}, ".md": {}, ".txt": {}, ".json": {}, ".yml": {},
	".yaml": {}, ".toml": {}, ".xml": {}, ".ini": {}, ".cfg": {}, ".env": {},
}

// ignoredDirs are dependency, build and VCS directories skipped entirely.
var ignoredDirs = map[string]struct{}{
	".git": {}, ".hg": {}, ".svn": {},
	"node_modules": {}, "vendor": {}, "bower_components": {},
	"dist": {}, "build": {}, "out": {}, "target": {}, "bin": {}, "obj": {},
	".next": {}, ".nuxt": {}, ".output": {}, ".cache": {}, "coverage": {},
	"__pycache__": {}, ".venv": {}, "venv": {}, ".tox": {}, ".mypy_cache": {},
	".idea": {}, ".vscode": {}, ".gradle": {}, ".terraform": {},
}

func languageOf(path string) string {
	return languageByExt[strings.ToLower(filepath.Ext(path))]
}

func isTextFile(path string) bool {
	_, ok := textExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

func isIgnoredDir(name string) bool {
	_, ok := ignoredDirs[name]
	return ok
}
