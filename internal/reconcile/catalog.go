package reconcile

import "github.com/alexisbeaulieu97/devsync/internal/model"

// catalogEntry maps one include flag of a catalog group to the item it plans.
type catalogEntry struct {
	flag         string
	label        string
	category     string
	identifier   string
	alternatives []string

	// tap is planned before the item when its formula lives outside core.
	tap string

	// check and run are the scripts of shell_step entries.
	check string
	run   string

	// profile is appended to the shell profile after the item. %s is
	// replaced by the shell name.
	profile string
}

// catalog holds the fixed tables for the toggle-only groups. Entries are
// planned in table order, never in document order.
var catalog = map[string][]catalogEntry{
	"browsers": {
		{flag: "chrome", label: "Google Chrome", category: model.CategoryCask, identifier: "google-chrome"},
		{flag: "firefox", label: "Firefox", category: model.CategoryCask, identifier: "firefox"},
		{flag: "arc", label: "Arc", category: model.CategoryCaskAny, identifier: "arc", alternatives: []string{"arc", "arc-browser"}},
		{flag: "brave", label: "Brave", category: model.CategoryCask, identifier: "brave-browser"},
		{flag: "edge", label: "Microsoft Edge", category: model.CategoryCask, identifier: "microsoft-edge"},
	},
	"terminal": {
		{flag: "iterm2", label: "iTerm2", category: model.CategoryCask, identifier: "iterm2"},
		{flag: "warp", label: "Warp", category: model.CategoryCask, identifier: "warp"},
		{
			flag:       "oh_my_zsh",
			label:      "Oh My Zsh",
			category:   model.CategoryShellStep,
			identifier: "oh-my-zsh",
			check:      `test -d "$HOME/.oh-my-zsh"`,
			run:        `sh -c "$(curl -fsSL https://raw.githubusercontent.com/ohmyzsh/ohmyzsh/master/tools/install.sh)" "" --unattended`,
		},
		{flag: "starship", label: "Starship", category: model.CategoryFormula, identifier: "starship", profile: `eval "$(starship init %s)"`},
	},
	"editors": {
		{flag: "vscode", label: "Visual Studio Code", category: model.CategoryCask, identifier: "visual-studio-code"},
		{flag: "cursor", label: "Cursor", category: model.CategoryCask, identifier: "cursor"},
		{flag: "zed", label: "Zed", category: model.CategoryCask, identifier: "zed"},
		{flag: "neovim", label: "Neovim", category: model.CategoryFormula, identifier: "neovim"},
		{flag: "sublime", label: "Sublime Text", category: model.CategoryCask, identifier: "sublime-text"},
	},
	"web": {
		{flag: "yarn", label: "Yarn", category: model.CategoryFormula, identifier: "yarn"},
		{flag: "pnpm", label: "pnpm", category: model.CategoryFormula, identifier: "pnpm"},
		{flag: "bun", label: "Bun", category: model.CategoryFormula, identifier: "oven-sh/bun/bun", tap: "oven-sh/bun"},
		{flag: "postman", label: "Postman", category: model.CategoryCask, identifier: "postman"},
		{flag: "ngrok", label: "ngrok", category: model.CategoryCask, identifier: "ngrok"},
	},
	"devops": {
		{flag: "docker", label: "Docker Desktop", category: model.CategoryCask, identifier: "docker"},
		{flag: "kubectl", label: "kubectl", category: model.CategoryFormula, identifier: "kubernetes-cli"},
		{flag: "helm", label: "Helm", category: model.CategoryFormula, identifier: "helm"},
		{flag: "terraform", label: "Terraform", category: model.CategoryFormula, identifier: "hashicorp/tap/terraform", tap: "hashicorp/tap"},
		{flag: "awscli", label: "AWS CLI", category: model.CategoryFormula, identifier: "awscli"},
		{flag: "gcloud", label: "Google Cloud SDK", category: model.CategoryCask, identifier: "google-cloud-sdk"},
		{flag: "azure_cli", label: "Azure CLI", category: model.CategoryFormula, identifier: "azure-cli"},
	},
	"databases": {
		{flag: "postgresql", label: "PostgreSQL", category: model.CategoryFormula, identifier: "postgresql@16"},
		{flag: "mysql", label: "MySQL", category: model.CategoryFormula, identifier: "mysql"},
		{flag: "redis", label: "Redis", category: model.CategoryFormula, identifier: "redis"},
		{flag: "mongodb", label: "MongoDB", category: model.CategoryFormula, identifier: "mongodb/brew/mongodb-community", tap: "mongodb/brew"},
		{flag: "dbeaver", label: "DBeaver", category: model.CategoryCask, identifier: "dbeaver-community"},
		{flag: "tableplus", label: "TablePlus", category: model.CategoryCask, identifier: "tableplus"},
	},
	"productivity": {
		{flag: "slack", label: "Slack", category: model.CategoryCask, identifier: "slack"},
		{flag: "notion", label: "Notion", category: model.CategoryCask, identifier: "notion"},
		{flag: "obsidian", label: "Obsidian", category: model.CategoryCask, identifier: "obsidian"},
		{flag: "raycast", label: "Raycast", category: model.CategoryCask, identifier: "raycast"},
		{flag: "rectangle", label: "Rectangle", category: model.CategoryCask, identifier: "rectangle"},
		{flag: "1password", label: "1Password", category: model.CategoryCask, identifier: "1password"},
		{flag: "spotify", label: "Spotify", category: model.CategoryCask, identifier: "spotify"},
		{flag: "zoom", label: "Zoom", category: model.CategoryCask, identifier: "zoom"},
	},
	"ai": {
		{flag: "ollama", label: "Ollama", category: model.CategoryFormula, identifier: "ollama"},
		{flag: "chatgpt", label: "ChatGPT", category: model.CategoryCask, identifier: "chatgpt"},
		{flag: "claude", label: "Claude", category: model.CategoryCask, identifier: "claude"},
	},
}

// languageFormulae are the single-formula toolchains under "languages".
var languageFormulae = []catalogEntry{
	{flag: "go", label: "Go", category: model.CategoryFormula, identifier: "go"},
	{flag: "rust", label: "Rust", category: model.CategoryFormula, identifier: "rustup"},
	{flag: "java", label: "Java", category: model.CategoryFormula, identifier: "openjdk"},
}
