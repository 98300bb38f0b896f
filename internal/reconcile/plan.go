// Package reconcile turns a configuration document into an ordered list of
// desired items and drives each one through its provider.
package reconcile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/devsync/internal/config"
	"github.com/alexisbeaulieu97/devsync/internal/model"
	"github.com/alexisbeaulieu97/devsync/internal/provider/internalexec"
	"github.com/alexisbeaulieu97/devsync/internal/providers/globalpkg"
	"github.com/alexisbeaulieu97/devsync/internal/providers/langver"
)

// GroupOrder is the fixed order in which configuration groups are planned.
// Later groups may rely on side effects of earlier ones, such as a version
// manager installed before its versions.
var GroupOrder = []string{
	"system",
	"identity",
	"browsers",
	"terminal",
	"editors",
	"languages",
	"web",
	"devops",
	"databases",
	"productivity",
	"extras",
	"ai",
	"overrides",
	"app_store",
}

const (
	nvmDirLine    = `export NVM_DIR="$HOME/.nvm"`
	nvmLoadLine   = `[ -s "$(brew --prefix nvm)/nvm.sh" ] && . "$(brew --prefix nvm)/nvm.sh"`
	pyenvRootLine = `export PYENV_ROOT="$HOME/.pyenv"`
	pyenvPathLine = `command -v pyenv >/dev/null || export PATH="$PYENV_ROOT/bin:$PATH"`
	pyenvInitLine = `eval "$(pyenv init -)"`
	localBinLine  = `export PATH="$PATH:$HOME/.local/bin"`
)

type planner struct {
	doc      *config.Document
	settings config.Settings
	group    string
	items    []model.DesiredItem
	seen     map[string]bool
}

// Plan walks the document in GroupOrder and returns every enabled item. The
// result depends only on the document. Items sharing a key are planned once,
// at their first position.
func Plan(doc *config.Document) []model.DesiredItem {
	p := &planner{doc: doc, settings: doc.Settings(), seen: map[string]bool{}}

	steps := map[string]func(){
		"system":    p.system,
		"identity":  p.identity,
		"languages": p.languages,
		"extras":    p.extras,
		"ai":        p.ai,
		"overrides": p.overrides,
		"app_store": p.appStore,
	}
	for _, group := range GroupOrder {
		p.group = group
		if step, ok := steps[group]; ok {
			step()
			continue
		}
		p.catalog(group)
	}
	return p.items
}

func (p *planner) add(item model.DesiredItem) {
	item.Identifier = strings.TrimSpace(item.Identifier)
	if item.Identifier == "" {
		return
	}
	item.Group = p.group
	if p.seen[item.Key()] {
		return
	}
	p.seen[item.Key()] = true
	p.items = append(p.items, item)
}

func (p *planner) formula(name string) {
	p.add(model.DesiredItem{Category: model.CategoryFormula, Identifier: name})
}

func (p *planner) cask(name string) {
	p.add(model.DesiredItem{Category: model.CategoryCask, Identifier: name})
}

func (p *planner) profileLine(line string) {
	p.add(model.DesiredItem{Category: model.CategoryProfileLine, Identifier: line})
}

func (p *planner) step(name, label, check, run string) {
	p.add(model.DesiredItem{
		Category:   model.CategoryShellStep,
		Identifier: name,
		Label:      label,
		Params:     map[string]string{"check": check, "run": run},
	})
}

func (p *planner) entry(e catalogEntry) {
	if e.tap != "" {
		p.add(model.DesiredItem{Category: model.CategoryTap, Identifier: e.tap})
	}

	item := model.DesiredItem{
		Category:     e.category,
		Identifier:   e.identifier,
		Label:        e.label,
		Alternatives: append([]string(nil), e.alternatives...),
	}
	if e.category == model.CategoryShellStep {
		item.Params = map[string]string{"check": e.check, "run": e.run}
	}
	p.add(item)

	if e.profile != "" {
		p.profileLine(strings.ReplaceAll(e.profile, "%s", p.shellName()))
	}
}

func (p *planner) catalog(group string) {
	for _, e := range catalog[group] {
		if p.doc.IsEnabled(group + "." + e.flag) {
			p.entry(e)
		}
	}
}

// shellName guesses the shell from the profile file name.
func (p *planner) shellName() string {
	base := filepath.Base(p.settings.ShellProfile)
	if strings.Contains(base, "zsh") || strings.HasPrefix(base, ".zprofile") {
		return "zsh"
	}
	return "bash"
}

func (p *planner) system() {
	if p.doc.IsEnabled("system.command_line_tools") {
		p.step("command-line-tools", "Xcode Command Line Tools",
			`xcode-select -p >/dev/null 2>&1`,
			`xcode-select --install`)
	}
	for _, tap := range p.doc.GetStringList("system.taps") {
		p.add(model.DesiredItem{Category: model.CategoryTap, Identifier: tap})
	}
	for _, name := range p.doc.GetStringList("system.formulae") {
		p.formula(name)
	}
}

func (p *planner) identity() {
	if p.doc.IsEnabled("identity.github_cli") {
		p.add(model.DesiredItem{Category: model.CategoryFormula, Identifier: "gh", Label: "GitHub CLI"})
	}

	if p.doc.IsEnabled("identity.github_auth") {
		token := p.settings.TokenEnv
		p.step("github-auth", "GitHub authentication",
			`gh auth status >/dev/null 2>&1`,
			fmt.Sprintf(`test -n "$%[1]s" || { echo "%[1]s is not set" >&2; exit 1; }; printf '%%s\n' "$%[1]s" | gh auth login --with-token`, token))
	}

	git := p.doc.GetMap("identity.git")
	for _, key := range []string{"name", "email"} {
		value := stringField(git, key)
		if value == "" {
			continue
		}
		quoted := internalexec.Quote(value)
		p.step("git-user-"+key, "git user."+key,
			fmt.Sprintf(`test "$(git config --global user.%s)" = %s`, key, quoted),
			fmt.Sprintf(`git config --global user.%s %s`, key, quoted))
	}

	if p.doc.IsEnabled("identity.ssh_key") {
		ssh := p.doc.GetMap("identity.ssh_key")
		keyType := stringField(ssh, "type")
		if keyType == "" {
			keyType = "ed25519"
		}
		// An explicit empty comment is kept; only an absent one falls back to the git email.
		comment := stringField(git, "email")
		if p.doc.Has("identity.ssh_key.comment") {
			comment = stringField(ssh, "comment")
		}
		keyPath := fmt.Sprintf(`"$HOME/.ssh/id_%s"`, keyType)
		p.step("ssh-key", "SSH key ("+keyType+")",
			fmt.Sprintf(`test -f %s`, keyPath),
			fmt.Sprintf(`mkdir -p "$HOME/.ssh" && ssh-keygen -q -t %s -C %s -N '' -f %s`, internalexec.Quote(keyType), internalexec.Quote(comment), keyPath))

		if p.doc.GetBool("identity.ssh_key.upload", false) {
			pub := fmt.Sprintf(`"$HOME/.ssh/id_%s.pub"`, keyType)
			p.step("ssh-key-upload", "Upload SSH key to GitHub",
				fmt.Sprintf(`gh ssh-key list | grep -qF "$(cut -d' ' -f2 %s)"`, pub),
				fmt.Sprintf(`gh ssh-key add %s --title "$(hostname)"`, pub))
		}
	}
}

func (p *planner) languages() {
	if p.doc.IsEnabled("languages.node") {
		p.formula("nvm")
		p.profileLine(nvmDirLine)
		p.profileLine(nvmLoadLine)

		def := p.doc.GetString("languages.node.default", "")
		for _, v := range withDefault(p.doc.GetStringList("languages.node.versions"), def) {
			p.version("node", langver.ManagerNVM, v, v == def)
		}
		for _, pkg := range p.doc.GetStringList("languages.node.global_packages") {
			p.globalPackage(globalpkg.ManagerNPM, pkg)
		}
	}

	if p.doc.IsEnabled("languages.python") {
		p.formula("pyenv")
		p.profileLine(pyenvRootLine)
		p.profileLine(pyenvPathLine)
		p.profileLine(pyenvInitLine)

		global := p.doc.GetString("languages.python.global", "")
		for _, v := range withDefault(p.doc.GetStringList("languages.python.versions"), global) {
			p.version("python", langver.ManagerPyenv, v, v == global)
		}

		if p.doc.IsEnabled("languages.python.pipx") {
			p.formula("pipx")
			p.profileLine(localBinLine)
			for _, tool := range p.doc.GetStringList("languages.python.pipx_tools") {
				p.globalPackage(globalpkg.ManagerPipx, tool)
			}
		}
	}

	for _, e := range languageFormulae {
		if p.doc.IsEnabled("languages." + e.flag) {
			p.entry(e)
		}
	}
}

func (p *planner) version(lang, manager, version string, isDefault bool) {
	params := map[string]string{"manager": manager, "version": version}
	if isDefault {
		params["default"] = "true"
	}
	p.add(model.DesiredItem{
		Category:   model.CategoryLanguageVersion,
		Identifier: langver.Identifier(lang, version),
		Params:     params,
	})
}

func (p *planner) globalPackage(manager, pkg string) {
	p.add(model.DesiredItem{
		Category:   model.CategoryGlobalPackage,
		Identifier: globalpkg.Identifier(manager, pkg),
		Params:     map[string]string{"manager": manager, "package": pkg},
	})
}

func (p *planner) extras() {
	for _, name := range p.doc.GetStringList("extras.formulae") {
		p.formula(name)
	}
	for _, name := range p.doc.GetStringList("extras.casks") {
		p.cask(name)
	}

	for _, raw := range p.doc.GetList("extras.repos") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		url := stringField(m, "url")
		dest := stringField(m, "destination")
		if dest == "" && url != "" {
			dest = filepath.Join("~", "src", strings.TrimSuffix(filepath.Base(url), ".git"))
		}
		params := map[string]string{"url": url, "token_env": p.settings.TokenEnv}
		copyFields(params, m, "branch", "depth")
		p.add(model.DesiredItem{Category: model.CategoryGitRepo, Identifier: dest, Params: params})
	}

	for _, raw := range p.doc.GetList("extras.binaries") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		params := map[string]string{"token_env": p.settings.TokenEnv}
		copyFields(params, m, "repo", "tag", "url", "dir")
		p.add(model.DesiredItem{Category: model.CategoryReleaseBinary, Identifier: stringField(m, "name"), Params: params})
	}

	for _, raw := range p.doc.GetList("extras.dotfiles") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		params := map[string]string{"source": p.resolveSource(stringField(m, "source"))}
		copyFields(params, m, "force")
		p.add(model.DesiredItem{Category: model.CategorySymlink, Identifier: stringField(m, "target"), Params: params})
	}
}

// resolveSource anchors a relative dotfile source at the document's directory.
func (p *planner) resolveSource(source string) string {
	if source == "" || filepath.IsAbs(source) || strings.HasPrefix(source, "~") || p.doc.Path() == "" {
		return source
	}
	return filepath.Join(filepath.Dir(p.doc.Path()), source)
}

func (p *planner) ai() {
	p.catalog("ai")

	if p.doc.IsEnabled("ai.export_api_key") {
		name := p.settings.AIKeyEnv
		p.add(model.DesiredItem{
			Category:   model.CategoryProfileLine,
			Identifier: "export " + name,
			Label:      "Export " + name,
			Params:     map[string]string{"export_env": name},
		})
	}
}

func (p *planner) overrides() {
	for _, name := range p.doc.GetStringList("overrides.formulae") {
		p.formula(name)
	}
	for _, name := range p.doc.GetStringList("overrides.casks") {
		p.cask(name)
	}

	for _, raw := range p.doc.GetList("overrides.cask_any") {
		alts := stringList(raw)
		if len(alts) == 0 {
			continue
		}
		p.add(model.DesiredItem{Category: model.CategoryCaskAny, Identifier: alts[0], Alternatives: alts})
	}

	for _, line := range p.doc.GetStringList("overrides.profile_lines") {
		p.profileLine(line)
	}

	for _, raw := range p.doc.GetList("overrides.steps") {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(m, "name")
		p.step(name, name, stringField(m, "check"), stringField(m, "run"))
	}
}

func (p *planner) appStore() {
	if !p.doc.IsEnabled("app_store") {
		return
	}
	apps := p.doc.GetList("app_store.apps")
	if len(apps) == 0 {
		return
	}

	p.add(model.DesiredItem{Category: model.CategoryFormula, Identifier: "mas", Label: "Mac App Store CLI"})
	for _, raw := range apps {
		item := model.DesiredItem{Category: model.CategoryAppStoreApp}
		switch typed := raw.(type) {
		case map[string]any:
			item.Identifier = stringField(typed, "id")
			item.Label = stringField(typed, "name")
		default:
			item.Identifier = fmt.Sprint(typed)
		}
		p.add(item)
	}
}

// withDefault returns versions with def appended when it is set and missing.
func withDefault(versions []string, def string) []string {
	def = strings.TrimSpace(def)
	if def == "" {
		return versions
	}
	for _, v := range versions {
		if v == def {
			return versions
		}
	}
	return append(versions, def)
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func copyFields(dst map[string]string, src map[string]any, keys ...string) {
	for _, key := range keys {
		if v := stringField(src, key); v != "" {
			dst[key] = v
		}
	}
}

func stringList(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		if s, isString := raw.(string); isString && strings.TrimSpace(s) != "" {
			return []string{strings.TrimSpace(s)}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" && v != nil {
			out = append(out, s)
		}
	}
	return out
}
