package web

import (
	"strings"

	"github.com/project-campus/campus/internal/authclient"
	"github.com/project-campus/campus/internal/i18n"
	"github.com/project-campus/campus/internal/signup"
)

const layout = "layouts/main"

// base carries what every page needs: language, strings and chrome.
type base struct {
	AppName   string
	Title     string
	BodyClass string
	Lang      string
	Dir       string
	Path      string
	Languages []i18n.Language
	T         i18n.Table
	Error     string
	Notice    string
}

type loginPage struct {
	base
	Username string
	User     *authclient.User
}

type signupPage struct {
	base
	Step int
	Form signup.Form
}

type simplePage struct {
	base
	Username string
	Email    string
}

type errorPage struct {
	base
	Status int
}

func (h *Handler) page(lang, path, section string) base {
	root := i18n.Lookup(lang)
	t := root.Section(section)
	return base{
		AppName:   h.appName,
		Title:     t.Get("title"),
		BodyClass: strings.ReplaceAll(strings.ToLower(section), ".", "-"),
		Lang:      lang,
		Dir:       i18n.Dir(lang),
		Path:      path,
		Languages: i18n.Supported(),
		T:         t,
	}
}
