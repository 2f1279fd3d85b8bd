package view

import "html/template"

// FuncMap exposes the helpers to html/template. Each function takes the
// Context as its only argument, e.g. {{ pageTitle .View }}.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"pageCode":      CurrentPageCode,
		"pageTitle":     CurrentPageTitle,
		"pageSubtitle":  CurrentPageSubtitle,
		"isCurrentTalk": HasCurrentTalk,
		"currentTalk":   CurrentTalkData,
		"isPrintPage":   IsPrintPage,
	}
}
