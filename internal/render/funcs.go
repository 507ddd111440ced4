package render

import (
	"html/template"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// FuncMap returns the template functions: sprig's HTML-safe set plus the
// site helpers. now is consulted by year.
func FuncMap(now func() time.Time) template.FuncMap {
	funcs := sprig.HtmlFuncMap()

	funcs["year"] = func() int {
		return now().Year()
	}

	// active marks the navigation entry for the current path. The home link
	// only matches exactly; other links also match their sub-paths.
	funcs["active"] = func(current, link string) string {
		if link == "/" {
			if current == "/" {
				return "active"
			}
			return ""
		}
		if current == link || strings.HasPrefix(current, link+"/") {
			return "active"
		}
		return ""
	}

	return funcs
}
