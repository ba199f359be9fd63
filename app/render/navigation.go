package render

import (
	"github.com/lysyi3m/edgeboard/app/content"
)

const (
	TargetBlank = "_blank"
	TargetSelf  = "_self"
)

// Navigation is where activating a card goes.
type Navigation struct {
	Href     string
	Target   string
	External bool
}

// NavigationFor decides how a card href opens: absolute http(s) URLs in a
// new browsing context, everything else in place.
func NavigationFor(href string) Navigation {
	if content.IsExternal(href) {
		return Navigation{Href: href, Target: TargetBlank, External: true}
	}
	return Navigation{Href: href, Target: TargetSelf}
}
