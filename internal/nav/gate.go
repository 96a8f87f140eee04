package nav

// GateDecisions controls which optional navigation regions are visible or
// enabled for one render.
type GateDecisions struct {
	BasketToggleEnabled  bool
	ShowSearchAndFilters bool
	ShowSignUpLink       bool
	ShowSignInLink       bool
	ShowUserAvatar       bool
	LinksClickable       bool
}

// routeRule is the per-route part of a gate decision. Authentication-dependent
// fields are resolved in Evaluate.
type routeRule struct {
	basketDisabled bool
	searchVisible  bool
	signUpLink     bool // shown to anonymous visitors
	signInLink     bool // shown to anonymous visitors
}

// defaultRule applies to every path missing from routeRules.
var defaultRule = routeRule{}

var routeRules = map[string]routeRule{
	RouteHome:           {searchVisible: true, signUpLink: true, signInLink: true},
	RouteSignIn:         {basketDisabled: true, signUpLink: true},
	RouteSignUp:         {basketDisabled: true, signInLink: true},
	RouteForgotPassword: {basketDisabled: true, signInLink: true},
	RouteCheckoutStep1:  {basketDisabled: true},
	RouteCheckoutStep2:  {basketDisabled: true},
	RouteCheckoutStep3:  {basketDisabled: true},
}

func ruleFor(path string) routeRule {
	if r, ok := routeRules[path]; ok {
		return r
	}
	return defaultRule
}

// Evaluate computes the gate decisions for path. It is a pure function of its
// inputs; nothing is remembered between calls.
func Evaluate(path string, isAuthenticated, isAuthenticating bool) GateDecisions {
	rule := ruleFor(path)

	d := GateDecisions{
		BasketToggleEnabled:  !rule.basketDisabled,
		ShowSearchAndFilters: rule.searchVisible,
		LinksClickable:       !isAuthenticating,
		ShowUserAvatar:       isAuthenticated,
	}
	if !isAuthenticated {
		d.ShowSignUpLink = rule.signUpLink
		d.ShowSignInLink = rule.signInLink
	}
	return d
}
