package nav

// Named storefront routes the navigation reacts to. Any other path is
// treated as an ordinary page.
const (
	RouteHome           = "/"
	RouteShop           = "/shop"
	RouteSignIn         = "/signin"
	RouteSignUp         = "/signup"
	RouteForgotPassword = "/forgot_password"
	RouteCheckoutStep1  = "/checkout/step1"
	RouteCheckoutStep2  = "/checkout/step2"
	RouteCheckoutStep3  = "/checkout/step3"
)

// basketDisabledPaths is the ordered set of routes where the basket toggle is
// suppressed.
var basketDisabledPaths = [...]string{
	RouteCheckoutStep1,
	RouteCheckoutStep2,
	RouteCheckoutStep3,
	RouteSignIn,
	RouteSignUp,
	RouteForgotPassword,
}

// BasketDisabledPaths returns a copy of the disabled-path set in its fixed order.
func BasketDisabledPaths() []string {
	out := make([]string, len(basketDisabledPaths))
	copy(out, basketDisabledPaths[:])
	return out
}

// IsBasketDisabledPath reports whether path is one of the disabled paths.
func IsBasketDisabledPath(path string) bool {
	for _, p := range basketDisabledPaths {
		if p == path {
			return true
		}
	}
	return false
}
