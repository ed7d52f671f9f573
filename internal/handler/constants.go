package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixEdit is the suffix for edit routes.
	RouteSuffixEdit = "/edit"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = "/delete"
	// RouteSuffixReset is the suffix for password reset routes.
	RouteSuffixReset = "/reset"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"

	// RoutePages is the pages route.
	RoutePages = "/pages"
	// RoutePagesID is the pages ID route pattern.
	RoutePagesID = RoutePages + RouteParamID

	// RouteAdmin is the admin dashboard route.
	RouteAdmin = "/admin"
	// RouteAdminUsers is the users admin route.
	RouteAdminUsers = RouteAdmin + "/users"
	// RouteAdminUsersID is the users admin ID route pattern.
	RouteAdminUsersID = RouteAdminUsers + RouteParamID
	// RouteAdminPages is the all-pages admin route.
	RouteAdminPages = RouteAdmin + "/pages"
	// RouteAdminPagesID is the all-pages admin ID route pattern.
	RouteAdminPagesID = RouteAdminPages + RouteParamID
	// RouteAdminFooter is the footer settings admin route.
	RouteAdminFooter = RouteAdmin + "/footer"
	// RouteAdminFooterLinks is the footer links admin route.
	RouteAdminFooterLinks = RouteAdminFooter + "/links"
	// RouteAdminFooterLinksID is the footer links admin ID route pattern.
	RouteAdminFooterLinksID = RouteAdminFooterLinks + RouteParamID
)
