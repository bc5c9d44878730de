package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteSignup is the signup route.
	RouteSignup = "/signup"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteCreateEvent is the event creation route.
	RouteCreateEvent = "/create-event"
	// RouteBookID is the booking route pattern.
	RouteBookID = "/book/{id}"
	// RouteAdmin is the admin dashboard route.
	RouteAdmin = "/admin"
	// RouteAdminAdd is the admin event creation route, relative to RouteAdmin.
	RouteAdminAdd = "/add"
	// RouteAdminDeleteID is the admin event deletion route pattern, relative to RouteAdmin.
	RouteAdminDeleteID = "/delete/{id}"
)
