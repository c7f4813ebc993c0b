package handlers

// Handlers groups the HTTP endpoints for bootcamps, courses, reviews, users,
// and auth. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	bootcampSvc  BootcampService
	courseSvc    CourseService
	reviewSvc    ReviewService
	userSvc      UserService
	authSvc      AuthService
	apiBasePath  string
	cookieMaxAge int
}

// New constructs a Handlers instance bound to the given services. apiBasePath
// is the mount point of the API ("/api/v1" by default), used when handlers
// build absolute URLs such as the password-reset link. cookieMaxAge is the
// lifetime, in seconds, of the token cookie set on login responses.
func New(b BootcampService, co CourseService, r ReviewService, u UserService, a AuthService, apiBasePath string, cookieMaxAge int) *Handlers {
	return &Handlers{bootcampSvc: b, courseSvc: co, reviewSvc: r, userSvc: u, authSvc: a, apiBasePath: apiBasePath, cookieMaxAge: cookieMaxAge}
}
