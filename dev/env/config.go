package devenv

type PortalTestConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	// a course expected to show up on the landing page, for spot checks
	TargetCourse string `json:"target_course"`
}
