package router

import (
	"github.com/labstack/echo/v4"

	"github.com/rakeshreddymandala/humaneq-hr/internal/handler"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

// RegisterCompany registers interview scheduling and template management
// for companies.  Admins may use them too.
func RegisterCompany(e *echo.Echo, iv *handler.InterviewHandler, t *handler.TemplateHandler, g Guards) {
	grp := e.Group("/api", g.auth(model.RoleCompany, model.RoleAdmin)...)
	grp.GET("/interviews", iv.List)
	grp.POST("/interviews", iv.Create)

	grp.GET("/templates", t.List)
	grp.POST("/templates", t.Create)
	grp.POST("/templates/generate-questions", t.GenerateQuestions, g.limited()...)
}

// RegisterStudent registers the student portal and practice sessions.
func RegisterStudent(e *echo.Echo, s *handler.StudentHandler, sess *handler.SessionHandler, g Guards) {
	st := e.Group("/api/student", g.auth(model.RoleStudent)...)
	st.GET("/profile", s.Profile)
	st.PUT("/profile", s.UpdateProfile)
	st.GET("/analytics", s.Analytics)
	st.GET("/templates", s.Templates)

	pr := e.Group("/api/practice", g.auth(model.RoleStudent)...)
	pr.GET("/sessions", sess.ListPractice)
	pr.POST("/sessions", sess.StartPractice)
}

// RegisterGeneral registers the self-service candidate portal.
func RegisterGeneral(e *echo.Echo, sess *handler.SessionHandler, g Guards) {
	grp := e.Group("/api/general", g.auth(model.RoleGeneral)...)
	grp.GET("/templates", sess.GeneralTemplates)
	grp.GET("/interviews", sess.ListGeneral)
	grp.POST("/interviews", sess.StartGeneral)
}

// RegisterAdmin registers the admin portal.  Reporting reads go through
// the response cache.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, g Guards) {
	grp := e.Group("/api/admin", g.auth(model.RoleAdmin)...)
	cached := only(g.Cache)

	grp.GET("/companies", a.ListCompanies)
	grp.PATCH("/companies", a.UpdateQuota)
	grp.GET("/interviews", a.Interviews, cached...)
	grp.GET("/stats", a.Stats, cached...)
	grp.GET("/agents", a.Agents, cached...)

	grp.GET("/templates", a.ListTemplates)
	grp.POST("/templates", a.CreateTemplate)
	grp.GET("/templates/:id", a.GetTemplate)
	grp.PATCH("/templates/:id", a.UpdateTemplate)
	grp.DELETE("/templates/:id", a.DeleteTemplate)
}

// RegisterCandidate registers the unauthenticated endpoints a candidate
// reaches through an interview link.  The link token is the credential, so
// these routes are rate limited.
func RegisterCandidate(e *echo.Echo, iv *handler.InterviewHandler, m *handler.MediaHandler, g Guards) {
	grp := e.Group("/api/interviews/:id", g.limited()...)
	grp.GET("", iv.Get)
	grp.PATCH("", iv.Update)
	grp.GET("/signed-url", iv.SignedURL)
	grp.POST("/video", m.UploadVideo)
}
