package bug

import (
	"issue-tracker/internal/features/permission"
	"issue-tracker/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type BugApi struct {
	controller *BugController
	auth       *middleware.Authenticator
	gate       *middleware.Gate
}

func NewBugApi(controller *BugController, auth *middleware.Authenticator, gate *middleware.Gate) *BugApi {
	return &BugApi{
		controller: controller,
		auth:       auth,
		gate:       gate,
	}
}

// Setup registers all bug routes
func (h *BugApi) Setup(app *fiber.App) {
	bugs := app.Group("/api/bugs", h.auth.Handler())
	owners := h.controller.LoadOwners

	bugs.Get("/list", h.gate.Require(permission.ViewBugs, nil), h.controller.ListBugs)
	bugs.Get("/export", h.gate.Require(permission.ViewBugs, nil), h.controller.ExportBugs)
	bugs.Post("/new", h.gate.Require(permission.CreateBugs, nil), h.controller.CreateBug)

	bugs.Get("/:bugId", h.gate.Require(permission.ViewBugs, nil), h.controller.GetBug)
	bugs.Put("/:bugId", h.gate.Require(permission.UpdateBug, owners), h.controller.UpdateBug)
	bugs.Put("/:bugId/classify", h.gate.Require(permission.ClassifyBug, owners), h.controller.ClassifyBug)
	bugs.Put("/:bugId/assign", h.gate.Require(permission.AssignBug, owners), h.controller.AssignBug)
	bugs.Put("/:bugId/close", h.gate.Require(permission.CloseBug, nil), h.controller.CloseBug)

	// Comments
	bugs.Post("/:bugId/comment/new", h.gate.Require(permission.CommentBug, nil), h.controller.AddComment)
	bugs.Get("/:bugId/comment/list", h.gate.Require(permission.ViewBugs, nil), h.controller.ListComments)
	bugs.Get("/:bugId/comment/:commentId", h.gate.Require(permission.ViewBugs, nil), h.controller.GetComment)

	// Test cases
	bugs.Put("/:bugId/test/new", h.gate.Require(permission.AddTest, nil), h.controller.AddTestCase)
	bugs.Get("/:bugId/test/list", h.gate.Require(permission.ViewBugs, nil), h.controller.ListTestCases)
	bugs.Get("/:bugId/test/:testId", h.gate.Require(permission.ViewBugs, nil), h.controller.GetTestCase)
	bugs.Put("/:bugId/test/:testId", h.gate.Require(permission.EditTest, nil), h.controller.UpdateTestCase)
	bugs.Delete("/:bugId/test/:testId", h.gate.Require(permission.DeleteTest, nil), h.controller.DeleteTestCase)
}
