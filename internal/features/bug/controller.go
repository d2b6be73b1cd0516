package bug

import (
	"bytes"
	"strconv"

	"issue-tracker/internal/common/api"
	"issue-tracker/internal/common/errs"
	"issue-tracker/internal/features/permission"
	"issue-tracker/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type BugController struct {
	BugService BugService
	Exporter   *Exporter
	Log        *zap.Logger
}

func NewBugController(bugService BugService, exporter *Exporter, log *zap.Logger) *BugController {
	return &BugController{
		BugService: bugService,
		Exporter:   exporter,
		Log:        log,
	}
}

type ClassifyRequest struct {
	Classification string `json:"classification"`
}

type AssignRequest struct {
	AssignedToUserID   string `json:"assignedToUserId"`
	AssignedToUserName string `json:"assignedToUserName"`
}

type CloseRequest struct {
	Closed *bool `json:"closed"`
}

type CommentRequest struct {
	Comment string `json:"comment"`
}

func listQuery(c *fiber.Ctx) (ListQuery, error) {
	q := ListQuery{
		Keywords:       c.Query("keywords"),
		Classification: c.Query("classification"),
		MaxAge:         c.QueryInt("maxAge"),
		MinAge:         c.QueryInt("minAge"),
		SortBy:         c.Query("sortBy"),
	}
	q.PageSize, _ = strconv.ParseInt(c.Query("pageSize"), 10, 64)
	q.PageNumber, _ = strconv.ParseInt(c.Query("pageNumber"), 10, 64)
	if raw := c.Query("closed"); raw != "" {
		closed, err := strconv.ParseBool(raw)
		if err != nil {
			return q, errs.Validation("closed must be true or false")
		}
		q.Closed = &closed
	}
	return q, nil
}

// ListBugs godoc
// @Summary      List bugs
// @Description  Search, filter, sort and page through bugs
// @Tags         bugs
// @Produce      json
// @Param        keywords       query string false "Full-text search"
// @Param        classification query string false "Low|Medium|High|Critical|unclassified"
// @Param        maxAge         query int    false "Created within N days"
// @Param        minAge         query int    false "Created more than N days ago"
// @Param        closed         query bool   false "Closed flag"
// @Param        sortBy         query string false "newest|oldest|title|classification|assignedTo|createdBy"
// @Param        pageSize       query int    false "Page size" default(5)
// @Param        pageNumber     query int    false "Page number" default(1)
// @Success      200  {object} map[string]interface{}
// @Router       /bugs/list [get]
func (ctrl *BugController) ListBugs(c *fiber.Ctx) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	bugs, total, err := ctrl.BugService.ListBugs(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"bugs":  bugs,
		"total": total,
	})
}

// ExportBugs streams the filtered list as an xlsx workbook.
func (ctrl *BugController) ExportBugs(c *fiber.Ctx) error {
	q, err := listQuery(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := ctrl.Exporter.WriteXLSX(c.UserContext(), q, &buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment(exportFilename(ctrl.Exporter.now()))
	return c.Send(buf.Bytes())
}

// GetBug godoc
// @Summary      Get bug by ID
// @Tags         bugs
// @Produce      json
// @Param        bugId path string true "Bug ID"
// @Success      200  {object} Bug
// @Failure      404  {object} map[string]string
// @Router       /bugs/{bugId} [get]
func (ctrl *BugController) GetBug(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	b, err := ctrl.BugService.GetBug(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(b)
}

// CreateBug godoc
// @Summary      Report a bug
// @Tags         bugs
// @Accept       json
// @Produce      json
// @Param        bug body NewBugInput true "Bug details"
// @Success      201  {object} map[string]interface{}
// @Failure      400  {object} map[string]string
// @Failure      403  {object} map[string]string
// @Router       /bugs/new [post]
func (ctrl *BugController) CreateBug(c *fiber.Ctx) error {
	var req NewBugInput
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	b, err := ctrl.BugService.CreateBug(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "New bug reported",
		"bugId":   b.ID.Hex(),
		"bug":     b,
	})
}

func (ctrl *BugController) UpdateBug(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	var req BugPatch
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	b, err := ctrl.BugService.UpdateBug(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Bug " + id.Hex() + " updated", "bug": b})
}

func (ctrl *BugController) ClassifyBug(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	var req ClassifyRequest
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	b, err := ctrl.BugService.ClassifyBug(c.UserContext(), id, req.Classification, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Bug " + id.Hex() + " classified as " + string(b.Classification), "bug": b})
}

func (ctrl *BugController) AssignBug(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	var req AssignRequest
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	if req.AssignedToUserID == "" {
		return errs.Validation("assignedToUserId is required")
	}
	assignee, err := primitive.ObjectIDFromHex(req.AssignedToUserID)
	if err != nil {
		return errs.Validation("assignedToUserId is not a valid id")
	}
	b, err := ctrl.BugService.AssignBug(c.UserContext(), id, assignee, req.AssignedToUserName, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Bug " + id.Hex() + " assigned to " + b.AssignedToUserName, "bug": b})
}

func (ctrl *BugController) CloseBug(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	var req CloseRequest
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	if req.Closed == nil {
		return errs.Validation("closed is required")
	}
	b, changed, err := ctrl.BugService.CloseBug(c.UserContext(), id, *req.Closed, middleware.Actor(c))
	if err != nil {
		return err
	}

	if !changed {
		ctrl.Log.Debug("close request changed nothing", zap.String("bugId", id.Hex()), zap.Bool("closed", *req.Closed))
	}

	msg := "Bug " + id.Hex() + " closed"
	switch {
	case !*req.Closed && changed:
		msg = "Bug " + id.Hex() + " reopened"
	case !changed && *req.Closed:
		msg = "Bug " + id.Hex() + " was already closed"
	case !changed:
		msg = "Bug " + id.Hex() + " was already open"
	}
	return c.JSON(fiber.Map{"message": msg, "bug": b})
}

func (ctrl *BugController) AddComment(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	var req CommentRequest
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	comment, err := ctrl.BugService.AddComment(c.UserContext(), id, req.Comment, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Comment added", "comment": comment})
}

func (ctrl *BugController) ListComments(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	comments, err := ctrl.BugService.ListComments(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(comments)
}

func (ctrl *BugController) GetComment(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	commentID, err := api.ObjectIDParam(c, "commentId")
	if err != nil {
		return err
	}
	comment, err := ctrl.BugService.GetComment(c.UserContext(), id, commentID)
	if err != nil {
		return err
	}
	return c.JSON(comment)
}

func (ctrl *BugController) AddTestCase(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	var req TestCasePatch
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	tc, err := ctrl.BugService.AddTestCase(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Test case added", "testCase": tc})
}

func (ctrl *BugController) ListTestCases(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	cases, err := ctrl.BugService.ListTestCases(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(cases)
}

func (ctrl *BugController) GetTestCase(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	testID, err := api.ObjectIDParam(c, "testId")
	if err != nil {
		return err
	}
	tc, err := ctrl.BugService.GetTestCase(c.UserContext(), id, testID)
	if err != nil {
		return err
	}
	return c.JSON(tc)
}

func (ctrl *BugController) UpdateTestCase(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	testID, err := api.ObjectIDParam(c, "testId")
	if err != nil {
		return err
	}
	var req TestCasePatch
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	tc, err := ctrl.BugService.UpdateTestCase(c.UserContext(), id, testID, req, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Test case " + testID.Hex() + " updated", "testCase": tc})
}

func (ctrl *BugController) DeleteTestCase(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return err
	}
	testID, err := api.ObjectIDParam(c, "testId")
	if err != nil {
		return err
	}
	if err := ctrl.BugService.DeleteTestCase(c.UserContext(), id, testID, middleware.Actor(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Test case " + testID.Hex() + " deleted"})
}

// LoadOwners feeds the permission gate for ownership-bound grants.
func (ctrl *BugController) LoadOwners(c *fiber.Ctx) (*permission.Resource, error) {
	id, err := api.ObjectIDParam(c, "bugId")
	if err != nil {
		return nil, err
	}
	return ctrl.BugService.Owners(c.UserContext(), id)
}
