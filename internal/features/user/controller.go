package user

import (
	"strconv"

	"issue-tracker/internal/common/api"
	"issue-tracker/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	UserService UserService
}

func NewUserController(userService UserService) *UserController {
	return &UserController{
		UserService: userService,
	}
}

// ListUsers godoc
// @Summary      List users
// @Description  Search, filter, sort and page through users
// @Tags         users
// @Produce      json
// @Param        keywords   query string false "Full-text search"
// @Param        role       query string false "Role name"
// @Param        maxAge     query int    false "Registered within N days"
// @Param        minAge     query int    false "Registered more than N days ago"
// @Param        sortBy     query string false "givenName|familyName|role|newest|oldest"
// @Param        pageSize   query int    false "Page size" default(5)
// @Param        pageNumber query int    false "Page number" default(1)
// @Success      200  {object} map[string]interface{}
// @Router       /users/list [get]
func (ctrl *UserController) ListUsers(c *fiber.Ctx) error {
	q := ListQuery{
		Keywords:   c.Query("keywords"),
		Role:       c.Query("role"),
		MaxAge:     c.QueryInt("maxAge"),
		MinAge:     c.QueryInt("minAge"),
		SortBy:     c.Query("sortBy"),
		PageSize:   queryInt64(c, "pageSize"),
		PageNumber: queryInt64(c, "pageNumber"),
	}

	users, total, err := ctrl.UserService.ListUsers(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"users": users,
		"total": total,
	})
}

func queryInt64(c *fiber.Ctx, key string) int64 {
	n, _ := strconv.ParseInt(c.Query(key), 10, 64)
	return n
}

// GetUser godoc
// @Summary      Get user by ID
// @Tags         users
// @Produce      json
// @Param        userId path string true "User ID"
// @Success      200  {object} User
// @Failure      404  {object} map[string]string
// @Router       /users/{userId} [get]
func (ctrl *UserController) GetUser(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "userId")
	if err != nil {
		return err
	}
	u, err := ctrl.UserService.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

func (ctrl *UserController) GetMe(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	u, err := ctrl.UserService.GetUser(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(u)
}

func (ctrl *UserController) UpdateMe(c *fiber.Ctx) error {
	var req ProfileUpdate
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	actor := middleware.Actor(c)
	u, err := ctrl.UserService.UpdateProfile(c.UserContext(), actor.UserID, req, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "User updated",
		"user":    u,
	})
}

// UpdateUser godoc
// @Summary      Update any user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userId path string      true "User ID"
// @Param        user   body AdminUpdate true "Fields to change"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]string
// @Router       /users/{userId} [put]
func (ctrl *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "userId")
	if err != nil {
		return err
	}
	var req AdminUpdate
	if err := api.ParseBody(c, &req); err != nil {
		return err
	}
	u, err := ctrl.UserService.AdminUpdate(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "User " + id.Hex() + " updated",
		"user":    u,
	})
}

func (ctrl *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := api.ObjectIDParam(c, "userId")
	if err != nil {
		return err
	}
	if err := ctrl.UserService.DeleteUser(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "User " + id.Hex() + " deleted",
	})
}
